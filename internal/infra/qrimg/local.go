// Package qrimg turns the verification payload into a scannable PNG. The
// image is decorative with respect to sealing correctness: providers may
// fail and the renderer degrades to a placeholder.
package qrimg

import (
	"context"

	qrcode "github.com/skip2/go-qrcode"
)

// Provider encodes a UTF-8 payload string as PNG image bytes.
type Provider interface {
	Encode(ctx context.Context, payload string) ([]byte, error)
}

// Local encodes payloads in-process. It is the offline default.
type Local struct {
	Size int
}

func NewLocal() *Local {
	return &Local{Size: 256}
}

func (l *Local) Encode(_ context.Context, payload string) ([]byte, error) {
	size := l.Size
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(payload, qrcode.Medium, size)
}
