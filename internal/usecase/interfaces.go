package usecase

import (
	"context"
	"time"

	"github.com/Liamhigh/Verumlast/internal/domain"
)

type CryptoService interface {
	CanonicalizeManifest(manifest domain.Manifest) ([]byte, error)
	CanonicalizeAny(payload any) ([]byte, error)
	VerifyManifest(manifest domain.Manifest, sig domain.Signature, publicKeyPEM string) (bool, error)
}

// DocumentRenderer lays out the certified document. generatedAt is supplied
// by the caller so rendering stays a pure function of its inputs.
type DocumentRenderer interface {
	RenderDocument(narrative string, manifest domain.Manifest, sig domain.Signature, generatedAt time.Time, qrImage []byte) (documentBytes []byte, pageCount int, err error)
}

// PayloadImager turns the verification payload into a scannable PNG.
// Optional: a failing imager degrades the seal to a placeholder image.
type PayloadImager interface {
	Encode(ctx context.Context, payload string) ([]byte, error)
}

// SealPolicy admits or denies a seal request. Optional: absent means allow.
type SealPolicy interface {
	Evaluate(ctx context.Context, input domain.PolicyInput) (domain.PolicyDecision, error)
}

// SealRecordRepository persists the trace of an issued seal. Optional.
type SealRecordRepository interface {
	Create(ctx context.Context, record domain.SealRecord) error
}
