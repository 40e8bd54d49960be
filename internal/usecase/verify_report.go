package usecase

import (
	"context"
	"crypto/subtle"

	"github.com/Liamhigh/Verumlast/internal/domain"
	cryptoinfra "github.com/Liamhigh/Verumlast/internal/infra/crypto"
)

type VerifyReportRequest struct {
	Manifest     domain.Manifest
	Signature    domain.Signature
	PublicKeyPEM string
	// DocumentBytes and DocumentDigest are optional; when both are supplied
	// the out-of-band integrity stamp is checked too.
	DocumentBytes  []byte
	DocumentDigest string
}

type VerifyReportResponse struct {
	SignatureValid   bool
	FingerprintValid bool
	DocumentValid    *bool
	ManifestID       string
}

// VerifyReport is the symmetric check an offline reviewer runs: recompute the
// canonical manifest serialization and verify the signature against the
// declared public key. "Does not verify" is a negative result, not an error.
type VerifyReport struct {
	Crypto CryptoService
}

func (uc *VerifyReport) Execute(_ context.Context, req VerifyReportRequest) (*VerifyReportResponse, error) {
	publicKeyPEM := req.PublicKeyPEM
	if publicKeyPEM == "" {
		publicKeyPEM = req.Manifest.DevicePublicKeyPEM
	}

	valid, err := uc.Crypto.VerifyManifest(req.Manifest, req.Signature, publicKeyPEM)
	if err != nil {
		return nil, err
	}

	resp := &VerifyReportResponse{
		SignatureValid:   valid,
		FingerprintValid: constantTimeEqual(req.Manifest.DeviceFingerprint, cryptoinfra.Digest([]byte(publicKeyPEM))),
		ManifestID:       req.Manifest.ManifestID,
	}

	if len(req.DocumentBytes) > 0 && req.DocumentDigest != "" {
		match := constantTimeEqual(req.DocumentDigest, cryptoinfra.Digest(req.DocumentBytes))
		resp.DocumentValid = &match
	}
	return resp, nil
}

func constantTimeEqual(a, b string) bool {
	return len(a) == len(b) && subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
