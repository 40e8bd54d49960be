package usecase

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Liamhigh/Verumlast/internal/domain"
	cryptoinfra "github.com/Liamhigh/Verumlast/internal/infra/crypto"
)

type FileInput struct {
	Name      string
	MediaType string
	Bytes     []byte
}

type SealReportRequest struct {
	Narrative   string
	Files       []FileInput
	Geolocation domain.Geolocation
	// Now is the seal timestamp. Zero means wall-clock time; tests supply a
	// fixed instant for reproducible documents.
	Now time.Time
}

// SealReport runs the sealing pipeline: digest evidence, acquire the session
// key, build and sign the canonical manifest, render the certified document,
// stamp it. The operation is all-or-nothing: any fatal stage error aborts the
// seal and no partial artifact is returned. Only the verification image is
// allowed to fail, degrading to a placeholder.
type SealReport struct {
	Keys     domain.KeyManager
	Crypto   CryptoService
	Renderer DocumentRenderer
	Imager   PayloadImager        // optional
	Policy   SealPolicy           // optional
	Records  SealRecordRepository // optional
}

type verificationPayload struct {
	ManifestID        string `json:"manifest_id"`
	DeviceFingerprint string `json:"device_fingerprint"`
}

func (uc *SealReport) Execute(ctx context.Context, req SealReportRequest) (*domain.SealedReport, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if req.Geolocation.Status == "" {
		req.Geolocation = domain.GeolocationNone()
	}

	if uc.Policy != nil {
		decision, err := uc.Policy.Evaluate(ctx, policyInput(req))
		if err != nil {
			return nil, fmt.Errorf("evaluate seal policy: %w", err)
		}
		if !decision.Allow {
			return nil, fmt.Errorf("%w: %s", domain.ErrPolicyDenied, strings.Join(decision.Reasons, "; "))
		}
	}

	// Evidence digests have no ordering dependency between files; key
	// acquisition is independent of digesting. Both must be complete before
	// the manifest is built.
	evidence := make([]domain.EvidenceRef, len(req.Files))
	var wg sync.WaitGroup
	for i, file := range req.Files {
		wg.Add(1)
		go func(i int, file FileInput) {
			defer wg.Done()
			evidence[i] = domain.EvidenceRef{
				FileName: file.Name,
				Digest:   cryptoinfra.Digest(file.Bytes),
			}
		}(i, file)
	}

	var (
		publicKeyPEM string
		fingerprint  string
		keyErr       error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		publicKeyPEM, keyErr = uc.Keys.PublicKeyPEM(ctx)
		if keyErr != nil {
			return
		}
		fingerprint, keyErr = uc.Keys.Fingerprint(ctx)
	}()
	wg.Wait()
	if keyErr != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCryptoFailure, keyErr)
	}

	manifestID, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCryptoFailure, err)
	}
	sealedAt := req.Now
	if sealedAt.IsZero() {
		sealedAt = time.Now()
	}
	sealedAt = sealedAt.UTC().Truncate(time.Second)

	manifest := domain.Manifest{
		Version:            domain.ManifestVersion,
		ManifestID:         manifestID.String(),
		SealedAtUTC:        sealedAt.Format(time.RFC3339),
		DevicePublicKeyPEM: publicKeyPEM,
		DeviceFingerprint:  fingerprint,
		Evidence:           evidence,
		Geolocation:        req.Geolocation,
	}

	canonical, err := uc.Crypto.CanonicalizeManifest(manifest)
	if err != nil {
		return nil, fmt.Errorf("canonicalize manifest: %w", err)
	}
	rawSig, err := uc.Keys.Sign(ctx, canonical)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCryptoFailure, err)
	}
	signature := domain.Signature{
		Alg:   cryptoinfra.SignatureAlg,
		Value: base64.StdEncoding.EncodeToString(rawSig),
	}

	qrImage := uc.fetchVerificationImage(ctx, manifest)

	documentBytes, pageCount, err := uc.Renderer.RenderDocument(req.Narrative, manifest, signature, sealedAt, qrImage)
	if err != nil {
		return nil, err
	}

	report := &domain.SealedReport{
		Narrative:      req.Narrative,
		Manifest:       manifest,
		Signature:      signature,
		DocumentBytes:  documentBytes,
		DocumentDigest: cryptoinfra.Digest(documentBytes),
		PageCount:      pageCount,
	}

	if uc.Records != nil {
		record := domain.SealRecord{
			ManifestID:        manifest.ManifestID,
			DeviceFingerprint: manifest.DeviceFingerprint,
			DocumentDigest:    report.DocumentDigest,
			PageCount:         report.PageCount,
			EvidenceCount:     len(manifest.Evidence),
			SealedAtUTC:       manifest.SealedAtUTC,
		}
		if err := uc.Records.Create(ctx, record); err != nil {
			return nil, fmt.Errorf("record seal: %w", err)
		}
	}
	return report, nil
}

// fetchVerificationImage never fails the seal: an unreachable imager yields a
// nil image and the renderer draws a placeholder.
func (uc *SealReport) fetchVerificationImage(ctx context.Context, manifest domain.Manifest) []byte {
	if uc.Imager == nil {
		return nil
	}
	payload, err := uc.Crypto.CanonicalizeAny(verificationPayload{
		ManifestID:        manifest.ManifestID,
		DeviceFingerprint: manifest.DeviceFingerprint,
	})
	if err != nil {
		return nil
	}
	image, err := uc.Imager.Encode(ctx, string(payload))
	if err != nil {
		return nil
	}
	return image
}

func policyInput(req SealReportRequest) domain.PolicyInput {
	mediaTypes := make([]string, 0, len(req.Files))
	var totalBytes int64
	for _, file := range req.Files {
		mediaTypes = append(mediaTypes, file.MediaType)
		totalBytes += int64(len(file.Bytes))
	}
	return domain.PolicyInput{
		EvidenceCount:     len(req.Files),
		MediaTypes:        mediaTypes,
		TotalBytes:        totalBytes,
		GeolocationStatus: string(req.Geolocation.Status),
	}
}

func validateRequest(req SealReportRequest) error {
	if len(req.Files) == 0 {
		return domain.ErrNoEvidence
	}
	for _, file := range req.Files {
		if file.Name == "" {
			return fmt.Errorf("%w: evidence file name is required", domain.ErrInvalidManifest)
		}
	}
	return nil
}
