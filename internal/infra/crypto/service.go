package crypto

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/Liamhigh/Verumlast/internal/domain"
)

// SignatureAlg names the manifest signature scheme: ECDSA over P-256 on the
// SHA-256 of the canonical manifest bytes, ASN.1 DER encoded.
const SignatureAlg = "ecdsa-p256-sha256"

type Service struct{}

func NewService() *Service {
	return &Service{}
}

// CanonicalizeManifest produces the byte sequence signatures are computed
// over. Any compliant verifier, in any language, must reproduce these exact
// bytes from the same logical manifest.
func (s *Service) CanonicalizeManifest(manifest domain.Manifest) ([]byte, error) {
	return CanonicalizeAny(buildManifestPayload(manifest))
}

func (s *Service) CanonicalizeAny(payload any) ([]byte, error) {
	return CanonicalizeAny(payload)
}

// SignCanonical signs already-canonicalized manifest bytes with the supplied
// private key and wraps the result in a Signature value.
func (s *Service) SignCanonical(canonical []byte, key *ecdsa.PrivateKey) (domain.Signature, error) {
	if key == nil {
		return domain.Signature{}, errors.New("private key is required")
	}
	raw, err := SignPayload(key, canonical)
	if err != nil {
		return domain.Signature{}, err
	}
	return domain.Signature{
		Alg:   SignatureAlg,
		Value: base64.StdEncoding.EncodeToString(raw),
	}, nil
}

// VerifyManifest checks sig against manifest under the PEM-encoded public
// key. A well-formed but non-matching input returns (false, nil); only
// structurally malformed input (unparsable key) returns an error.
func (s *Service) VerifyManifest(manifest domain.Manifest, sig domain.Signature, publicKeyPEM string) (bool, error) {
	pubKey, err := ParsePublicKeyPEM(publicKeyPEM)
	if err != nil {
		return false, err
	}
	if sig.Alg != "" && sig.Alg != SignatureAlg {
		return false, nil
	}
	sigBytes, err := base64.StdEncoding.DecodeString(sig.Value)
	if err != nil || len(sigBytes) == 0 {
		return false, nil
	}
	canonical, err := s.CanonicalizeManifest(manifest)
	if err != nil {
		return false, err
	}
	digest := sha256.Sum256(canonical)
	return ecdsa.VerifyASN1(pubKey, digest[:], sigBytes), nil
}

// SignPayload signs the SHA-256 of payload and returns the raw DER signature.
func SignPayload(key *ecdsa.PrivateKey, payload []byte) ([]byte, error) {
	if key == nil {
		return nil, errors.New("private key is required")
	}
	digest := sha256.Sum256(payload)
	sig, err := ecdsa.SignASN1(rand.Reader, key, digest[:])
	if err != nil {
		return nil, fmt.Errorf("ecdsa sign: %w", err)
	}
	return sig, nil
}

// ParsePublicKeyPEM decodes an SPKI PEM block into an ECDSA public key.
// Failures wrap domain.ErrInvalidPublicKey so callers can distinguish bad
// key material from other faults.
func ParsePublicKeyPEM(publicKeyPEM string) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil || block.Type != "PUBLIC KEY" {
		return nil, fmt.Errorf("%w: not a PUBLIC KEY PEM block", domain.ErrInvalidPublicKey)
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPublicKey, err)
	}
	pubKey, ok := parsed.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an ECDSA key", domain.ErrInvalidPublicKey)
	}
	return pubKey, nil
}

type manifestPayload struct {
	Version            string               `json:"version"`
	ManifestID         string               `json:"manifest_id"`
	SealedAtUTC        string               `json:"sealed_at_utc"`
	DevicePublicKeyPEM string               `json:"device_public_key_pem"`
	DeviceFingerprint  string               `json:"device_fingerprint"`
	Evidence           []domain.EvidenceRef `json:"evidence"`
	Geolocation        domain.Geolocation   `json:"geolocation"`
}

func buildManifestPayload(manifest domain.Manifest) manifestPayload {
	evidence := manifest.Evidence
	if evidence == nil {
		evidence = []domain.EvidenceRef{}
	}
	return manifestPayload{
		Version:            manifest.Version,
		ManifestID:         manifest.ManifestID,
		SealedAtUTC:        manifest.SealedAtUTC,
		DevicePublicKeyPEM: manifest.DevicePublicKeyPEM,
		DeviceFingerprint:  manifest.DeviceFingerprint,
		Evidence:           evidence,
		Geolocation:        manifest.Geolocation,
	}
}
