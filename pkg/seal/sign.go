package seal

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/Liamhigh/Verumlast/internal/domain"
	cryptoinfra "github.com/Liamhigh/Verumlast/internal/infra/crypto"
)

// GenerateKeyPair creates a fresh P-256 signing key pair.
func GenerateKeyPair() (*ecdsa.PrivateKey, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key pair: %w", err)
	}
	return key, nil
}

// ExportPublicKeyPEM encodes the public key as SPKI PEM, base64 wrapped at
// 64 columns with the standard header and footer.
func ExportPublicKeyPEM(key *ecdsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return "", fmt.Errorf("encode public key: %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}

// SignManifest canonicalizes the manifest and signs it. The returned
// signature is bound to exactly this manifest; any field change requires
// re-signing.
func SignManifest(manifest domain.Manifest, key *ecdsa.PrivateKey) (domain.Signature, error) {
	if err := ValidateManifest(manifest); err != nil {
		return domain.Signature{}, err
	}
	service := cryptoinfra.NewService()
	canonical, err := service.CanonicalizeManifest(manifest)
	if err != nil {
		return domain.Signature{}, err
	}
	return service.SignCanonical(canonical, key)
}
