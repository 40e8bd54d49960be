package seal

import (
	"github.com/Liamhigh/Verumlast/internal/domain"
	cryptoinfra "github.com/Liamhigh/Verumlast/internal/infra/crypto"
)

// VerifyManifest checks the signature over the manifest's canonical
// serialization against the PEM public key. Wrong key, altered manifest or
// corrupted signature bytes all return (false, nil); only a malformed public
// key is an error.
func VerifyManifest(manifest domain.Manifest, sig domain.Signature, publicKeyPEM string) (bool, error) {
	return cryptoinfra.NewService().VerifyManifest(manifest, sig, publicKeyPEM)
}

// Digest is the engine's digest primitive: lowercase hex SHA-512. Reviewers
// use it to recompute evidence digests and the document stamp.
func Digest(b []byte) string {
	return cryptoinfra.Digest(b)
}

// Fingerprint derives the pseudonymous device identity from an exported
// public key.
func Fingerprint(publicKeyPEM string) string {
	return cryptoinfra.Digest([]byte(publicKeyPEM))
}
