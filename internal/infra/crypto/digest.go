package crypto

import (
	"crypto/sha512"
	"encoding/hex"
)

// DigestAlg names the digest scheme used for evidence files, device
// fingerprints and document stamps.
const DigestAlg = "sha512"

// Digest returns the lowercase hex SHA-512 of b. Pure: identical input bytes
// always yield identical output.
func Digest(b []byte) string {
	sum := sha512.Sum512(b)
	return hex.EncodeToString(sum[:])
}
