package domain

import "context"

// KeyManager owns the session signing key pair. The private key lives in
// process memory only and is never serialized, logged or written to durable
// storage; callers obtain signatures and public material, never the key.
// Implementations generate the pair lazily on first use, exactly once per
// session.
type KeyManager interface {
	// PublicKeyPEM returns the SPKI PEM encoding of the session public key,
	// generating the pair if it does not exist yet.
	PublicKeyPEM(ctx context.Context) (string, error)
	// Fingerprint returns the digest of the PEM public key string, the
	// session's pseudonymous device identity.
	Fingerprint(ctx context.Context) (string, error)
	// Sign signs payload with the session private key.
	Sign(ctx context.Context, payload []byte) ([]byte, error)
}
