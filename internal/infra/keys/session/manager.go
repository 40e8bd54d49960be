// Package session holds the ephemeral device signing key for the lifetime of
// a sealing session. The key pair is generated lazily on the first request,
// exactly once, and exists only in process memory.
package session

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"sync"

	"github.com/Liamhigh/Verumlast/internal/domain"
	cryptoinfra "github.com/Liamhigh/Verumlast/internal/infra/crypto"
)

type Manager struct {
	mu          sync.Mutex
	key         *ecdsa.PrivateKey
	pemPublic   string
	fingerprint string
}

var _ domain.KeyManager = (*Manager)(nil)

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) PublicKeyPEM(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureLocked(); err != nil {
		return "", err
	}
	return m.pemPublic, nil
}

func (m *Manager) Fingerprint(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureLocked(); err != nil {
		return "", err
	}
	return m.fingerprint, nil
}

func (m *Manager) Sign(_ context.Context, payload []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureLocked(); err != nil {
		return nil, err
	}
	return cryptoinfra.SignPayload(m.key, payload)
}

// ensureLocked generates the key pair if absent. Callers hold m.mu, so
// concurrent first-callers serialize and exactly one generation occurs.
// A generation failure leaves the manager empty: no partial key material.
func (m *Manager) ensureLocked() error {
	if m.key != nil {
		return nil
	}
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("generate session key: %w", err)
	}
	pemPublic, err := encodePublicKeyPEM(&key.PublicKey)
	if err != nil {
		return err
	}
	m.key = key
	m.pemPublic = pemPublic
	m.fingerprint = cryptoinfra.Digest([]byte(pemPublic))
	return nil
}

func encodePublicKeyPEM(pub *ecdsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("encode public key: %w", err)
	}
	block := &pem.Block{Type: "PUBLIC KEY", Bytes: der}
	return string(pem.EncodeToMemory(block)), nil
}
