package domain

import "errors"

var (
	ErrInvalidManifest  = errors.New("invalid manifest")
	ErrInvalidPublicKey = errors.New("invalid public key")
	ErrCryptoFailure    = errors.New("crypto failure")
	ErrRenderFailure    = errors.New("render failure")
	ErrPolicyDenied     = errors.New("sealing denied by policy")
	ErrNoEvidence       = errors.New("no evidence files")
	ErrNotFound         = errors.New("not found")
)
