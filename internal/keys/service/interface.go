// Package service provides the cryptographic primitives for key issuance and
// escrow wrapping: X25519 pair generation and anonymous sealed boxes.
package service

import (
	keysDomain "github.com/zerotouch/envseal/internal/keys/domain"
)

// PairGenerator defines the interface for generating fresh X25519 key pairs.
type PairGenerator interface {
	// GeneratePair returns a fresh pair drawn from the platform CSPRNG.
	GeneratePair() (keysDomain.KeyPair, error)
}

// KeyWrapper defines the interface for wrapping a primary private key under a
// recovery public key for escrow, and the inverse.
type KeyWrapper interface {
	// Wrap seals the primary private key under the recovery public key.
	Wrap(primary keysDomain.PrivateKey, recoveryPublic keysDomain.PublicKey) ([]byte, error)

	// Unwrap opens a wrapped primary key with the recovery private key.
	Unwrap(wrapped []byte, recoveryPrivate keysDomain.PrivateKey) (keysDomain.PrivateKey, error)
}
