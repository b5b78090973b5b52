// Package service implements per-value encryption for ciphertext bundles.
package service

import (
	"crypto/rand"

	"golang.org/x/crypto/nacl/box"

	apperrors "github.com/zerotouch/envseal/internal/errors"
	keysDomain "github.com/zerotouch/envseal/internal/keys/domain"
)

// Engine defines the interface for sealing and opening individual secret
// values.
type Engine interface {
	// EncryptValue seals plaintext under the recipient public key. Fresh
	// randomness per call: encrypting the same value twice yields different
	// ciphertext.
	EncryptValue(recipient keysDomain.PublicKey, plaintext []byte) ([]byte, error)

	// DecryptValue opens a sealed value with the recipient's pair.
	DecryptValue(recipient keysDomain.KeyPair, ciphertext []byte) ([]byte, error)
}

// SealedBoxEngine implements Engine with NaCl anonymous sealed boxes.
// Encryption needs only the public key, so authoring ciphertext requires no
// private material and no escrow-store access. Multi-line values pass
// through verbatim; the engine treats plaintext as opaque bytes.
type SealedBoxEngine struct{}

// NewSealedBoxEngine creates a new SealedBoxEngine.
func NewSealedBoxEngine() *SealedBoxEngine {
	return &SealedBoxEngine{}
}

// EncryptValue seals plaintext under the recipient public key.
func (e *SealedBoxEngine) EncryptValue(
	recipient keysDomain.PublicKey,
	plaintext []byte,
) ([]byte, error) {
	pub := [keysDomain.KeySize]byte(recipient)

	ciphertext, err := box.SealAnonymous(nil, plaintext, &pub, rand.Reader)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to seal value")
	}

	return ciphertext, nil
}

// DecryptValue opens a sealed value with the recipient's pair.
func (e *SealedBoxEngine) DecryptValue(
	recipient keysDomain.KeyPair,
	ciphertext []byte,
) ([]byte, error) {
	pub := [keysDomain.KeySize]byte(recipient.Public)
	priv := [keysDomain.KeySize]byte(recipient.Private)

	plaintext, ok := box.OpenAnonymous(nil, ciphertext, &pub, &priv)
	if !ok {
		// Wrong key or tampered ciphertext; indistinguishable by construction.
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "failed to open sealed value")
	}

	return plaintext, nil
}
