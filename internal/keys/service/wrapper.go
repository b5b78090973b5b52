package service

import (
	"crypto/rand"

	"golang.org/x/crypto/nacl/box"

	"github.com/zerotouch/envseal/internal/errors"
	keysDomain "github.com/zerotouch/envseal/internal/keys/domain"
)

// SealedBoxWrapper implements KeyWrapper using NaCl anonymous sealed boxes.
//
// Wrapping needs only the recovery public key, so it can run anywhere;
// unwrapping needs the recovery private key held in escrow (or the operator's
// offline copy). An ephemeral sender key is generated per seal, so wrapping
// the same primary key twice yields different ciphertext.
type SealedBoxWrapper struct{}

// NewSealedBoxWrapper creates a new SealedBoxWrapper.
func NewSealedBoxWrapper() *SealedBoxWrapper {
	return &SealedBoxWrapper{}
}

// Wrap seals the primary private key under the recovery public key.
func (w *SealedBoxWrapper) Wrap(
	primary keysDomain.PrivateKey,
	recoveryPublic keysDomain.PublicKey,
) ([]byte, error) {
	recipient := [keysDomain.KeySize]byte(recoveryPublic)

	wrapped, err := box.SealAnonymous(nil, primary[:], &recipient, rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to wrap primary key")
	}

	return wrapped, nil
}

// Unwrap opens a wrapped primary key with the recovery private key. The
// recovery public half is derived from the private key, so the escrowed
// artifacts alone are sufficient for recovery.
func (w *SealedBoxWrapper) Unwrap(
	wrapped []byte,
	recoveryPrivate keysDomain.PrivateKey,
) (keysDomain.PrivateKey, error) {
	var out keysDomain.PrivateKey

	recoveryPublic, err := recoveryPrivate.Public()
	if err != nil {
		return out, errors.ErrUnwrapFailed
	}

	pub := [keysDomain.KeySize]byte(recoveryPublic)
	priv := [keysDomain.KeySize]byte(recoveryPrivate)

	opened, ok := box.OpenAnonymous(nil, wrapped, &pub, &priv)
	if !ok || len(opened) != keysDomain.KeySize {
		// No cause disclosed: wrong key and corrupted ciphertext are
		// indistinguishable by construction.
		return out, errors.ErrUnwrapFailed
	}

	copy(out[:], opened)
	keysDomain.Zero(opened)

	return out, nil
}
