package service

import (
	"crypto/rand"

	"golang.org/x/crypto/nacl/box"

	"github.com/zerotouch/envseal/internal/errors"
	keysDomain "github.com/zerotouch/envseal/internal/keys/domain"
)

// X25519Generator implements PairGenerator using NaCl box key generation.
// Each call draws fresh entropy; primary and recovery pairs come from two
// independent calls and never share material.
type X25519Generator struct{}

// NewX25519Generator creates a new X25519Generator.
func NewX25519Generator() *X25519Generator {
	return &X25519Generator{}
}

// GeneratePair returns a fresh X25519 pair from crypto/rand.
func (g *X25519Generator) GeneratePair() (keysDomain.KeyPair, error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return keysDomain.KeyPair{}, errors.Wrap(keysDomain.ErrKeyGenerationFailed, err.Error())
	}

	pair := keysDomain.KeyPair{
		Public:  keysDomain.PublicKey(*pub),
		Private: keysDomain.PrivateKey(*priv),
	}
	keysDomain.Zero(priv[:])

	return pair, nil
}
