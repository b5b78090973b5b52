// Package domain defines the core key-management domain models.
//
// Every environment owns two independent X25519 pairs: the primary pair
// (public half published with ciphertext, private half decrypts) and the
// recovery pair (public half wraps the primary private key for escrow,
// private half held by an operator). The two pairs must never share entropy
// or be interchanged.
package domain

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	"golang.org/x/crypto/curve25519"
)

// KeySize is the byte length of X25519 public and private keys.
const KeySize = 32

// PublicKey is the public half of an X25519 pair. Safe to publish.
type PublicKey [KeySize]byte

// PrivateKey is the private half of an X25519 pair. Never persisted to
// version control; zero after use.
type PrivateKey [KeySize]byte

// KeyPair holds both halves of an X25519 pair.
type KeyPair struct {
	Public  PublicKey
	Private PrivateKey
}

// Fingerprint is a short, comparable derivation of a public key used to
// detect key/bundle mismatches without comparing full key material.
type Fingerprint string

// fingerprintBytes is how much of the SHA-256 digest the fingerprint keeps.
// 16 bytes (32 hex chars) is short enough to diff and long enough that a
// collision means a broken hash, not an operational accident.
const fingerprintBytes = 16

// Fingerprint derives the key's fingerprint: lower-case hex of the first 16
// bytes of SHA-256 over the raw public key.
func (p PublicKey) Fingerprint() Fingerprint {
	sum := sha256.Sum256(p[:])
	return Fingerprint(hex.EncodeToString(sum[:fingerprintBytes]))
}

// Encode returns the standard-base64 form used in metadata files and the
// escrow store.
func (p PublicKey) Encode() string {
	return base64.StdEncoding.EncodeToString(p[:])
}

// Encode returns the standard-base64 form of the private key. Only the
// escrow store and the local staging dir ever see this.
func (p PrivateKey) Encode() string {
	return base64.StdEncoding.EncodeToString(p[:])
}

// Public derives the matching public key via the curve base point.
func (p PrivateKey) Public() (PublicKey, error) {
	var out PublicKey
	pub, err := curve25519.X25519(p[:], curve25519.Basepoint)
	if err != nil {
		return out, ErrInvalidKeyMaterial
	}
	copy(out[:], pub)
	return out, nil
}

// Zero wipes the private key material in place.
func (p *PrivateKey) Zero() {
	for i := range p {
		p[i] = 0
	}
}

// Zero wipes the pair's private half.
func (k *KeyPair) Zero() {
	k.Private.Zero()
}

// ParsePublicKey decodes a base64 public key.
func ParsePublicKey(encoded string) (PublicKey, error) {
	var out PublicKey
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(raw) != KeySize {
		return out, ErrInvalidKeyMaterial
	}
	copy(out[:], raw)
	return out, nil
}

// ParsePrivateKey decodes a base64 private key.
func ParsePrivateKey(encoded string) (PrivateKey, error) {
	var out PrivateKey
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(raw) != KeySize {
		return out, ErrInvalidKeyMaterial
	}
	copy(out[:], raw)
	Zero(raw)
	return out, nil
}

// Zero securely overwrites a byte slice with zeros to clear sensitive data from memory.
func Zero(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}
