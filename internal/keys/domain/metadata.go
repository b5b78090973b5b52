package domain

import (
	"time"
)

// EnvironmentMetadata is the version-controlled record of an environment's
// current primary public key. Safe for broad read access; contains no
// private material. It is the reference every bundle fingerprint is checked
// against.
type EnvironmentMetadata struct {
	// Environment is the isolation domain this metadata describes.
	Environment string
	// PublicKey is the active primary public key, base64-encoded.
	PublicKey string
	// Fingerprint is the active key's fingerprint.
	Fingerprint Fingerprint
	// UpdatedAt is the UTC timestamp of the last key change.
	UpdatedAt time.Time
}

// ParsePublicKey decodes the metadata's public key.
func (m *EnvironmentMetadata) ParsePublicKey() (PublicKey, error) {
	return ParsePublicKey(m.PublicKey)
}
