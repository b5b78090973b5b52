package domain

import (
	"github.com/zerotouch/envseal/internal/errors"
)

// Key-management error definitions.
var (
	// ErrInvalidKeyMaterial indicates a key failed to decode or has the
	// wrong length. All keys are exactly 32 bytes (X25519).
	ErrInvalidKeyMaterial = errors.Wrap(errors.ErrInvalidInput, "invalid key material")

	// ErrKeyGenerationFailed indicates the platform's secure random source
	// was unavailable during key generation.
	ErrKeyGenerationFailed = errors.New("key generation failed")
)
