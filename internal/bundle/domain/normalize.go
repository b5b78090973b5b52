package domain

import (
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/zerotouch/envseal/internal/errors"
	appvalidation "github.com/zerotouch/envseal/internal/validation"
)

// NormalizeKeyName lower-cases a raw key name and validates it against the
// one convention downstream consumers rely on: [a-z][a-z0-9_]*.
//
// Hyphenated names are rejected outright rather than rewritten; silently
// turning DATABASE-URL into database_url would leave authors and consumers
// disagreeing about what the key is called.
func NormalizeKeyName(raw string) (string, error) {
	if strings.Contains(raw, "-") {
		return "", apperrors.Wrapf(apperrors.ErrInvalidKeyName, "%q contains a hyphen", raw)
	}

	normalized := strings.ToLower(raw)
	if err := validation.Validate(normalized, appvalidation.SecretKeyName); err != nil {
		return "", apperrors.Wrapf(apperrors.ErrInvalidKeyName, "%q: %s", raw, err)
	}

	return normalized, nil
}

// NormalizeKeyNames normalizes every key of a plaintext set, failing on the
// first violation before any ciphertext is produced. Returns the mapping
// from normalized name to plaintext value.
func NormalizeKeyNames(pairs map[string]string) (map[string]string, error) {
	normalized := make(map[string]string, len(pairs))
	for raw, value := range pairs {
		key, err := NormalizeKeyName(raw)
		if err != nil {
			return nil, err
		}
		if _, dup := normalized[key]; dup {
			return nil, apperrors.Wrapf(apperrors.ErrInvalidKeyName, "%q normalizes to duplicate key %q", raw, key)
		}
		normalized[key] = value
	}
	return normalized, nil
}
