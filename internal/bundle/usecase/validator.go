package usecase

import (
	bundleDomain "github.com/zerotouch/envseal/internal/bundle/domain"
	apperrors "github.com/zerotouch/envseal/internal/errors"
	keysDomain "github.com/zerotouch/envseal/internal/keys/domain"
)

// ValidateActiveKey checks that the key recovered from escrow is the key the
// version-controlled metadata declares. A mismatch means the checkout and
// the escrow store have diverged; nothing may be decrypted with either key
// until an operator reconciles them.
func ValidateActiveKey(
	meta *keysDomain.EnvironmentMetadata,
	derived keysDomain.Fingerprint,
) error {
	if meta.Fingerprint != derived {
		return apperrors.Wrapf(apperrors.ErrKeyMismatch,
			"environment %s: metadata declares key %s but escrow holds %s",
			meta.Environment, meta.Fingerprint, derived,
		)
	}
	return nil
}

// ValidateBundleKey checks that a bundle was sealed under the environment's
// active key. A stale bundle predates a rotation and must not be opened
// with the current key.
func ValidateBundleKey(
	bundle *bundleDomain.CiphertextBundle,
	active keysDomain.Fingerprint,
) error {
	if bundle.Fingerprint != active {
		return apperrors.Wrapf(apperrors.ErrStaleBundle,
			"bundle %s/%s was sealed under key %s, active key is %s; rotate or restore before materializing",
			bundle.Environment, bundle.Group, bundle.Fingerprint, active,
		)
	}
	return nil
}
