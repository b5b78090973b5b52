package usecase

import (
	"context"

	apperrors "github.com/zerotouch/envseal/internal/errors"
	keysDomain "github.com/zerotouch/envseal/internal/keys/domain"
	keysService "github.com/zerotouch/envseal/internal/keys/service"
)

// recoverActivePair unwraps the environment's primary pair from the active
// escrow record and checks the recovered key against the metadata file. The
// caller owns the returned pair and must Zero it.
func recoverActivePair(
	ctx context.Context,
	wrapper keysService.KeyWrapper,
	escrowReader EscrowReader,
	metadataRepo MetadataRepository,
	environment string,
) (keysDomain.KeyPair, *keysDomain.EnvironmentMetadata, error) {
	var zero keysDomain.KeyPair

	record, err := escrowReader.Active(ctx, environment)
	if err != nil {
		return zero, nil, err
	}

	private, err := wrapper.Unwrap(record.WrappedPrimaryKey, record.RecoveryPrivateKey)
	if err != nil {
		return zero, nil, err
	}
	public, err := private.Public()
	if err != nil {
		private.Zero()
		return zero, nil, err
	}

	meta, err := metadataRepo.Metadata(ctx, environment)
	if err != nil {
		private.Zero()
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return zero, nil, apperrors.Wrapf(err,
				"environment %s has an escrowed key but no metadata file", environment)
		}
		return zero, nil, err
	}
	if err := ValidateActiveKey(meta, public.Fingerprint()); err != nil {
		private.Zero()
		return zero, nil, err
	}

	return keysDomain.KeyPair{Public: public, Private: private}, meta, nil
}
