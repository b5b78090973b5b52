package usecase

import (
	"context"
	"encoding/base64"
	"log/slog"
	"time"

	validation "github.com/jellydator/validation"

	bundleDomain "github.com/zerotouch/envseal/internal/bundle/domain"
	bundleService "github.com/zerotouch/envseal/internal/bundle/service"
	keysDomain "github.com/zerotouch/envseal/internal/keys/domain"
	keysService "github.com/zerotouch/envseal/internal/keys/service"
	appvalidation "github.com/zerotouch/envseal/internal/validation"
)

// rotateUseCase implements RotateUseCase.
type rotateUseCase struct {
	engine       bundleService.Engine
	wrapper      keysService.KeyWrapper
	generator    keysService.PairGenerator
	bundleRepo   BundleRepository
	metadataRepo MetadataRepository
	escrowReader EscrowReader
	escrower     PairEscrower
	stager       KeyStager
	logger       *slog.Logger
}

// NewRotateUseCase creates a RotateUseCase.
func NewRotateUseCase(
	engine bundleService.Engine,
	wrapper keysService.KeyWrapper,
	generator keysService.PairGenerator,
	bundleRepo BundleRepository,
	metadataRepo MetadataRepository,
	escrowReader EscrowReader,
	escrower PairEscrower,
	stager KeyStager,
	logger *slog.Logger,
) RotateUseCase {
	return &rotateUseCase{
		engine:       engine,
		wrapper:      wrapper,
		generator:    generator,
		bundleRepo:   bundleRepo,
		metadataRepo: metadataRepo,
		escrowReader: escrowReader,
		escrower:     escrower,
		stager:       stager,
		logger:       logger,
	}
}

// Rotate replaces the environment's key pair and re-encrypts every bundle.
//
// Ordering is chosen so every intermediate state is recoverable. The fresh
// pairs are staged locally first; then bundles and metadata are rewritten
// under the new key; the escrow record is promoted last. A crash before the
// escrow write leaves the new private key staged, so "backup" completes the
// rotation. The old record stays in escrow history either way.
func (u *rotateUseCase) Rotate(
	ctx context.Context,
	environment string,
) (*RotateResult, error) {
	if err := validation.Validate(environment, appvalidation.EnvironmentName); err != nil {
		return nil, appvalidation.WrapValidationError(err)
	}

	oldPair, meta, err := recoverActivePair(ctx, u.wrapper, u.escrowReader, u.metadataRepo, environment)
	if err != nil {
		return nil, err
	}
	defer oldPair.Zero()
	oldFingerprint := meta.Fingerprint

	bundles, err := u.bundleRepo.ListBundles(ctx, environment)
	if err != nil {
		return nil, err
	}
	for _, bundle := range bundles {
		if err := ValidateBundleKey(bundle, oldFingerprint); err != nil {
			return nil, err
		}
	}

	primary, err := u.generator.GeneratePair()
	if err != nil {
		return nil, err
	}
	recovery, err := u.generator.GeneratePair()
	if err != nil {
		return nil, err
	}
	defer primary.Zero()
	defer recovery.Zero()

	if err := u.stager.Save(environment, primary, recovery); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	newFingerprint := primary.Public.Fingerprint()

	for _, bundle := range bundles {
		reencrypted, err := u.reencryptBundle(ctx, bundle, oldPair, primary.Public)
		if err != nil {
			return nil, err
		}
		reencrypted.UpdatedAt = now
		if err := u.bundleRepo.SaveBundle(ctx, reencrypted); err != nil {
			return nil, err
		}
	}

	newMeta := &keysDomain.EnvironmentMetadata{
		Environment: environment,
		PublicKey:   primary.Public.Encode(),
		Fingerprint: newFingerprint,
		UpdatedAt:   now,
	}
	if err := u.metadataRepo.SaveMetadata(ctx, newMeta); err != nil {
		return nil, err
	}

	if _, err := u.escrower.BackupPair(ctx, environment, primary, recovery); err != nil {
		return nil, err
	}
	if err := u.stager.Remove(environment); err != nil {
		u.logger.Warn("failed to clear staged keys after rotation",
			slog.String("environment", environment),
			slog.Any("error", err),
		)
	}

	u.logger.Info("rotated environment key",
		slog.String("environment", environment),
		slog.String("old_fingerprint", string(oldFingerprint)),
		slog.String("new_fingerprint", string(newFingerprint)),
		slog.Int("bundles", len(bundles)),
	)

	return &RotateResult{
		Environment:    environment,
		OldFingerprint: oldFingerprint,
		NewFingerprint: newFingerprint,
		Bundles:        len(bundles),
	}, nil
}

// reencryptBundle opens every value with the old pair and seals it again
// under the new public key.
func (u *rotateUseCase) reencryptBundle(
	ctx context.Context,
	bundle *bundleDomain.CiphertextBundle,
	oldPair keysDomain.KeyPair,
	newPublic keysDomain.PublicKey,
) (*bundleDomain.CiphertextBundle, error) {
	values := make(map[string]string, len(bundle.Values))

	for _, key := range bundle.Keys() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sealed, err := base64.StdEncoding.DecodeString(bundle.Values[key])
		if err != nil {
			return nil, err
		}
		plaintext, err := u.engine.DecryptValue(oldPair, sealed)
		if err != nil {
			return nil, err
		}
		resealed, err := u.engine.EncryptValue(newPublic, plaintext)
		keysDomain.Zero(plaintext)
		if err != nil {
			return nil, err
		}
		values[key] = base64.StdEncoding.EncodeToString(resealed)
	}

	return &bundleDomain.CiphertextBundle{
		Environment: bundle.Environment,
		Group:       bundle.Group,
		Fingerprint: newPublic.Fingerprint(),
		Values:      values,
	}, nil
}
