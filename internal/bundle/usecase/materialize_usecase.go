package usecase

import (
	"context"
	"encoding/base64"
	"log/slog"
	"sync"

	validation "github.com/jellydator/validation"
	"golang.org/x/sync/errgroup"

	bundleDomain "github.com/zerotouch/envseal/internal/bundle/domain"
	bundleService "github.com/zerotouch/envseal/internal/bundle/service"
	apperrors "github.com/zerotouch/envseal/internal/errors"
	keysDomain "github.com/zerotouch/envseal/internal/keys/domain"
	keysService "github.com/zerotouch/envseal/internal/keys/service"
	appvalidation "github.com/zerotouch/envseal/internal/validation"
)

// materializeUseCase implements MaterializeUseCase.
type materializeUseCase struct {
	engine       bundleService.Engine
	wrapper      keysService.KeyWrapper
	bundleRepo   BundleRepository
	metadataRepo MetadataRepository
	escrowReader EscrowReader
	logger       *slog.Logger
}

// NewMaterializeUseCase creates a MaterializeUseCase.
func NewMaterializeUseCase(
	engine bundleService.Engine,
	wrapper keysService.KeyWrapper,
	bundleRepo BundleRepository,
	metadataRepo MetadataRepository,
	escrowReader EscrowReader,
	logger *slog.Logger,
) MaterializeUseCase {
	return &materializeUseCase{
		engine:       engine,
		wrapper:      wrapper,
		bundleRepo:   bundleRepo,
		metadataRepo: metadataRepo,
		escrowReader: escrowReader,
		logger:       logger,
	}
}

// Materialize decrypts every bundle of the environment into a namespaced
// secret set.
//
// The read path validates before it decrypts: the key recovered from escrow
// must match the metadata file, and every bundle must have been sealed under
// that same key. Any violation aborts the whole call; a consumer either
// receives the complete, consistent set or nothing.
func (u *materializeUseCase) Materialize(
	ctx context.Context,
	environment string,
) (bundleDomain.SecretSet, error) {
	if err := validation.Validate(environment, appvalidation.EnvironmentName); err != nil {
		return nil, appvalidation.WrapValidationError(err)
	}

	pair, meta, err := recoverActivePair(ctx, u.wrapper, u.escrowReader, u.metadataRepo, environment)
	if err != nil {
		return nil, err
	}
	defer pair.Zero()

	bundles, err := u.bundleRepo.ListBundles(ctx, environment)
	if err != nil {
		return nil, err
	}
	for _, bundle := range bundles {
		if err := ValidateBundleKey(bundle, meta.Fingerprint); err != nil {
			return nil, err
		}
	}

	secrets := make(bundleDomain.SecretSet)
	var mu sync.Mutex

	// Bundles are independent, so they decrypt in parallel. Individual
	// values within a bundle open sequentially; sealed boxes are cheap.
	group, gctx := errgroup.WithContext(ctx)
	for _, bundle := range bundles {
		group.Go(func() error {
			opened, err := u.openBundle(gctx, bundle, pair)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for key, value := range opened {
				secrets[key] = value
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	u.logger.Info("materialized secrets",
		slog.String("environment", environment),
		slog.Int("bundles", len(bundles)),
		slog.Int("keys", len(secrets)),
	)

	return secrets, nil
}

// openBundle decrypts one bundle into namespaced plaintext pairs.
func (u *materializeUseCase) openBundle(
	ctx context.Context,
	bundle *bundleDomain.CiphertextBundle,
	pair keysDomain.KeyPair,
) (map[string]string, error) {
	opened := make(map[string]string, len(bundle.Values))

	for _, key := range bundle.Keys() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sealed, err := base64.StdEncoding.DecodeString(bundle.Values[key])
		if err != nil {
			return nil, apperrors.Wrapf(apperrors.ErrInvalidInput,
				"bundle %s/%s key %s: corrupted ciphertext encoding",
				bundle.Environment, bundle.Group, key,
			)
		}
		plaintext, err := u.engine.DecryptValue(pair, sealed)
		if err != nil {
			return nil, apperrors.Wrapf(err,
				"bundle %s/%s key %s", bundle.Environment, bundle.Group, key)
		}
		opened[bundleDomain.NamespaceKey(bundle.Environment, key)] = string(plaintext)
	}

	return opened, nil
}
