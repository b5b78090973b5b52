package usecase

import (
	"context"
	"encoding/base64"
	"log/slog"
	"sort"
	"time"

	validation "github.com/jellydator/validation"

	bundleDomain "github.com/zerotouch/envseal/internal/bundle/domain"
	bundleService "github.com/zerotouch/envseal/internal/bundle/service"
	apperrors "github.com/zerotouch/envseal/internal/errors"
	appvalidation "github.com/zerotouch/envseal/internal/validation"
)

// encryptUseCase implements EncryptUseCase.
type encryptUseCase struct {
	engine       bundleService.Engine
	bundleRepo   BundleRepository
	metadataRepo MetadataRepository
	escrowReader EscrowReader
	logger       *slog.Logger
}

// NewEncryptUseCase creates an EncryptUseCase.
func NewEncryptUseCase(
	engine bundleService.Engine,
	bundleRepo BundleRepository,
	metadataRepo MetadataRepository,
	escrowReader EscrowReader,
	logger *slog.Logger,
) EncryptUseCase {
	return &encryptUseCase{
		engine:       engine,
		bundleRepo:   bundleRepo,
		metadataRepo: metadataRepo,
		escrowReader: escrowReader,
		logger:       logger,
	}
}

// Encrypt seals the given plaintext pairs into the environment's group
// bundle.
//
// The recipient key comes from the version-controlled metadata file, never
// from the escrow store: authoring must work offline and must never mint a
// key as a side effect. An environment without an issued key is an error,
// not an implicit issue.
//
// Key names are normalized before any value is sealed, and the whole input
// is rejected on the first invalid name. Keys already present in the bundle
// but absent from pairs keep their existing ciphertext bytes, so diffs show
// only what actually changed.
func (u *encryptUseCase) Encrypt(
	ctx context.Context,
	environment, group string,
	pairs map[string]string,
) (*EncryptResult, error) {
	if err := validation.Validate(environment, appvalidation.EnvironmentName); err != nil {
		return nil, appvalidation.WrapValidationError(err)
	}
	if err := validation.Validate(group, appvalidation.GroupName); err != nil {
		return nil, appvalidation.WrapValidationError(err)
	}
	if len(pairs) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "no values to encrypt")
	}

	normalized, err := bundleDomain.NormalizeKeyNames(pairs)
	if err != nil {
		return nil, err
	}

	meta, err := u.metadataRepo.Metadata(ctx, environment)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Wrapf(err,
				"environment %s has no issued key; run issue first", environment)
		}
		return nil, err
	}
	recipient, err := meta.ParsePublicKey()
	if err != nil {
		return nil, err
	}

	// Sealing against a never-escrowed key would author bundles nobody can
	// ever open. Worth a warning, not a failure: the store may simply be
	// unreachable from the authoring machine.
	if escrowed, probeErr := u.escrowReader.Exists(ctx, environment); probeErr != nil {
		u.logger.Warn("could not probe escrow store before encrypting",
			slog.String("environment", environment),
			slog.Any("error", probeErr),
		)
	} else if !escrowed {
		u.logger.Warn("encrypting under a key with no escrow backup; run backup before relying on these secrets",
			slog.String("environment", environment),
			slog.String("fingerprint", string(meta.Fingerprint)),
		)
	}

	bundle, err := u.bundleRepo.Bundle(ctx, environment, group)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		bundle = &bundleDomain.CiphertextBundle{
			Environment: environment,
			Group:       group,
			Fingerprint: meta.Fingerprint,
			Values:      map[string]string{},
		}
	}
	if err := ValidateBundleKey(bundle, meta.Fingerprint); err != nil {
		return nil, err
	}

	for key, plaintext := range normalized {
		sealed, err := u.engine.EncryptValue(recipient, []byte(plaintext))
		if err != nil {
			return nil, err
		}
		bundle.Values[key] = base64.StdEncoding.EncodeToString(sealed)
	}
	bundle.UpdatedAt = time.Now().UTC()

	if err := u.bundleRepo.SaveBundle(ctx, bundle); err != nil {
		return nil, err
	}

	written := make([]string, 0, len(normalized))
	for key := range normalized {
		written = append(written, key)
	}
	sort.Strings(written)

	result := &EncryptResult{
		Environment: environment,
		Group:       group,
		Fingerprint: meta.Fingerprint,
		Keys:        written,
		TotalKeys:   len(bundle.Values),
	}

	u.logger.Info("encrypted values",
		slog.String("environment", environment),
		slog.String("group", group),
		slog.Int("written", len(result.Keys)),
		slog.Int("total", result.TotalKeys),
	)

	return result, nil
}
