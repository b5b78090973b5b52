package usecase

import (
	"context"
	"log/slog"
	"time"

	validation "github.com/jellydator/validation"

	apperrors "github.com/zerotouch/envseal/internal/errors"
	keysDomain "github.com/zerotouch/envseal/internal/keys/domain"
	keysService "github.com/zerotouch/envseal/internal/keys/service"
	appvalidation "github.com/zerotouch/envseal/internal/validation"
)

// IssueResult reports the outcome of an Issue call.
type IssueResult struct {
	// Environment is the isolation domain the result belongs to.
	Environment string
	// Created is false when a live key already existed and nothing was
	// generated.
	Created bool
	// Fingerprint identifies the environment's (new or existing) public key.
	Fingerprint keysDomain.Fingerprint
	// PublicKey is the primary public key, base64-encoded.
	PublicKey string
}

// issuerUseCase implements IssuerUseCase.
type issuerUseCase struct {
	generator    keysService.PairGenerator
	metadataRepo MetadataRepository
	escrowRepo   EscrowRepository
	stager       KeyStager
	logger       *slog.Logger
}

// NewIssuerUseCase creates an IssuerUseCase.
func NewIssuerUseCase(
	generator keysService.PairGenerator,
	metadataRepo MetadataRepository,
	escrowRepo EscrowRepository,
	stager KeyStager,
	logger *slog.Logger,
) IssuerUseCase {
	return &issuerUseCase{
		generator:    generator,
		metadataRepo: metadataRepo,
		escrowRepo:   escrowRepo,
		stager:       stager,
		logger:       logger,
	}
}

// Issue creates the environment's primary and recovery pairs.
//
// The call is idempotent: when the environment already records a live public
// key, the existing identity is returned and nothing is generated, since
// silently replacing an active key would orphan every existing bundle.
//
// Generation and escrow stay separate. Issue stages the private halves
// locally and records the public half in the version-controlled metadata
// file; "backup" escrows them as an independently retryable step.
func (u *issuerUseCase) Issue(ctx context.Context, environment string) (*IssueResult, error) {
	if err := validation.Validate(environment, appvalidation.EnvironmentName); err != nil {
		return nil, appvalidation.WrapValidationError(err)
	}

	// A recorded public key means the environment is live; don't churn it.
	meta, err := u.metadataRepo.Metadata(ctx, environment)
	if err == nil {
		u.logger.Info("environment already has an active key",
			slog.String("environment", environment),
			slog.String("fingerprint", string(meta.Fingerprint)),
		)
		return &IssueResult{
			Environment: environment,
			Created:     false,
			Fingerprint: meta.Fingerprint,
			PublicKey:   meta.PublicKey,
		}, nil
	}
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	// No metadata, but an escrow record would still mean a live key whose
	// metadata was lost; refuse to clobber it from here.
	exists, err := u.escrowRepo.Exists(ctx, environment)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.Wrapf(apperrors.ErrKeyExists,
			"environment %s has an escrowed key but no metadata file; restore the metadata instead of reissuing",
			environment,
		)
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

	meta = &keysDomain.EnvironmentMetadata{
		Environment: environment,
		PublicKey:   primary.Public.Encode(),
		Fingerprint: primary.Public.Fingerprint(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := u.metadataRepo.SaveMetadata(ctx, meta); err != nil {
		return nil, err
	}

	u.logger.Info("issued key pair",
		slog.String("environment", environment),
		slog.String("fingerprint", string(meta.Fingerprint)),
	)

	return &IssueResult{
		Environment: environment,
		Created:     true,
		Fingerprint: meta.Fingerprint,
		PublicKey:   meta.PublicKey,
	}, nil
}
