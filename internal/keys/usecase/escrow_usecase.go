package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	apperrors "github.com/zerotouch/envseal/internal/errors"
	keysDomain "github.com/zerotouch/envseal/internal/keys/domain"
	keysService "github.com/zerotouch/envseal/internal/keys/service"
	appvalidation "github.com/zerotouch/envseal/internal/validation"
)

// escrowUseCase implements EscrowUseCase.
type escrowUseCase struct {
	wrapper    keysService.KeyWrapper
	escrowRepo EscrowRepository
	stager     KeyStager
	logger     *slog.Logger
}

// NewEscrowUseCase creates an EscrowUseCase.
func NewEscrowUseCase(
	wrapper keysService.KeyWrapper,
	escrowRepo EscrowRepository,
	stager KeyStager,
	logger *slog.Logger,
) EscrowUseCase {
	return &escrowUseCase{
		wrapper:    wrapper,
		escrowRepo: escrowRepo,
		stager:     stager,
		logger:     logger,
	}
}

// Backup escrows the environment's staged keys, then removes them from the
// staging area. Safe to re-run: a repeat backup writes a fresh history
// entry and re-promotes the pointer to equivalent material.
func (e *escrowUseCase) Backup(
	ctx context.Context,
	environment string,
) (*keysDomain.EscrowRecord, error) {
	if err := validation.Validate(environment, appvalidation.EnvironmentName); err != nil {
		return nil, appvalidation.WrapValidationError(err)
	}

	primary, recovery, err := e.stager.Load(environment)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Wrapf(err,
				"no staged keys for environment %s; run issue first", environment)
		}
		return nil, err
	}
	defer primary.Zero()
	defer recovery.Zero()

	record, err := e.BackupPair(ctx, environment, primary, recovery)
	if err != nil {
		return nil, err
	}

	// Staged copies are redundant once escrowed. A failure here leaves
	// stale but harmless files, so it only warns.
	if err := e.stager.Remove(environment); err != nil {
		e.logger.Warn("failed to clear staged keys after backup",
			slog.String("environment", environment),
			slog.Any("error", err),
		)
	}

	return record, nil
}

// BackupPair wraps the primary private key under the recovery public key and
// persists the record: timestamped history first, active pointer last.
func (e *escrowUseCase) BackupPair(
	ctx context.Context,
	environment string,
	primary, recovery keysDomain.KeyPair,
) (*keysDomain.EscrowRecord, error) {
	wrapped, err := e.wrapper.Wrap(primary.Private, recovery.Public)
	if err != nil {
		return nil, err
	}

	record := &keysDomain.EscrowRecord{
		ID:                 uuid.Must(uuid.NewV7()),
		Environment:        environment,
		WrappedPrimaryKey:  wrapped,
		RecoveryPrivateKey: recovery.Private,
		CreatedAt:          time.Now().UTC(),
	}

	if err := e.escrowRepo.Save(ctx, record); err != nil {
		return nil, err
	}

	e.logger.Info("escrowed primary key",
		slog.String("environment", environment),
		slog.String("record_id", record.ID.String()),
	)

	return record, nil
}

// Exists probes for an active escrow record.
func (e *escrowUseCase) Exists(ctx context.Context, environment string) (bool, error) {
	return e.escrowRepo.Exists(ctx, environment)
}

// History lists the environment's archived escrow records, newest first.
func (e *escrowUseCase) History(
	ctx context.Context,
	environment string,
) ([]keysDomain.HistoryEntry, error) {
	return e.escrowRepo.History(ctx, environment)
}
