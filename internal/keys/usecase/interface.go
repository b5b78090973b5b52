// Package usecase implements key issuance and escrow backup orchestration.
//
// Use cases coordinate the crypto services with the escrow store, the local
// key staging area and the version-controlled metadata file. Create and
// durably-save are deliberately separate, independently retryable steps:
// "issue" generates and stages, "backup" wraps and escrows.
package usecase

import (
	"context"

	keysDomain "github.com/zerotouch/envseal/internal/keys/domain"
)

// EscrowRepository defines the interface for escrow record persistence.
//
// Implementations write an append-only timestamped history plus a movable
// "active" pointer per environment. Records are never mutated after creation.
type EscrowRepository interface {
	// Save writes a new record and promotes it to the active location.
	Save(ctx context.Context, record *keysDomain.EscrowRecord) error

	// Exists probes the active pointer. Callers must use this before
	// generating keys, to avoid clobbering an active pair.
	Exists(ctx context.Context, environment string) (bool, error)

	// Active reads the record the active pointer names. Returns
	// ErrEscrowNotFound when no backup has ever been taken.
	Active(ctx context.Context, environment string) (*keysDomain.EscrowRecord, error)

	// History lists archived records, newest first.
	History(ctx context.Context, environment string) ([]keysDomain.HistoryEntry, error)
}

// MetadataRepository defines the interface for the version-controlled
// public-key metadata file.
type MetadataRepository interface {
	// SaveMetadata writes the environment's metadata file.
	SaveMetadata(ctx context.Context, meta *keysDomain.EnvironmentMetadata) error

	// Metadata reads the environment's metadata. Returns ErrNotFound when
	// the environment has no recorded key.
	Metadata(ctx context.Context, environment string) (*keysDomain.EnvironmentMetadata, error)
}

// KeyStager defines the interface for the local, never-committed staging
// area that bridges issue and backup.
type KeyStager interface {
	// Save stages an environment's freshly issued pairs.
	Save(environment string, primary, recovery keysDomain.KeyPair) error

	// Load reads staged pairs. Returns ErrNotFound when nothing is staged.
	Load(environment string) (primary, recovery keysDomain.KeyPair, err error)

	// Remove deletes staged pairs. Missing files are not an error.
	Remove(environment string) error
}

// IssuerUseCase defines the key issuance operation.
type IssuerUseCase interface {
	// Issue creates the environment's primary and recovery pairs, or
	// reports the existing key when one is already live.
	Issue(ctx context.Context, environment string) (*IssueResult, error)
}

// EscrowUseCase defines escrow backup operations.
type EscrowUseCase interface {
	// Backup escrows the environment's staged keys.
	Backup(ctx context.Context, environment string) (*keysDomain.EscrowRecord, error)

	// BackupPair escrows explicitly supplied pairs (used during rotation).
	BackupPair(
		ctx context.Context,
		environment string,
		primary, recovery keysDomain.KeyPair,
	) (*keysDomain.EscrowRecord, error)

	// Exists probes for an active escrow record.
	Exists(ctx context.Context, environment string) (bool, error)

	// History lists the environment's archived escrow records, newest first.
	History(ctx context.Context, environment string) ([]keysDomain.HistoryEntry, error)
}
