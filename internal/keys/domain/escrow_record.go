package domain

import (
	"time"

	"github.com/google/uuid"
)

// EscrowRecord is one durable backup of an environment's primary private key.
// Records accumulate as history; exactly one is active per environment via a
// movable pointer in the escrow store. Records are never mutated after
// creation.
type EscrowRecord struct {
	// ID is the unique identifier for this record (UUIDv7).
	ID uuid.UUID
	// Environment is the isolation domain this record belongs to. Key
	// material from one environment is never valid input for another.
	Environment string
	// WrappedPrimaryKey is the primary private key sealed under the recovery
	// public key. Safe for a lower-trust durable store.
	WrappedPrimaryKey []byte
	// RecoveryPrivateKey unwraps WrappedPrimaryKey. The escrow store holds it
	// for durability; confidentiality is the operator's offline copy's job.
	RecoveryPrivateKey PrivateKey
	// CreatedAt is the UTC timestamp when this record was written.
	CreatedAt time.Time
}

// HistoryEntry is a point-in-time reference to an archived escrow record.
type HistoryEntry struct {
	// Timestamp is the record's position in the append-only history.
	Timestamp time.Time
	// Key is the store key of the wrapped-key artifact.
	Key string
}
