// Package repository implements escrow record persistence on a blob store.
//
// The store holds the one thing that must never enter version control:
// private key material. Layout per environment, inside one bucket:
//
//	{environment}/active-wrapped-key     movable "active" pointer
//	{environment}/active-recovery-key
//	{environment}/{timestamp}-wrapped-key    append-only history
//	{environment}/{timestamp}-recovery-key
//
// History entries are written first; only after both succeed are the
// artifacts copied to the active location, so a killed invocation leaves at
// worst an orphaned history entry, never a torn pointer. Two concurrent
// first-time backups can still race on the pointer (last write wins); the
// history keeps both records recoverable, and the pointer can be re-promoted
// by hand. gocloud.dev/blob offers no portable compare-and-swap.
//
// Access goes through gocloud.dev/blob so the same code serves S3 in
// production and fileblob/memblob in tests and local operation.
package repository

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	apperrors "github.com/zerotouch/envseal/internal/errors"
	keysDomain "github.com/zerotouch/envseal/internal/keys/domain"
	"github.com/zerotouch/envseal/internal/retry"
)

const (
	activeWrappedKey  = "active-wrapped-key"
	activeRecoveryKey = "active-recovery-key"

	wrappedKeySuffix  = "-wrapped-key"
	recoveryKeySuffix = "-recovery-key"

	// historyTimestampLayout keeps blob keys lexically sortable and free of
	// characters S3 consoles mangle.
	historyTimestampLayout = "20060102T150405.000000000Z"

	metaRecordID  = "record_id"
	metaCreatedAt = "created_at"
)

// BlobEscrowRepository persists EscrowRecords in a blob bucket.
type BlobEscrowRepository struct {
	bucket *blob.Bucket
	policy retry.Policy
	logger *slog.Logger
}

// NewBlobEscrowRepository creates a repository over an open bucket. The retry
// policy is applied to every store round-trip; cryptographic failures never
// reach it.
func NewBlobEscrowRepository(
	bucket *blob.Bucket,
	policy retry.Policy,
	logger *slog.Logger,
) *BlobEscrowRepository {
	return &BlobEscrowRepository{
		bucket: bucket,
		policy: policy,
		logger: logger,
	}
}

// Save writes a new escrow record: timestamped history entries first, then
// the active pointer copies. The record is never mutated after this call.
func (r *BlobEscrowRepository) Save(ctx context.Context, record *keysDomain.EscrowRecord) error {
	prefix := record.Environment + "/"
	ts := record.CreatedAt.UTC().Format(historyTimestampLayout)

	meta := map[string]string{
		metaRecordID:  record.ID.String(),
		metaCreatedAt: record.CreatedAt.UTC().Format(time.RFC3339Nano),
	}

	recoveryPayload := []byte(record.RecoveryPrivateKey.Encode() + "\n")
	defer keysDomain.Zero(recoveryPayload)

	writes := []struct {
		key  string
		data []byte
	}{
		{prefix + ts + wrappedKeySuffix, record.WrappedPrimaryKey},
		{prefix + ts + recoveryKeySuffix, recoveryPayload},
		{prefix + activeWrappedKey, record.WrappedPrimaryKey},
		{prefix + activeRecoveryKey, recoveryPayload},
	}

	for _, w := range writes {
		if err := r.write(ctx, w.key, w.data, meta); err != nil {
			return err
		}
	}

	return nil
}

// Exists probes the active pointer. Callers must use this before generating
// keys to avoid clobbering an active pair.
func (r *BlobEscrowRepository) Exists(ctx context.Context, environment string) (bool, error) {
	var exists bool
	err := r.policy.DoNotify(ctx, func() error {
		ok, err := r.bucket.Exists(ctx, environment+"/"+activeWrappedKey)
		if err != nil {
			return err
		}
		exists = ok
		return nil
	}, r.logger)
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrStoreUnavailable, err.Error())
	}
	return exists, nil
}

// Active reads the record currently pointed at by the active location.
// Returns ErrEscrowNotFound when no backup has ever been taken.
func (r *BlobEscrowRepository) Active(
	ctx context.Context,
	environment string,
) (*keysDomain.EscrowRecord, error) {
	prefix := environment + "/"

	wrapped, attrs, err := r.read(ctx, prefix+activeWrappedKey)
	if err != nil {
		return nil, err
	}

	recoveryRaw, _, err := r.read(ctx, prefix+activeRecoveryKey)
	if err != nil {
		return nil, err
	}
	defer keysDomain.Zero(recoveryRaw)

	recoveryPrivate, err := keysDomain.ParsePrivateKey(strings.TrimSpace(string(recoveryRaw)))
	if err != nil {
		return nil, apperrors.Wrap(err, "corrupted recovery key artifact")
	}

	record := &keysDomain.EscrowRecord{
		Environment:        environment,
		WrappedPrimaryKey:  wrapped,
		RecoveryPrivateKey: recoveryPrivate,
	}

	if attrs != nil {
		if created, parseErr := time.Parse(time.RFC3339Nano, attrs.Metadata[metaCreatedAt]); parseErr == nil {
			record.CreatedAt = created
		}
	}

	return record, nil
}

// History lists the environment's archived records, newest first.
func (r *BlobEscrowRepository) History(
	ctx context.Context,
	environment string,
) ([]keysDomain.HistoryEntry, error) {
	prefix := environment + "/"

	var entries []keysDomain.HistoryEntry
	err := r.policy.DoNotify(ctx, func() error {
		entries = entries[:0]
		iter := r.bucket.List(&blob.ListOptions{Prefix: prefix})
		for {
			obj, err := iter.Next(ctx)
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}

			name := strings.TrimPrefix(obj.Key, prefix)
			if !strings.HasSuffix(name, wrappedKeySuffix) || strings.HasPrefix(name, "active-") {
				continue
			}

			raw := strings.TrimSuffix(name, wrappedKeySuffix)
			ts, parseErr := time.Parse(historyTimestampLayout, raw)
			if parseErr != nil {
				continue
			}

			entries = append(entries, keysDomain.HistoryEntry{
				Timestamp: ts,
				Key:       obj.Key,
			})
		}
	}, r.logger)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreUnavailable, err.Error())
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	return entries, nil
}

func (r *BlobEscrowRepository) write(
	ctx context.Context,
	key string,
	data []byte,
	meta map[string]string,
) error {
	err := r.policy.DoNotify(ctx, func() error {
		w, err := r.bucket.NewWriter(ctx, key, &blob.WriterOptions{Metadata: meta})
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			_ = w.Close()
			return err
		}
		return w.Close()
	}, r.logger)
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrStoreUnavailable, "failed to write %s: %s", key, err)
	}
	return nil
}

func (r *BlobEscrowRepository) read(
	ctx context.Context,
	key string,
) ([]byte, *blob.Attributes, error) {
	var (
		data  []byte
		attrs *blob.Attributes
	)
	err := r.policy.DoNotify(ctx, func() error {
		rd, err := r.bucket.NewReader(ctx, key, nil)
		if err != nil {
			if gcerrors.Code(err) == gcerrors.NotFound {
				return retry.Permanent(apperrors.Wrapf(apperrors.ErrEscrowNotFound, "missing %s", key))
			}
			return err
		}
		defer rd.Close()

		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rd); err != nil {
			return err
		}
		data = buf.Bytes()

		a, err := r.bucket.Attributes(ctx, key)
		if err == nil {
			attrs = a
		}
		return nil
	}, r.logger)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrEscrowNotFound) {
			return nil, nil, err
		}
		return nil, nil, apperrors.Wrapf(apperrors.ErrStoreUnavailable, "failed to read %s: %s", key, err)
	}
	return data, attrs, nil
}
