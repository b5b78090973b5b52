package usecase

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"

	bundleRepository "github.com/zerotouch/envseal/internal/bundle/repository"
	bundleService "github.com/zerotouch/envseal/internal/bundle/service"
	escrowRepository "github.com/zerotouch/envseal/internal/escrow/repository"
	apperrors "github.com/zerotouch/envseal/internal/errors"
	keysDomain "github.com/zerotouch/envseal/internal/keys/domain"
	keysRepository "github.com/zerotouch/envseal/internal/keys/repository"
	keysService "github.com/zerotouch/envseal/internal/keys/service"
	keysUseCase "github.com/zerotouch/envseal/internal/keys/usecase"
	"github.com/zerotouch/envseal/internal/retry"
)

type fixture struct {
	issuer      keysUseCase.IssuerUseCase
	escrow      keysUseCase.EscrowUseCase
	encrypt     EncryptUseCase
	materialize MaterializeUseCase
	rotate      RotateUseCase
	bundleRepo  *bundleRepository.FileBundleRepository
	stager      *keysRepository.LocalKeyStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	bucket := memblob.OpenBucket(nil)
	t.Cleanup(func() { _ = bucket.Close() })

	policy := retry.Policy{MaxAttempts: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}
	escrowRepo := escrowRepository.NewBlobEscrowRepository(bucket, policy, slog.Default())
	fileRepo := bundleRepository.NewFileBundleRepository(t.TempDir())
	stager := keysRepository.NewLocalKeyStore(t.TempDir())

	generator := keysService.NewX25519Generator()
	wrapper := keysService.NewSealedBoxWrapper()
	engine := bundleService.NewSealedBoxEngine()
	escrow := keysUseCase.NewEscrowUseCase(wrapper, escrowRepo, stager, slog.Default())

	return &fixture{
		issuer:      keysUseCase.NewIssuerUseCase(generator, fileRepo, escrowRepo, stager, slog.Default()),
		escrow:      escrow,
		encrypt:     NewEncryptUseCase(engine, fileRepo, fileRepo, escrowRepo, slog.Default()),
		materialize: NewMaterializeUseCase(engine, wrapper, fileRepo, fileRepo, escrowRepo, slog.Default()),
		rotate:      NewRotateUseCase(engine, wrapper, generator, fileRepo, fileRepo, escrowRepo, escrow, stager, slog.Default()),
		bundleRepo:  fileRepo,
		stager:      stager,
	}
}

// setupEnvironment issues and escrows a key pair so encrypt/materialize have
// a live environment to work against.
func (f *fixture) setupEnvironment(t *testing.T, environment string) {
	t.Helper()
	ctx := context.Background()

	result, err := f.issuer.Issue(ctx, environment)
	require.NoError(t, err)
	require.True(t, result.Created)
	_, err = f.escrow.Backup(ctx, environment)
	require.NoError(t, err)
}

func TestEncryptMaterializeRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.setupEnvironment(t, "staging")

	result, err := f.encrypt.Encrypt(ctx, "staging", "db", map[string]string{
		"DATABASE_URL": "postgres://user:pw@host:5432/app",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"database_url"}, result.Keys)

	secrets, err := f.materialize.Materialize(ctx, "staging")
	require.NoError(t, err)
	assert.Equal(t, "postgres://user:pw@host:5432/app", secrets["STAGING_DATABASE_URL"])
	assert.Len(t, secrets, 1)
}

func TestEncryptRejectsHyphenatedKeyBeforeWriting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.setupEnvironment(t, "staging")

	_, err := f.encrypt.Encrypt(ctx, "staging", "db", map[string]string{
		"DATABASE-URL": "postgres://...",
		"OTHER_KEY":    "value",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidKeyName)

	// Fail-fast means no bundle file at all, even for the valid key.
	_, err = f.bundleRepo.Bundle(ctx, "staging", "db")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestEncryptNormalizationIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.setupEnvironment(t, "staging")

	first, err := f.encrypt.Encrypt(ctx, "staging", "db", map[string]string{"database_url": "v"})
	require.NoError(t, err)
	second, err := f.encrypt.Encrypt(ctx, "staging", "db", map[string]string{"database_url": "v"})
	require.NoError(t, err)

	assert.Equal(t, first.Keys, second.Keys)
	assert.Equal(t, first.TotalKeys, second.TotalKeys)
}

func TestEncryptCiphertextNonDeterministic(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.setupEnvironment(t, "staging")

	_, err := f.encrypt.Encrypt(ctx, "staging", "db", map[string]string{"api_key": "v"})
	require.NoError(t, err)
	before, err := f.bundleRepo.Bundle(ctx, "staging", "db")
	require.NoError(t, err)

	_, err = f.encrypt.Encrypt(ctx, "staging", "db", map[string]string{"api_key": "v"})
	require.NoError(t, err)
	after, err := f.bundleRepo.Bundle(ctx, "staging", "db")
	require.NoError(t, err)

	assert.NotEqual(t, before.Values["api_key"], after.Values["api_key"])
	assert.Equal(t, before.Keys(), after.Keys())
}

func TestEncryptPreservesUntouchedCiphertext(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.setupEnvironment(t, "staging")

	_, err := f.encrypt.Encrypt(ctx, "staging", "db", map[string]string{"api_key": "a", "token": "b"})
	require.NoError(t, err)
	before, err := f.bundleRepo.Bundle(ctx, "staging", "db")
	require.NoError(t, err)

	_, err = f.encrypt.Encrypt(ctx, "staging", "db", map[string]string{"token": "b2"})
	require.NoError(t, err)
	after, err := f.bundleRepo.Bundle(ctx, "staging", "db")
	require.NoError(t, err)

	assert.Equal(t, before.Values["api_key"], after.Values["api_key"])
	assert.NotEqual(t, before.Values["token"], after.Values["token"])
}

func TestEncryptWithoutIssuedKey(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.encrypt.Encrypt(ctx, "staging", "db", map[string]string{"api_key": "v"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMaterializeWithoutEscrow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// Issue stages keys and writes metadata but nothing is escrowed yet.
	_, err := f.issuer.Issue(ctx, "staging")
	require.NoError(t, err)

	_, err = f.materialize.Materialize(ctx, "staging")
	assert.ErrorIs(t, err, apperrors.ErrEscrowNotFound)

	// The failed materialize must not have escrowed anything.
	exists, err := f.escrow.Exists(ctx, "staging")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMaterializeEnvironmentsIsolated(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.setupEnvironment(t, "staging")
	f.setupEnvironment(t, "production")

	_, err := f.encrypt.Encrypt(ctx, "staging", "db", map[string]string{"api_key": "staging-value"})
	require.NoError(t, err)
	_, err = f.encrypt.Encrypt(ctx, "production", "db", map[string]string{"api_key": "production-value"})
	require.NoError(t, err)

	staging, err := f.materialize.Materialize(ctx, "staging")
	require.NoError(t, err)
	production, err := f.materialize.Materialize(ctx, "production")
	require.NoError(t, err)

	assert.Equal(t, "staging-value", staging["STAGING_API_KEY"])
	assert.Equal(t, "production-value", production["PRODUCTION_API_KEY"])
	assert.NotContains(t, staging, "PRODUCTION_API_KEY")
	assert.NotContains(t, production, "STAGING_API_KEY")
}

func TestMaterializeStaleBundleAfterKeyReplacement(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.setupEnvironment(t, "prod")

	_, err := f.encrypt.Encrypt(ctx, "prod", "legacy", map[string]string{"api_key": "v"})
	require.NoError(t, err)

	// Replace the key out of band, skipping bundle re-encryption: new pair
	// escrowed and recorded in metadata, old bundle left untouched.
	generator := keysService.NewX25519Generator()
	primary, err := generator.GeneratePair()
	require.NoError(t, err)
	recovery, err := generator.GeneratePair()
	require.NoError(t, err)
	_, err = f.escrow.BackupPair(ctx, "prod", primary, recovery)
	require.NoError(t, err)
	require.NoError(t, f.bundleRepo.SaveMetadata(ctx, &keysDomain.EnvironmentMetadata{
		Environment: "prod",
		PublicKey:   primary.Public.Encode(),
		Fingerprint: primary.Public.Fingerprint(),
		UpdatedAt:   time.Now().UTC(),
	}))

	_, err = f.materialize.Materialize(ctx, "prod")
	assert.ErrorIs(t, err, apperrors.ErrStaleBundle)
	assert.ErrorContains(t, err, "legacy")
}

func TestMaterializeKeyMismatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.setupEnvironment(t, "prod")

	// Escrow a different pair without touching the metadata file; the
	// checkout and the store now disagree about prod's identity.
	generator := keysService.NewX25519Generator()
	primary, err := generator.GeneratePair()
	require.NoError(t, err)
	recovery, err := generator.GeneratePair()
	require.NoError(t, err)
	_, err = f.escrow.BackupPair(ctx, "prod", primary, recovery)
	require.NoError(t, err)

	_, err = f.materialize.Materialize(ctx, "prod")
	assert.ErrorIs(t, err, apperrors.ErrKeyMismatch)
}

func TestRotateReencryptsAndRoundTrips(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.setupEnvironment(t, "staging")

	_, err := f.encrypt.Encrypt(ctx, "staging", "db", map[string]string{"database_url": "postgres://..."})
	require.NoError(t, err)
	_, err = f.encrypt.Encrypt(ctx, "staging", "mail", map[string]string{"smtp_password": "hunter2"})
	require.NoError(t, err)

	result, err := f.rotate.Rotate(ctx, "staging")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Bundles)
	assert.NotEqual(t, result.OldFingerprint, result.NewFingerprint)

	secrets, err := f.materialize.Materialize(ctx, "staging")
	require.NoError(t, err)
	assert.Equal(t, "postgres://...", secrets["STAGING_DATABASE_URL"])
	assert.Equal(t, "hunter2", secrets["STAGING_SMTP_PASSWORD"])

	// Bundles now carry the new fingerprint.
	bundle, err := f.bundleRepo.Bundle(ctx, "staging", "db")
	require.NoError(t, err)
	assert.Equal(t, result.NewFingerprint, bundle.Fingerprint)

	// Staged rotation keys are cleared once the escrow write lands.
	_, _, err = f.stager.Load("staging")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRotateWithoutEscrow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.rotate.Rotate(ctx, "staging")
	assert.ErrorIs(t, err, apperrors.ErrEscrowNotFound)
}

func TestRotateKeepsHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.setupEnvironment(t, "staging")

	_, err := f.rotate.Rotate(ctx, "staging")
	require.NoError(t, err)

	entries, err := f.escrow.History(ctx, "staging")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
