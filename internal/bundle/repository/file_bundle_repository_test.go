package repository

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bundleDomain "github.com/zerotouch/envseal/internal/bundle/domain"
	apperrors "github.com/zerotouch/envseal/internal/errors"
	keysDomain "github.com/zerotouch/envseal/internal/keys/domain"
)

func testMetadata(environment string) *keysDomain.EnvironmentMetadata {
	return &keysDomain.EnvironmentMetadata{
		Environment: environment,
		PublicKey:   "cHVibGljLWtleS1wbGFjZWhvbGRlci0zMi1ieXRlcy4=",
		Fingerprint: keysDomain.Fingerprint("0123456789abcdef0123456789abcdef"),
		UpdatedAt:   time.Now().UTC(),
	}
}

func testBundle(environment, group string) *bundleDomain.CiphertextBundle {
	return &bundleDomain.CiphertextBundle{
		Environment: environment,
		Group:       group,
		Fingerprint: keysDomain.Fingerprint("0123456789abcdef0123456789abcdef"),
		Values: map[string]string{
			"database_url": "Y2lwaGVydGV4dA==",
			"api_key":      "YW5vdGhlcg==",
		},
		UpdatedAt: time.Now().UTC(),
	}
}

func TestFileBundleRepository_Metadata(t *testing.T) {
	ctx := context.Background()
	repo := NewFileBundleRepository(t.TempDir())

	t.Run("missing environment", func(t *testing.T) {
		_, err := repo.Metadata(ctx, "staging")
		assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("save and read round-trip", func(t *testing.T) {
		meta := testMetadata("staging")
		require.NoError(t, repo.SaveMetadata(ctx, meta))

		got, err := repo.Metadata(ctx, "staging")
		require.NoError(t, err)
		assert.Equal(t, meta.Environment, got.Environment)
		assert.Equal(t, meta.PublicKey, got.PublicKey)
		assert.Equal(t, meta.Fingerprint, got.Fingerprint)
		assert.WithinDuration(t, meta.UpdatedAt, got.UpdatedAt, time.Second)
	})

	t.Run("overwrite moves fingerprint", func(t *testing.T) {
		meta := testMetadata("staging")
		meta.Fingerprint = keysDomain.Fingerprint("feedfacefeedfacefeedfacefeedface")
		require.NoError(t, repo.SaveMetadata(ctx, meta))

		got, err := repo.Metadata(ctx, "staging")
		require.NoError(t, err)
		assert.Equal(t, meta.Fingerprint, got.Fingerprint)
	})
}

func TestFileBundleRepository_Bundles(t *testing.T) {
	ctx := context.Background()
	repo := NewFileBundleRepository(t.TempDir())

	t.Run("missing bundle", func(t *testing.T) {
		_, err := repo.Bundle(ctx, "staging", "db")
		assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("no bundles yields empty list", func(t *testing.T) {
		bundles, err := repo.ListBundles(ctx, "staging")
		require.NoError(t, err)
		assert.Empty(t, bundles)
	})

	t.Run("save and read round-trip", func(t *testing.T) {
		bundle := testBundle("staging", "db")
		require.NoError(t, repo.SaveBundle(ctx, bundle))

		got, err := repo.Bundle(ctx, "staging", "db")
		require.NoError(t, err)
		assert.Equal(t, bundle.Fingerprint, got.Fingerprint)
		assert.Equal(t, bundle.Values, got.Values)
	})

	t.Run("list returns all groups for the environment only", func(t *testing.T) {
		require.NoError(t, repo.SaveBundle(ctx, testBundle("staging", "db")))
		require.NoError(t, repo.SaveBundle(ctx, testBundle("staging", "api")))
		require.NoError(t, repo.SaveBundle(ctx, testBundle("production", "db")))

		bundles, err := repo.ListBundles(ctx, "staging")
		require.NoError(t, err)
		require.Len(t, bundles, 2)

		groups := []string{bundles[0].Group, bundles[1].Group}
		assert.ElementsMatch(t, []string{"db", "api"}, groups)
	})

	t.Run("corrupted bundle file", func(t *testing.T) {
		repo := NewFileBundleRepository(t.TempDir())
		dir := filepath.Join(repoRoot(repo), "environments", "staging", "secrets")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "db.yaml"), []byte("\t: not yaml"), 0o644))

		_, err := repo.Bundle(ctx, "staging", "db")
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	})
}

func TestFileBundleRepository_StableOrdering(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	repo := NewFileBundleRepository(root)

	bundle := testBundle("staging", "db")
	require.NoError(t, repo.SaveBundle(ctx, bundle))

	raw, err := os.ReadFile(filepath.Join(root, "environments", "staging", "secrets", "db.yaml"))
	require.NoError(t, err)

	// yaml.v3 sorts map keys, so api_key precedes database_url regardless of
	// insertion order.
	apiIdx := strings.Index(string(raw), "api_key")
	dbIdx := strings.Index(string(raw), "database_url")
	require.GreaterOrEqual(t, apiIdx, 0)
	require.GreaterOrEqual(t, dbIdx, 0)
	assert.Less(t, apiIdx, dbIdx)
}

func repoRoot(r *FileBundleRepository) string {
	return r.root
}
