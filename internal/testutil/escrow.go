// Package testutil provides testing utilities for escrow-store integration tests.
//
// Environment Variables:
//
// The escrow bucket can be pointed at a real store via environment variables:
//   - TEST_ESCROW_BUCKET_URL: gocloud.dev blob URL for the escrow bucket
//     (default: a fresh in-memory bucket per test)
//
// Fixtures:
//
//	cfg := testutil.TestConfig(t)
//	container := app.NewContainer(cfg)
//	testutil.SeedEnvironment(t, ctx, container, "staging")
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	"gocloud.dev/blob/memblob"

	"github.com/zerotouch/envseal/internal/app"
	"github.com/zerotouch/envseal/internal/config"
)

// GetEscrowBucketURL returns the escrow bucket URL for tests, checking the
// environment variable first.
func GetEscrowBucketURL() string {
	if u := os.Getenv("TEST_ESCROW_BUCKET_URL"); u != "" {
		return u
	}
	return "mem://"
}

// OpenTestBucket opens an escrow bucket for a test and closes it on cleanup.
// With no TEST_ESCROW_BUCKET_URL set, each call yields an isolated in-memory
// bucket.
func OpenTestBucket(t *testing.T) *blob.Bucket {
	t.Helper()

	var bucket *blob.Bucket
	if u := os.Getenv("TEST_ESCROW_BUCKET_URL"); u != "" {
		var err error
		bucket, err = blob.OpenBucket(context.Background(), u)
		require.NoError(t, err, "failed to open escrow bucket %s", u)
	} else {
		bucket = memblob.OpenBucket(nil)
	}

	t.Cleanup(func() { _ = bucket.Close() })
	return bucket
}

// TestConfig returns a configuration wired to the test bucket and fresh
// temporary directories, with a fast retry policy.
func TestConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		BlobBucketURL:        GetEscrowBucketURL(),
		RepoDir:              t.TempDir(),
		KeysDir:              t.TempDir(),
		LogLevel:             "error",
		RetryMaxAttempts:     2,
		RetryInitialInterval: time.Millisecond,
		RetryMaxInterval:     time.Millisecond,
	}
}

// SeedEnvironment issues and escrows a key pair so the environment is ready
// for encrypt and materialize calls.
func SeedEnvironment(t *testing.T, ctx context.Context, container *app.Container, environment string) {
	t.Helper()

	issuerUC, err := container.IssuerUseCase(ctx)
	require.NoError(t, err)
	result, err := issuerUC.Issue(ctx, environment)
	require.NoError(t, err)
	require.True(t, result.Created, "environment %s already seeded", environment)

	escrowUC, err := container.EscrowUseCase(ctx)
	require.NoError(t, err)
	_, err = escrowUC.Backup(ctx, environment)
	require.NoError(t, err)
}
