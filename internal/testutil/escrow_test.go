package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zerotouch/envseal/internal/app"
)

func TestOpenTestBucket(t *testing.T) {
	ctx := context.Background()
	bucket := OpenTestBucket(t)

	require.NoError(t, bucket.WriteAll(ctx, "probe", []byte("ok"), nil))
	data, err := bucket.ReadAll(ctx, "probe")
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), data)
}

func TestSeedEnvironment(t *testing.T) {
	ctx := context.Background()
	container := app.NewContainer(TestConfig(t))
	defer func() { _ = container.Shutdown(ctx) }()

	SeedEnvironment(t, ctx, container, "staging")

	escrowUC, err := container.EscrowUseCase(ctx)
	require.NoError(t, err)
	exists, err := escrowUC.Exists(ctx, "staging")
	require.NoError(t, err)
	assert.True(t, exists)
}
