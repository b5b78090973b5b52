package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/zerotouch/envseal/internal/errors"
)

func TestNormalizeKeyName(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"upper case lowered", "DATABASE_URL", "database_url", false},
		{"already normalized", "database_url", "database_url", false},
		{"mixed case", "ApiKey", "apikey", false},
		{"digits", "S3_BUCKET_2", "s3_bucket_2", false},
		{"hyphen rejected", "DATABASE-URL", "", true},
		{"leading digit rejected", "2FA_SECRET", "", true},
		{"empty rejected", "", "", true},
		{"spaces rejected", "MY KEY", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeKeyName(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.Is(err, apperrors.ErrInvalidKeyName))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeKeyNameIdempotent(t *testing.T) {
	once, err := NormalizeKeyName("DATABASE_URL")
	require.NoError(t, err)

	twice, err := NormalizeKeyName(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestNormalizeKeyNames(t *testing.T) {
	t.Run("normalizes all keys", func(t *testing.T) {
		got, err := NormalizeKeyNames(map[string]string{
			"DATABASE_URL": "postgres://localhost",
			"api_key":      "abc",
		})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{
			"database_url": "postgres://localhost",
			"api_key":      "abc",
		}, got)
	})

	t.Run("fails fast on first violation", func(t *testing.T) {
		_, err := NormalizeKeyNames(map[string]string{
			"GOOD_KEY": "x",
			"BAD-KEY":  "y",
		})
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidKeyName))
	})

	t.Run("rejects case-collision duplicates", func(t *testing.T) {
		_, err := NormalizeKeyNames(map[string]string{
			"API_KEY": "x",
			"api_key": "y",
		})
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidKeyName))
	})
}

func TestNamespaceKey(t *testing.T) {
	assert.Equal(t, "STAGING_DATABASE_URL", NamespaceKey("staging", "database_url"))
	assert.Equal(t, "PREVIEW_42_API_KEY", NamespaceKey("preview-42", "api_key"))
}

func TestBundleKeys(t *testing.T) {
	bundle := &CiphertextBundle{
		Values: map[string]string{
			"zeta":  "1",
			"alpha": "2",
			"mid":   "3",
		},
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, bundle.Keys())
}
