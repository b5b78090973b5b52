package validation

import (
	"testing"

	validation "github.com/jellydator/validation"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/zerotouch/envseal/internal/errors"
)

func TestEnvironmentName(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"valid short", "dev", false},
		{"valid with hyphen", "preview-42", false},
		{"valid production", "production", false},
		{"empty", "", true},
		{"upper case", "Staging", true},
		{"leading digit", "1staging", true},
		{"underscore", "my_env", true},
		{"too long", "abcdefghijklmnopqrstuvwxyz0123456789", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.Validate(tt.value, EnvironmentName)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGroupName(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"valid", "db", false},
		{"valid underscore", "db_credentials", false},
		{"valid hyphen", "api-tokens", false},
		{"empty", "", true},
		{"upper case", "DB", true},
		{"leading digit", "2fa", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.Validate(tt.value, GroupName)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSecretKeyName(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"valid", "database_url", false},
		{"valid with digits", "s3_bucket_2", false},
		{"hyphen rejected", "database-url", true},
		{"upper case rejected", "DATABASE_URL", true},
		{"empty", "", true},
		{"leading underscore", "_key", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.Validate(tt.value, SecretKeyName)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWrapValidationError(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		assert.NoError(t, WrapValidationError(nil))
	})

	t.Run("wraps as invalid input", func(t *testing.T) {
		err := validation.Validate("", EnvironmentName)
		wrapped := WrapValidationError(err)
		assert.Error(t, wrapped)
		assert.True(t, apperrors.Is(wrapped, apperrors.ErrInvalidInput))
	})
}
