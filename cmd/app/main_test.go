package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/zerotouch/envseal/internal/errors"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"generic", assert.AnError, 1},
		{"invalid-input", apperrors.ErrInvalidInput, 2},
		{"invalid-key-name", apperrors.ErrInvalidKeyName, 2},
		{"escrow-not-found", apperrors.ErrEscrowNotFound, 3},
		{"unwrap-failed", apperrors.ErrUnwrapFailed, 4},
		{"key-mismatch", apperrors.ErrKeyMismatch, 5},
		{"stale-bundle", apperrors.ErrStaleBundle, 6},
		{"store-unavailable", apperrors.ErrStoreUnavailable, 7},
		{"wrapped", apperrors.Wrap(apperrors.ErrStaleBundle, "bundle prod/db"), 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
