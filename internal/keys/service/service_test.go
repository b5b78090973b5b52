package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zerotouch/envseal/internal/errors"
)

func TestX25519Generator(t *testing.T) {
	gen := NewX25519Generator()

	t.Run("generates valid pair", func(t *testing.T) {
		pair, err := gen.GeneratePair()
		require.NoError(t, err)

		derived, err := pair.Private.Public()
		require.NoError(t, err)
		assert.Equal(t, pair.Public, derived)
	})

	t.Run("pairs are independent", func(t *testing.T) {
		a, err := gen.GeneratePair()
		require.NoError(t, err)
		b, err := gen.GeneratePair()
		require.NoError(t, err)

		assert.NotEqual(t, a.Public, b.Public)
		assert.NotEqual(t, a.Private, b.Private)
	})
}

func TestSealedBoxWrapper(t *testing.T) {
	gen := NewX25519Generator()
	wrapper := NewSealedBoxWrapper()

	primary, err := gen.GeneratePair()
	require.NoError(t, err)
	recovery, err := gen.GeneratePair()
	require.NoError(t, err)

	t.Run("wrap and unwrap round-trip", func(t *testing.T) {
		wrapped, err := wrapper.Wrap(primary.Private, recovery.Public)
		require.NoError(t, err)
		assert.NotEmpty(t, wrapped)

		unwrapped, err := wrapper.Unwrap(wrapped, recovery.Private)
		require.NoError(t, err)
		assert.Equal(t, primary.Private, unwrapped)
	})

	t.Run("wrapping is non-deterministic", func(t *testing.T) {
		first, err := wrapper.Wrap(primary.Private, recovery.Public)
		require.NoError(t, err)
		second, err := wrapper.Wrap(primary.Private, recovery.Public)
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})

	t.Run("wrong recovery key fails", func(t *testing.T) {
		wrapped, err := wrapper.Wrap(primary.Private, recovery.Public)
		require.NoError(t, err)

		other, err := gen.GeneratePair()
		require.NoError(t, err)

		_, err = wrapper.Unwrap(wrapped, other.Private)
		assert.ErrorIs(t, err, errors.ErrUnwrapFailed)
	})

	t.Run("corrupted ciphertext fails", func(t *testing.T) {
		wrapped, err := wrapper.Wrap(primary.Private, recovery.Public)
		require.NoError(t, err)

		wrapped[len(wrapped)/2] ^= 0xff

		_, err = wrapper.Unwrap(wrapped, recovery.Private)
		assert.ErrorIs(t, err, errors.ErrUnwrapFailed)
	})

	t.Run("truncated ciphertext fails", func(t *testing.T) {
		_, err := wrapper.Unwrap([]byte("short"), recovery.Private)
		assert.ErrorIs(t, err, errors.ErrUnwrapFailed)
	})

	t.Run("primary key never unwraps its own wrap", func(t *testing.T) {
		// Primary and recovery pairs are not interchangeable.
		wrapped, err := wrapper.Wrap(primary.Private, recovery.Public)
		require.NoError(t, err)

		_, err = wrapper.Unwrap(wrapped, primary.Private)
		assert.ErrorIs(t, err, errors.ErrUnwrapFailed)
	})
}
