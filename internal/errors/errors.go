// Package errors provides standardized domain errors that express business intent
// rather than infrastructure details. These errors should be used by use cases
// and mapped to exit codes by the CLI layer.
package errors

import (
	"errors"
	"fmt"
)

// Standard domain errors that can be used across all domain modules.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with existing data (e.g., duplicate key).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnavailable indicates a collaborating store could not be reached
	// after the retry budget was exhausted.
	ErrUnavailable = errors.New("unavailable")
)

// Secret-subsystem error taxonomy. Every cryptographic-trust failure is
// terminal: callers must never retry or auto-remediate these.
var (
	// ErrEscrowNotFound indicates no escrow record exists for the environment.
	// An operator must run a first-time backup; the system never mints a
	// replacement key on its own.
	ErrEscrowNotFound = Wrap(ErrNotFound, "escrow record not found")

	// ErrUnwrapFailed indicates the wrapped primary key could not be opened
	// with the recovery key (wrong key, or corrupted ciphertext).
	ErrUnwrapFailed = Wrap(ErrInvalidInput, "key unwrap failed")

	// ErrKeyMismatch indicates the escrowed key's fingerprint does not match
	// the environment's recorded public key fingerprint.
	ErrKeyMismatch = Wrap(ErrConflict, "key fingerprint mismatch")

	// ErrStaleBundle indicates a bundle was encrypted under a key that is no
	// longer the environment's active key.
	ErrStaleBundle = Wrap(ErrConflict, "stale bundle")

	// ErrInvalidKeyName indicates a secret key name violates the naming
	// convention (lower-case, [a-z][a-z0-9_]*, no hyphens).
	ErrInvalidKeyName = Wrap(ErrInvalidInput, "invalid key name")

	// ErrKeyExists indicates an active key pair already exists for the
	// environment and would be clobbered by the requested operation.
	ErrKeyExists = Wrap(ErrConflict, "key pair already exists")

	// ErrStoreUnavailable indicates the escrow blob store could not be
	// reached after retries.
	ErrStoreUnavailable = Wrap(ErrUnavailable, "blob store unavailable")

	// ErrRepoUnavailable indicates the version-controlled secrets repository
	// could not be read or written.
	ErrRepoUnavailable = Wrap(ErrUnavailable, "secrets repository unavailable")
)

// New creates a new error with the given message.
// This is a convenience wrapper around errors.New for consistency.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the error chain.
// Use this to add context at each layer without losing the original error type.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context while preserving the error chain.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's tree matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}
