// Package retry provides a bounded retry-with-backoff policy for transient
// store I/O. Cryptographic failures are deterministic and must be marked
// permanent so they are never retried.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy describes a bounded exponential backoff applied uniformly to all
// transient-I/O call sites.
type Policy struct {
	// MaxAttempts is the total number of attempts (first try included).
	MaxAttempts int
	// InitialInterval is the delay before the first retry.
	InitialInterval time.Duration
	// MaxInterval caps the delay between retries.
	MaxInterval time.Duration
}

// DefaultPolicy matches the 3-5 attempt budget used across the toolkit.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     4,
		InitialInterval: 250 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

// Do runs op, retrying transient failures until the attempt budget is
// exhausted or ctx is done. Errors wrapped with Permanent stop immediately.
// The last cause is returned to the caller unmodified.
func (p Policy) Do(ctx context.Context, op func() error) error {
	return p.DoNotify(ctx, op, nil)
}

// DoNotify is Do with per-retry logging on the provided logger.
func (p Policy) DoNotify(ctx context.Context, op func() error, logger *slog.Logger) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	backOff := backoff.NewExponentialBackOff()
	backOff.InitialInterval = p.InitialInterval
	backOff.MaxInterval = p.MaxInterval
	// Attempt budget bounds the loop; wall-clock limit stays off.
	backOff.MaxElapsedTime = 0

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backOff, uint64(attempts-1)),
		ctx,
	)

	notify := func(err error, next time.Duration) {
		if logger != nil {
			logger.Warn("transient failure, retrying",
				slog.Any("error", err),
				slog.Duration("next_attempt_in", next),
			)
		}
	}

	return backoff.RetryNotify(op, policy, notify)
}

// Permanent marks err as non-retryable. Use for deterministic failures such
// as unwrap errors and fingerprint mismatches.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}
