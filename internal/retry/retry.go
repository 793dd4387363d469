// Package retry wraps a single backend call with bounded retry and
// exponential backoff.
package retry

import (
	"context"
	"time"

	"github.com/polyglot-cli/potran/internal/provider"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

// Executor retries an operation up to MaxAttempts times. Only transient
// backend failures (rate limiting, network, server errors) are retried;
// permanent failures propagate immediately. The delay before attempt n
// is BaseDelay·2^(n-1).
type Executor struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// New returns an Executor with the given attempt bound, falling back to
// the defaults for non-positive values.
func New(maxAttempts int, baseDelay time.Duration) Executor {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	return Executor{MaxAttempts: maxAttempts, BaseDelay: baseDelay}
}

// Do runs op, retrying transient failures until the attempt bound is
// exhausted. It returns the last error when all attempts fail, and stops
// early when ctx is cancelled.
func (e Executor) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt < e.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := e.BaseDelay << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !provider.IsTransient(lastErr) {
			return lastErr
		}
	}

	return lastErr
}
