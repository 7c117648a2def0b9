// Package retry provides a small reusable retry policy with capped
// exponential backoff, used around network-bound provider calls.
package retry

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Policy configures retry behavior for a fallible operation.
type Policy struct {
	MaxAttempts int           // total attempts including the first (min 1)
	BaseDelay   time.Duration // delay before the second attempt
	MaxDelay    time.Duration // cap for the exponential backoff
}

// DefaultPolicy returns the policy used for embedding and completion calls.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    8 * time.Second,
	}
}

// WithAttempts returns a copy of the policy with the attempt budget replaced.
// Non-positive values are ignored.
func (p Policy) WithAttempts(attempts int) Policy {
	if attempts > 0 {
		p.MaxAttempts = attempts
	}
	return p
}

// Do runs fn until it succeeds or the attempt budget is exhausted. Each failed
// attempt is logged with its number; the delay between attempts doubles from
// BaseDelay up to MaxDelay. Context cancellation aborts the wait and returns
// ctx.Err(). After exhaustion the last error is returned wrapped with the
// operation name.
func (p Policy) Do(ctx context.Context, logger *zap.Logger, op string, fn func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.delay(attempt - 1)):
			}
		}

		if err := fn(ctx); err != nil {
			lastErr = err
			logger.Warn("operation failed, will retry",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", attempts),
				zap.Error(err),
			)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		return nil
	}

	return fmt.Errorf("%s: %d attempts exhausted: %w", op, attempts, lastErr)
}

// delay returns the backoff before attempt n+1 (n >= 1).
func (p Policy) delay(n int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	max := p.MaxDelay
	if max <= 0 {
		max = 8 * time.Second
	}

	d := base
	for i := 1; i < n; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}
