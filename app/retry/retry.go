package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Policy is a bounded exponential-backoff retry policy. The zero value makes
// exactly one attempt.
type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	// AttemptTimeout bounds each attempt when positive.
	AttemptTimeout time.Duration
	// Retryable reports whether a failed attempt may be repeated. A nil
	// predicate never retries.
	Retryable func(error) bool

	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy makes up to three attempts waiting 2s then 4s, capped at 10s.
func DefaultPolicy(retryable func(error) bool) Policy {
	return Policy{
		MaxAttempts:    3,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     10 * time.Second,
		Multiplier:     2,
		Retryable:      retryable,
	}
}

// WithSleep replaces the wait between attempts. Used by tests.
func (p Policy) WithSleep(sleep func(ctx context.Context, d time.Duration) error) Policy {
	p.sleep = sleep
	return p
}

// Backoff returns the wait before attempt n+1 after attempt n failed.
func (p Policy) Backoff(n int) time.Duration {
	d := p.InitialBackoff
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	for i := 1; i < n; i++ {
		d = time.Duration(float64(d) * mult)
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

// Do runs op until it succeeds, fails with a non-retryable error, the attempts
// run out or ctx is done. The last error is returned wrapped with the attempt count.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := max(1, p.MaxAttempts)
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for n := 1; n <= attempts; n++ {
		lastErr = p.attempt(ctx, op)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil || p.Retryable == nil || !p.Retryable(lastErr) || n == attempts {
			return fmt.Errorf("after %d attempt(s): %w", n, lastErr)
		}
		if err := sleep(ctx, p.Backoff(n)); err != nil {
			return fmt.Errorf("after %d attempt(s): %w", n, errors.Join(lastErr, err))
		}
	}
	return lastErr
}

func (p Policy) attempt(ctx context.Context, op func(ctx context.Context) error) error {
	if p.AttemptTimeout <= 0 {
		return op(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, p.AttemptTimeout)
	defer cancel()
	return op(attemptCtx)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
