package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")
var errFatal = errors.New("fatal")

func isTransient(err error) bool { return errors.Is(err, errTransient) }

func recordingPolicy(waits *[]time.Duration) Policy {
	return DefaultPolicy(isTransient).WithSleep(func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	})
}

func TestPolicy_Backoff(t *testing.T) {
	p := DefaultPolicy(nil)
	assert.Equal(t, 2*time.Second, p.Backoff(1))
	assert.Equal(t, 4*time.Second, p.Backoff(2))
	assert.Equal(t, 8*time.Second, p.Backoff(3))
	assert.Equal(t, 10*time.Second, p.Backoff(4))
	assert.Equal(t, 10*time.Second, p.Backoff(10))
}

func TestPolicy_Do(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		var waits []time.Duration
		calls := 0
		err := recordingPolicy(&waits).Do(context.Background(), func(context.Context) error {
			calls++
			if calls < 3 {
				return errTransient
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, waits)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		var waits []time.Duration
		calls := 0
		err := recordingPolicy(&waits).Do(context.Background(), func(context.Context) error {
			calls++
			return errTransient
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, errTransient)
		assert.Equal(t, 3, calls)
		assert.Len(t, waits, 2)
	})

	t.Run("deterministic failures are not retried", func(t *testing.T) {
		var waits []time.Duration
		calls := 0
		err := recordingPolicy(&waits).Do(context.Background(), func(context.Context) error {
			calls++
			return errFatal
		})
		assert.ErrorIs(t, err, errFatal)
		assert.Equal(t, 1, calls)
		assert.Empty(t, waits)
	})

	t.Run("cancelled parent stops retrying", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := DefaultPolicy(isTransient).Do(ctx, func(context.Context) error {
			calls++
			cancel()
			return errTransient
		})
		assert.ErrorIs(t, err, errTransient)
		assert.Equal(t, 1, calls)
	})

	t.Run("attempt timeout bounds each attempt", func(t *testing.T) {
		p := Policy{MaxAttempts: 2, AttemptTimeout: 5 * time.Millisecond, Retryable: func(err error) bool {
			return errors.Is(err, context.DeadlineExceeded)
		}}.WithSleep(func(context.Context, time.Duration) error { return nil })
		calls := 0
		err := p.Do(context.Background(), func(ctx context.Context) error {
			calls++
			<-ctx.Done()
			return ctx.Err()
		})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, 2, calls)
	})

	t.Run("zero policy makes one attempt", func(t *testing.T) {
		calls := 0
		_ = Policy{}.Do(context.Background(), func(context.Context) error {
			calls++
			return errTransient
		})
		assert.Equal(t, 1, calls)
	})
}
