package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noSleep records requested delays without waiting.
func noSleep(delays *[]time.Duration) func(ctx context.Context, d time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	var delays []time.Duration
	p := New(3, time.Second).WithSleep(noSleep(&delays))

	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	var delays []time.Duration
	p := New(4, time.Second).WithSleep(noSleep(&delays))

	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, delays, 2)
}

func TestDo_ExponentialBackoff(t *testing.T) {
	var delays []time.Duration
	p := Policy{
		MaxAttempts:    4,
		InitialBackoff: time.Second,
		MaxBackoff:     3 * time.Second,
		Multiplier:     2.0,
	}.WithSleep(noSleep(&delays))

	wantErr := errors.New("always fails")
	err := p.Do(context.Background(), func(context.Context) error {
		return wantErr
	})

	require.ErrorIs(t, err, wantErr)
	// 1s, then 2s, then capped at 3s.
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}, delays)
}

func TestDo_ReturnsLastError(t *testing.T) {
	var delays []time.Duration
	p := New(2, time.Second).WithSleep(noSleep(&delays))

	err := p.Do(context.Background(), func(context.Context) error {
		return errors.New("attempt failed")
	})

	require.Error(t, err)
	assert.Equal(t, "attempt failed", err.Error())
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var delays []time.Duration
	p := New(5, time.Second).WithSleep(noSleep(&delays))

	calls := 0
	err := p.Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return errors.New("failed then cancelled")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls, "cancellation must stop further attempts")
}

func TestDo_PermanentStopsRetrying(t *testing.T) {
	var delays []time.Duration
	p := New(5, time.Second).WithSleep(noSleep(&delays))

	wantErr := errors.New("rejected input")
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return Permanent(wantErr)
	})

	require.ErrorIs(t, err, wantErr)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestPermanent_NilIsNil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	p := Policy{}
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
