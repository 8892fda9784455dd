// Package retry provides an explicit retry policy for external call sites.
// The policy object makes failure behaviour testable in isolation: tests
// inject a fake sleep function and count attempts against a fake backend.
package retry

import (
	"context"
	"errors"
	"time"
)

// Policy describes a bounded retry schedule with exponential backoff.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// InitialBackoff is the delay before the second attempt.
	InitialBackoff time.Duration

	// MaxBackoff caps the delay between attempts.
	MaxBackoff time.Duration

	// Multiplier scales the backoff after each failed attempt.
	Multiplier float64

	// sleep is replaceable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Default is the policy used for external calls when the configuration does
// not override it.
var Default = Policy{
	MaxAttempts:    3,
	InitialBackoff: 500 * time.Millisecond,
	MaxBackoff:     10 * time.Second,
	Multiplier:     2.0,
}

// New creates a policy with the given attempt budget and initial backoff.
func New(maxAttempts int, initial time.Duration) Policy {
	p := Default
	if maxAttempts > 0 {
		p.MaxAttempts = maxAttempts
	}
	if initial > 0 {
		p.InitialBackoff = initial
	}
	return p
}

// WithSleep returns a copy of the policy using the given sleep function.
// Tests use this to avoid real delays.
func (p Policy) WithSleep(sleep func(ctx context.Context, d time.Duration) error) Policy {
	p.sleep = sleep
	return p
}

// Do runs fn until it succeeds, the attempt budget is exhausted, or the
// context is cancelled. The last error is returned. Context cancellation is
// returned immediately and is never retried.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	sleep := p.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	backoff := p.InitialBackoff
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, backoff); err != nil {
				return err
			}
			backoff = p.nextBackoff(backoff)
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(lastErr, &perm) {
			return perm.err
		}
		if ctx.Err() != nil {
			return lastErr
		}
	}

	return lastErr
}

// Permanent wraps err so Do returns it immediately without spending further
// attempts. Use it for failures a retry cannot fix, such as rejected input.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func (p Policy) nextBackoff(current time.Duration) time.Duration {
	mult := p.Multiplier
	if mult < 1 {
		mult = 2.0
	}
	next := time.Duration(float64(current) * mult)
	if p.MaxBackoff > 0 && next > p.MaxBackoff {
		next = p.MaxBackoff
	}
	return next
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
