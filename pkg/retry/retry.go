// Package retry implements a reusable backoff policy for transient failures
// against rate-limited services.
package retry

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// Policy describes a capped exponential backoff: Base delay doubling per
// attempt up to Max, with a uniform random jitter in [0, Jitter) added to
// every wait. Retryable decides whether an error is worth another attempt;
// a nil Retryable retries everything.
type Policy struct {
	Base      time.Duration
	Max       time.Duration
	Attempts  int
	Jitter    time.Duration
	Retryable func(error) bool
}

// Backoff returns the deterministic (jitter-free) delay before the retry
// following attempt, with attempt counting from 0. Delays are non-decreasing
// and capped at Max.
func (p Policy) Backoff(attempt int) time.Duration {
	d := p.Base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= p.Max {
			return p.Max
		}
	}
	if d > p.Max {
		return p.Max
	}
	return d
}

func (p Policy) wait(ctx context.Context, attempt int) error {
	d := p.Backoff(attempt)
	if p.Jitter > 0 {
		d += time.Duration(rand.Int64N(int64(p.Jitter)))
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

// Do invokes fn until it succeeds, it fails with a non-retryable error, or
// the attempt ceiling is reached. The error from the final attempt is
// returned wrapped with the attempt count.
func Do[T any](ctx context.Context, p Policy, fn func() (T, error)) (T, error) {
	var zero T

	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		var result T
		result, err = fn()
		if err == nil {
			return result, nil
		}

		if p.Retryable != nil && !p.Retryable(err) {
			return zero, err
		}

		if attempt == attempts-1 {
			break
		}

		if waitErr := p.wait(ctx, attempt); waitErr != nil {
			return zero, waitErr
		}
	}

	return zero, fmt.Errorf("after %d attempts: %w", attempts, err)
}
