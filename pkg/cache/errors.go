package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound reports a missing entry.
	ErrNotFound = errors.New("not found")

	// ErrNetwork reports an unreachable remote backend.
	ErrNetwork = errors.New("network error")
)

// RetryableError marks a transient failure. Only errors carrying it make
// [Retry] try again.
type RetryableError struct{ Err error }

// Retryable marks err as transient. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether any error in err's chain is a RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Backoff configures [Retry].
type Backoff struct {
	// Attempts is the total number of calls. Values below 1 mean one call.
	Attempts int
	// Delay is the wait before the second call. It doubles after each retry.
	Delay time.Duration
	// Max caps the doubled delay. Zero leaves it uncapped.
	Max time.Duration
	// OnRetry, if set, is called with the failed attempt number (from 1)
	// and its error before waiting.
	OnRetry func(attempt int, err error)
}

// DefaultBackoff is the policy used for garden saves when none is configured.
var DefaultBackoff = Backoff{Attempts: 3, Delay: time.Second, Max: 10 * time.Second}

// wait returns the delay before the call following attempt n (from 1).
func (b Backoff) wait(n int) time.Duration {
	d := b.Delay
	for i := 1; i < n; i++ {
		d *= 2
		if b.Max > 0 && d >= b.Max {
			return b.Max
		}
	}
	if b.Max > 0 && d > b.Max {
		return b.Max
	}
	return d
}

// Retry calls fn until it succeeds, fails with a non-retryable error, or
// b.Attempts calls have failed. It returns the last error, or ctx.Err() if
// ctx ends while waiting.
func Retry(ctx context.Context, b Backoff, fn func() error) error {
	attempts := max(b.Attempts, 1)
	var err error
	for n := 1; ; n++ {
		if err = fn(); err == nil || !IsRetryable(err) || n == attempts {
			return err
		}
		if b.OnRetry != nil {
			b.OnRetry(n, err)
		}

		timer := time.NewTimer(b.wait(n))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
