package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned when a remote backend cannot be reached.
var ErrUnavailable = errors.New("cache backend unavailable")

// RetryableError marks an error as transient.
type RetryableError struct{ Err error }

// Retryable wraps err as a RetryableError. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// Error returns the error message of the wrapped error.
func (e *RetryableError) Error() string { return e.Err.Error() }

// Unwrap returns the wrapped error.
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is wrapped with RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// retryDelay is the first backoff delay; it doubles per attempt.
var retryDelay = time.Second

// RetryWithBackoff calls fn up to 3 times with exponential backoff.
// Only errors wrapped with Retryable trigger another attempt.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	const attempts = 3
	delay := retryDelay
	var lastErr error

	for i := 0; i < attempts; i++ {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}
