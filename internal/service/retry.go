package service

import (
	"context"
	"errors"
	"time"
)

// transientError marks a fault as retryable.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient wraps err so a RetryPolicy will retry it.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err was marked retryable.
func IsTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// RetryPolicy is an explicit retry-with-backoff policy applied at the
// gateway/synthesizer client boundary, independent of the orchestration
// logic that calls them.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
}

// DefaultRetryPolicy mirrors the external clients' historical behavior:
// three attempts with exponential backoff starting at one second.
func DefaultRetryPolicy(maxAttempts int) RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		BaseDelay:   time.Second,
		Multiplier:  2,
	}
}

// Delay returns the backoff delay before the given retry (1-based attempt
// that just failed).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d = time.Duration(float64(d) * p.Multiplier)
	}
	return d
}

// Do runs op, retrying transient faults up to MaxAttempts with exponential
// backoff. Non-transient errors and context cancellation stop immediately.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	var err error
	for attempt := 1; ; attempt++ {
		err = op()
		if err == nil || !IsTransient(err) || attempt >= p.MaxAttempts {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Delay(attempt)):
		}
	}
}
