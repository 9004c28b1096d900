package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicy_Delay(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, Multiplier: 2}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
	}
	for _, tt := range tests {
		if got := p.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestRetryPolicy_RetriesTransientOnly(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, Multiplier: 2}

	t.Run("transient fault retried to success", func(t *testing.T) {
		calls := 0
		err := p.Do(context.Background(), func() error {
			calls++
			if calls < 3 {
				return Transient(errors.New("flaky"))
			}
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 3 {
			t.Errorf("expected 3 attempts, got %d", calls)
		}
	})

	t.Run("permanent fault fails fast", func(t *testing.T) {
		calls := 0
		permanent := errors.New("bad request")
		err := p.Do(context.Background(), func() error {
			calls++
			return permanent
		})
		if !errors.Is(err, permanent) {
			t.Fatalf("expected the permanent error, got %v", err)
		}
		if calls != 1 {
			t.Errorf("permanent errors must not be retried, got %d attempts", calls)
		}
	})

	t.Run("transient fault exhausts attempts", func(t *testing.T) {
		calls := 0
		err := p.Do(context.Background(), func() error {
			calls++
			return Transient(errors.New("still flaky"))
		})
		if err == nil {
			t.Fatal("expected an error after exhausting attempts")
		}
		if calls != 3 {
			t.Errorf("expected 3 attempts, got %d", calls)
		}
	})
}

func TestRetryPolicy_CancellationStopsBackoff(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Hour, Multiplier: 2}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := p.Do(ctx, func() error {
		return Transient(errors.New("flaky"))
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled during backoff, got %v", err)
	}
}

func TestIsTransient(t *testing.T) {
	if IsTransient(errors.New("plain")) {
		t.Error("plain error must not be transient")
	}
	wrapped := Transient(errors.New("inner"))
	if !IsTransient(wrapped) {
		t.Error("marked error must be transient")
	}
	if Transient(nil) != nil {
		t.Error("Transient(nil) must be nil")
	}
}
