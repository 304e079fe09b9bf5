package feed

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicy(t *testing.T) {
	policy := DefaultRetryPolicy()

	if !policy.ShouldRetry(errors.New("connection refused"), 1) {
		t.Error("expected connection error to be retryable")
	}
	if !policy.ShouldRetry(errors.New("some error"), 100) {
		t.Error("default policy should retry without limit")
	}

	for attempt, want := range map[int]time.Duration{1: time.Second, 2: 2 * time.Second, 3: 4 * time.Second} {
		if got := policy.NextDelay(attempt); got != want {
			t.Errorf("attempt %d: expected %v delay, got %v", attempt, want, got)
		}
	}
}

func TestRetryPolicyMaxAttempts(t *testing.T) {
	policy := &RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond, Multiplier: 2, MaxDelay: time.Second}
	if !policy.ShouldRetry(errors.New("eof"), 2) {
		t.Error("expected retry before max attempts")
	}
	if policy.ShouldRetry(errors.New("eof"), 3) {
		t.Error("should not retry after max attempts")
	}
}

func TestRetryPolicyNonRetryable(t *testing.T) {
	policy := DefaultRetryPolicy()

	for _, msg := range []string{"websocket: bad handshake: unauthorized", "forbidden", "malformed ws or wss URL", "NOAUTH Authentication required"} {
		if policy.ShouldRetry(errors.New(msg), 1) {
			t.Errorf("expected %q to be non-retryable", msg)
		}
	}
	if policy.ShouldRetry(nil, 1) {
		t.Error("nil error should not be retryable")
	}
}

func TestRetryPolicyMaxDelayCap(t *testing.T) {
	policy := &RetryPolicy{InitialDelay: time.Second, Multiplier: 10, MaxDelay: 30 * time.Second}
	if delay := policy.NextDelay(5); delay != policy.MaxDelay {
		t.Errorf("expected delay capped at %v, got %v", policy.MaxDelay, delay)
	}
}

func TestRetryPolicyWaitCancelled(t *testing.T) {
	policy := &RetryPolicy{InitialDelay: time.Hour, Multiplier: 1, MaxDelay: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := policy.Wait(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
