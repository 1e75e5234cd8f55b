package errors

import (
	"context"
	stderrors "errors"
	"net"
	"testing"
	"time"
)

func TestBackoffDoublesFromBase(t *testing.T) {
	t.Parallel()

	config := RetryConfig{BaseDelay: 2 * time.Second, MaxDelay: 30 * time.Second}

	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}
	for attempt, expected := range want {
		if got := Backoff(attempt, config); got != expected {
			t.Fatalf("Backoff(%d) = %v, want %v", attempt, got, expected)
		}
	}
}

func TestBackoffRespectsMaxDelay(t *testing.T) {
	t.Parallel()

	config := RetryConfig{BaseDelay: 2 * time.Second, MaxDelay: 5 * time.Second}
	if got := Backoff(3, config); got != 5*time.Second {
		t.Fatalf("expected cap at 5s, got %v", got)
	}
}

func TestRetryStopsOnSuccess(t *testing.T) {
	t.Parallel()

	config := RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond}
	calls := 0
	result, err := RetryWithResult(context.Background(), config, func(ctx context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "", &net.OpError{Op: "dial", Err: stderrors.New("connection refused")}
		}
		return "ok", nil
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" {
		t.Fatalf("expected ok, got %q", result)
	}
	if calls != 2 {
		t.Fatalf("expected success on attempt 2 to stop retries, got %d calls", calls)
	}
}

func TestRetryExhaustionYieldsUpstreamUnavailable(t *testing.T) {
	t.Parallel()

	config := RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond}
	calls := 0
	_, err := RetryWithResult(context.Background(), config, func(ctx context.Context) (string, error) {
		calls++
		return "", NewHTTPStatusError(503, "503 Service Unavailable", "")
	}, nil)
	if err == nil {
		t.Fatalf("expected error after exhaustion")
	}
	if calls != 4 {
		t.Fatalf("expected 1 initial attempt + 3 retries, got %d calls", calls)
	}
	if KindOf(err) != KindUpstreamUnavailable {
		t.Fatalf("expected upstream_unavailable, got %v", KindOf(err))
	}
}

func TestRetryDoesNotRetryPermanentErrors(t *testing.T) {
	t.Parallel()

	config := RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond}
	calls := 0
	_, err := RetryWithResult(context.Background(), config, func(ctx context.Context) (string, error) {
		calls++
		return "", New(KindNotFound, "missing")
	}, nil)
	if calls != 1 {
		t.Fatalf("taxonomy errors must not be retried, got %d calls", calls)
	}
	if !IsNotFound(err) {
		t.Fatalf("expected not_found to pass through, got %v", err)
	}
}

func TestRetryObservesCancellationDuringBackoff(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	config := RetryConfig{MaxRetries: 3, BaseDelay: time.Hour}
	calls := 0

	done := make(chan error, 1)
	go func() {
		_, err := RetryWithResult(ctx, config, func(ctx context.Context) (string, error) {
			calls++
			return "", NewHTTPStatusError(502, "502 Bad Gateway", "")
		}, nil)
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !IsCancelled(err) {
			t.Fatalf("expected cancelled outcome, got %v", err)
		}
		if calls != 1 {
			t.Fatalf("expected abort after first attempt, got %d calls", calls)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("retry did not abort on cancellation")
	}
}

func TestKindOfMapsContextErrors(t *testing.T) {
	t.Parallel()

	if KindOf(context.Canceled) != KindCancelled {
		t.Fatalf("context.Canceled should map to cancelled")
	}
	if KindOf(context.DeadlineExceeded) != KindCancelled {
		t.Fatalf("context.DeadlineExceeded should map to cancelled")
	}
}

func TestIsTransientClassification(t *testing.T) {
	t.Parallel()

	if !IsTransient(NewHTTPStatusError(500, "500 Internal Server Error", "")) {
		t.Fatalf("non-2xx must be transient")
	}
	if !IsTransient(&net.OpError{Op: "dial", Err: stderrors.New("refused")}) {
		t.Fatalf("transport errors must be transient")
	}
	if IsTransient(New(KindInvalidArgument, "bad input")) {
		t.Fatalf("taxonomy errors must not be transient")
	}
	if IsTransient(context.Canceled) {
		t.Fatalf("cancellation must not be transient")
	}
}
