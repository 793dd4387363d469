package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/polyglot-cli/potran/internal/provider"
)

func transientErr() error {
	return &provider.BackendError{Provider: "test", Status: 429, Message: "rate limited", Transient: true}
}

func permanentErr() error {
	return &provider.BackendError{Provider: "test", Status: 401, Message: "bad key", Transient: false}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	e := New(3, time.Millisecond)

	calls := 0
	err := e.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_RetriesTransient(t *testing.T) {
	e := New(3, time.Millisecond)

	calls := 0
	err := e.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return transientErr()
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	e := New(3, time.Millisecond)

	calls := 0
	err := e.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return transientErr()
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}

	var be *provider.BackendError
	if !errors.As(err, &be) || be.Status != 429 {
		t.Errorf("expected the last backend error, got %v", err)
	}
}

func TestDo_PermanentNotRetried(t *testing.T) {
	e := New(3, time.Millisecond)

	calls := 0
	err := e.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return permanentErr()
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("permanent error retried: %d calls", calls)
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	e := New(5, time.Hour) // backoff long enough that only cancellation can end the wait

	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- e.Do(ctx, func(ctx context.Context) error {
			calls++
			return transientErr()
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not return after cancellation")
	}
	if calls != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", calls)
	}
}

func TestNew_Defaults(t *testing.T) {
	e := New(0, 0)
	if e.MaxAttempts != DefaultMaxAttempts {
		t.Errorf("expected default attempts %d, got %d", DefaultMaxAttempts, e.MaxAttempts)
	}
	if e.BaseDelay != DefaultBaseDelay {
		t.Errorf("expected default delay %v, got %v", DefaultBaseDelay, e.BaseDelay)
	}
}
