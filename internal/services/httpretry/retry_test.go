package httpretry

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestDoRetriesStatusErrors(t *testing.T) {
	var sleeps []time.Duration
	p := Policy{MaxAttempts: 4, BaseDelay: time.Second, MaxDelay: 3 * time.Second, Sleeper: func(d time.Duration) { sleeps = append(sleeps, d) }}

	calls := 0
	err := Do(context.Background(), p, "tts", func(context.Context) error {
		calls++
		if calls < 4 {
			return &StatusError{StatusCode: http.StatusServiceUnavailable}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if calls != 4 {
		t.Fatalf("expected 4 calls, got %d", calls)
	}
	want := []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}
	if len(sleeps) != len(want) {
		t.Fatalf("unexpected sleeps: %v", sleeps)
	}
	for i := range want {
		if sleeps[i] != want[i] {
			t.Fatalf("sleep %d = %v, want %v", i, sleeps[i], want[i])
		}
	}
}

func TestDoHonoursRetryAfter(t *testing.T) {
	var slept time.Duration
	p := Policy{MaxAttempts: 2, BaseDelay: time.Second, MaxDelay: 10 * time.Second, Sleeper: func(d time.Duration) { slept = d }}
	calls := 0
	_ = Do(context.Background(), p, "llm", func(context.Context) error {
		calls++
		if calls == 1 {
			return &StatusError{StatusCode: http.StatusTooManyRequests, RetryAfter: 7 * time.Second}
		}
		return nil
	})
	if slept != 7*time.Second {
		t.Fatalf("expected Retry-After delay, got %v", slept)
	}
}

func TestDoStopsOnClientErrors(t *testing.T) {
	p := Policy{MaxAttempts: 5, Sleeper: func(time.Duration) {}}
	calls := 0
	err := Do(context.Background(), p, "tts", func(context.Context) error {
		calls++
		return &StatusError{Op: "tts", StatusCode: http.StatusUnauthorized, Body: "bad key"}
	})
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestDoWrapsExhaustedAttempts(t *testing.T) {
	p := Policy{MaxAttempts: 2, Sleeper: func(time.Duration) {}}
	err := Do(context.Background(), p, "llm video", func(context.Context) error {
		return &Retryable{Err: errors.New("empty content")}
	})
	if err == nil || !strings.Contains(err.Error(), "failed after 2 attempts") {
		t.Fatalf("expected exhausted error, got %v", err)
	}
}

func TestDoStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 5, BaseDelay: time.Second, Sleeper: func(time.Duration) { cancel() }}
	calls := 0
	err := Do(ctx, p, "tts", func(context.Context) error {
		calls++
		return &StatusError{StatusCode: http.StatusBadGateway}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", calls)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d, ok := ParseRetryAfter("3"); !ok || d != 3*time.Second {
		t.Fatalf("unexpected parse: %v %v", d, ok)
	}
	if _, ok := ParseRetryAfter("soon"); ok {
		t.Fatal("expected invalid value rejected")
	}
	if _, ok := ParseRetryAfter("-1"); ok {
		t.Fatal("expected negative value rejected")
	}
}

func TestSnippet(t *testing.T) {
	if got := Snippet("  a\n\tb  ", 10); got != "a b" {
		t.Fatalf("unexpected snippet %q", got)
	}
	if got := Snippet("abcdef", 3); got != "abc..." {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := Snippet("", 3); got != "<empty>" {
		t.Fatalf("unexpected empty snippet %q", got)
	}
}
