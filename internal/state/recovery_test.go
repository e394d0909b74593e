package state

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/lakeview-dev/lakeview/internal/apierr"
)

func TestWrapTriggersHandlerOnceAndKeepsError(t *testing.T) {
	var calls int
	var reasons []Reason
	recovery := NewRecovery(func(reason Reason) {
		calls++
		reasons = append(reasons, reason)
	})

	authErr := &apierr.Error{Kind: apierr.KindAuthExpired, Status: 401, Op: "catalog search"}
	op := Wrap(recovery, func(context.Context) (int, error) {
		return 0, authErr
	})

	_, err := op(context.Background())
	if !errors.Is(err, authErr) {
		t.Fatalf("original error must reach the caller, got %v", err)
	}
	// A second failure before reset must not re-trigger.
	if _, err := op(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
	if len(reasons) != 1 || reasons[0] != ReasonTokenExpired {
		t.Fatalf("unexpected reasons %v", reasons)
	}
}

func TestWrapIgnoresNonAuthErrors(t *testing.T) {
	var calls int
	recovery := NewRecovery(func(Reason) { calls++ })

	timeout := errors.New("dial tcp: i/o timeout")
	op := Wrap(recovery, func(context.Context) (string, error) {
		return "", timeout
	})

	if _, err := op(context.Background()); !errors.Is(err, timeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("handler must not run for non-auth errors, ran %d times", calls)
	}
}

func TestWrapPassesSuccessThrough(t *testing.T) {
	recovery := NewRecovery(func(Reason) { t.Fatal("handler must not run") })
	op := Wrap(recovery, func(context.Context) (string, error) {
		return "ok", nil
	})
	value, err := op(context.Background())
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if value != "ok" {
		t.Fatalf("unexpected value %q", value)
	}
}

func TestRecoveryConcurrentTriggersFireOnce(t *testing.T) {
	var mu sync.Mutex
	var calls int
	recovery := NewRecovery(func(Reason) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			recovery.Trigger(ReasonUnauthorized)
		}()
	}
	wg.Wait()

	if calls != 1 {
		t.Fatalf("expected one handler invocation, got %d", calls)
	}
	if !recovery.Fired() {
		t.Fatal("expected recovery to report fired")
	}
}

func TestRecoveryResetReArms(t *testing.T) {
	var calls int
	recovery := NewRecovery(func(Reason) { calls++ })

	recovery.Trigger(ReasonSessionExpired)
	recovery.Reset()
	recovery.Trigger(ReasonSessionExpired)

	if calls != 2 {
		t.Fatalf("expected two invocations across a reset, got %d", calls)
	}
}

func TestObserveRoutesStoreFailures(t *testing.T) {
	store := NewStore()
	var got []Reason
	recovery := NewRecovery(func(reason Reason) { got = append(got, reason) })
	Observe(store, recovery)

	store.SetSearch(SearchState{Term: "no-op for recovery"})
	store.ReportAuthFailure(ReasonUnauthorized)
	store.ReportAuthFailure(ReasonUnauthorized)

	if len(got) != 1 || got[0] != ReasonUnauthorized {
		t.Fatalf("unexpected reasons %v", got)
	}
}

func TestParseReason(t *testing.T) {
	tests := []struct {
		value string
		want  Reason
	}{
		{value: "token-expired", want: ReasonTokenExpired},
		{value: "unauthorized", want: ReasonUnauthorized},
		{value: "session-expired", want: ReasonSessionExpired},
		{value: "anything-else", want: ReasonSessionExpired},
		{value: "", want: ReasonSessionExpired},
	}
	for _, tc := range tests {
		if got := ParseReason(tc.value); got != tc.want {
			t.Fatalf("ParseReason(%q) = %v, want %v", tc.value, got, tc.want)
		}
	}
}
