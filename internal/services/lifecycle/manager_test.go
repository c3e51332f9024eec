package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestShutdownRunsHooksInReverse(t *testing.T) {
	m := New(time.Second, nil)

	var order []string
	for _, name := range []string{"store", "monitor", "http_server"} {
		name := name
		m.Register(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}
	m.Register("ignored", nil)

	if err := m.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	want := []string{"http_server", "monitor", "store"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order: got %v, want %v", order, want)
		}
	}
}

func TestShutdownCollectsErrorsAndRunsOnce(t *testing.T) {
	m := New(time.Second, nil)
	boom := errors.New("boom")

	calls := 0
	m.Register("store", func(context.Context) error {
		calls++
		return boom
	})
	m.Register("http_server", func(context.Context) error {
		calls++
		return nil
	})

	err := m.Shutdown(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if again := m.Shutdown(context.Background()); !errors.Is(again, boom) {
		t.Errorf("second Shutdown: got %v", again)
	}
	if calls != 2 {
		t.Errorf("hooks ran %d times, want 2", calls)
	}
}

func TestShutdownHooksSeeDeadline(t *testing.T) {
	m := New(50*time.Millisecond, nil)
	m.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	start := time.Now()
	err := m.Shutdown(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("shutdown did not honour the timeout")
	}
}

func TestGoCancelsOnFailure(t *testing.T) {
	m := New(time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.Go("http_server", cancel, func() error { return errors.New("address in use") })

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("expected the app context to be cancelled")
	}
}
