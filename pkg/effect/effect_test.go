package effect

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func waitDone(t *testing.T, e *Effect) {
	t.Helper()
	select {
	case <-e.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("effect did not finish")
	}
}

func TestUnmountBeforeResolveSkipsContinuation(t *testing.T) {
	release := make(chan struct{})
	var continued, cleaned atomic.Bool
	var awaitErr error

	e := Mount(context.Background(), func(s *Scope) error {
		if err := s.OnCleanup(func() { cleaned.Store(true) }); err != nil {
			return err
		}
		_, err := Await(s, func(ctx context.Context) (string, error) {
			<-release
			return "todos", nil
		})
		awaitErr = err
		if err != nil {
			return err
		}
		continued.Store(true)
		return nil
	})

	e.Unmount()
	close(release)
	waitDone(t, e)

	if continued.Load() {
		t.Error("continuation ran after unmount")
	}
	if !errors.Is(awaitErr, ErrUnmounted) {
		t.Errorf("Await: got %v, want ErrUnmounted", awaitErr)
	}
	if !cleaned.Load() {
		t.Error("cleanup did not run")
	}
	if err := e.Wait(); err != nil {
		t.Errorf("ErrUnmounted must be swallowed, got %v", err)
	}
	if e.State() != Unmounted {
		t.Errorf("State: got %v, want unmounted", e.State())
	}
}

func TestUnmountAfterResolveStillCleansUp(t *testing.T) {
	var cleanups atomic.Int32
	var got string

	e := Mount(context.Background(), func(s *Scope) error {
		_ = s.OnCleanup(func() { cleanups.Add(1) })
		val, err := Await(s, func(context.Context) (string, error) { return "done", nil })
		if err != nil {
			return err
		}
		got = val
		return nil
	})
	waitDone(t, e)

	if got != "done" {
		t.Fatalf("continuation result: got %q", got)
	}
	if e.State() != Completed {
		t.Fatalf("State: got %v, want completed", e.State())
	}

	e.Unmount()
	e.Unmount()

	if e.State() != Completed {
		t.Errorf("unmount after completion must not change state, got %v", e.State())
	}
	if n := cleanups.Load(); n != 1 {
		t.Errorf("cleanup ran %d times, want 1", n)
	}
}

func TestUnmountDuringContinuationKeepsCompleted(t *testing.T) {
	continued := make(chan struct{})
	resume := make(chan struct{})
	var cleanups atomic.Int32

	e := Mount(context.Background(), func(s *Scope) error {
		_ = s.OnCleanup(func() { cleanups.Add(1) })
		if _, err := Await(s, func(context.Context) (string, error) { return "done", nil }); err != nil {
			return err
		}
		close(continued)
		<-resume
		return nil
	})

	<-continued
	e.Unmount()
	close(resume)
	waitDone(t, e)

	if e.State() != Completed {
		t.Errorf("State: got %v, want completed", e.State())
	}
	if n := cleanups.Load(); n != 1 {
		t.Errorf("cleanup ran %d times, want 1", n)
	}
}

func TestCleanupRegistrationRules(t *testing.T) {
	var tooLate, twice error
	e := Mount(context.Background(), func(s *Scope) error {
		if err := s.OnCleanup(func() {}); err != nil {
			return err
		}
		twice = s.OnCleanup(func() {})
		_, _ = Await(s, func(context.Context) (int, error) { return 1, nil })
		tooLate = s.OnCleanup(func() {})
		return nil
	})
	waitDone(t, e)

	if !errors.Is(twice, ErrCleanupRegistered) {
		t.Errorf("second registration: got %v", twice)
	}
	if !errors.Is(tooLate, ErrCleanupTooLate) {
		t.Errorf("registration after await: got %v", tooLate)
	}
}

func TestCleanupAfterUnmountRunsImmediately(t *testing.T) {
	registered := make(chan struct{})
	proceed := make(chan struct{})
	var cleaned atomic.Bool

	e := Mount(context.Background(), func(s *Scope) error {
		<-proceed
		err := s.OnCleanup(func() { cleaned.Store(true) })
		close(registered)
		return err
	})

	e.Unmount()
	close(proceed)
	<-registered
	waitDone(t, e)

	if !cleaned.Load() {
		t.Error("cleanup registered after unmount must still run")
	}
}

func TestErrorsSurface(t *testing.T) {
	boom := errors.New("boom")
	var mu sync.Mutex
	var handled []error

	e := Mount(context.Background(), func(s *Scope) error {
		_, err := Await(s, func(context.Context) (int, error) { return 0, boom })
		return err
	}, WithErrorHandler(func(err error) {
		mu.Lock()
		handled = append(handled, err)
		mu.Unlock()
	}))

	if err := e.Wait(); !errors.Is(err, boom) {
		t.Fatalf("Wait: got %v, want boom", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(handled) != 1 || !errors.Is(handled[0], boom) {
		t.Errorf("handler got %v", handled)
	}
}

func TestWrappedUnmountIsSwallowed(t *testing.T) {
	called := false
	e := Mount(context.Background(), func(s *Scope) error {
		return errors.Join(errors.New("load todos"), ErrUnmounted)
	}, WithErrorHandler(func(error) { called = true }))

	if err := e.Wait(); err != nil {
		t.Errorf("Wait: got %v", err)
	}
	if called {
		t.Error("handler must not see ErrUnmounted")
	}
}

func TestScopeContextCancelledOnUnmount(t *testing.T) {
	started := make(chan struct{})
	causes := make(chan error, 1)

	e := Mount(context.Background(), func(s *Scope) error {
		_, err := Await(s, func(ctx context.Context) (int, error) {
			close(started)
			<-ctx.Done()
			causes <- context.Cause(ctx)
			return 0, ctx.Err()
		})
		return err
	})

	<-started
	e.Unmount()
	waitDone(t, e)

	select {
	case cause := <-causes:
		if !errors.Is(cause, ErrUnmounted) {
			t.Errorf("op saw cause %v, want ErrUnmounted", cause)
		}
	case <-time.After(time.Second):
		t.Fatal("op was not cancelled")
	}
}

func TestParentCancellationUnmounts(t *testing.T) {
	type key struct{}
	parent, cancel := context.WithCancel(context.WithValue(context.Background(), key{}, "v"))
	var cleaned atomic.Bool
	var sawValue any

	e := Mount(parent, func(s *Scope) error {
		_ = s.OnCleanup(func() { cleaned.Store(true) })
		sawValue = s.Context().Value(key{})
		_, err := Await(s, func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		})
		return err
	})

	cancel()
	waitDone(t, e)

	if e.State() != Unmounted {
		t.Errorf("State: got %v", e.State())
	}
	if err := e.Wait(); err != nil {
		t.Errorf("Wait: got %v", err)
	}
	if sawValue != "v" {
		t.Errorf("parent values must be visible, got %v", sawValue)
	}
	deadline := time.Now().Add(time.Second)
	for !cleaned.Load() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !cleaned.Load() {
		t.Error("cleanup did not run on parent cancellation")
	}
}

func TestAwaitAfterUnmountReturnsImmediately(t *testing.T) {
	gate := make(chan struct{})
	ran := false
	var err error

	e := Mount(context.Background(), func(s *Scope) error {
		<-gate
		_, err = Await(s, func(context.Context) (int, error) {
			ran = true
			return 1, nil
		})
		return err
	})

	e.Unmount()
	close(gate)
	waitDone(t, e)

	if ran {
		t.Error("op must not start after unmount")
	}
	if !errors.Is(err, ErrUnmounted) {
		t.Errorf("Await: got %v", err)
	}
}

func TestStateString(t *testing.T) {
	for state, want := range map[State]string{Running: "running", Completed: "completed", Unmounted: "unmounted", State(9): "unknown"} {
		if got := state.String(); got != want {
			t.Errorf("%d: got %q, want %q", state, got, want)
		}
	}
}
