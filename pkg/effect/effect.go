// Package effect runs asynchronous work bound to the lifetime of a view.
//
// A mounted callback waits through Await. Unmount cancels the pending wait
// with ErrUnmounted so the code after it never runs, then runs the cleanup
// the callback registered, if any.
package effect

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrUnmounted is delivered to a pending Await when the effect is torn down.
	ErrUnmounted = errors.New("unmounted")
	// ErrCleanupTooLate is returned by OnCleanup after the first Await.
	ErrCleanupTooLate = errors.New("effect: cleanup must be registered before the first await")
	// ErrCleanupRegistered is returned by a second OnCleanup call.
	ErrCleanupRegistered = errors.New("effect: cleanup already registered")
)

// State moves from Running to Completed or Unmounted. An effect ends
// Unmounted only when unmount cut a pending Await short; once the
// continuation after an Await has run, the effect ends Completed.
type State int32

const (
	Running State = iota
	Completed
	Unmounted
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Unmounted:
		return "unmounted"
	default:
		return "unknown"
	}
}

// Callback is the effect body.
type Callback func(s *Scope) error

type options struct {
	onError func(error)
	logger  *zap.Logger
}

type Option func(*options)

// WithErrorHandler receives callback errors other than ErrUnmounted.
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) { o.onError = fn }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Effect is a mounted callback.
type Effect struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	opts   options
	scope  *Scope
	done   chan struct{}
	stop   func() bool

	mu          sync.Mutex
	state       State
	awaited     bool
	interrupted bool
	cleanup     func()
	err         error

	cleanupOnce sync.Once
}

// Scope is handed to the callback.
type Scope struct {
	e *Effect
}

// Mount starts cb on its own goroutine. Cancelling parent unmounts the effect;
// its values remain visible through Scope.Context.
func Mount(parent context.Context, cb Callback, opts ...Option) *Effect {
	if parent == nil {
		parent = context.Background()
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancelCause(context.WithoutCancel(parent))
	e := &Effect{
		ctx:    ctx,
		cancel: cancel,
		opts:   o,
		done:   make(chan struct{}),
		state:  Running,
	}
	e.scope = &Scope{e: e}

	stop := context.AfterFunc(parent, e.Unmount)
	e.mu.Lock()
	e.stop = stop
	e.mu.Unlock()

	go e.run(cb)
	return e
}

func (e *Effect) run(cb Callback) {
	var err error
	// a panic in cb is not recovered, finish still records the outcome
	defer func() { e.finish(err) }()
	err = cb(e.scope)
}

func (e *Effect) finish(err error) {
	e.mu.Lock()
	if e.interrupted {
		e.state = Unmounted
	} else {
		e.state = Completed
	}
	state := e.state

	switch {
	case err == nil:
	case errors.Is(err, ErrUnmounted):
		e.opts.logger.Debug("effect unmounted before completion")
		err = nil
	default:
		e.err = err
	}
	e.mu.Unlock()

	if state == Completed {
		// release the context; nothing is waiting on it any more
		e.cancel(context.Canceled)
	}

	if err != nil {
		if e.opts.onError != nil {
			e.opts.onError(err)
		} else {
			e.opts.logger.Error("effect failed", zap.Error(err))
		}
	}
	close(e.done)
}

// Unmount tears the effect down. A running callback has its pending wait
// cancelled with ErrUnmounted. The registered cleanup runs exactly once,
// whether or not the callback had finished. Repeated calls are no-ops.
func (e *Effect) Unmount() {
	e.mu.Lock()
	cancel := e.state == Running
	if cancel {
		e.state = Unmounted
	}
	stop := e.stop
	e.mu.Unlock()

	if cancel {
		e.cancel(ErrUnmounted)
	}
	if stop != nil {
		stop()
	}
	e.runCleanup()
}

func (e *Effect) runCleanup() {
	e.mu.Lock()
	fn := e.cleanup
	e.mu.Unlock()
	if fn == nil {
		return
	}
	e.cleanupOnce.Do(fn)
}

// Wait blocks until the callback returns and reports its error.
// ErrUnmounted is never returned.
func (e *Effect) Wait() error {
	<-e.done
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Done is closed when the callback has returned.
func (e *Effect) Done() <-chan struct{} {
	return e.done
}

func (e *Effect) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Context is cancelled with cause ErrUnmounted on unmount. Pass it to
// blocking operations so they abort instead of running on in the background.
func (s *Scope) Context() context.Context {
	return s.e.ctx
}

// OnCleanup registers fn to run on unmount. Registration is only allowed
// once and before the first Await. If the effect is already unmounted fn
// runs immediately.
func (s *Scope) OnCleanup(fn func()) error {
	e := s.e
	e.mu.Lock()
	switch {
	case e.awaited:
		e.mu.Unlock()
		return ErrCleanupTooLate
	case e.cleanup != nil:
		e.mu.Unlock()
		return ErrCleanupRegistered
	}
	e.cleanup = fn
	unmounted := e.state == Unmounted
	e.mu.Unlock()

	if unmounted {
		e.runCleanup()
	}
	return nil
}

// Await runs op and returns its result, unless the effect is unmounted first,
// in which case it returns ErrUnmounted and op's result is discarded.
func Await[T any](s *Scope, op func(ctx context.Context) (T, error)) (T, error) {
	e := s.e
	e.mu.Lock()
	e.awaited = true
	e.mu.Unlock()

	var zero T
	if e.ctx.Err() != nil {
		return zero, e.interrupt()
	}

	type result struct {
		val T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		val, err := op(e.ctx)
		ch <- result{val: val, err: err}
	}()

	select {
	case <-e.ctx.Done():
		return zero, e.interrupt()
	case r := <-ch:
		// unmount wins when it raced with completion
		if e.ctx.Err() != nil {
			return zero, e.interrupt()
		}
		return r.val, r.err
	}
}

func (e *Effect) interrupt() error {
	e.mu.Lock()
	e.interrupted = true
	e.mu.Unlock()
	return ErrUnmounted
}
