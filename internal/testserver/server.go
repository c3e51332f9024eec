// Package testserver runs the full HTTP stack over an in-memory listener
// backed by a bolt store in a temp dir.
package testserver

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	apiHandler "github.com/fastygo/todo/api/handler"
	"github.com/fastygo/todo/internal/infrastructure/monitor"
	"github.com/fastygo/todo/internal/middleware"
	"github.com/fastygo/todo/internal/router"
	"github.com/fastygo/todo/pkg/httpcontext"
	"github.com/fastygo/todo/repository"
	boltRepo "github.com/fastygo/todo/repository/bolt"
	todoUC "github.com/fastygo/todo/usecase/todo"
)

// BaseURL is the address clients use. The host is never resolved.
const BaseURL = "http://todo.test"

type Server struct {
	URL    string
	Client *fasthttp.Client
	Store  *boltRepo.Store
}

type options struct {
	secret string
	repo   repository.TodoRepository
}

type Option func(*options)

// WithSecret enables bearer auth.
func WithSecret(secret string) Option {
	return func(o *options) { o.secret = secret }
}

// WithRepository replaces the bolt store behind the use case.
func WithRepository(repo repository.TodoRepository) Option {
	return func(o *options) { o.repo = repo }
}

// Start serves the API until the test ends.
func Start(t testing.TB, opts ...Option) *Server {
	t.Helper()

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	store, err := boltRepo.Open(filepath.Join(t.TempDir(), "todos.db"))
	if err != nil {
		t.Fatalf("open bolt store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	repo := o.repo
	if repo == nil {
		repo = store
	}

	adapter := httpcontext.NewAdapter(5 * time.Second)
	mon, err := monitor.New(store, "bolt", time.Minute, nil)
	if err != nil {
		t.Fatalf("monitor.New failed: %v", err)
	}
	mon.Refresh()

	handler := router.New(router.Handlers{
		Todo:   apiHandler.NewTodoHandler(todoUC.New(repo, nil), adapter, nil),
		Health: apiHandler.NewHealthHandler(mon, "todo test server", adapter, nil),
	}, router.Options{
		Auth: middleware.JWTAuth(o.secret, "", nil),
		CORS: middleware.CORS([]string{"*"}),
	})

	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: handler}
	go func() { _ = srv.Serve(ln) }()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.ShutdownWithContext(ctx)
		_ = ln.Close()
	})

	return &Server{
		URL:   BaseURL,
		Store: store,
		Client: &fasthttp.Client{
			Dial: func(string) (net.Conn, error) { return ln.Dial() },
		},
	}
}
