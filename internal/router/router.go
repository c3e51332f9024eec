package router

import (
	"encoding/json"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/todo/api/handler"
	"github.com/fastygo/todo/api/transport"
	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/internal/middleware"
)

type Handlers struct {
	Todo   *apiHandler.TodoHandler
	Health *apiHandler.HealthHandler
}

// Options holds the middleware applied around the routes.
type Options struct {
	Auth      middleware.Middleware
	CORS      middleware.Middleware
	AccessLog middleware.Middleware
}

// New registers the routes and returns the fully wrapped server handler.
func New(handlers Handlers, opts Options) fasthttp.RequestHandler {
	r := router.New()
	r.RedirectTrailingSlash = false
	r.NotFound = routeNotFound
	r.MethodNotAllowed = methodNotAllowed

	auth := opts.Auth
	if auth == nil {
		auth = func(next fasthttp.RequestHandler) fasthttp.RequestHandler { return next }
	}

	r.GET("/", handlers.Health.Index)
	r.GET("/health", handlers.Health.Check)

	r.GET("/todos", auth(handlers.Todo.ListTodos))
	r.POST("/todos", auth(handlers.Todo.CreateTodo))
	r.PUT("/todos/{id}", auth(handlers.Todo.UpdateTodo))
	r.DELETE("/todos/{id}", auth(handlers.Todo.DeleteTodo))

	return middleware.Chain(r.Handler, opts.AccessLog, opts.CORS)
}

func routeNotFound(ctx *fasthttp.RequestCtx) {
	writeError(ctx, fasthttp.StatusNotFound, string(domain.ErrCodeNotFound), "route not found")
}

func methodNotAllowed(ctx *fasthttp.RequestCtx) {
	writeError(ctx, fasthttp.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
}

func writeError(ctx *fasthttp.RequestCtx, status int, code, message string) {
	body, _ := json.Marshal(transport.NewError(code, message, nil))
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}
