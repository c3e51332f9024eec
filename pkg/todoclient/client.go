// Package todoclient is a typed client for the todo HTTP API.
package todoclient

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/todo/pkg/fetch"
)

type Todo struct {
	ID        string `json:"id"`
	Task      string `json:"task"`
	Completed bool   `json:"completed"`
}

type ListPayload struct {
	Todos []Todo `json:"todos"`
}

type TodoPayload struct {
	Todo Todo `json:"todo"`
}

type DeletePayload struct {
	Message string `json:"message"`
}

type Client struct {
	baseURL string
	token   string
	http    fetch.Doer
}

type Option func(*Client)

// WithToken sends a bearer token with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the default fasthttp client.
func WithHTTPClient(doer fetch.Doer) Option {
	return func(c *Client) { c.http = doer }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &fasthttp.Client{
			Name:                "todo-client",
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: time.Minute,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) List(ctx context.Context) fetch.Response[ListPayload] {
	return fetch.Do[ListPayload](ctx, c.http, fasthttp.MethodGet, c.url(), nil, fetch.WithBearer(c.token))
}

func (c *Client) Create(ctx context.Context, task string) fetch.Response[TodoPayload] {
	body := map[string]string{"task": task}
	return fetch.Do[TodoPayload](ctx, c.http, fasthttp.MethodPost, c.url(), body, fetch.WithBearer(c.token))
}

// Update sets the completion flag of the todo with the given id.
func (c *Client) Update(ctx context.Context, id string, completed bool) fetch.Response[TodoPayload] {
	body := map[string]bool{"completed": completed}
	return fetch.Do[TodoPayload](ctx, c.http, fasthttp.MethodPut, c.url(id), body, fetch.WithBearer(c.token))
}

func (c *Client) Delete(ctx context.Context, id string) fetch.Response[DeletePayload] {
	return fetch.Do[DeletePayload](ctx, c.http, fasthttp.MethodDelete, c.url(id), nil, fetch.WithBearer(c.token))
}

func (c *Client) url(id ...string) string {
	if len(id) == 0 {
		return c.baseURL + "/todos"
	}
	return c.baseURL + "/todos/" + url.PathEscape(id[0])
}

// APIError is an error response as a Go error.
type APIError struct {
	HTTPStatus int
	Code       string
	Message    string
	Fields     []fetch.FieldError
}

func (e *APIError) Error() string {
	msg := e.Message
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			if f.Field != "" {
				parts = append(parts, f.Field+": "+f.Message)
			} else {
				parts = append(parts, f.Message)
			}
		}
		msg = fmt.Sprintf("%s (%s)", msg, strings.Join(parts, "; "))
	}
	if e.Code != "" {
		return e.Code + ": " + msg
	}
	return msg
}

// ErrNotFound matches API errors with the NOT_FOUND code.
var ErrNotFound = errors.New("todo not found")

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Code == "NOT_FOUND"
}

// Error returns nil for a success response and an *APIError otherwise.
func Error[T any](resp fetch.Response[T]) error {
	if resp.OK() {
		return nil
	}
	return &APIError{
		HTTPStatus: resp.HTTPStatus,
		Code:       resp.Code,
		Message:    resp.Message,
		Fields:     resp.Errors,
	}
}
