// Package fetch performs JSON requests and folds every outcome, including
// transport and decoding failures, into a tagged Response.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// FailureStatusCode is reported for every error response, whatever the
// server actually sent. HTTPStatus keeps the real code.
const FailureStatusCode = fasthttp.StatusBadRequest

var unknownStatusText = fasthttp.StatusMessage(0)

var errNotObject = errors.New("response body is not a JSON object")

// FieldError is one entry of the optional nested "errors" list.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Response is either a success carrying the decoded payload in Data, or an
// error carrying Message. Check OK before reading Data.
type Response[T any] struct {
	Status     string
	StatusCode int
	// HTTPStatus is the code received on the wire, 0 when no response arrived.
	HTTPStatus int
	Data       T
	Code       string
	Message    string
	Errors     []FieldError
}

func (r Response[T]) OK() bool {
	return r.Status == StatusSuccess
}

func (r Response[T]) String() string {
	if r.OK() {
		return fmt.Sprintf("%s (%d)", r.Status, r.StatusCode)
	}
	return fmt.Sprintf("%s (%d): %s", r.Status, r.StatusCode, r.Message)
}

// Failure builds an error response with the given message.
func Failure[T any](message string) Response[T] {
	return Response[T]{
		Status:     StatusError,
		StatusCode: FailureStatusCode,
		Message:    message,
	}
}

type envelope struct {
	Status  string       `json:"status"`
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors"`
}

// Doer is satisfied by *fasthttp.Client and *fasthttp.HostClient.
type Doer interface {
	Do(req *fasthttp.Request, resp *fasthttp.Response) error
	DoDeadline(req *fasthttp.Request, resp *fasthttp.Response, deadline time.Time) error
}

// Option adjusts the outgoing request.
type Option func(req *fasthttp.Request)

// WithHeader sets a request header.
func WithHeader(key, value string) Option {
	return func(req *fasthttp.Request) { req.Header.Set(key, value) }
}

// WithBearer sets the Authorization header when token is non-empty.
func WithBearer(token string) Option {
	return func(req *fasthttp.Request) {
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
}

// Do sends a JSON request and decodes the JSON reply into T. A nil body sends
// no payload. Do never panics and never returns a Go error.
func Do[T any](ctx context.Context, client Doer, method, target string, body interface{}, opts ...Option) (out Response[T]) {
	defer func() {
		if r := recover(); r != nil {
			out = Failure[T](fmt.Sprint(r))
		}
	}()

	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return Failure[T](contextMessage(ctx))
	}

	req := &fasthttp.Request{}
	resp := &fasthttp.Response{}
	req.Header.SetMethod(method)
	req.SetRequestURI(target)
	req.Header.SetContentType("application/json")
	req.Header.Set("Accept", "application/json")
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return Failure[T](err.Error())
		}
		req.SetBodyRaw(payload)
	}
	for _, opt := range opts {
		opt(req)
	}

	// req and resp are not pooled: an abandoned call may still be writing to them.
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("%v", r)
			}
		}()
		if deadline, ok := ctx.Deadline(); ok {
			done <- client.DoDeadline(req, resp, deadline)
			return
		}
		done <- client.Do(req, resp)
	}()

	select {
	case <-ctx.Done():
		return Failure[T](contextMessage(ctx))
	case err := <-done:
		if err != nil {
			return Failure[T](err.Error())
		}
	}

	return decode[T](resp.StatusCode(), resp.Body())
}

func decode[T any](status int, body []byte) Response[T] {
	var env envelope
	err := json.Unmarshal(body, &env)
	if err == nil && !isObject(body) {
		err = errNotObject
	}
	if err != nil {
		out := Failure[T](statusText(status, err))
		out.HTTPStatus = status
		return out
	}

	if env.Status == StatusError {
		out := Failure[T](env.Message)
		out.HTTPStatus = status
		out.Code = env.Code
		out.Errors = env.Errors
		return out
	}

	var data T
	if err := json.Unmarshal(body, &data); err != nil {
		out := Failure[T](statusText(status, err))
		out.HTTPStatus = status
		return out
	}
	return Response[T]{
		Status:     StatusSuccess,
		StatusCode: status,
		HTTPStatus: status,
		Data:       data,
		Message:    env.Message,
	}
}

func isObject(body []byte) bool {
	body = bytes.TrimSpace(body)
	return len(body) > 0 && body[0] == '{'
}

func statusText(status int, parseErr error) string {
	if text := fasthttp.StatusMessage(status); text != "" && text != unknownStatusText {
		return text
	}
	return parseErr.Error()
}

func contextMessage(ctx context.Context) string {
	cause := context.Cause(ctx)
	if cause == nil {
		cause = ctx.Err()
	}
	if errors.Is(cause, context.DeadlineExceeded) {
		return "request timed out"
	}
	return cause.Error()
}
