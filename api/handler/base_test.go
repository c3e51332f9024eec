package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/todo/domain"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "not found", err: domain.ErrTodoNotFound, wantStatus: http.StatusNotFound, wantCode: "NOT_FOUND"},
		{name: "invalid", err: domain.ErrInvalidPayload, wantStatus: http.StatusBadRequest, wantCode: "INVALID"},
		{name: "unauthorized", err: domain.ErrUnauthorized, wantStatus: http.StatusUnauthorized, wantCode: "UNAUTHORIZED"},
		{name: "wrapped internal", err: domain.WrapError(domain.ErrCodeInternal, "list todos", errors.New("eof")), wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL"},
		{name: "plain error", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := mapError(tt.err)
			if status != tt.wantStatus || code != tt.wantCode {
				t.Errorf("got %d %s, want %d %s", status, code, tt.wantStatus, tt.wantCode)
			}
		})
	}
}

func TestRespondErrorIncludesFields(t *testing.T) {
	h := newBaseHandler(nil, nil)
	var ctx fasthttp.RequestCtx

	err := domain.NewFieldError(domain.ErrCodeInvalid, "validation failed",
		domain.FieldError{Field: "task", Message: "task is required"})
	h.respondError(context.Background(), &ctx, err)

	if ctx.Response.StatusCode() != http.StatusBadRequest {
		t.Fatalf("status: got %d", ctx.Response.StatusCode())
	}
	want := `{"status":"error","code":"INVALID","message":"validation failed","errors":[{"field":"task","message":"task is required"}]}`
	if got := string(ctx.Response.Body()); got != want {
		t.Errorf("body:\n got %s\nwant %s", got, want)
	}
}

func TestTodoIDMissing(t *testing.T) {
	h := &TodoHandler{baseHandler: newBaseHandler(nil, nil)}
	var ctx fasthttp.RequestCtx

	if _, ok := h.todoID(&ctx); ok {
		t.Fatal("expected missing id")
	}
	var body map[string]interface{}
	if err := json.Unmarshal(ctx.Response.Body(), &body); err != nil {
		t.Fatal(err)
	}
	if ctx.Response.StatusCode() != http.StatusBadRequest || body["code"] != "INVALID" {
		t.Errorf("got %d %v", ctx.Response.StatusCode(), body)
	}
}
