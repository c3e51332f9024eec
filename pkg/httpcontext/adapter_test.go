package httpcontext

import (
	"testing"
	"time"

	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/todo/pkg/logger"
)

func TestAttachPropagatesRequestID(t *testing.T) {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.Set(HeaderRequestID, "abc-123")
	ctx.Request.Header.SetUserAgent("todo-test")

	stdCtx, cancel := NewAdapter(time.Second).Attach(&ctx)
	defer cancel()

	if got := appLogger.RequestID(stdCtx); got != "abc-123" {
		t.Errorf("request id: got %q", got)
	}
	if got := string(ctx.Response.Header.Peek(HeaderRequestID)); got != "abc-123" {
		t.Errorf("response header: got %q", got)
	}
	if got, _ := stdCtx.Value(KeyUserAgent).(string); got != "todo-test" {
		t.Errorf("user agent: got %q", got)
	}
	if _, ok := stdCtx.Deadline(); !ok {
		t.Error("expected a deadline")
	}
}

func TestRequestIDIsStable(t *testing.T) {
	var ctx fasthttp.RequestCtx

	first := RequestID(&ctx)
	if first == "" {
		t.Fatal("expected a generated id")
	}
	if second := RequestID(&ctx); second != first {
		t.Errorf("id changed within one request: %q != %q", first, second)
	}
}

func TestAttachCarriesSubject(t *testing.T) {
	var ctx fasthttp.RequestCtx
	ctx.SetUserValue(string(KeySubject), "user-7")

	stdCtx, cancel := NewAdapter(0).Attach(&ctx)
	defer cancel()

	if got, _ := stdCtx.Value(KeySubject).(string); got != "user-7" {
		t.Errorf("subject: got %q", got)
	}
}
