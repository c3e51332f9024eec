package todoclient_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v4"

	"github.com/fastygo/todo/internal/testserver"
	"github.com/fastygo/todo/pkg/todoclient"
)

func newClient(t *testing.T, opts ...testserver.Option) *todoclient.Client {
	t.Helper()
	srv := testserver.Start(t, opts...)
	return todoclient.New(srv.URL+"/", todoclient.WithHTTPClient(srv.Client))
}

func TestClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	list := c.List(ctx)
	if err := todoclient.Error(list); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list.Data.Todos) != 0 {
		t.Fatalf("expected empty list, got %+v", list.Data.Todos)
	}

	created := c.Create(ctx, "Buy milk")
	if err := todoclient.Error(created); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.StatusCode != 201 || created.Data.Todo.Task != "Buy milk" || created.Data.Todo.Completed {
		t.Fatalf("unexpected create response %+v", created)
	}
	id := created.Data.Todo.ID

	updated := c.Update(ctx, id, true)
	if err := todoclient.Error(updated); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !updated.Data.Todo.Completed {
		t.Error("expected completed")
	}

	list = c.List(ctx)
	if len(list.Data.Todos) != 1 || !list.Data.Todos[0].Completed {
		t.Fatalf("list after update: %+v", list.Data.Todos)
	}

	deleted := c.Delete(ctx, id)
	if err := todoclient.Error(deleted); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if deleted.Data.Message != "Todo deleted" {
		t.Errorf("delete message: got %q", deleted.Data.Message)
	}
}

func TestClientErrors(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	resp := c.Update(ctx, "missing", true)
	err := todoclient.Error(resp)
	if !errors.Is(err, todoclient.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var apiErr *todoclient.APIError
	if !errors.As(err, &apiErr) || apiErr.HTTPStatus != 404 {
		t.Errorf("expected APIError with 404, got %#v", err)
	}
	if resp.StatusCode != 400 {
		t.Errorf("error responses report 400, got %d", resp.StatusCode)
	}

	err = todoclient.Error(c.Create(ctx, "  "))
	if !errors.As(err, &apiErr) || apiErr.Code != "INVALID" || len(apiErr.Fields) == 0 {
		t.Fatalf("expected INVALID with fields, got %v", err)
	}
	if got := err.Error(); !strings.HasPrefix(got, "INVALID: validation failed (task: ") {
		t.Errorf("Error(): got %q", got)
	}
}

func TestClientToken(t *testing.T) {
	ctx := context.Background()
	srv := testserver.Start(t, testserver.WithSecret("s3cret"))

	anonymous := todoclient.New(srv.URL, todoclient.WithHTTPClient(srv.Client))
	if resp := anonymous.List(ctx); resp.OK() || resp.HTTPStatus != 401 {
		t.Errorf("expected 401 without token, got %+v", resp)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1"}).SignedString([]byte("s3cret"))
	if err != nil {
		t.Fatal(err)
	}
	authed := todoclient.New(srv.URL, todoclient.WithHTTPClient(srv.Client), todoclient.WithToken(token))
	if resp := authed.List(ctx); !resp.OK() {
		t.Errorf("expected success with token, got %s", resp)
	}
}
