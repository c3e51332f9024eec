package repository

import (
	"context"

	"github.com/fastygo/todo/domain"
)

// TodoRepository is the document store holding todos. Implementations return
// domain.ErrTodoNotFound for unknown ids.
type TodoRepository interface {
	List(ctx context.Context) ([]domain.Todo, error)
	Create(ctx context.Context, todo *domain.Todo) (*domain.Todo, error)
	SetCompleted(ctx context.Context, id string, completed bool) (*domain.Todo, error)
	Delete(ctx context.Context, id string) error
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
