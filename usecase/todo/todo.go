package todo

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/repository"
)

type UseCase struct {
	todos  repository.TodoRepository
	logger *zap.Logger
}

func New(todos repository.TodoRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		todos:  todos,
		logger: logger,
	}
}

func (uc *UseCase) ListTodos(ctx context.Context) ([]domain.Todo, error) {
	todos, err := uc.todos.List(ctx)
	if err != nil {
		return nil, uc.storeError("list todos", err)
	}
	if todos == nil {
		todos = []domain.Todo{}
	}
	return todos, nil
}

// CreateTodo validates and persists a new todo. The store assigns the id;
// completion always starts false.
func (uc *UseCase) CreateTodo(ctx context.Context, task string) (*domain.Todo, error) {
	todo := domain.NewTodo(task)
	if err := todo.Validate(); err != nil {
		return nil, err
	}

	created, err := uc.todos.Create(ctx, todo)
	if err != nil {
		return nil, uc.storeError("create todo", err)
	}
	uc.logger.Debug("todo created", zap.String("id", created.ID))
	return created, nil
}

func (uc *UseCase) SetCompleted(ctx context.Context, id string, completed bool) (*domain.Todo, error) {
	updated, err := uc.todos.SetCompleted(ctx, id, completed)
	if err != nil {
		return nil, uc.storeError("update todo", err)
	}
	return updated, nil
}

func (uc *UseCase) DeleteTodo(ctx context.Context, id string) error {
	if err := uc.todos.Delete(ctx, id); err != nil {
		return uc.storeError("delete todo", err)
	}
	uc.logger.Debug("todo deleted", zap.String("id", id))
	return nil
}

// storeError passes domain errors through and classifies everything else
// as internal.
func (uc *UseCase) storeError(op string, err error) error {
	if domain.IsDomainError(err, domain.ErrCodeNotFound) || domain.IsDomainError(err, domain.ErrCodeInvalid) {
		return err
	}
	uc.logger.Error("store operation failed", zap.String("operation", op), zap.Error(err))
	return domain.WrapError(domain.ErrCodeInternal, op, err)
}
