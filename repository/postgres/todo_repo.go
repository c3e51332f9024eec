package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/repository"
)

type todoRepository struct {
	pool *pgxpool.Pool
}

// NewTodoRepository returns a Postgres-backed implementation of TodoRepository.
func NewTodoRepository(pool *pgxpool.Pool) repository.TodoRepository {
	return &todoRepository{pool: pool}
}

func (r *todoRepository) List(ctx context.Context) ([]domain.Todo, error) {
	const query = `
	SELECT id::text, task, completed
	FROM todos
	ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	todos := make([]domain.Todo, 0)
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, *todo)
	}
	return todos, rows.Err()
}

func (r *todoRepository) Create(ctx context.Context, todo *domain.Todo) (*domain.Todo, error) {
	if todo == nil {
		return nil, domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO todos (id, task, completed)
	VALUES ($1, $2, $3)
	RETURNING id::text, task, completed
	`
	return scanTodo(r.pool.QueryRow(ctx, query, uuid.NewString(), todo.Task, todo.Completed))
}

func (r *todoRepository) SetCompleted(ctx context.Context, id string, completed bool) (*domain.Todo, error) {
	if !validID(id) {
		return nil, domain.ErrTodoNotFound
	}
	const query = `
	UPDATE todos
	SET completed = $2,
		updated_at = NOW()
	WHERE id = $1
	RETURNING id::text, task, completed
	`
	return scanTodo(r.pool.QueryRow(ctx, query, id, completed))
}

func (r *todoRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrTodoNotFound
	}
	const query = `DELETE FROM todos WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTodoNotFound
	}
	return nil
}

func (r *todoRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanTodo(row pgx.Row) (*domain.Todo, error) {
	var todo domain.Todo
	if err := row.Scan(&todo.ID, &todo.Task, &todo.Completed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTodoNotFound
		}
		return nil, err
	}
	return &todo, nil
}
