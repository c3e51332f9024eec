package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS todos (
	id        TEXT PRIMARY KEY,
	task      TEXT NOT NULL,
	completed INTEGER NOT NULL DEFAULT 0
);
`

// Store is a SQLite-backed todo repository. Rows are listed in rowid order,
// which follows insertion.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database file and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

var _ repository.TodoRepository = (*Store)(nil)

func (s *Store) List(ctx context.Context) ([]domain.Todo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, task, completed FROM todos ORDER BY rowid ASC`)
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

func (s *Store) get(ctx context.Context, id string) (*domain.Todo, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, task, completed FROM todos WHERE id = ?`, id)
	return scanTodo(row)
}

func (s *Store) Create(ctx context.Context, todo *domain.Todo) (*domain.Todo, error) {
	if todo == nil {
		return nil, domain.ErrInvalidPayload
	}

	created := domain.Todo{
		ID:        uuid.NewString(),
		Task:      todo.Task,
		Completed: todo.Completed,
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO todos (id, task, completed) VALUES (?, ?, ?)`,
		created.ID, created.Task, created.Completed,
	); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *Store) SetCompleted(ctx context.Context, id string, completed bool) (*domain.Todo, error) {
	result, err := s.db.ExecContext(ctx, `UPDATE todos SET completed = ? WHERE id = ?`, completed, id)
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, domain.ErrTodoNotFound
	}
	return s.get(ctx, id)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrTodoNotFound
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func scanTodo(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Todo, error) {
	var todo domain.Todo
	if err := row.Scan(&todo.ID, &todo.Task, &todo.Completed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTodoNotFound
		}
		return nil, err
	}
	return &todo, nil
}
