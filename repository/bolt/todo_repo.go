package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bbolt "go.etcd.io/bbolt"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/repository"
)

var (
	todosBucket = []byte("todos")
	indexBucket = []byte("todo_index")
)

// Store keeps todos in a single BoltDB file. Documents live under a
// sequence key so iteration follows insertion order; a second bucket maps
// ids to those keys.
type Store struct {
	db *bbolt.DB
}

// Open initializes the BoltDB file and ensures the buckets exist.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(todosBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(indexBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

var _ repository.TodoRepository = (*Store)(nil)

func (s *Store) List(ctx context.Context) ([]domain.Todo, error) {
	if s == nil || s.db == nil {
		return nil, bbolt.ErrDatabaseNotOpen
	}

	todos := make([]domain.Todo, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(todosBucket).ForEach(func(_, v []byte) error {
			var todo domain.Todo
			if err := json.Unmarshal(v, &todo); err != nil {
				return err
			}
			todos = append(todos, todo)
			return nil
		})
	})
	return todos, err
}

func (s *Store) Create(ctx context.Context, todo *domain.Todo) (*domain.Todo, error) {
	if s == nil || s.db == nil {
		return nil, bbolt.ErrDatabaseNotOpen
	}
	if todo == nil {
		return nil, domain.ErrInvalidPayload
	}

	created := domain.Todo{
		ID:        uuid.NewString(),
		Task:      todo.Task,
		Completed: todo.Completed,
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		docs := tx.Bucket(todosBucket)
		seq, err := docs.NextSequence()
		if err != nil {
			return err
		}
		key := sequenceKey(seq)

		payload, err := json.Marshal(created)
		if err != nil {
			return err
		}
		if err := docs.Put(key, payload); err != nil {
			return err
		}
		return tx.Bucket(indexBucket).Put([]byte(created.ID), key)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *Store) SetCompleted(ctx context.Context, id string, completed bool) (*domain.Todo, error) {
	if s == nil || s.db == nil {
		return nil, bbolt.ErrDatabaseNotOpen
	}

	var updated *domain.Todo
	err := s.db.Update(func(tx *bbolt.Tx) error {
		todo, key, err := lookup(tx, id)
		if err != nil {
			return err
		}
		todo.Completed = completed

		payload, err := json.Marshal(todo)
		if err != nil {
			return err
		}
		if err := tx.Bucket(todosBucket).Put(key, payload); err != nil {
			return err
		}
		updated = todo
		return nil
	})
	return updated, err
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return bbolt.ErrDatabaseNotOpen
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		_, key, err := lookup(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Bucket(todosBucket).Delete(key); err != nil {
			return err
		}
		return tx.Bucket(indexBucket).Delete([]byte(id))
	})
}

// Ping verifies the database file is still open.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return bbolt.ErrDatabaseNotOpen
	}
	return s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(todosBucket) == nil {
			return bbolt.ErrBucketNotFound
		}
		return nil
	})
}

// Size returns the number of stored todos.
func (s *Store) Size() (int, error) {
	if s == nil || s.db == nil {
		return 0, bbolt.ErrDatabaseNotOpen
	}
	var count int
	err := s.db.View(func(tx *bbolt.Tx) error {
		count = tx.Bucket(todosBucket).Stats().KeyN
		return nil
	})
	return count, err
}

// Close closes the Bolt database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func lookup(tx *bbolt.Tx, id string) (*domain.Todo, []byte, error) {
	if id == "" {
		return nil, nil, domain.ErrTodoNotFound
	}
	key := tx.Bucket(indexBucket).Get([]byte(id))
	if key == nil {
		return nil, nil, domain.ErrTodoNotFound
	}
	raw := tx.Bucket(todosBucket).Get(key)
	if raw == nil {
		return nil, nil, domain.ErrTodoNotFound
	}

	var todo domain.Todo
	if err := json.Unmarshal(raw, &todo); err != nil {
		return nil, nil, err
	}
	return &todo, append([]byte(nil), key...), nil
}

func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
