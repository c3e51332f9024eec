package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/repository"
)

const (
	fieldTask      = "task"
	fieldCompleted = "completed"
)

// setCompleted writes the flag only when the hash still exists, so a
// concurrent delete is never undone. Concurrent writers both succeed and the
// last one wins.
var setCompleted = redislib.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return false
end
redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
return redis.call("HGETALL", KEYS[1])
`)

type todoRepository struct {
	client   *redislib.Client
	prefix   string
	index    string
	sequence string
}

// NewTodoRepository creates a Redis-backed todo repository. Each todo is a
// hash under "todo:<id>"; a sorted set scored by a creation counter keeps the
// insertion order for List.
func NewTodoRepository(client *redislib.Client) repository.TodoRepository {
	return &todoRepository{
		client:   client,
		prefix:   "todo:",
		index:    "todos",
		sequence: "todos:seq",
	}
}

func (r *todoRepository) List(ctx context.Context) ([]domain.Todo, error) {
	ids, err := r.client.ZRange(ctx, r.index, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	todos := make([]domain.Todo, 0, len(ids))
	if len(ids) == 0 {
		return todos, nil
	}

	cmds := make([]*redislib.MapStringStringCmd, len(ids))
	if _, err := r.client.Pipelined(ctx, func(pipe redislib.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, r.key(id))
		}
		return nil
	}); err != nil {
		return nil, err
	}

	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			// index entry outlived its hash
			continue
		}
		todos = append(todos, decodeTodo(ids[i], fields))
	}
	return todos, nil
}

func (r *todoRepository) Create(ctx context.Context, todo *domain.Todo) (*domain.Todo, error) {
	if todo == nil {
		return nil, domain.ErrInvalidPayload
	}

	created := domain.Todo{
		ID:        uuid.NewString(),
		Task:      todo.Task,
		Completed: todo.Completed,
	}

	seq, err := r.client.Incr(ctx, r.sequence).Result()
	if err != nil {
		return nil, err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
		pipe.HSet(ctx, r.key(created.ID),
			fieldTask, created.Task,
			fieldCompleted, strconv.FormatBool(created.Completed),
		)
		pipe.ZAdd(ctx, r.index, redislib.Z{
			Score:  float64(seq),
			Member: created.ID,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *todoRepository) SetCompleted(ctx context.Context, id string, completed bool) (*domain.Todo, error) {
	fields, err := setCompleted.Run(ctx, r.client, []string{r.key(id)},
		fieldCompleted, strconv.FormatBool(completed),
	).StringSlice()
	if errors.Is(err, redislib.Nil) {
		return nil, domain.ErrTodoNotFound
	}
	if err != nil {
		return nil, err
	}

	todo := decodeTodo(id, pairs(fields))
	return &todo, nil
}

func (r *todoRepository) Delete(ctx context.Context, id string) error {
	var removed *redislib.IntCmd
	if _, err := r.client.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
		removed = pipe.Del(ctx, r.key(id))
		pipe.ZRem(ctx, r.index, id)
		return nil
	}); err != nil {
		return err
	}
	if removed.Val() == 0 {
		return domain.ErrTodoNotFound
	}
	return nil
}

func (r *todoRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *todoRepository) key(id string) string {
	return fmt.Sprintf("%s%s", r.prefix, id)
}

func decodeTodo(id string, fields map[string]string) domain.Todo {
	completed, _ := strconv.ParseBool(fields[fieldCompleted])
	return domain.Todo{
		ID:        id,
		Task:      fields[fieldTask],
		Completed: completed,
	}
}

// pairs folds a flat HGETALL reply into a map.
func pairs(flat []string) map[string]string {
	fields := make(map[string]string, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		fields[flat[i]] = flat[i+1]
	}
	return fields
}
