package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/repository"
)

// CollectionName matches the collection an existing "Todo" model writes to.
const CollectionName = "todos"

type todoDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Task      string             `bson:"task"`
	Completed bool               `bson:"completed"`
}

func (d todoDocument) toDomain() domain.Todo {
	return domain.Todo{
		ID:        d.ID.Hex(),
		Task:      d.Task,
		Completed: d.Completed,
	}
}

type todoRepository struct {
	db   *mongodrv.Database
	coll *mongodrv.Collection
}

// NewTodoRepository returns a MongoDB-backed implementation of TodoRepository.
func NewTodoRepository(db *mongodrv.Database) repository.TodoRepository {
	return &todoRepository{
		db:   db,
		coll: db.Collection(CollectionName),
	}
}

func (r *todoRepository) List(ctx context.Context) ([]domain.Todo, error) {
	cursor, err := r.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}

	var docs []todoDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	todos := make([]domain.Todo, 0, len(docs))
	for _, doc := range docs {
		todos = append(todos, doc.toDomain())
	}
	return todos, nil
}

func (r *todoRepository) Create(ctx context.Context, todo *domain.Todo) (*domain.Todo, error) {
	if todo == nil {
		return nil, domain.ErrInvalidPayload
	}

	doc := todoDocument{Task: todo.Task, Completed: todo.Completed}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, err
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, domain.NewError(domain.ErrCodeInternal, "unexpected inserted id type")
	}
	doc.ID = oid

	created := doc.toDomain()
	return &created, nil
}

func (r *todoRepository) SetCompleted(ctx context.Context, id string, completed bool) (*domain.Todo, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrTodoNotFound
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc todoDocument
	if err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"completed": completed}},
		opts,
	).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	todo := doc.toDomain()
	return &todo, nil
}

func (r *todoRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrTodoNotFound
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrTodoNotFound
	}
	return nil
}

func (r *todoRepository) Ping(ctx context.Context) error {
	return r.db.Client().Ping(ctx, nil)
}

func translate(err error) error {
	if errors.Is(err, mongodrv.ErrNoDocuments) {
		return domain.ErrTodoNotFound
	}
	return err
}
