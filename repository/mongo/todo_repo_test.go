package mongo

import (
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodrv "go.mongodb.org/mongo-driver/mongo"

	"github.com/fastygo/todo/domain"
)

func TestDocumentToDomain(t *testing.T) {
	oid := primitive.NewObjectID()
	doc := todoDocument{ID: oid, Task: "Buy milk", Completed: true}

	got := doc.toDomain()
	if got.ID != oid.Hex() {
		t.Errorf("ID: got %s, want %s", got.ID, oid.Hex())
	}
	if got.Task != "Buy milk" || !got.Completed {
		t.Errorf("unexpected todo %+v", got)
	}
}

func TestDocumentDecodesExistingShape(t *testing.T) {
	oid := primitive.NewObjectID()
	// documents written by other clients may carry a version key
	raw, err := bson.Marshal(bson.M{"_id": oid, "task": "Walk dog", "completed": false, "__v": 0})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var doc todoDocument
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if doc.ID != oid || doc.Task != "Walk dog" || doc.Completed {
		t.Errorf("unexpected document %+v", doc)
	}
}

func TestTranslate(t *testing.T) {
	if err := translate(mongodrv.ErrNoDocuments); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
	wrapped := fmt.Errorf("find: %w", mongodrv.ErrNoDocuments)
	if err := translate(wrapped); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND through wrapping, got %v", err)
	}
	other := fmt.Errorf("socket closed")
	if err := translate(other); err != other {
		t.Errorf("expected passthrough, got %v", err)
	}
}
