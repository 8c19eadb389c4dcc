package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/tododocker/todo-backend/internal/todo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// newestFirst orders by creation time; _id breaks ties so equal timestamps
// still list in a stable order (ObjectIDs grow with insertion).
var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

// record is the stored shape. _id is decoded untyped because older documents
// may carry non-ObjectID identifiers, and some carry their own "id" field.
type record struct {
	NativeID    interface{} `bson:"_id"`
	ID          interface{} `bson:"id,omitempty"`
	Name        string      `bson:"name"`
	Description string      `bson:"description"`
	Completed   bool        `bson:"completed"`
	CreatedAt   time.Time   `bson:"created_at"`
	IPAddress   string      `bson:"ip_address"`
}

func (r record) item() todo.Item {
	id := StringID(r.ID)
	if id == "" {
		id = StringID(r.NativeID)
	}
	return todo.Item{
		ID:          id,
		Name:        r.Name,
		Description: r.Description,
		Completed:   r.Completed,
		CreatedAt:   r.CreatedAt,
		IPAddress:   r.IPAddress,
	}
}

// MongoRepo implements Repository on a single MongoDB collection.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col}
}

// EnsureIndexes creates the descending created_at index backing List.
func (m *MongoRepo) EnsureIndexes(ctx context.Context) error {
	if m.col == nil {
		return ErrNoCollection
	}
	idx := mongo.IndexModel{Keys: newestFirst, Options: options.Index().SetName("created_at_desc")}
	if _, err := m.col.Indexes().CreateOne(ctx, idx); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

func (m *MongoRepo) List(ctx context.Context) ([]todo.Item, error) {
	if m.col == nil {
		return nil, ErrNoCollection
	}
	cur, err := m.col.Find(ctx, bson.D{}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("find todos: %w", err)
	}
	defer cur.Close(ctx)

	out := []todo.Item{}
	for cur.Next(ctx) {
		var r record
		if err := cur.Decode(&r); err != nil {
			return nil, fmt.Errorf("decode todo: %w", err)
		}
		out = append(out, r.item())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate todos: %w", err)
	}
	return out, nil
}

func (m *MongoRepo) Create(ctx context.Context, item *todo.Item) (string, error) {
	if m.col == nil {
		return "", ErrNoCollection
	}
	res, err := m.col.InsertOne(ctx, item)
	if err != nil {
		return "", fmt.Errorf("insert todo: %w", err)
	}
	if res == nil || res.InsertedID == nil {
		return "", ErrNoInsertedID
	}
	item.ID = StringID(res.InsertedID)
	return item.ID, nil
}

// StringID renders a native identifier the way clients see it: hex for
// ObjectIDs, verbatim for strings, fmt formatting otherwise. nil yields "".
func StringID(v interface{}) string {
	switch id := v.(type) {
	case nil:
		return ""
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	default:
		return fmt.Sprint(id)
	}
}
