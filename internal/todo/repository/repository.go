package repository

import (
	"context"
	"errors"

	"github.com/tododocker/todo-backend/internal/todo"
)

var (
	ErrNoCollection = errors.New("todo collection not configured")
	ErrNoInsertedID = errors.New("database did not confirm an inserted id")
)

// Repository is the persistence surface of the todo service.
type Repository interface {
	// List returns every item, newest first.
	List(ctx context.Context) ([]todo.Item, error)
	// Create inserts item, sets item.ID and returns it.
	Create(ctx context.Context, item *todo.Item) (string, error)
}
