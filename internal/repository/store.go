package repository

import (
	"context"
	"errors"

	"github.com/NarekNk/todo-task/internal/models"
)

// ErrNotFound is returned when no todo with the given id is owned by the caller.
var ErrNotFound = errors.New("todo not found")

// PageQuery describes one list request. Search is a case-insensitive substring
// predicate on the title; empty matches everything.
type PageQuery struct {
	Search   string
	Page     int
	PageSize int
}

// Patch carries a partial update. Nil fields are left untouched.
type Patch struct {
	Title *string
	Done  *bool
}

// Store is the todo persistence contract. Every operation is scoped to the
// owning user; a todo is never visible or mutable across users.
type Store interface {
	// ListPage returns the requested window ordered by creation time
	// descending, together with total, totalDone and totalPages for the
	// same filter.
	ListPage(ctx context.Context, userID string, q PageQuery) (*models.TodoPage, error)
	// Create inserts a new todo with done=false and a store-assigned id.
	Create(ctx context.Context, userID, title string) (*models.Todo, error)
	// Get returns the todo if it exists and belongs to userID, else ErrNotFound.
	Get(ctx context.Context, userID, id string) (*models.Todo, error)
	// Update applies the provided fields after an ownership check.
	Update(ctx context.Context, userID, id string, p Patch) (*models.Todo, error)
	// Delete removes the todo permanently after an ownership check.
	Delete(ctx context.Context, userID, id string) error
}

func totalPages(total, pageSize int) int {
	return (total + pageSize - 1) / pageSize
}
