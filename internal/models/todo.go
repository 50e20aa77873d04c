package models

import "time"

// Todo is a single task record owned by one user.
type Todo struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Done      bool      `json:"done"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// TodoPage is one window over a user's filtered todo list. TotalDone counts
// done rows across the whole filter, not just this page.
type TodoPage struct {
	Items      []Todo `json:"items"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	Total      int    `json:"total"`
	TotalPages int    `json:"totalPages"`
	TotalDone  int    `json:"totalDone"`
}

// TodoEvent is the lifecycle message published after a successful mutation.
// Consumed by the audit worker.
type TodoEvent struct {
	Action     string    `json:"action"`
	TodoID     string    `json:"todo_id"`
	UserID     string    `json:"user_id"`
	Title      string    `json:"title,omitempty"`
	Done       *bool     `json:"done,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)
