package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/NarekNk/todo-task/internal/models"
	"github.com/NarekNk/todo-task/pkg/logger"
)

// Postgres implements Store over a lib/pq connection pool.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// ListPage runs the count, done-count and page reads inside one read-only
// repeatable-read transaction so the returned page is internally consistent.
func (s *Postgres) ListPage(ctx context.Context, userID string, q PageQuery) (*models.TodoPage, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	pattern := "%" + escapeLike(q.Search) + "%"

	var total, totalDone int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE done) FROM todos WHERE user_id = $1 AND title ILIKE $2`,
		userID, pattern).Scan(&total, &totalDone)
	if err != nil {
		return nil, err
	}

	offset := (q.Page - 1) * q.PageSize
	rows, err := tx.QueryContext(ctx,
		`SELECT id, title, done, user_id, created_at FROM todos
		 WHERE user_id = $1 AND title ILIKE $2
		 ORDER BY created_at DESC, id
		 LIMIT $3 OFFSET $4`,
		userID, pattern, q.PageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]models.Todo, 0, q.PageSize)
	for rows.Next() {
		var t models.Todo
		if err := rows.Scan(&t.ID, &t.Title, &t.Done, &t.UserID, &t.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &models.TodoPage{
		Items:      items,
		Page:       q.Page,
		PageSize:   q.PageSize,
		Total:      total,
		TotalPages: totalPages(total, q.PageSize),
		TotalDone:  totalDone,
	}, nil
}

func (s *Postgres) Create(ctx context.Context, userID, title string) (*models.Todo, error) {
	t := &models.Todo{
		ID:        uuid.New().String(),
		Title:     title,
		Done:      false,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO todos (id, title, done, user_id, created_at) VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.Title, t.Done, t.UserID, t.CreatedAt)
	if err != nil {
		logger.Error(ctx, "Repository Create failed", "error", err)
		return nil, err
	}
	return t, nil
}

func (s *Postgres) Get(ctx context.Context, userID, id string) (*models.Todo, error) {
	var t models.Todo
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, done, user_id, created_at FROM todos WHERE id = $1 AND user_id = $2`,
		id, userID).Scan(&t.ID, &t.Title, &t.Done, &t.UserID, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Update re-checks ownership via an existence read before mutating, so a
// guessed id belonging to another user yields ErrNotFound, never a write.
func (s *Postgres) Update(ctx context.Context, userID, id string, p Patch) (*models.Todo, error) {
	t, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if p.Title == nil && p.Done == nil {
		return t, nil
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Done != nil {
		t.Done = *p.Done
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE todos SET title = $1, done = $2 WHERE id = $3 AND user_id = $4`,
		t.Title, t.Done, id, userID)
	if err != nil {
		logger.Error(ctx, "Repository Update failed", "error", err, "id", id)
		return nil, err
	}
	return t, nil
}

func (s *Postgres) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		logger.Error(ctx, "Repository Delete failed", "error", err, "id", id)
	}
	return err
}

// InsertEvent persists one lifecycle event row for the audit trail.
func (s *Postgres) InsertEvent(ctx context.Context, ev *models.TodoEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO todo_events (id, action, todo_id, user_id, payload, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New().String(), ev.Action, ev.TodoID, ev.UserID, payload, ev.OccurredAt)
	return err
}

// escapeLike neutralizes LIKE metacharacters so the search term is always a
// literal substring match.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
