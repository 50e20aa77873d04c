package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/NarekNk/todo-task/internal/models"
)

// Memory is an in-memory Store with the same semantics as Postgres. It backs
// dev mode (no DATABASE_URL) and the test suites.
type Memory struct {
	mu    sync.RWMutex
	todos map[string]memEntry
	seq   int64
}

type memEntry struct {
	todo models.Todo
	seq  int64 // insertion order, tie-break for equal timestamps
}

func NewMemory() *Memory {
	return &Memory{todos: make(map[string]memEntry)}
}

func (s *Memory) ListPage(ctx context.Context, userID string, q PageQuery) (*models.TodoPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(q.Search)
	var matched []memEntry
	totalDone := 0
	for _, e := range s.todos {
		if e.todo.UserID != userID {
			continue
		}
		if !strings.Contains(strings.ToLower(e.todo.Title), needle) {
			continue
		}
		matched = append(matched, e)
		if e.todo.Done {
			totalDone++
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.todo.CreatedAt.Equal(b.todo.CreatedAt) {
			return a.todo.CreatedAt.After(b.todo.CreatedAt)
		}
		return a.seq > b.seq
	})

	total := len(matched)
	start := (q.Page - 1) * q.PageSize
	if start > total {
		start = total
	}
	end := start + q.PageSize
	if end > total {
		end = total
	}
	items := make([]models.Todo, 0, end-start)
	for _, e := range matched[start:end] {
		items = append(items, e.todo)
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

func (s *Memory) Create(ctx context.Context, userID, title string) (*models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	t := models.Todo{
		ID:        uuid.New().String(),
		Title:     title,
		Done:      false,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	s.todos[t.ID] = memEntry{todo: t, seq: s.seq}
	return &t, nil
}

func (s *Memory) Get(ctx context.Context, userID, id string) (*models.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(userID, id)
}

func (s *Memory) get(userID, id string) (*models.Todo, error) {
	e, ok := s.todos[id]
	if !ok || e.todo.UserID != userID {
		return nil, ErrNotFound
	}
	t := e.todo
	return &t, nil
}

func (s *Memory) Update(ctx context.Context, userID, id string, p Patch) (*models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.get(userID, id)
	if err != nil {
		return nil, err
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Done != nil {
		t.Done = *p.Done
	}
	e := s.todos[id]
	e.todo = *t
	s.todos[id] = e
	return t, nil
}

func (s *Memory) Delete(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.get(userID, id); err != nil {
		return err
	}
	delete(s.todos, id)
	return nil
}
