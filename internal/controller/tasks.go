package controller

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"

	"github.com/NarekNk/todo-task/internal/cache"
	"github.com/NarekNk/todo-task/internal/middleware"
	"github.com/NarekNk/todo-task/internal/models"
	"github.com/NarekNk/todo-task/internal/queue"
	"github.com/NarekNk/todo-task/internal/repository"
	"github.com/NarekNk/todo-task/pkg/logger"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	maxTitleLen     = 500
)

// Tasks exposes the todo resource over HTTP. Dependencies are injected so
// tests can swap in the memory store; cache and events may be nil.
type Tasks struct {
	store  repository.Store
	cache  *cache.PageCache
	events *queue.Publisher
	db     *sql.DB // nil in dev mode; used only by the readiness probe
	group  singleflight.Group
}

func NewTasks(store repository.Store, pc *cache.PageCache, pub *queue.Publisher, db *sql.DB) *Tasks {
	return &Tasks{store: store, cache: pc, events: pub, db: db}
}

// List handles GET /api/tasks. Pure read: cache-first, with concurrent
// identical queries collapsed through singleflight.
func (t *Tasks) List(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)

	page, okPage := parseIntParam(c, "page", 1)
	pageSize, okSize := parseIntParam(c, "pageSize", defaultPageSize)
	if !okPage || !okSize || page < 1 || pageSize < 1 || pageSize > maxPageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pagination parameters"})
		return
	}
	q := repository.PageQuery{
		Search:   c.DefaultQuery("search", ""),
		Page:     page,
		PageSize: pageSize,
	}

	key := t.cache.Key(ctx, uid, q)
	if b, ok := t.cache.GetRawPage(ctx, key); ok {
		c.Data(http.StatusOK, "application/json", b)
		return
	}

	sfKey := key
	if sfKey == "" {
		sfKey = fmt.Sprintf("tasks:%s:q=%s:p=%d:s=%d", uid, q.Search, q.Page, q.PageSize)
	}
	// Detached context inside the flight: the result is shared with callers
	// that did not cancel.
	v, err, _ := t.group.Do(sfKey, func() (interface{}, error) {
		result, err := t.store.ListPage(context.Background(), uid, q)
		if err != nil {
			return nil, err
		}
		return json.Marshal(result)
	})
	if err != nil {
		if ctx.Err() != nil || isContextErr(err) {
			return
		}
		t.internal(c, "GET /api/tasks failed", err)
		return
	}
	b := v.([]byte)
	c.Data(http.StatusOK, "application/json", b)
	t.cache.SetRawPageAsync(key, b)
}

// Create handles POST /api/tasks.
func (t *Tasks) Create(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)

	var body struct {
		Title *string `json:"title"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Title == nil || strings.TrimSpace(*body.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required and must be a non-empty string"})
		return
	}
	if len([]rune(*body.Title)) > maxTitleLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title must be less than 500 characters"})
		return
	}

	todo, err := t.store.Create(ctx, uid, strings.TrimSpace(*body.Title))
	if err != nil {
		t.internal(c, "POST /api/tasks failed", err)
		return
	}
	t.mutated(ctx, uid, &models.TodoEvent{
		Action: models.EventCreated,
		TodoID: todo.ID,
		UserID: uid,
		Title:  todo.Title,
	})
	c.JSON(http.StatusCreated, todo)
}

// Update handles PATCH /api/tasks. Only the provided fields are applied.
func (t *Tasks) Update(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)

	var body struct {
		ID    string  `json:"id"`
		Title *string `json:"title"`
		Done  *bool   `json:"done"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if body.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Todo ID is required"})
		return
	}
	patch := repository.Patch{Done: body.Done}
	if body.Title != nil {
		trimmed := strings.TrimSpace(*body.Title)
		if trimmed == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Title must be a non-empty string"})
			return
		}
		if len([]rune(*body.Title)) > maxTitleLen {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Title must be less than 500 characters"})
			return
		}
		patch.Title = &trimmed
	}

	todo, err := t.store.Update(ctx, uid, body.ID, patch)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Todo not found"})
		return
	}
	if err != nil {
		t.internal(c, "PATCH /api/tasks failed", err)
		return
	}
	t.mutated(ctx, uid, &models.TodoEvent{
		Action: models.EventUpdated,
		TodoID: todo.ID,
		UserID: uid,
		Title:  todo.Title,
		Done:   &todo.Done,
	})
	c.JSON(http.StatusOK, todo)
}

// Delete handles DELETE /api/tasks?id=. Deletion is permanent.
func (t *Tasks) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)

	id := c.Query("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Todo ID is required"})
		return
	}

	err := t.store.Delete(ctx, uid, id)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Todo not found"})
		return
	}
	if err != nil {
		t.internal(c, "DELETE /api/tasks failed", err)
		return
	}
	t.mutated(ctx, uid, &models.TodoEvent{
		Action: models.EventDeleted,
		TodoID: id,
		UserID: uid,
	})
	c.JSON(http.StatusOK, gin.H{"message": "Todo deleted successfully"})
}

// Health returns 200 if the process is alive.
func (t *Tasks) Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// Ready returns 200 if the backing store (and cache, when configured) is reachable.
func (t *Tasks) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if t.db != nil {
		if err := t.db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database ping failed"})
			return
		}
	}
	if err := t.cache.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "redis unavailable"})
		return
	}
	c.String(http.StatusOK, "OK")
}

// mutated runs the post-mutation bookkeeping: synchronous cache invalidation
// so the next list read is fresh, then a fire-and-forget lifecycle event.
func (t *Tasks) mutated(ctx context.Context, uid string, ev *models.TodoEvent) {
	t.cache.Invalidate(ctx, uid)
	ev.OccurredAt = time.Now().UTC()
	t.events.Publish(ctx, ev)
}

// internal logs the cause and answers with a generic message; storage detail
// never reaches the client.
func (t *Tasks) internal(c *gin.Context, msg string, err error) {
	logger.Error(c.Request.Context(), msg, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func parseIntParam(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
