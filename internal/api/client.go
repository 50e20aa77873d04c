package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/NarekNk/todo-task/internal/models"
)

// ListParams mirrors the query surface of GET /api/tasks.
type ListParams struct {
	Search   string
	Page     int
	PageSize int
}

// TodoPatch carries a partial update. Nil fields are omitted from the body.
type TodoPatch struct {
	Title *string `json:"title,omitempty"`
	Done  *bool   `json:"done,omitempty"`
}

// Client is a typed HTTP client for the tasks resource. The session token is
// sent as a Bearer header.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) ListTodos(ctx context.Context, p ListParams) (*models.TodoPage, error) {
	params := url.Values{}
	params.Set("search", p.Search)
	params.Set("page", strconv.Itoa(p.Page))
	params.Set("pageSize", strconv.Itoa(p.PageSize))

	var page models.TodoPage
	err := c.do(ctx, http.MethodGet, "/api/tasks?"+params.Encode(), nil, &page, "fetch todos")
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) CreateTodo(ctx context.Context, title string) (*models.Todo, error) {
	var todo models.Todo
	body := map[string]string{"title": title}
	if err := c.do(ctx, http.MethodPost, "/api/tasks", body, &todo, "create todo"); err != nil {
		return nil, err
	}
	return &todo, nil
}

func (c *Client) UpdateTodo(ctx context.Context, id string, patch TodoPatch) (*models.Todo, error) {
	var todo models.Todo
	body := struct {
		ID string `json:"id"`
		TodoPatch
	}{ID: id, TodoPatch: patch}
	if err := c.do(ctx, http.MethodPatch, "/api/tasks", body, &todo, "update todo"); err != nil {
		return nil, err
	}
	return &todo, nil
}

func (c *Client) DeleteTodo(ctx context.Context, id string) error {
	params := url.Values{"id": {id}}
	return c.do(ctx, http.MethodDelete, "/api/tasks?"+params.Encode(), nil, nil, "delete todo")
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, action string) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("failed to %s: %s", action, serverError(resp.Body, resp.StatusCode))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// serverError extracts the API's {"error": ...} message, falling back to the
// status code when the body is unusable.
func serverError(body io.Reader, status int) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return http.StatusText(status)
}
