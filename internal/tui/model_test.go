package tui

import (
	"context"
	"errors"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NarekNk/todo-task/internal/api"
	"github.com/NarekNk/todo-task/internal/models"
)

type fakeAPI struct {
	pages     map[int]*models.TodoPage
	listErr   error
	createErr error
	updateErr error
	deleteErr error

	listCalls   []api.ListParams
	createCalls []string
	updateCalls []string
	deleteCalls []string
}

func (f *fakeAPI) ListTodos(_ context.Context, p api.ListParams) (*models.TodoPage, error) {
	f.listCalls = append(f.listCalls, p)
	if f.listErr != nil {
		return nil, f.listErr
	}
	if page, ok := f.pages[p.Page]; ok {
		return page, nil
	}
	return &models.TodoPage{Items: []models.Todo{}, Page: p.Page, PageSize: p.PageSize}, nil
}

func (f *fakeAPI) CreateTodo(_ context.Context, title string) (*models.Todo, error) {
	f.createCalls = append(f.createCalls, title)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.Todo{ID: "new", Title: title}, nil
}

func (f *fakeAPI) UpdateTodo(_ context.Context, id string, _ api.TodoPatch) (*models.Todo, error) {
	f.updateCalls = append(f.updateCalls, id)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &models.Todo{ID: id}, nil
}

func (f *fakeAPI) DeleteTodo(_ context.Context, id string) error {
	f.deleteCalls = append(f.deleteCalls, id)
	return f.deleteErr
}

func pageOf(page, total, totalDone int, titles ...string) *models.TodoPage {
	items := make([]models.Todo, 0, len(titles))
	for i, title := range titles {
		items = append(items, models.Todo{ID: fmt.Sprintf("p%d-%d", page, i), Title: title})
	}
	return &models.TodoPage{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: (total + pageSize - 1) / pageSize,
		TotalDone:  totalDone,
	}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	got, ok := next.(Model)
	require.True(t, ok)
	return got, cmd
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestFirstPageLoad(t *testing.T) {
	f := &fakeAPI{pages: map[int]*models.TodoPage{1: pageOf(1, 12, 3, "a", "b")}}
	m := NewModel(f)
	require.True(t, m.loading)

	msg := m.fetchPage(m.epoch, 1)()
	m, _ = update(t, m, msg)

	assert.False(t, m.loading)
	assert.Len(t, m.items, 2)
	assert.Equal(t, 12, m.total)
	assert.Equal(t, 3, m.totalDone)
	assert.True(t, m.hasMore)
	assert.Equal(t, 1, m.currentPage)
}

func TestStaleResponseDiscarded(t *testing.T) {
	f := &fakeAPI{}
	m := NewModel(f)
	m.loading = false
	m.items = []models.Todo{{ID: "keep", Title: "keep"}}

	// a response from a superseded epoch must not be applied
	m, _ = update(t, m, pageMsg{epoch: m.epoch - 1, page: 1, result: pageOf(1, 1, 0, "stale")})

	require.Len(t, m.items, 1)
	assert.Equal(t, "keep", m.items[0].ID)
}

func TestSearchDebounceLastWriteWins(t *testing.T) {
	f := &fakeAPI{}
	m := NewModel(f)
	m.loading = false

	m, _ = update(t, m, keyRunes("/"))
	require.Equal(t, focusSearch, m.focus)

	m, cmd := update(t, m, keyRunes("m"))
	require.NotNil(t, cmd)
	firstEpoch := m.epoch
	m, cmd = update(t, m, keyRunes("i"))
	require.NotNil(t, cmd)
	require.Equal(t, firstEpoch+1, m.epoch)

	// the superseded timer fires: no fetch, no state change
	m, cmd = update(t, m, debounceMsg{epoch: firstEpoch})
	assert.Nil(t, cmd)
	assert.Empty(t, f.listCalls)
	assert.Equal(t, "", m.searchQuery)

	// the live timer fires: committed query, reset, page 1 requested
	m, cmd = update(t, m, debounceMsg{epoch: m.epoch})
	require.NotNil(t, cmd)
	assert.Equal(t, "mi", m.searchQuery)
	assert.True(t, m.loading)
	assert.Nil(t, m.items)

	msg := cmd()
	require.Len(t, f.listCalls, 1)
	assert.Equal(t, "mi", f.listCalls[0].Search)
	assert.Equal(t, 1, f.listCalls[0].Page)

	m, _ = update(t, m, msg)
	assert.False(t, m.loading)
}

func TestLoadMoreGuardedToOneInFlight(t *testing.T) {
	f := &fakeAPI{pages: map[int]*models.TodoPage{2: pageOf(2, 15, 0, "k", "l", "m", "n", "o")}}
	m := NewModel(f)
	m.loading = false
	m.hasMore = true
	m.currentPage = 1
	for i := 0; i < 10; i++ {
		m.items = append(m.items, models.Todo{ID: fmt.Sprintf("p1-%d", i)})
	}
	m.cursor = 8

	// reaching the end of the loaded list triggers exactly one fetch
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	require.NotNil(t, cmd)
	assert.True(t, m.loadingMore)

	// a second end-of-list signal while in flight is a no-op
	m, dup := update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Nil(t, dup)

	m, _ = update(t, m, cmd())
	assert.False(t, m.loadingMore)
	assert.Len(t, m.items, 15)
	assert.Equal(t, 2, m.currentPage)
	assert.False(t, m.hasMore)
	require.Len(t, f.listCalls, 1)
	assert.Equal(t, 2, f.listCalls[0].Page)
}

func TestOptimisticToggleRollsBackOnFailure(t *testing.T) {
	f := &fakeAPI{updateErr: errors.New("boom")}
	m := NewModel(f)
	m.loading = false
	m.items = []models.Todo{{ID: "1", Title: "x", Done: false}}
	m.total, m.totalDone = 1, 0

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	require.NotNil(t, cmd)
	// optimistic flip applied before the server answers
	assert.True(t, m.items[0].Done)
	assert.Equal(t, 1, m.totalDone)

	m, _ = update(t, m, cmd())
	// compensated: flag and counter reverted
	assert.False(t, m.items[0].Done)
	assert.Equal(t, 0, m.totalDone)
	assert.True(t, m.statusErr)
}

func TestToggleSuccessKeepsOptimisticState(t *testing.T) {
	f := &fakeAPI{}
	m := NewModel(f)
	m.loading = false
	m.items = []models.Todo{{ID: "1", Title: "x", Done: true}}
	m.total, m.totalDone = 1, 1

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	require.NotNil(t, cmd)
	assert.False(t, m.items[0].Done)
	assert.Equal(t, 0, m.totalDone)

	m, _ = update(t, m, cmd())
	assert.False(t, m.items[0].Done)
	assert.False(t, m.statusErr)
	require.Len(t, f.updateCalls, 1)
}

func TestCreateResetsToFirstPage(t *testing.T) {
	f := &fakeAPI{}
	m := NewModel(f)
	m.loading = false
	m.currentPage = 3
	m.focus = focusAdd
	m.add.SetValue("  New task  ")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m, reload := update(t, m, cmd())

	require.Len(t, f.createCalls, 1)
	assert.Equal(t, "New task", f.createCalls[0])
	assert.Equal(t, "", m.add.Value())
	assert.True(t, m.loading)
	assert.Equal(t, 1, m.currentPage)

	require.NotNil(t, reload)
	_ = reload()
	require.Len(t, f.listCalls, 1)
	assert.Equal(t, 1, f.listCalls[0].Page)
}

func TestCreateFailureKeepsInput(t *testing.T) {
	f := &fakeAPI{createErr: errors.New("boom")}
	m := NewModel(f)
	m.loading = false
	m.focus = focusAdd
	m.add.SetValue("Keep me")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	assert.Equal(t, "Keep me", m.add.Value())
	assert.True(t, m.statusErr)
}

func TestCreateEmptyTitleRejectedClientSide(t *testing.T) {
	f := &fakeAPI{}
	m := NewModel(f)
	m.loading = false
	m.focus = focusAdd
	m.add.SetValue("   ")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.True(t, m.statusErr)
	assert.Empty(t, f.createCalls)
}

func TestDeleteSuccessReloads(t *testing.T) {
	f := &fakeAPI{}
	m := NewModel(f)
	m.loading = false
	m.items = []models.Todo{{ID: "1", Title: "x"}}

	m, cmd := update(t, m, keyRunes("d"))
	require.NotNil(t, cmd)
	m, reload := update(t, m, cmd())

	require.Len(t, f.deleteCalls, 1)
	assert.Equal(t, "1", f.deleteCalls[0])
	assert.True(t, m.loading)
	require.NotNil(t, reload)
}

func TestDeleteFailureLeavesItem(t *testing.T) {
	f := &fakeAPI{deleteErr: errors.New("boom")}
	m := NewModel(f)
	m.loading = false
	m.items = []models.Todo{{ID: "1", Title: "x"}}

	m, cmd := update(t, m, keyRunes("d"))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	require.Len(t, m.items, 1)
	assert.True(t, m.statusErr)
	assert.False(t, m.loading)
}

func TestListErrorLeavesPriorState(t *testing.T) {
	f := &fakeAPI{listErr: errors.New("boom")}
	m := NewModel(f)
	m.loading = false
	m.items = []models.Todo{{ID: "keep"}}
	m.hasMore = true
	m.cursor = 0

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	require.Len(t, m.items, 1)
	assert.Equal(t, "keep", m.items[0].ID)
	assert.True(t, m.statusErr)
	assert.False(t, m.loadingMore)
}
