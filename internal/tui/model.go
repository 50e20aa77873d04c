package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/NarekNk/todo-task/internal/api"
	"github.com/NarekNk/todo-task/internal/models"
)

const (
	pageSize       = 10
	searchDebounce = 300 * time.Millisecond
	requestTimeout = 10 * time.Second
)

// API is the client surface the model depends on; satisfied by *api.Client
// and by fakes in tests.
type API interface {
	ListTodos(ctx context.Context, p api.ListParams) (*models.TodoPage, error)
	CreateTodo(ctx context.Context, title string) (*models.Todo, error)
	UpdateTodo(ctx context.Context, id string, patch api.TodoPatch) (*models.Todo, error)
	DeleteTodo(ctx context.Context, id string) error
}

type focusArea int

const (
	focusList focusArea = iota
	focusAdd
	focusSearch
)

// Messages. Every fetch-shaped message carries the epoch it was issued under;
// results from a superseded epoch are discarded on arrival.
type (
	debounceMsg struct{ epoch int }
	pageMsg     struct {
		epoch  int
		page   int
		result *models.TodoPage
		err    error
	}
	createdMsg struct{ err error }
	toggledMsg struct {
		id       string
		prevDone bool
		err      error
	}
	deletedMsg struct{ err error }
)

type keyMap struct {
	Add    key.Binding
	Search key.Binding
	Toggle key.Binding
	Delete key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Add:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
	Search: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Toggle: key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "toggle")),
	Delete: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// Model is the pagination/search state machine. All transitions run on the
// Bubble Tea event loop, so the accumulated list is never mutated in parallel.
type Model struct {
	api API

	items       []models.Todo
	cursor      int
	currentPage int
	hasMore     bool
	total       int
	totalDone   int

	// searchQuery is the committed (debounced) query; the search input may be
	// ahead of it while the timer is pending.
	searchQuery string
	epoch       int

	loading     bool // first page of the current epoch in flight
	loadingMore bool // at most one load-more in flight

	focus  focusArea
	add    textinput.Model
	search textinput.Model
	spin   spinner.Model
	bar    progress.Model

	status    string
	statusErr bool
	width     int
}

func NewModel(client API) Model {
	add := textinput.New()
	add.Prompt = "> "
	add.Placeholder = "Add a new task..."
	add.CharLimit = 500

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "Search todos..."

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		api:         client,
		currentPage: 1,
		epoch:       1,
		loading:     true,
		add:         add,
		search:      search,
		spin:        sp,
		bar:         progress.New(progress.WithDefaultGradient()),
		width:       80,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.fetchPage(m.epoch, 1))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = msg.Width - 8
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case debounceMsg:
		// A keystroke after this timer was scheduled bumped the epoch;
		// last write wins and the stale timer is a no-op.
		if msg.epoch != m.epoch {
			return m, nil
		}
		m.searchQuery = strings.TrimSpace(m.search.Value())
		return m.resetAndReload()

	case pageMsg:
		return m.applyPage(msg)

	case createdMsg:
		if msg.err != nil {
			// Input text stays intact so the user can retry.
			return m.notifyErr(msg.err), nil
		}
		m.add.SetValue("")
		m = m.notify("Todo created")
		return m.resetAndReload()

	case toggledMsg:
		if msg.err != nil {
			// Compensate the optimistic flip: revert the flag and counter.
			for i := range m.items {
				if m.items[i].ID == msg.id {
					m.items[i].Done = msg.prevDone
					if msg.prevDone {
						m.totalDone++
					} else {
						m.totalDone--
					}
					break
				}
			}
			return m.notifyErr(msg.err), nil
		}
		return m.notify("Todo updated"), nil

	case deletedMsg:
		if msg.err != nil {
			return m.notifyErr(msg.err), nil
		}
		m = m.notify("Todo deleted")
		return m.resetAndReload()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.focus {
	case focusAdd:
		switch msg.String() {
		case "enter":
			title := strings.TrimSpace(m.add.Value())
			if title == "" {
				return m.notifyErrText("Title cannot be empty"), nil
			}
			return m, m.createTodo(title)
		case "esc":
			m.focus = focusList
			m.add.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.add, cmd = m.add.Update(msg)
		return m, cmd

	case focusSearch:
		switch msg.String() {
		case "enter", "esc":
			m.focus = focusList
			m.search.Blur()
			return m, nil
		}
		before := m.search.Value()
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		if m.search.Value() != before {
			debounce := m.scheduleDebounce()
			return m, tea.Batch(cmd, debounce)
		}
		return m, cmd
	}

	// list focus
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Add):
		m.focus = focusAdd
		return m, m.add.Focus()
	case key.Matches(msg, keys.Search):
		m.focus = focusSearch
		return m, m.search.Focus()
	case key.Matches(msg, keys.Toggle):
		return m.toggleAtCursor()
	case key.Matches(msg, keys.Delete):
		if m.cursor < len(m.items) {
			return m, m.deleteTodo(m.items[m.cursor].ID)
		}
		return m, nil
	}

	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
		// Reaching the end of the loaded list is the load-more signal.
		if m.cursor >= len(m.items)-1 {
			return m.maybeLoadMore()
		}
		return m, nil
	}
	return m, nil
}

// scheduleDebounce bumps the epoch (cancelling any pending timer and any
// in-flight fetch by obsolescence) and arms a new 300ms timer.
func (m *Model) scheduleDebounce() tea.Cmd {
	m.epoch++
	e := m.epoch
	return tea.Tick(searchDebounce, func(time.Time) tea.Msg {
		return debounceMsg{epoch: e}
	})
}

func (m Model) resetAndReload() (Model, tea.Cmd) {
	m.epoch++
	m.items = nil
	m.cursor = 0
	m.currentPage = 1
	m.hasMore = false
	m.loading = true
	m.loadingMore = false
	return m, m.fetchPage(m.epoch, 1)
}

// maybeLoadMore requests the next page, guarded so at most one load-more is
// in flight; duplicate visibility signals are no-ops.
func (m Model) maybeLoadMore() (Model, tea.Cmd) {
	if !m.hasMore || m.loading || m.loadingMore {
		return m, nil
	}
	m.loadingMore = true
	return m, m.fetchPage(m.epoch, m.currentPage+1)
}

func (m Model) applyPage(msg pageMsg) (Model, tea.Cmd) {
	if msg.epoch != m.epoch {
		// Superseded by a newer search/reset; discard silently.
		return m, nil
	}
	m.loading = false
	m.loadingMore = false
	if msg.err != nil {
		return m.notifyErr(msg.err), nil
	}
	if msg.page == 1 {
		m.items = msg.result.Items
		m.cursor = 0
	} else {
		m.items = append(m.items, msg.result.Items...)
	}
	m.currentPage = msg.page
	m.total = msg.result.Total
	m.totalDone = msg.result.TotalDone
	m.hasMore = msg.page < msg.result.TotalPages
	return m, nil
}

func (m Model) toggleAtCursor() (Model, tea.Cmd) {
	if m.cursor >= len(m.items) {
		return m, nil
	}
	t := &m.items[m.cursor]
	prev := t.Done
	// Optimistic: flip locally before the server confirms.
	t.Done = !prev
	if t.Done {
		m.totalDone++
	} else {
		m.totalDone--
	}
	return m, m.updateTodo(t.ID, !prev, prev)
}

func (m Model) fetchPage(epoch, page int) tea.Cmd {
	client, query := m.api, m.searchQuery
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		result, err := client.ListTodos(ctx, api.ListParams{Search: query, Page: page, PageSize: pageSize})
		return pageMsg{epoch: epoch, page: page, result: result, err: err}
	}
}

func (m Model) createTodo(title string) tea.Cmd {
	client := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := client.CreateTodo(ctx, title)
		return createdMsg{err: err}
	}
}

func (m Model) updateTodo(id string, done, prevDone bool) tea.Cmd {
	client := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := client.UpdateTodo(ctx, id, api.TodoPatch{Done: &done})
		return toggledMsg{id: id, prevDone: prevDone, err: err}
	}
}

func (m Model) deleteTodo(id string) tea.Cmd {
	client := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := client.DeleteTodo(ctx, id)
		return deletedMsg{err: err}
	}
}

func (m Model) notify(s string) Model {
	m.status, m.statusErr = s, false
	return m
}

func (m Model) notifyErr(err error) Model {
	m.status, m.statusErr = err.Error(), true
	return m
}

func (m Model) notifyErrText(s string) Model {
	m.status, m.statusErr = s, true
	return m
}
