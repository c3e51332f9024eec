// Package ui is the terminal client for the todo API.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/fastygo/todo/pkg/effect"
	"github.com/fastygo/todo/pkg/fetch"
	"github.com/fastygo/todo/pkg/todoclient"
)

// API is the subset of the todo client the UI drives.
type API interface {
	List(ctx context.Context) fetch.Response[todoclient.ListPayload]
	Create(ctx context.Context, task string) fetch.Response[todoclient.TodoPayload]
	Update(ctx context.Context, id string, completed bool) fetch.Response[todoclient.TodoPayload]
}

type focusArea int

const (
	focusInput focusArea = iota
	focusList
)

type (
	reloadMsg      struct{}
	todoCreatedMsg struct{ todo todoclient.Todo }
	todoUpdatedMsg struct{ todo todoclient.Todo }

	// load is the sequence number of the load that produced the message.
	todosLoadedMsg struct {
		load  int
		todos []todoclient.Todo
	}
	loadFailedMsg struct {
		load int
		err  error
	}
	actionFailedMsg struct {
		action string
		err    error
	}
)

// Model owns all UI state. It is only changed inside Update.
type Model struct {
	ctx    context.Context
	api    API
	logger *zap.Logger

	loading bool
	todos   []todoclient.Todo
	cursor  int
	focus   focusArea

	input   textinput.Model
	spinner spinner.Model
	help    help.Model
	keys    keyMap

	loader *effect.Effect
	loads  int
	width  int
}

func NewModel(ctx context.Context, api API, logger *zap.Logger) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "What needs to be done?"
	ti.CharLimit = 500
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = accentStyle

	return Model{
		ctx:     ctx,
		api:     api,
		logger:  logger,
		loading: true,
		input:   ti,
		spinner: sp,
		help:    help.New(),
		keys:    defaultKeys(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, func() tea.Msg { return reloadMsg{} })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case reloadMsg:
		var cmd tea.Cmd
		m, cmd = m.startLoad()
		return m, tea.Batch(cmd, m.spinner.Tick)

	case todosLoadedMsg:
		if msg.load != m.loads {
			return m, nil
		}
		m.loading = false
		m.todos = msg.todos
		m.clampCursor()
		return m, nil

	case loadFailedMsg:
		if msg.load != m.loads {
			return m, nil
		}
		m.loading = false
		m.logger.Error("load todos failed", zap.Error(msg.err))
		return m, nil

	case todoCreatedMsg:
		m.todos = append(m.todos, msg.todo)
		m.input.Reset()
		return m, nil

	case todoUpdatedMsg:
		for i := range m.todos {
			if m.todos[i].ID == msg.todo.ID {
				m.todos[i] = msg.todo
			}
		}
		return m, nil

	case actionFailedMsg:
		m.logger.Error(msg.action+" failed", zap.Error(msg.err))
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}
	if key.Matches(msg, m.keys.Focus) {
		m = m.toggleFocus()
		return m, nil
	}

	if m.focus == focusInput {
		switch {
		case msg.Type == tea.KeyEsc:
			m = m.toggleFocus()
			return m, nil
		case key.Matches(msg, m.keys.Submit):
			task := m.input.Value()
			if m.loading || !canSubmit(task) {
				return m, nil
			}
			return m, m.createCmd(task)
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.todos)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		if !m.loading && m.cursor < len(m.todos) {
			todo := m.todos[m.cursor]
			return m, m.updateCmd(todo.ID, !todo.Completed)
		}
	case key.Matches(msg, m.keys.Reload):
		return m, func() tea.Msg { return reloadMsg{} }
	}
	return m, nil
}

func (m Model) toggleFocus() Model {
	if m.focus == focusInput {
		m.focus = focusList
		m.input.Blur()
	} else {
		m.focus = focusInput
		m.input.Focus()
	}
	return m
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.loader != nil {
		m.loader.Unmount()
	}
	return m, tea.Quit
}

// startLoad unmounts the previous load and mounts a new one. The returned
// command delivers todosLoadedMsg or loadFailedMsg, or nil when the load was
// unmounted first.
func (m Model) startLoad() (Model, tea.Cmd) {
	if m.loader != nil {
		m.loader.Unmount()
	}
	m.loading = true
	m.loads++

	out := make(chan tea.Msg, 1)
	api, logger, seq := m.api, m.logger, m.loads
	loader := effect.Mount(m.ctx, func(s *effect.Scope) error {
		if err := s.OnCleanup(func() { logger.Debug("todo list load unmounted") }); err != nil {
			return err
		}
		resp, err := effect.Await(s, func(ctx context.Context) (fetch.Response[todoclient.ListPayload], error) {
			return api.List(ctx), nil
		})
		if err != nil {
			return err
		}
		if err := todoclient.Error(resp); err != nil {
			out <- loadFailedMsg{load: seq, err: err}
			return nil
		}
		out <- todosLoadedMsg{load: seq, todos: resp.Data.Todos}
		return nil
	}, effect.WithLogger(logger), effect.WithErrorHandler(func(err error) {
		out <- loadFailedMsg{load: seq, err: err}
	}))
	m.loader = loader

	return m, func() tea.Msg {
		<-loader.Done()
		select {
		case msg := <-out:
			return msg
		default:
			return nil
		}
	}
}

func (m Model) createCmd(task string) tea.Cmd {
	ctx, api := m.ctx, m.api
	return func() tea.Msg {
		resp := api.Create(ctx, task)
		if err := todoclient.Error(resp); err != nil {
			return actionFailedMsg{action: "create todo", err: err}
		}
		return todoCreatedMsg{todo: resp.Data.Todo}
	}
}

func (m Model) updateCmd(id string, completed bool) tea.Cmd {
	ctx, api := m.ctx, m.api
	return func() tea.Msg {
		resp := api.Update(ctx, id, completed)
		if err := todoclient.Error(resp); err != nil {
			return actionFailedMsg{action: "update todo", err: err}
		}
		return todoUpdatedMsg{todo: resp.Data.Todo}
	}
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.todos) {
		m.cursor = len(m.todos) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// canSubmit reports whether the form has a non-blank task.
func canSubmit(task string) bool {
	return strings.TrimSpace(task) != ""
}

// Todos returns the rendered records.
func (m Model) Todos() []todoclient.Todo {
	return m.todos
}

func (m Model) Loading() bool {
	return m.loading
}

func (m Model) View() string {
	var b strings.Builder

	done, pending := stats(m.todos)
	fmt.Fprintf(&b, "%s   %s %d  %s %d  %s %d\n\n",
		titleStyle.Render("Todos"),
		successStyle.Render("✔"), done,
		pendingStyle.Render("•"), pending,
		accentStyle.Render("Total"), len(m.todos),
	)

	if m.loading {
		b.WriteString(m.spinner.View() + " Loading\n\n")
		b.WriteString(m.help.View(m.keys))
		return b.String()
	}

	switch {
	case len(m.todos) == 0:
		b.WriteString(mutedStyle.Render("Nothing to do yet.") + "\n")
	default:
		for i, todo := range m.todos {
			b.WriteString(m.renderItem(i, todo) + "\n")
		}
	}

	button := disabledButtonStyle.Render("[ Add ]")
	if canSubmit(m.input.Value()) {
		button = buttonStyle.Render("[ Add ]")
	}
	form := lipgloss.JoinHorizontal(lipgloss.Center, m.input.View(), "  ", button)
	panel := panelStyle
	if m.focus == focusInput {
		panel = focusedPanelStyle
	}
	b.WriteString("\n" + panel.Render(form) + "\n")
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func (m Model) renderItem(i int, todo todoclient.Todo) string {
	box := mutedStyle.Render(boxUnchecked)
	text := todo.Task
	if todo.Completed {
		box = successStyle.Render(boxChecked)
		text = doneStyle.Render(text)
	}

	prefix := "  "
	if m.focus == focusList && i == m.cursor {
		prefix = selectedStyle.Render(">") + " "
	}
	return prefix + box + " " + text
}

func stats(todos []todoclient.Todo) (done, pending int) {
	for _, t := range todos {
		if t.Completed {
			done++
		} else {
			pending++
		}
	}
	return
}
