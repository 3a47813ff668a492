package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/existflow/taskboard/internal/board"
	"github.com/existflow/taskboard/internal/client"
	"github.com/existflow/taskboard/internal/logger"
	"github.com/existflow/taskboard/internal/model"
	"github.com/existflow/taskboard/internal/realtime"
)

const requestTimeout = 15 * time.Second

// boardMsg carries a fresh board snapshot
type boardMsg struct {
	board client.Board
	err   error
}

// actionMsg reports the outcome of a change made from the board
type actionMsg struct {
	message string
	follow  string
	err     error
}

// remoteMsg is sent when the event feed reports changes
type remoteMsg struct {
	events []realtime.Event
}

// Init loads the board and starts listening for remote changes
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadBoard(), m.waitForRemote())
}

func (m Model) loadBoard() tea.Cmd {
	api, wsID := m.api, m.workspaceID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		b, err := api.Board(ctx, wsID)
		return boardMsg{board: b, err: err}
	}
}

// waitForRemote blocks until Notify is called
func (m Model) waitForRemote() tea.Cmd {
	ch := m.refresh
	return func() tea.Msg {
		return remoteMsg{events: <-ch}
	}
}

// run performs a change off the UI goroutine
func (m Model) run(f func(ctx context.Context, api API, wsID string) actionMsg) tea.Cmd {
	api, wsID := m.api, m.workspaceID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return f(ctx, api, wsID)
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case boardMsg:
		m.busy = false
		if msg.err != nil {
			logger.Warn("Failed to load board", logger.F("error", msg.err))
			m.message = "Error: " + msg.err.Error()
			return m, nil
		}
		var selected string
		if t := m.currentTask(); t != nil {
			selected = t.ID
		}
		m.board = msg.board
		m.loaded = true
		if m.follow == "" || !m.selectTask(m.follow) {
			if selected != "" {
				m.selectTask(selected)
			}
		}
		m.follow = ""
		m.clamp()
		return m, nil

	case actionMsg:
		m.busy = false
		if msg.err != nil {
			logger.Warn("Board action failed", logger.F("error", msg.err))
			m.message = "Error: " + msg.err.Error()
		} else {
			m.message = msg.message
			m.follow = msg.follow
		}
		return m, m.loadBoard()

	case remoteMsg:
		logger.Debug("Remote changes", logger.F("events", len(msg.events)))
		if len(msg.events) > 0 && !m.busy {
			m.message = describeEvents(msg.events)
		}
		return m, tea.Batch(m.loadBoard(), m.waitForRemote())

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeAddTask, ModeEditTask:
			return m.updateInput(msg)
		case ModeFilter:
			return m.updateFilter(msg)
		case ModeConfirmDelete:
			return m.updateConfirm(msg)
		case ModeHelp:
			m.mode = ModeNormal
			return m, nil
		}
		return m.handleNormalKeys(msg)
	}

	return m, nil
}

func describeEvents(events []realtime.Event) string {
	if len(events) == 1 {
		return "Board updated: " + strings.ReplaceAll(string(events[0].Type), ".", " ")
	}
	return fmt.Sprintf("Board updated (%d changes)", len(events))
}

// handleNormalKeys handles key presses in normal mode
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.message = ""

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Left):
		if m.lane > 0 {
			m.lane--
			m.cursor = clamp(m.cursor, 0, len(m.visible(m.lane))-1)
		}

	case key.Matches(msg, keys.Right):
		if m.lane < len(m.board.Lanes)-1 {
			m.lane++
			m.cursor = clamp(m.cursor, 0, len(m.visible(m.lane))-1)
		}

	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.visible(m.lane))-1 {
			m.cursor++
		}

	case msg.String() == "g":
		m.cursor = 0

	case msg.String() == "G":
		n := len(m.visible(m.lane))
		m.cursor = clamp(n-1, 0, n-1)

	case key.Matches(msg, keys.MoveLeft):
		return m.moveToLane(m.lane - 1)

	case key.Matches(msg, keys.MoveRight):
		return m.moveToLane(m.lane + 1)

	case key.Matches(msg, keys.MoveUp):
		return m.moveOnto(m.cursor - 1)

	case key.Matches(msg, keys.MoveDown):
		return m.moveOnto(m.cursor + 1)

	case msg.String() == "1", msg.String() == "2", msg.String() == "3":
		return m.setPriority(msg.String())

	case key.Matches(msg, keys.Add):
		return m.startInput(ModeAddTask, "", "Task title...")

	case key.Matches(msg, keys.Edit):
		if t := m.currentTask(); t != nil {
			return m.startInput(ModeEditTask, t.Title, "New title...")
		}

	case key.Matches(msg, keys.Delete):
		if m.currentTask() != nil {
			m.mode = ModeConfirmDelete
		}

	case key.Matches(msg, keys.Refine):
		return m.refine()

	case key.Matches(msg, keys.Filter):
		m.mode = ModeFilter
		m.input.SetValue(m.filterText)
		m.input.Placeholder = "Filter tasks..."
		m.input.Focus()
		return m, textinput.Blink

	case key.Matches(msg, keys.Escape):
		if m.filterText != "" {
			m.filterText = ""
			m.clamp()
			m.message = "Filter cleared"
		}

	case key.Matches(msg, keys.Help):
		m.mode = ModeHelp

	case key.Matches(msg, keys.Refresh):
		m.message = "Refreshing..."
		return m, m.loadBoard()
	}

	return m, nil
}

// moveToLane drops the selected task on the column at index lane
func (m Model) moveToLane(lane int) (tea.Model, tea.Cmd) {
	t := m.currentTask()
	if t == nil || lane < 0 || lane >= len(m.board.Lanes) {
		return m, nil
	}
	col := m.board.Lanes[lane].Column
	target := board.Target{Kind: board.TargetColumn, ID: col.ID}
	return m.move(*t, target, "Moved to "+col.Title)
}

// moveOnto drops the selected task on the visible task at index i of the
// same lane, swapping their order
func (m Model) moveOnto(i int) (tea.Model, tea.Cmd) {
	t := m.currentTask()
	tasks := m.visible(m.lane)
	if t == nil || i < 0 || i >= len(tasks) {
		return m, nil
	}
	target := board.Target{Kind: board.TargetTask, ID: tasks[i].ID}
	return m.move(*t, target, "Reordered")
}

func (m Model) move(t model.Task, over board.Target, done string) (tea.Model, tea.Cmd) {
	m.busy = true
	id := t.ID
	return m, m.run(func(ctx context.Context, api API, wsID string) actionMsg {
		res, err := api.MoveTask(ctx, wsID, id, over)
		if err != nil {
			return actionMsg{err: err}
		}
		if len(res.Changed) == 0 {
			return actionMsg{message: "Nothing moved", follow: id}
		}
		return actionMsg{message: done, follow: id}
	})
}

func (m Model) setPriority(k string) (tea.Model, tea.Cmd) {
	t := m.currentTask()
	if t == nil {
		return m, nil
	}
	p := map[string]model.Priority{"1": model.PriorityLow, "2": model.PriorityMedium, "3": model.PriorityHigh}[k]
	if t.Priority == p {
		return m, nil
	}
	m.busy = true
	id, s := t.ID, string(p)
	return m, m.run(func(ctx context.Context, api API, wsID string) actionMsg {
		_, err := api.UpdateTask(ctx, wsID, id, client.TaskPatch{Priority: &s})
		return actionMsg{message: "Priority set to " + s, follow: id, err: err}
	})
}

func (m Model) refine() (tea.Model, tea.Cmd) {
	t := m.currentTask()
	if t == nil {
		return m, nil
	}
	m.busy = true
	m.message = "Refining..."
	id := t.ID
	return m, m.run(func(ctx context.Context, api API, wsID string) actionMsg {
		refined, err := api.Refine(ctx, wsID, id)
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{message: "Refined: " + refined.Title, follow: id}
	})
}

func (m Model) startInput(mode Mode, value, placeholder string) (tea.Model, tea.Cmd) {
	if mode == ModeAddTask && m.currentColumn() == nil {
		m.message = "No columns on this board"
		return m, nil
	}
	m.mode = mode
	m.input.SetValue(value)
	m.input.Placeholder = placeholder
	m.input.CursorEnd()
	m.input.Focus()
	return m, textinput.Blink
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = ModeNormal
		m.input.Blur()
		return m, nil

	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		mode := m.mode
		m.mode = ModeNormal
		m.input.Blur()

		switch mode {
		case ModeAddTask:
			col := m.currentColumn()
			if col == nil {
				return m, nil
			}
			m.busy = true
			status := col.ID
			return m, m.run(func(ctx context.Context, api API, wsID string) actionMsg {
				t, err := api.CreateTask(ctx, wsID, client.NewTask{Title: value, Status: status})
				if err != nil {
					return actionMsg{err: err}
				}
				return actionMsg{message: "Added: " + t.Title, follow: t.ID}
			})

		case ModeEditTask:
			t := m.currentTask()
			if t == nil || value == "" || value == t.Title {
				return m, nil
			}
			m.busy = true
			id := t.ID
			return m, m.run(func(ctx context.Context, api API, wsID string) actionMsg {
				_, err := api.UpdateTask(ctx, wsID, id, client.TaskPatch{Title: &value})
				return actionMsg{message: "Updated", follow: id, err: err}
			})
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// updateFilter narrows the board live while typing
func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = ModeNormal
		m.filterText = ""
		m.input.Blur()
		m.clamp()
		return m, nil
	case tea.KeyEnter:
		m.mode = ModeNormal
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.filterText = strings.TrimSpace(m.input.Value())
	m.cursor = 0
	m.clamp()
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = ModeNormal
	t := m.currentTask()
	if t == nil || (msg.String() != "y" && msg.String() != "Y") {
		m.message = "Cancelled"
		return m, nil
	}

	m.busy = true
	id, title := t.ID, t.Title
	return m, m.run(func(ctx context.Context, api API, wsID string) actionMsg {
		err := api.DeleteTask(ctx, wsID, id)
		return actionMsg{message: "Deleted: " + title, err: err}
	})
}
