package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"

	"github.com/existflow/taskboard/internal/board"
	"github.com/existflow/taskboard/internal/client"
	"github.com/existflow/taskboard/internal/logger"
	"github.com/existflow/taskboard/internal/model"
	"github.com/existflow/taskboard/internal/realtime"
)

// API is the part of the taskboard client the board view talks to
type API interface {
	Board(ctx context.Context, workspaceID string) (client.Board, error)
	CreateTask(ctx context.Context, workspaceID string, t client.NewTask) (model.Task, error)
	UpdateTask(ctx context.Context, workspaceID, id string, patch client.TaskPatch) (model.Task, error)
	DeleteTask(ctx context.Context, workspaceID, id string) error
	MoveTask(ctx context.Context, workspaceID, id string, over board.Target) (client.MoveResult, error)
	Refine(ctx context.Context, workspaceID, id string) (model.Task, error)
}

// Mode represents the current UI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeAddTask
	ModeEditTask
	ModeFilter
	ModeConfirmDelete
	ModeHelp
)

// Model is the kanban board
type Model struct {
	api         API
	workspaceID string
	board       client.Board
	loaded      bool

	// Remote changes from the event feed
	refresh chan []realtime.Event

	// UI state
	width  int
	height int
	mode   Mode
	lane   int
	cursor int
	follow string // task to select after the next reload

	// Input
	input textinput.Model

	filterText string
	message    string
	busy       bool
}

// NewModel creates a board for one workspace
func NewModel(api API, workspaceID string) Model {
	logger.Info("Initializing TUI model", logger.F("workspace", workspaceID))

	ti := textinput.New()
	ti.Placeholder = "Task title..."
	ti.CharLimit = 256
	ti.Width = 50

	return Model{
		api:         api,
		workspaceID: workspaceID,
		mode:        ModeNormal,
		input:       ti,
		refresh:     make(chan []realtime.Event, 1),
	}
}

// Notify tells the board that the workspace changed elsewhere. It never
// blocks; a reload already queued covers later events.
func (m Model) Notify(events []realtime.Event) {
	select {
	case m.refresh <- events:
	default:
	}
}

// visible returns the tasks of lane i that pass the current filter
func (m *Model) visible(i int) []model.Task {
	if i < 0 || i >= len(m.board.Lanes) {
		return nil
	}
	tasks := m.board.Lanes[i].Tasks
	if m.filterText == "" {
		return tasks
	}
	return board.Apply(tasks, board.Filter{Kind: board.FilterAll, Query: m.filterText})
}

func (m *Model) currentColumn() *model.Column {
	if m.lane < len(m.board.Lanes) {
		return &m.board.Lanes[m.lane].Column
	}
	return nil
}

func (m *Model) currentTask() *model.Task {
	tasks := m.visible(m.lane)
	if m.cursor >= 0 && m.cursor < len(tasks) {
		return &tasks[m.cursor]
	}
	return nil
}

// clamp keeps the lane and cursor inside the board
func (m *Model) clamp() {
	m.lane = clamp(m.lane, 0, len(m.board.Lanes)-1)
	m.cursor = clamp(m.cursor, 0, len(m.visible(m.lane))-1)
}

// selectTask moves the cursor onto id if it is visible
func (m *Model) selectTask(id string) bool {
	for li := range m.board.Lanes {
		for ti, t := range m.visible(li) {
			if t.ID == id {
				m.lane, m.cursor = li, ti
				return true
			}
		}
	}
	return false
}
