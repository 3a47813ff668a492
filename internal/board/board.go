// Package board holds the kanban rules: how tasks are grouped into lanes,
// how a drag-and-drop move rewrites status and order, and where tasks go
// when their column disappears. Everything here works on plain slices so the
// store, the server and the TUI share one implementation.
package board

import (
	"errors"
	"sort"

	"github.com/existflow/taskboard/internal/model"
)

var (
	ErrTaskNotFound   = errors.New("task not found")
	ErrTargetNotFound = errors.New("drop target not found")
	ErrColumnNotFound = errors.New("column not found")
	ErrInvalidTarget  = errors.New("invalid drop target")
	ErrLastColumn     = errors.New("cannot delete the last column")
)

// Lane is a column together with its ordered tasks
type Lane struct {
	Column model.Column `json:"column"`
	Tasks  []model.Task `json:"tasks"`
}

// SortColumns orders columns by position, then creation time
func SortColumns(columns []model.Column) []model.Column {
	out := append([]model.Column(nil), columns...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// sortLane orders tasks by position. Equal positions fall back to creation
// time and then id so the order is deterministic.
func sortLane(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Position != tasks[j].Position {
			return tasks[i].Position < tasks[j].Position
		}
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
		}
		return tasks[i].ID < tasks[j].ID
	})
}

// ColumnTasks returns the tasks whose status is columnID, in board order
func ColumnTasks(tasks []model.Task, columnID string) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		if t.Status == columnID {
			out = append(out, t)
		}
	}
	sortLane(out)
	return out
}

// Group builds the board lanes in column order. Tasks pointing at a column
// that no longer exists are shown in the first lane.
func Group(columns []model.Column, tasks []model.Task) []Lane {
	cols := SortColumns(columns)
	if len(cols) == 0 {
		return nil
	}

	known := make(map[string]int, len(cols))
	lanes := make([]Lane, len(cols))
	for i, c := range cols {
		known[c.ID] = i
		lanes[i] = Lane{Column: c, Tasks: []model.Task{}}
	}

	var stray []model.Task
	for _, t := range tasks {
		if i, ok := known[t.Status]; ok {
			lanes[i].Tasks = append(lanes[i].Tasks, t)
		} else {
			stray = append(stray, t)
		}
	}

	for i := range lanes {
		sortLane(lanes[i].Tasks)
	}
	sortLane(stray)
	lanes[0].Tasks = append(lanes[0].Tasks, stray...)
	return lanes
}

// FallbackColumn picks where the tasks of a deleted column go: the first
// remaining default column, otherwise the first remaining column.
func FallbackColumn(columns []model.Column, deletedID string) (model.Column, error) {
	var first *model.Column
	for _, c := range SortColumns(columns) {
		if c.ID == deletedID {
			continue
		}
		if c.IsDefault {
			return c, nil
		}
		if first == nil {
			c := c
			first = &c
		}
	}
	if first == nil {
		return model.Column{}, ErrLastColumn
	}
	return *first, nil
}

// NextPosition returns the position that appends a task to columnID
func NextPosition(tasks []model.Task, columnID string) int {
	next := 0
	for _, t := range tasks {
		if t.Status == columnID && t.Position >= next {
			next = t.Position + 1
		}
	}
	return next
}
