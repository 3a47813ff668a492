package board

import (
	"sort"
	"strings"

	"github.com/existflow/taskboard/internal/model"
)

// FilterKind selects which sidebar entry is active in the list view
type FilterKind string

const (
	FilterAll     FilterKind = "all"
	FilterStatus  FilterKind = "status"
	FilterProject FilterKind = "project"
)

// Filter narrows the list view. Value is a column id for FilterStatus and a
// project id for FilterProject. Query matches title or description.
type Filter struct {
	Kind  FilterKind
	Value string
	Query string
}

// ParseFilterKind maps a query parameter onto a kind, defaulting to all
func ParseFilterKind(s string) FilterKind {
	switch FilterKind(s) {
	case FilterStatus:
		return FilterStatus
	case FilterProject:
		return FilterProject
	default:
		return FilterAll
	}
}

// Match reports whether a task passes the filter
func (f Filter) Match(t model.Task) bool {
	switch f.Kind {
	case FilterStatus:
		if t.Status != f.Value {
			return false
		}
	case FilterProject:
		if t.ProjectID != f.Value {
			return false
		}
	}

	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Title), q) ||
		strings.Contains(strings.ToLower(t.Description), q)
}

// Apply returns the matching tasks, keeping their order
func Apply(tasks []model.Task, f Filter) []model.Task {
	out := []model.Task{}
	for _, t := range tasks {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// NewestFirst orders tasks the way the list view shows them
func NewestFirst(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		}
		return tasks[i].ID < tasks[j].ID
	})
}
