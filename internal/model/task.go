package model

import (
	"strings"
	"time"
)

// Priority of a task or sub-task
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority returns the priority named by s
func ParsePriority(s string) (Priority, bool) {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityLow:
		return PriorityLow, true
	case PriorityMedium:
		return PriorityMedium, true
	case PriorityHigh:
		return PriorityHigh, true
	}
	return "", false
}

// NormalizePriority parses s and falls back to medium
func NormalizePriority(s string) Priority {
	if p, ok := ParsePriority(s); ok {
		return p
	}
	return PriorityMedium
}

// DefaultTaskTitle is used when a task is created without a title
const DefaultTaskTitle = "New Task"

// Task is a single card on the board. Status holds the id of the column the
// task sits in; Position is its rank inside that column.
type Task struct {
	ID          string     `json:"id"`
	WorkspaceID string     `json:"workspace_id"`
	ProjectID   string     `json:"project_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Summary     string     `json:"summary,omitempty"`
	Status      string     `json:"status"`
	Priority    Priority   `json:"priority"`
	Position    int        `json:"position"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	SubTasks    []SubTask  `json:"sub_tasks"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// SubTask is a checklist item inside a task
type SubTask struct {
	ID        string     `json:"id"`
	TaskID    string     `json:"task_id"`
	Text      string     `json:"text"`
	Completed bool       `json:"completed"`
	Priority  Priority   `json:"priority"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	Position  int        `json:"position"`
}

// NewTask creates a task with the defaults the board uses for new cards
func NewTask(id, workspaceID, title string, now time.Time) Task {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTaskTitle
	}
	due := now
	return Task{
		ID:          id,
		WorkspaceID: workspaceID,
		Title:       title,
		Priority:    PriorityMedium,
		DueDate:     &due,
		SubTasks:    []SubTask{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsDue returns true if the task is due today or overdue
func (t *Task) IsDue(now time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return t.DueDate.Before(today.Add(24 * time.Hour))
}

// IsOverdue returns true if the task is past its due date
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return t.DueDate.Before(today)
}

// Progress returns completed and total sub-task counts
func (t *Task) Progress() (done, total int) {
	for _, st := range t.SubTasks {
		if st.Completed {
			done++
		}
	}
	return done, len(t.SubTasks)
}
