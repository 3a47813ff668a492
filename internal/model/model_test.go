package model

import (
	"testing"
	"time"
)

func TestParsePriority(t *testing.T) {
	if p, ok := ParsePriority(" HIGH "); !ok || p != PriorityHigh {
		t.Errorf("expected high, got %q ok=%v", p, ok)
	}
	if _, ok := ParsePriority("urgent"); ok {
		t.Error("urgent should not parse")
	}
	if got := NormalizePriority("urgent"); got != PriorityMedium {
		t.Errorf("expected fallback to medium, got %q", got)
	}
}

func TestNewTaskDefaults(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	task := NewTask("t1", "ws1", "   ", now)

	if task.Title != DefaultTaskTitle {
		t.Errorf("expected default title, got %q", task.Title)
	}
	if task.Priority != PriorityMedium {
		t.Errorf("expected medium priority, got %q", task.Priority)
	}
	if task.DueDate == nil || !task.DueDate.Equal(now) {
		t.Errorf("expected due date %v, got %v", now, task.DueDate)
	}
	if task.SubTasks == nil {
		t.Error("sub-tasks should be an empty list, not nil")
	}
}

func TestTaskDueAndOverdue(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	later := now.Add(2 * time.Hour)
	nextWeek := now.Add(7 * 24 * time.Hour)

	overdue := Task{DueDate: &yesterday}
	if !overdue.IsOverdue(now) || !overdue.IsDue(now) {
		t.Error("yesterday's task should be overdue and due")
	}

	today := Task{DueDate: &later}
	if today.IsOverdue(now) || !today.IsDue(now) {
		t.Error("today's task should be due but not overdue")
	}

	future := Task{DueDate: &nextWeek}
	if future.IsDue(now) {
		t.Error("next week's task should not be due")
	}

	none := Task{}
	if none.IsDue(now) || none.IsOverdue(now) {
		t.Error("task without due date is never due")
	}
}

func TestTaskProgress(t *testing.T) {
	task := Task{SubTasks: []SubTask{{Completed: true}, {}, {Completed: true}}}
	done, total := task.Progress()
	if done != 2 || total != 3 {
		t.Errorf("expected 2/3, got %d/%d", done, total)
	}
}

func TestDefaultColumns(t *testing.T) {
	cols := DefaultColumns("ws1", time.Now())
	if len(cols) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(cols))
	}
	want := []string{"To Do", "In Progress", "Done"}
	for i, c := range cols {
		if c.Title != want[i] || c.Position != i || !c.IsDefault || c.WorkspaceID != "ws1" {
			t.Errorf("column %d unexpected: %+v", i, c)
		}
	}
}

func TestValidEmail(t *testing.T) {
	valid := []string{"a@b.co", "  jane@example.com "}
	invalid := []string{"", "@x.com", "jane@", "a@@b", "no-at-sign", "a b@c.d"}

	for _, e := range valid {
		if !ValidEmail(e) {
			t.Errorf("expected %q to be valid", e)
		}
	}
	for _, e := range invalid {
		if ValidEmail(e) {
			t.Errorf("expected %q to be invalid", e)
		}
	}
	if got := NormalizeEmail("  Jane@Example.COM "); got != "jane@example.com" {
		t.Errorf("unexpected normalized email %q", got)
	}
}
