package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/existflow/taskboard/internal/board"
	"github.com/existflow/taskboard/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	clock := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Millisecond)
		return clock
	}
	s.codeCost = bcrypt.MinCost
	return s
}

// fixture creates a user with a fresh workspace and returns both plus the
// default columns.
func fixture(t *testing.T, s *Store) (model.User, model.Workspace, []model.Column) {
	t.Helper()
	ctx := context.Background()
	user, err := s.UpsertUserByEmail(ctx, "owner@example.com")
	if err != nil {
		t.Fatalf("UpsertUserByEmail: %v", err)
	}
	ws, err := s.CreateWorkspace(ctx, user.ID, model.Workspace{Name: "Home"})
	if err != nil {
		t.Fatalf("CreateWorkspace: %v", err)
	}
	cols, err := s.ListColumns(ctx, ws.ID)
	if err != nil {
		t.Fatalf("ListColumns: %v", err)
	}
	return user, ws, cols
}

func addTask(t *testing.T, s *Store, wsID, title, status string) model.Task {
	t.Helper()
	task, err := s.CreateTask(context.Background(), model.Task{WorkspaceID: wsID, Title: title, Status: status})
	if err != nil {
		t.Fatalf("CreateTask %s: %v", title, err)
	}
	return task
}

func TestRebind(t *testing.T) {
	c := conn{postgres: true}
	if got := c.rebind("SELECT * FROM t WHERE a = ? AND b = ?"); got != "SELECT * FROM t WHERE a = $1 AND b = $2" {
		t.Errorf("unexpected rebind: %s", got)
	}
	c.postgres = false
	if got := c.rebind("a = ?"); got != "a = ?" {
		t.Errorf("sqlite query should be unchanged, got %s", got)
	}
}

func TestSplitStatements(t *testing.T) {
	got := splitStatements("\n CREATE TABLE a (id TEXT);\n\tCREATE INDEX i ON a (id);\n  ;\n")
	want := []string{"CREATE TABLE a (id TEXT)", "CREATE INDEX i ON a (id)"}
	if len(got) != len(want) {
		t.Fatalf("splitStatements = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("statement %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCreateWorkspaceSeedsColumns(t *testing.T) {
	s := newTestStore(t)
	_, ws, cols := fixture(t, s)

	if ws.Icon != model.DefaultWorkspaceIcon || ws.Color != model.DefaultWorkspaceColor {
		t.Errorf("expected default icon and color, got %+v", ws)
	}
	want := []string{"To Do", "In Progress", "Done"}
	if len(cols) != len(want) {
		t.Fatalf("expected %d columns, got %d", len(want), len(cols))
	}
	for i, c := range cols {
		if c.Title != want[i] || !c.IsDefault {
			t.Errorf("column %d: %+v", i, c)
		}
	}
}

func TestMagicCodeFlow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateMagicCode(ctx, "Jane@Example.com", "123456"); err != nil {
		t.Fatalf("CreateMagicCode: %v", err)
	}

	if _, err := s.ConsumeMagicCode(ctx, "jane@example.com", "000000"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}

	user, err := s.ConsumeMagicCode(ctx, "jane@example.com", "123456")
	if err != nil {
		t.Fatalf("ConsumeMagicCode: %v", err)
	}
	if user.Email != "jane@example.com" || user.Settings.Theme != model.ThemeSystem {
		t.Errorf("unexpected user %+v", user)
	}

	// Codes are single use
	if _, err := s.ConsumeMagicCode(ctx, "jane@example.com", "123456"); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("reused code: expected ErrInvalidCode, got %v", err)
	}

	// Signing in again returns the same user
	if _, err := s.CreateMagicCode(ctx, "jane@example.com", "654321"); err != nil {
		t.Fatalf("CreateMagicCode: %v", err)
	}
	again, err := s.ConsumeMagicCode(ctx, "jane@example.com", "654321")
	if err != nil || again.ID != user.ID {
		t.Errorf("expected same user, got %+v (%v)", again, err)
	}
}

func TestMagicCodeAttemptLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateMagicCode(ctx, "a@b.co", "111111"); err != nil {
		t.Fatalf("CreateMagicCode: %v", err)
	}
	var err error
	for i := 0; i < MaxCodeAttempts; i++ {
		_, err = s.ConsumeMagicCode(ctx, "a@b.co", "999999")
	}
	if !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts after %d misses, got %v", MaxCodeAttempts, err)
	}
	if _, err := s.ConsumeMagicCode(ctx, "a@b.co", "111111"); !errors.Is(err, ErrTooManyAttempts) {
		t.Errorf("correct code after lockout: expected ErrTooManyAttempts, got %v", err)
	}
}

func TestMagicCodeExpiry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateMagicCode(ctx, "a@b.co", "111111"); err != nil {
		t.Fatalf("CreateMagicCode: %v", err)
	}
	later := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return later }

	if _, err := s.ConsumeMagicCode(ctx, "a@b.co", "111111"); !errors.Is(err, ErrCodeExpired) {
		t.Errorf("expected ErrCodeExpired, got %v", err)
	}
}

func TestNewCodeReplacesOld(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.CreateMagicCode(ctx, "a@b.co", "111111")
	s.CreateMagicCode(ctx, "a@b.co", "222222")

	if _, err := s.ConsumeMagicCode(ctx, "a@b.co", "111111"); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("old code should no longer work, got %v", err)
	}
	if _, err := s.ConsumeMagicCode(ctx, "a@b.co", "222222"); err != nil {
		t.Errorf("new code should work, got %v", err)
	}
}

func TestSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user, _, _ := fixture(t, s)

	session, err := s.CreateSession(ctx, user.ID)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	got, err := s.GetSession(ctx, session.ID)
	if err != nil || got.UserID != user.ID {
		t.Fatalf("GetSession: %+v (%v)", got, err)
	}

	if err := s.DeleteSession(ctx, session.ID); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := s.GetSession(ctx, session.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after logout, got %v", err)
	}
}

func TestUpdateSettings(t *testing.T) {
	s := newTestStore(t)
	user, _, _ := fixture(t, s)

	updated, err := s.UpdateSettings(context.Background(), user.ID, model.Settings{
		DisplayName:     "Jane",
		Theme:           "neon",
		DefaultPriority: model.PriorityHigh,
	})
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if updated.Settings.DisplayName != "Jane" || updated.Settings.Theme != model.ThemeSystem ||
		updated.Settings.DefaultPriority != model.PriorityHigh || updated.Settings.EnableAISummaries {
		t.Errorf("unexpected settings %+v", updated.Settings)
	}
}

func TestCreateTaskAppendsToFirstColumn(t *testing.T) {
	s := newTestStore(t)
	_, ws, cols := fixture(t, s)

	a := addTask(t, s, ws.ID, "", "")
	b := addTask(t, s, ws.ID, "second", "")

	if a.Status != cols[0].ID || a.Title != model.DefaultTaskTitle {
		t.Errorf("unexpected first task %+v", a)
	}
	if a.Position != 0 || b.Position != 1 {
		t.Errorf("expected positions 0 and 1, got %d and %d", a.Position, b.Position)
	}

	if _, err := s.CreateTask(context.Background(), model.Task{WorkspaceID: ws.ID, Status: "nope"}); !errors.Is(err, board.ErrColumnNotFound) {
		t.Errorf("expected ErrColumnNotFound, got %v", err)
	}
	if _, err := s.CreateTask(context.Background(), model.Task{WorkspaceID: ws.ID, ProjectID: "nope"}); !errors.Is(err, ErrInvalidProject) {
		t.Errorf("expected ErrInvalidProject, got %v", err)
	}
}

func TestUpdateTaskStatusAppends(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, ws, cols := fixture(t, s)

	addTask(t, s, ws.ID, "x", cols[1].ID)
	task := addTask(t, s, ws.ID, "y", cols[0].ID)

	due := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	task.Status = cols[1].ID
	task.Priority = model.PriorityHigh
	task.DueDate = &due
	updated, err := s.UpdateTask(ctx, task)
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if updated.Status != cols[1].ID || updated.Position != 1 {
		t.Errorf("expected appended to second column, got %s/%d", updated.Status, updated.Position)
	}
	if updated.DueDate == nil || !updated.DueDate.Equal(due) || updated.Priority != model.PriorityHigh {
		t.Errorf("fields not saved: %+v", updated)
	}
}

func TestMoveTaskPersists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, ws, cols := fixture(t, s)

	a := addTask(t, s, ws.ID, "a", cols[0].ID)
	b := addTask(t, s, ws.ID, "b", cols[0].ID)
	c := addTask(t, s, ws.ID, "c", cols[1].ID)

	res, err := s.MoveTask(ctx, ws.ID, board.MoveRequest{TaskID: a.ID, Over: board.Target{Kind: board.TargetTask, ID: c.ID}})
	if err != nil {
		t.Fatalf("MoveTask: %v", err)
	}
	if res.Moved.Status != cols[1].ID {
		t.Errorf("expected moved into second column, got %s", res.Moved.Status)
	}

	tasks, err := s.ListTasks(ctx, ws.ID)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	var order []string
	for _, task := range board.ColumnTasks(tasks, cols[1].ID) {
		order = append(order, task.Title)
	}
	if len(order) != 2 || order[0] != "a" || order[1] != "c" {
		t.Errorf("unexpected lane order %v", order)
	}
	if got := board.ColumnTasks(tasks, cols[0].ID); len(got) != 1 || got[0].ID != b.ID || got[0].Position != 0 {
		t.Errorf("source lane not renumbered: %+v", got)
	}
}

func TestDeleteProjectOrphansTasks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, ws, _ := fixture(t, s)

	p, err := s.CreateProject(ctx, ws.ID, "Launch", "")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	task, err := s.CreateTask(ctx, model.Task{WorkspaceID: ws.ID, Title: "t", ProjectID: p.ID})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	if err := s.DeleteProject(ctx, ws.ID, p.ID); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	got, err := s.GetTask(ctx, ws.ID, task.ID)
	if err != nil {
		t.Fatalf("task should survive project deletion: %v", err)
	}
	if got.ProjectID != "" {
		t.Errorf("expected orphaned task, got project %q", got.ProjectID)
	}
}

func TestDeleteColumnReassignsTasks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, ws, cols := fixture(t, s)

	custom, err := s.CreateColumn(ctx, ws.ID, "Review", "")
	if err != nil {
		t.Fatalf("CreateColumn: %v", err)
	}
	if custom.Position != 3 || custom.IsDefault {
		t.Errorf("custom column should be appended and not default: %+v", custom)
	}

	addTask(t, s, ws.ID, "existing", cols[0].ID)
	addTask(t, s, ws.ID, "r1", custom.ID)
	addTask(t, s, ws.ID, "r2", custom.ID)

	target, err := s.DeleteColumn(ctx, ws.ID, custom.ID)
	if err != nil {
		t.Fatalf("DeleteColumn: %v", err)
	}
	if target.ID != cols[0].ID {
		t.Errorf("expected tasks to go to first default column, got %s", target.Title)
	}

	tasks, _ := s.ListTasks(ctx, ws.ID)
	lane := board.ColumnTasks(tasks, cols[0].ID)
	if len(lane) != 3 || lane[1].Title != "r1" || lane[2].Title != "r2" || lane[2].Position != 2 {
		t.Errorf("reassigned tasks should be appended in order: %+v", lane)
	}
}

func TestDeleteLastColumn(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, ws, cols := fixture(t, s)

	for _, c := range cols[1:] {
		if _, err := s.DeleteColumn(ctx, ws.ID, c.ID); err != nil {
			t.Fatalf("DeleteColumn: %v", err)
		}
	}
	if _, err := s.DeleteColumn(ctx, ws.ID, cols[0].ID); !errors.Is(err, board.ErrLastColumn) {
		t.Errorf("expected ErrLastColumn, got %v", err)
	}
}

func TestDeleteWorkspaceCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user, ws, _ := fixture(t, s)

	p, _ := s.CreateProject(ctx, ws.ID, "p", "")
	task, _ := s.CreateTask(ctx, model.Task{WorkspaceID: ws.ID, Title: "t", ProjectID: p.ID})
	if _, err := s.AddSubTask(ctx, ws.ID, task.ID, model.SubTask{Text: "step"}); err != nil {
		t.Fatalf("AddSubTask: %v", err)
	}
	if _, err := s.CreateInvitations(ctx, ws.ID, user.Email, []string{"friend@example.com"}); err != nil {
		t.Fatalf("CreateInvitations: %v", err)
	}

	other, _ := s.CreateWorkspace(ctx, user.ID, model.Workspace{Name: "Other"})
	addTask(t, s, other.ID, "keep", "")

	if err := s.DeleteWorkspace(ctx, ws.ID); err != nil {
		t.Fatalf("DeleteWorkspace: %v", err)
	}

	if _, err := s.GetWorkspace(ctx, ws.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("workspace still present: %v", err)
	}
	for table, want := range map[string]int{"projects": 0, "kanban_columns": 3, "tasks": 1, "subtasks": 0, "invitations": 0} {
		var n int
		if err := s.db.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if n != want {
			t.Errorf("%s: expected %d rows, got %d", table, want, n)
		}
	}
}

func TestResetWorkspaceKeepsColumns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, ws, cols := fixture(t, s)

	s.CreateProject(ctx, ws.ID, "p", "")
	addTask(t, s, ws.ID, "t", "")

	if err := s.ResetWorkspace(ctx, ws.ID); err != nil {
		t.Fatalf("ResetWorkspace: %v", err)
	}
	tasks, _ := s.ListTasks(ctx, ws.ID)
	projects, _ := s.ListProjects(ctx, ws.ID)
	after, _ := s.ListColumns(ctx, ws.ID)
	if len(tasks) != 0 || len(projects) != 0 || len(after) != len(cols) {
		t.Errorf("unexpected state after reset: %d tasks, %d projects, %d columns", len(tasks), len(projects), len(after))
	}
}

func TestRefinementReplacesSubTasks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, ws, _ := fixture(t, s)

	task := addTask(t, s, ws.ID, "Plan trip", "")
	s.AddSubTask(ctx, ws.ID, task.ID, model.SubTask{Text: "old"})

	got, err := s.ApplyRefinement(ctx, ws.ID, task.ID, "Pick dates and book.", "urgent", []string{"Pick dates", " ", "Book flights", "Book hotel"})
	if err != nil {
		t.Fatalf("ApplyRefinement: %v", err)
	}
	if got.Description != "Pick dates and book." || got.Priority != model.PriorityMedium {
		t.Errorf("unexpected task %+v", got)
	}
	if len(got.SubTasks) != 3 || got.SubTasks[0].Text != "Pick dates" || got.SubTasks[2].Position != 2 {
		t.Fatalf("unexpected sub-tasks %+v", got.SubTasks)
	}
	for _, st := range got.SubTasks {
		if st.Priority != model.PriorityMedium || st.DueDate == nil || st.Completed {
			t.Errorf("unexpected sub-task defaults %+v", st)
		}
	}
}

func TestSubTaskCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, ws, _ := fixture(t, s)
	task := addTask(t, s, ws.ID, "t", "")

	st, err := s.AddSubTask(ctx, ws.ID, task.ID, model.SubTask{Text: "one"})
	if err != nil {
		t.Fatalf("AddSubTask: %v", err)
	}
	st.Completed = true
	updated, err := s.UpdateSubTask(ctx, ws.ID, st)
	if err != nil || !updated.Completed {
		t.Fatalf("UpdateSubTask: %+v (%v)", updated, err)
	}
	if err := s.DeleteSubTask(ctx, ws.ID, task.ID, st.ID); err != nil {
		t.Fatalf("DeleteSubTask: %v", err)
	}
	got, _ := s.GetTask(ctx, ws.ID, task.ID)
	if len(got.SubTasks) != 0 {
		t.Errorf("expected no sub-tasks, got %d", len(got.SubTasks))
	}

	// A task from another workspace is not reachable
	if _, err := s.AddSubTask(ctx, "other", task.ID, model.SubTask{Text: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if _, err := s.AddSubTask(ctx, ws.ID, task.ID, model.SubTask{Text: "   "}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("blank text: expected ErrInvalidInput, got %v", err)
	}
	if _, err := s.CreateColumn(ctx, ws.ID, " ", ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("blank column title: expected ErrInvalidInput, got %v", err)
	}
}

func TestInvitations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner, ws, _ := fixture(t, s)

	created, err := s.CreateInvitations(ctx, ws.ID, owner.Email, []string{"Friend@Example.com", "friend@example.com", ""})
	if err != nil {
		t.Fatalf("CreateInvitations: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("expected one invitation, got %d", len(created))
	}
	again, _ := s.CreateInvitations(ctx, ws.ID, owner.Email, []string{"friend@example.com"})
	if len(again) != 0 {
		t.Errorf("duplicate invitation created")
	}
	if _, err := s.CreateInvitations(ctx, ws.ID, owner.Email, []string{"not-an-email"}); !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("expected ErrInvalidEmail, got %v", err)
	}

	friend, _ := s.UpsertUserByEmail(ctx, "friend@example.com")
	if s.CanAccess(ctx, ws.ID, friend.ID) {
		t.Error("pending invitation must not grant access")
	}

	pending, _ := s.ListPendingInvitations(ctx, "friend@example.com")
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending invitation, got %d", len(pending))
	}

	if _, err := s.AcceptInvitation(ctx, pending[0].ID, "someone@else.com"); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for wrong invitee, got %v", err)
	}
	inv, err := s.AcceptInvitation(ctx, pending[0].ID, friend.Email)
	if err != nil || inv.Status != model.InvitationAccepted {
		t.Fatalf("AcceptInvitation: %+v (%v)", inv, err)
	}
	if _, err := s.AcceptInvitation(ctx, inv.ID, friend.Email); !errors.Is(err, ErrAlreadyAccepted) {
		t.Errorf("expected ErrAlreadyAccepted, got %v", err)
	}

	role, err := s.Access(ctx, ws.ID, friend.ID)
	if err != nil || role != RoleMember {
		t.Errorf("expected member access, got %q (%v)", role, err)
	}
	list, _ := s.ListWorkspaces(ctx, friend.ID)
	if len(list) != 1 || list[0].ID != ws.ID {
		t.Errorf("joined workspace should be listed, got %+v", list)
	}

	stranger, _ := s.UpsertUserByEmail(ctx, "stranger@example.com")
	if _, err := s.Access(ctx, ws.ID, stranger.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}
