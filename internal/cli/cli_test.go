package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/existflow/taskboard/internal/client"
	"github.com/existflow/taskboard/internal/mail"
	"github.com/existflow/taskboard/internal/model"
	"github.com/existflow/taskboard/internal/store"
	"github.com/existflow/taskboard/server"
)

type item struct{ id, name string }

func matchItems(items []item, ref string) (item, error) {
	return match(items, ref, "item",
		func(i item) string { return i.id },
		func(i item) string { return i.name })
}

func TestMatch(t *testing.T) {
	items := []item{
		{"abc12345", "Work"},
		{"abd99999", "Home"},
		{"ffff0000", "abc"},
	}

	tests := []struct {
		ref     string
		want    string
		wantErr bool
	}{
		{"abc12345", "abc12345", false},
		{"abd", "abd99999", false},
		{"work", "abc12345", false},
		{"ab", "", true},  // ambiguous prefix
		{"abc", "", true}, // prefix of one id and name of another
		{"zzz", "", true}, // no match
		{"   ", "", true}, // empty
	}
	for _, tt := range tests {
		got, err := matchItems(items, tt.ref)
		if tt.wantErr {
			if err == nil {
				t.Errorf("match(%q) = %v, want error", tt.ref, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("match(%q): %v", tt.ref, err)
			continue
		}
		if got.id != tt.want {
			t.Errorf("match(%q) = %s, want %s", tt.ref, got.id, tt.want)
		}
	}
}

func TestParseDue(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		in   string
		want time.Time
	}{
		{"today", day(2024, 3, 10)},
		{"Tomorrow", day(2024, 3, 11)},
		{"+3d", day(2024, 3, 13)},
		{"+0d", day(2024, 3, 10)},
		{"2024-04-01", day(2024, 4, 1)},
	}
	for _, tt := range tests {
		got, err := parseDue(tt.in, now)
		if err != nil {
			t.Errorf("parseDue(%q): %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("parseDue(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "next week", "+xd", "+-1d", "2024-13-01"} {
		if _, err := parseDue(bad, now); err == nil {
			t.Errorf("parseDue(%q) succeeded", bad)
		}
	}
}

func TestResolveSubTask(t *testing.T) {
	task := model.Task{SubTasks: []model.SubTask{
		{ID: "s-one", Text: "design"},
		{ID: "s-two", Text: "build"},
	}}

	st, err := resolveSubTask(task, "2")
	if err != nil || st.ID != "s-two" {
		t.Fatalf("resolveSubTask(2) = %v, %v", st, err)
	}
	st, err = resolveSubTask(task, "Design")
	if err != nil || st.ID != "s-one" {
		t.Fatalf("resolveSubTask(Design) = %v, %v", st, err)
	}
	if _, err := resolveSubTask(task, "3"); err == nil {
		t.Error("index past the end should fail")
	}
	if _, err := resolveSubTask(task, "0"); err == nil {
		t.Error("index 0 should fail")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("héllo wörld", 8); got != "héllo..." {
		t.Errorf("truncate = %q", got)
	}
}

func TestSplitEmails(t *testing.T) {
	got := splitEmails([]string{"Ana@Example.com, bo@example.com", "cy@example.com;"})
	want := []string{"ana@example.com", "bo@example.com", "cy@example.com"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("splitEmails = %v, want %v", got, want)
	}
}

func TestConfirm(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	old := stdin
	defer func() { stdin = old }()

	var out bytes.Buffer
	stdin = strings.NewReader("y\n")
	if !confirm(&out, "Delete?") {
		t.Error("y should confirm")
	}
	if !strings.Contains(out.String(), "Delete? [y/N]") {
		t.Errorf("prompt = %q", out.String())
	}

	stdin = strings.NewReader("\n")
	if confirm(&out, "Delete?") {
		t.Error("empty answer should not confirm")
	}

	assumeYes = true
	defer func() { assumeYes = false }()
	stdin = strings.NewReader("n\n")
	if !confirm(&out, "Delete?") {
		t.Error("--yes should skip the prompt")
	}
}

// signedIn points HOME at a temp dir and stores a session for a fresh server
func signedIn(t *testing.T) *client.Client {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	st, err := store.Open("sqlite", filepath.Join(t.TempDir(), "cli.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	srv, err := server.New(server.Options{
		Store:     st,
		Mailer:    &mail.Recorder{},
		JWTSecret: "cli-test",
		DevMode:   true,
		RateLimit: 1000,
	})
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})

	c, err := client.NewDefault()
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}
	if err := c.SetServer(ts.URL); err != nil {
		t.Fatalf("SetServer: %v", err)
	}
	ctx := context.Background()
	code, err := c.RequestCode(ctx, "cli@example.com")
	if err != nil {
		t.Fatalf("RequestCode: %v", err)
	}
	if err := c.Verify(ctx, "cli@example.com", code); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	assumeYes = true
	t.Cleanup(func() { assumeYes = false })
	return c
}

// reload reads the credentials the commands wrote
func reload(t *testing.T) *client.Client {
	t.Helper()
	c, err := client.NewDefault()
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}
	return c
}

func TestTaskCommands(t *testing.T) {
	signedIn(t)
	ctx := context.Background()

	if err := runWorkspaceNew(workspaceNewCmd, []string{"Home"}); err != nil {
		t.Fatalf("workspace new: %v", err)
	}
	c := reload(t)
	wsID := c.CurrentWorkspace()
	if wsID == "" {
		t.Fatal("first workspace was not selected")
	}

	addPriority, addSubTasks = "high", []string{"design", "build"}
	defer func() { addPriority, addSubTasks = "", nil }()
	if err := runAdd(addCmd, []string{"Write", "docs"}); err != nil {
		t.Fatalf("task add: %v", err)
	}

	tasks, err := c.Tasks(ctx, wsID, client.TaskQuery{})
	if err != nil || len(tasks) != 1 {
		t.Fatalf("Tasks = %v, %v", tasks, err)
	}
	task := tasks[0]
	if task.Title != "Write docs" || task.Priority != model.PriorityHigh || len(task.SubTasks) != 2 {
		t.Fatalf("created task = %+v", task)
	}

	if err := runSubtaskToggle(subtaskToggleCmd, []string{"Write docs", "1"}); err != nil {
		t.Fatalf("subtask toggle: %v", err)
	}
	if err := runDone(doneCmd, []string{shortID(task.ID)}); err != nil {
		t.Fatalf("task done: %v", err)
	}

	b, err := c.Board(ctx, wsID)
	if err != nil {
		t.Fatalf("Board: %v", err)
	}
	last := b.Lanes[len(b.Lanes)-1]
	if len(last.Tasks) != 1 || last.Tasks[0].ID != task.ID {
		t.Fatalf("task not in %s: %+v", last.Column.Title, b.Lanes)
	}
	if done, total := last.Tasks[0].Progress(); done != 1 || total != 2 {
		t.Errorf("progress = %d/%d", done, total)
	}

	if err := runDelete(deleteCmd, []string{task.ID}); err != nil {
		t.Fatalf("task delete: %v", err)
	}
	tasks, _ = c.Tasks(ctx, wsID, client.TaskQuery{})
	if len(tasks) != 0 {
		t.Errorf("tasks after delete = %v", tasks)
	}
}

func TestColumnDeleteCommand(t *testing.T) {
	signedIn(t)
	ctx := context.Background()

	if err := runWorkspaceNew(workspaceNewCmd, []string{"Work"}); err != nil {
		t.Fatalf("workspace new: %v", err)
	}
	c := reload(t)
	wsID := c.CurrentWorkspace()

	if err := runColumnNew(columnNewCmd, []string{"Review"}); err != nil {
		t.Fatalf("column new: %v", err)
	}
	addStatus = "Review"
	err := runAdd(addCmd, []string{"Check PR"})
	addStatus = ""
	if err != nil {
		t.Fatalf("task add: %v", err)
	}

	if err := runColumnDelete(columnDeleteCmd, []string{"review"}); err != nil {
		t.Fatalf("column delete: %v", err)
	}

	b, err := c.Board(ctx, wsID)
	if err != nil {
		t.Fatalf("Board: %v", err)
	}
	if len(b.Lanes) != 3 {
		t.Fatalf("lanes = %d, want 3", len(b.Lanes))
	}
	if len(b.Lanes[0].Tasks) != 1 || b.Lanes[0].Tasks[0].Title != "Check PR" {
		t.Errorf("task was not moved to %s: %+v", b.Lanes[0].Column.Title, b.Lanes[0].Tasks)
	}
}

func TestCommandsNeedLogin(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if err := runBoard(boardCmd, nil); err != client.ErrNotLoggedIn {
		t.Errorf("err = %v, want ErrNotLoggedIn", err)
	}
}
