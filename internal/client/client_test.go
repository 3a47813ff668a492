package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/existflow/taskboard/internal/board"
	"github.com/existflow/taskboard/internal/mail"
	"github.com/existflow/taskboard/internal/realtime"
	"github.com/existflow/taskboard/internal/store"
	"github.com/existflow/taskboard/server"
)

func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()
	st, err := store.Open("sqlite", filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	srv, err := server.New(server.Options{
		Store:     st,
		Mailer:    &mail.Recorder{},
		JWTSecret: "client-test",
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
	return ts
}

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	c, err := New(filepath.Join(t.TempDir(), "client.json"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.SetServer(serverURL + "/"); err != nil {
		t.Fatalf("SetServer: %v", err)
	}
	return c
}

func login(t *testing.T, c *Client, email string) {
	t.Helper()
	ctx := context.Background()
	code, err := c.RequestCode(ctx, email)
	if err != nil {
		t.Fatalf("RequestCode: %v", err)
	}
	if code == "" {
		t.Fatal("dev server returned no code")
	}
	if err := c.Verify(ctx, email, code); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestNewWithoutFile(t *testing.T) {
	c, err := New(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.IsLoggedIn() {
		t.Error("fresh client reports logged in")
	}
	if c.Credentials().ServerURL != DefaultServerURL {
		t.Errorf("server = %q", c.Credentials().ServerURL)
	}
	if _, err := c.Workspaces(context.Background()); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("Workspaces err = %v, want ErrNotLoggedIn", err)
	}
}

func TestLoginPersistsCredentials(t *testing.T) {
	api := newTestAPI(t)
	c := newTestClient(t, api.URL)
	login(t, c, "me@example.com")

	info, err := os.Stat(c.path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	reloaded, err := New(c.path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !reloaded.IsLoggedIn() || reloaded.Credentials().Email != "me@example.com" {
		t.Errorf("reloaded = %+v", reloaded.Credentials())
	}
	if reloaded.Credentials().ServerURL != api.URL {
		t.Errorf("server = %q, want trailing slash trimmed", reloaded.Credentials().ServerURL)
	}

	me, err := reloaded.Me(context.Background())
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if me.Email != "me@example.com" {
		t.Errorf("email = %q", me.Email)
	}

	if err := reloaded.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if reloaded.IsLoggedIn() {
		t.Error("still logged in after Logout")
	}
}

func TestWrongCodeIsAPIError(t *testing.T) {
	api := newTestAPI(t)
	c := newTestClient(t, api.URL)
	ctx := context.Background()

	code, err := c.RequestCode(ctx, "me@example.com")
	if err != nil {
		t.Fatalf("RequestCode: %v", err)
	}
	wrong := "111111"
	if code == wrong {
		wrong = "222222"
	}
	err = c.Verify(ctx, "me@example.com", wrong)
	if !IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("Verify err = %v, want 401", err)
	}
	if c.IsLoggedIn() {
		t.Error("logged in after a wrong code")
	}
}

func TestBoardRoundTrip(t *testing.T) {
	api := newTestAPI(t)
	c := newTestClient(t, api.URL)
	login(t, c, "me@example.com")
	ctx := context.Background()

	ws, err := c.CreateWorkspace(ctx, "Home", "", "")
	if err != nil {
		t.Fatalf("CreateWorkspace: %v", err)
	}
	if err := c.UseWorkspace(ws.ID); err != nil {
		t.Fatalf("UseWorkspace: %v", err)
	}
	if c.CurrentWorkspace() != ws.ID {
		t.Errorf("current = %q", c.CurrentWorkspace())
	}

	b, err := c.Board(ctx, ws.ID)
	if err != nil {
		t.Fatalf("Board: %v", err)
	}
	if len(b.Lanes) != 3 {
		t.Fatalf("lanes = %d", len(b.Lanes))
	}
	done := b.Lanes[2].Column.ID

	task, err := c.CreateTask(ctx, ws.ID, NewTask{Title: "Ship it", Priority: "high", SubTasks: []string{"tests"}})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	res, err := c.MoveTask(ctx, ws.ID, task.ID, board.Target{Kind: board.TargetColumn, ID: done})
	if err != nil {
		t.Fatalf("MoveTask: %v", err)
	}
	if res.Moved.Status != done {
		t.Errorf("status = %q, want done column", res.Moved.Status)
	}

	completed := true
	st, err := c.UpdateSubTask(ctx, ws.ID, task.ID, task.SubTasks[0].ID, SubTaskPatch{Completed: &completed})
	if err != nil {
		t.Fatalf("UpdateSubTask: %v", err)
	}
	if !st.Completed {
		t.Error("sub-task not completed")
	}

	tasks, err := c.Tasks(ctx, ws.ID, TaskQuery{Query: "ship"})
	if err != nil {
		t.Fatalf("Tasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Errorf("tasks = %d, want 1", len(tasks))
	}

	if _, err := c.Task(ctx, ws.ID, "missing"); !IsStatus(err, http.StatusNotFound) {
		t.Errorf("Task(missing) err = %v, want 404", err)
	}
}

func TestWatcherDebouncesEvents(t *testing.T) {
	api := newTestAPI(t)
	c := newTestClient(t, api.URL)
	login(t, c, "me@example.com")

	ws, err := c.CreateWorkspace(context.Background(), "Home", "", "")
	if err != nil {
		t.Fatalf("CreateWorkspace: %v", err)
	}

	got := make(chan []realtime.Event, 4)
	w := c.NewWatcher(ws.ID)
	w.SetDebounce(300 * time.Millisecond)
	w.SetOnChange(func(events []realtime.Event) { got <- events })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for !w.Online() {
		if time.Now().After(deadline) {
			t.Fatalf("watcher never connected: %v", w.LastError())
		}
		time.Sleep(10 * time.Millisecond)
	}
	// The server registers the subscriber asynchronously
	time.Sleep(100 * time.Millisecond)

	for _, title := range []string{"one", "two"} {
		if _, err := c.CreateTask(context.Background(), ws.ID, NewTask{Title: title}); err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
	}

	select {
	case events := <-got:
		if len(events) != 2 {
			t.Errorf("burst = %d events, want 2", len(events))
		}
		if events[0].Type != realtime.TaskCreated {
			t.Errorf("type = %q", events[0].Type)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no change callback")
	}
}
