package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/existflow/taskboard/internal/board"
	"github.com/existflow/taskboard/internal/client"
	"github.com/existflow/taskboard/internal/config"
	"github.com/existflow/taskboard/internal/model"
)

var (
	success = color.New(color.FgGreen).SprintFunc()
	warning = color.New(color.FgYellow).SprintFunc()
	muted   = color.New(color.FgHiBlack).SprintFunc()
	bold    = color.New(color.Bold).SprintFunc()
)

// stdin is swapped in tests
var stdin io.Reader = os.Stdin

const requestTimeout = 30 * time.Second

func newContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// openClient loads the stored credentials and requires a session
func openClient() (*client.Client, error) {
	c, err := client.NewDefault()
	if err != nil {
		return nil, err
	}
	if !c.IsLoggedIn() {
		return nil, client.ErrNotLoggedIn
	}
	return c, nil
}

// workspaceID picks the --workspace flag, then the current workspace
func workspaceID(ctx context.Context, c *client.Client) (string, error) {
	if workspaceFlag != "" {
		ws, err := resolveWorkspace(ctx, c, workspaceFlag)
		if err != nil {
			return "", err
		}
		return ws.ID, nil
	}
	if id := c.CurrentWorkspace(); id != "" {
		return id, nil
	}
	return "", errors.New("no workspace selected, run 'taskboard workspace use <name>' first")
}

// confirm asks before a destructive action unless --yes is set or
// confirm_delete is off in the config
func confirm(w io.Writer, prompt string) bool {
	if assumeYes {
		return true
	}
	if cfg, err := config.Load(); err == nil && !cfg.ConfirmDelete {
		return true
	}

	fmt.Fprintf(w, "%s [y/N]: ", prompt)
	answer, _ := bufio.NewReader(stdin).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// match finds the single item whose id equals ref, whose id starts with ref,
// or whose name equals ref ignoring case.
func match[T any](items []T, ref, kind string, id, name func(T) string) (T, error) {
	var zero T
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return zero, fmt.Errorf("%s required", kind)
	}

	for _, it := range items {
		if id(it) == ref {
			return it, nil
		}
	}

	var found []T
	for _, it := range items {
		if strings.HasPrefix(id(it), ref) || strings.EqualFold(name(it), ref) {
			found = append(found, it)
		}
	}
	switch len(found) {
	case 0:
		return zero, fmt.Errorf("%s not found: %s", kind, ref)
	case 1:
		return found[0], nil
	default:
		return zero, fmt.Errorf("%q matches %d %ss, use a longer id", ref, len(found), kind)
	}
}

func resolveWorkspace(ctx context.Context, c *client.Client, ref string) (client.Workspace, error) {
	list, err := c.Workspaces(ctx)
	if err != nil {
		return client.Workspace{}, err
	}
	return match(list, ref, "workspace",
		func(w client.Workspace) string { return w.ID },
		func(w client.Workspace) string { return w.Name })
}

func resolveTask(ctx context.Context, c *client.Client, wsID, ref string) (model.Task, error) {
	tasks, err := c.Tasks(ctx, wsID, client.TaskQuery{})
	if err != nil {
		return model.Task{}, err
	}
	return match(tasks, ref, "task",
		func(t model.Task) string { return t.ID },
		func(t model.Task) string { return t.Title })
}

func resolveColumn(ctx context.Context, c *client.Client, wsID, ref string) (model.Column, error) {
	columns, err := c.Columns(ctx, wsID)
	if err != nil {
		return model.Column{}, err
	}
	return match(columns, ref, "column",
		func(col model.Column) string { return col.ID },
		func(col model.Column) string { return col.Title })
}

func resolveProject(ctx context.Context, c *client.Client, wsID, ref string) (model.Project, error) {
	projects, err := c.Projects(ctx, wsID)
	if err != nil {
		return model.Project{}, err
	}
	return match(projects, ref, "project",
		func(p model.Project) string { return p.ID },
		func(p model.Project) string { return p.Name })
}

// resolveSubTask accepts a 1-based index or an id prefix
func resolveSubTask(task model.Task, ref string) (model.SubTask, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(task.SubTasks) {
			return model.SubTask{}, fmt.Errorf("task has %d sub-tasks", len(task.SubTasks))
		}
		return task.SubTasks[n-1], nil
	}
	return match(task.SubTasks, ref, "sub-task",
		func(st model.SubTask) string { return st.ID },
		func(st model.SubTask) string { return st.Text })
}

// parseDue understands today, tomorrow, +Nd and YYYY-MM-DD
func parseDue(s string, now time.Time) (time.Time, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch {
	case s == "today":
		return today, nil
	case s == "tomorrow":
		return today.AddDate(0, 0, 1), nil
	case strings.HasPrefix(s, "+") && strings.HasSuffix(s, "d"):
		n, err := strconv.Atoi(s[1 : len(s)-1])
		if err != nil || n < 0 {
			return time.Time{}, fmt.Errorf("invalid due date: %s", s)
		}
		return today.AddDate(0, 0, n), nil
	}
	d, err := time.ParseInLocation("2006-01-02", s, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date %q (use today, tomorrow, +3d or 2006-01-02)", s)
	}
	return d, nil
}

func formatPriority(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return color.New(color.FgRed, color.Bold).Sprint("▲ high")
	case model.PriorityLow:
		return color.New(color.FgCyan).Sprint("  low")
	default:
		return color.New(color.FgYellow).Sprint("  medium")
	}
}

func formatDue(t *model.Task, now time.Time) string {
	if t.DueDate == nil {
		return ""
	}
	due := t.DueDate.Local().Format("Jan 2")
	if t.IsOverdue(now) {
		return color.New(color.FgRed).Sprint(due)
	}
	return due
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// columnTitles maps column ids to titles for display
func columnTitles(lanes []board.Lane) map[string]string {
	out := make(map[string]string, len(lanes))
	for _, l := range lanes {
		out[l.Column.ID] = l.Column.Title
	}
	return out
}
