package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/existflow/taskboard/internal/board"
	"github.com/existflow/taskboard/internal/client"
	"github.com/existflow/taskboard/internal/model"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	Long: `List tasks, newest first, optionally filtered by project, column or text.

Examples:
  taskboard task list
  taskboard task list --project work
  taskboard task list --status "In Progress"
  taskboard task list -q invoice`,
	RunE: runList,
}

var (
	listProject string
	listStatus  string
	listQuery   string
)

func init() {
	listCmd.Flags().StringVarP(&listProject, "project", "P", "", "Only tasks in this project")
	listCmd.Flags().StringVarP(&listStatus, "status", "s", "", "Only tasks in this column")
	listCmd.Flags().StringVarP(&listQuery, "query", "q", "", "Search title and description")
}

func runList(cmd *cobra.Command, args []string) error {
	c, err := openClient()
	if err != nil {
		return err
	}
	ctx, cancel := newContext()
	defer cancel()
	wsID, err := workspaceID(ctx, c)
	if err != nil {
		return err
	}

	q := client.TaskQuery{Query: listQuery}
	heading := "All tasks"
	switch {
	case listProject != "" && listStatus != "":
		return fmt.Errorf("use either --project or --status")
	case listProject != "":
		p, err := resolveProject(ctx, c, wsID, listProject)
		if err != nil {
			return err
		}
		q.Filter, q.Value, heading = string(board.FilterProject), p.ID, p.Name
	case listStatus != "":
		col, err := resolveColumn(ctx, c, wsID, listStatus)
		if err != nil {
			return err
		}
		q.Filter, q.Value, heading = string(board.FilterStatus), col.ID, col.Title
	}

	tasks, err := c.Tasks(ctx, wsID, q)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}
	if len(tasks) == 0 {
		fmt.Println("No tasks found. Add one with: taskboard task add \"Your task\"")
		return nil
	}

	columns, err := c.Columns(ctx, wsID)
	if err != nil {
		return err
	}
	titles := make(map[string]string, len(columns))
	for _, col := range board.SortColumns(columns) {
		titles[col.ID] = col.Title
	}

	printTasks(heading, tasks, titles, time.Now())
	return nil
}

func printTasks(heading string, tasks []model.Task, columns map[string]string, now time.Time) {
	fmt.Printf("\n📁 %s (%d)\n", heading, len(tasks))
	fmt.Println(strings.Repeat("─", 80))
	for _, t := range tasks {
		printTask(t, columns[t.Status], now)
	}
	fmt.Println()
}

func printTask(t model.Task, column string, now time.Time) {
	progress := ""
	if done, total := t.Progress(); total > 0 {
		progress = fmt.Sprintf("%d/%d", done, total)
	}
	fmt.Printf("  %-8s  %-36s  %-12s  %-6s  %-8s  %s\n",
		shortID(t.ID), truncate(t.Title, 36), truncate(column, 12), progress, formatDue(&t, now), formatPriority(t.Priority))
}
