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

var taskCmd = &cobra.Command{
	Use:     "task",
	Aliases: []string{"t"},
	Short:   "Manage tasks",
	Long: `Add, list, edit and move tasks on the board.

Tasks can be referenced by id, id prefix or exact title.`,
}

var taskShowCmd = &cobra.Command{
	Use:   "show [task]",
	Short: "Show a task with its sub-tasks",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskEditCmd = &cobra.Command{
	Use:   "edit [task]",
	Short: "Change a task's fields",
	Long: `Change a task's fields. Only the given flags are applied.

Examples:
  taskboard task edit abc123 --title "Ship it" --priority high
  taskboard task edit abc123 --due +3d
  taskboard task edit abc123 --no-due`,
	Args: cobra.ExactArgs(1),
	RunE: runTaskEdit,
}

var taskMoveCmd = &cobra.Command{
	Use:   "move [task] [column]",
	Short: "Move a task to another column",
	Long: `Move a task to the end of a column, or next to another task.

Examples:
  taskboard task move abc123 "In Progress"
  taskboard task move abc123 --over def456`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runTaskMove,
}

var taskRefineCmd = &cobra.Command{
	Use:   "refine [task]",
	Short: "Rewrite the title and description with the AI assistant",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskRefine,
}

var taskSummaryCmd = &cobra.Command{
	Use:   "summary [task]",
	Short: "Generate a short AI summary of a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskSummary,
}

var (
	editTitle    string
	editDesc     string
	editPriority string
	editDue      string
	editProject  string
	editNoDue    bool
	moveOver     string
)

func init() {
	taskEditCmd.Flags().StringVarP(&editTitle, "title", "t", "", "New title")
	taskEditCmd.Flags().StringVar(&editDesc, "desc", "", "New description")
	taskEditCmd.Flags().StringVarP(&editPriority, "priority", "p", "", "Priority (low, medium, high)")
	taskEditCmd.Flags().StringVarP(&editDue, "due", "d", "", "Due date (today, tomorrow, +3d, 2006-01-02)")
	taskEditCmd.Flags().StringVarP(&editProject, "project", "P", "", "Project (empty string removes it)")
	taskEditCmd.Flags().BoolVar(&editNoDue, "no-due", false, "Remove the due date")

	taskMoveCmd.Flags().StringVar(&moveOver, "over", "", "Drop onto this task instead of a column")

	taskCmd.AddCommand(addCmd)
	taskCmd.AddCommand(listCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskEditCmd)
	taskCmd.AddCommand(taskMoveCmd)
	taskCmd.AddCommand(doneCmd)
	taskCmd.AddCommand(deleteCmd)
	taskCmd.AddCommand(taskRefineCmd)
	taskCmd.AddCommand(taskSummaryCmd)
}

func runTaskShow(cmd *cobra.Command, args []string) error {
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

	t, err := resolveTask(ctx, c, wsID, args[0])
	if err != nil {
		return err
	}
	b, err := c.Board(ctx, wsID)
	if err != nil {
		return err
	}

	project := ""
	for _, p := range b.Projects {
		if p.ID == t.ProjectID {
			project = p.Name
		}
	}
	printTaskDetail(t, columnTitles(b.Lanes)[t.Status], project, time.Now())
	return nil
}

func printTaskDetail(t model.Task, column, project string, now time.Time) {
	fmt.Println()
	fmt.Printf("%s  %s\n", bold(t.Title), muted(shortID(t.ID)))
	fmt.Println(strings.Repeat("─", 60))
	fmt.Printf("  Column:    %s\n", column)
	fmt.Printf("  Priority:  %s\n", formatPriority(t.Priority))
	if project != "" {
		fmt.Printf("  Project:   %s\n", project)
	}
	if due := formatDue(&t, now); due != "" {
		fmt.Printf("  Due:       %s\n", due)
	}
	if t.Description != "" {
		fmt.Printf("\n  %s\n", strings.ReplaceAll(t.Description, "\n", "\n  "))
	}
	if t.Summary != "" {
		fmt.Printf("\n  %s %s\n", muted("Summary:"), t.Summary)
	}
	if len(t.SubTasks) > 0 {
		done, total := t.Progress()
		fmt.Printf("\n  Sub-tasks (%d/%d)\n", done, total)
		for i, st := range t.SubTasks {
			icon := "[ ]"
			if st.Completed {
				icon = "[x]"
			}
			fmt.Printf("  %2d. %s %s\n", i+1, icon, st.Text)
		}
	}
	fmt.Println()
}

func runTaskEdit(cmd *cobra.Command, args []string) error {
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

	t, err := resolveTask(ctx, c, wsID, args[0])
	if err != nil {
		return err
	}

	var patch client.TaskPatch
	flags := cmd.Flags()
	if flags.Changed("title") {
		patch.Title = &editTitle
	}
	if flags.Changed("desc") {
		patch.Description = &editDesc
	}
	if flags.Changed("priority") {
		p, ok := model.ParsePriority(editPriority)
		if !ok {
			return fmt.Errorf("invalid priority %q (use low, medium or high)", editPriority)
		}
		s := string(p)
		patch.Priority = &s
	}
	if flags.Changed("due") {
		due, err := parseDue(editDue, time.Now())
		if err != nil {
			return err
		}
		patch.DueDate = &due
	}
	if editNoDue {
		patch.ClearDueDate = true
	}
	if flags.Changed("project") {
		id := ""
		if editProject != "" {
			p, err := resolveProject(ctx, c, wsID, editProject)
			if err != nil {
				return err
			}
			id = p.ID
		}
		patch.ProjectID = &id
	}

	updated, err := c.UpdateTask(ctx, wsID, t.ID, patch)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	fmt.Printf("%s Updated: %q\n", success("✓"), updated.Title)
	return nil
}

func runTaskMove(cmd *cobra.Command, args []string) error {
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

	t, err := resolveTask(ctx, c, wsID, args[0])
	if err != nil {
		return err
	}

	var over board.Target
	switch {
	case moveOver != "":
		target, err := resolveTask(ctx, c, wsID, moveOver)
		if err != nil {
			return err
		}
		over = board.Target{Kind: board.TargetTask, ID: target.ID}
	case len(args) == 2:
		col, err := resolveColumn(ctx, c, wsID, args[1])
		if err != nil {
			return err
		}
		over = board.Target{Kind: board.TargetColumn, ID: col.ID}
	default:
		return fmt.Errorf("give a column or --over <task>")
	}

	res, err := c.MoveTask(ctx, wsID, t.ID, over)
	if err != nil {
		return fmt.Errorf("failed to move task: %w", err)
	}
	if len(res.Changed) == 0 {
		fmt.Println("Nothing to move.")
		return nil
	}

	columns, err := c.Columns(ctx, wsID)
	if err != nil {
		return err
	}
	title := res.Moved.Status
	for _, col := range columns {
		if col.ID == res.Moved.Status {
			title = col.Title
		}
	}
	fmt.Printf("%s Moved %q to %s (position %d)\n", success("✓"), t.Title, title, res.Moved.Position+1)
	return nil
}

func runTaskRefine(cmd *cobra.Command, args []string) error {
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

	t, err := resolveTask(ctx, c, wsID, args[0])
	if err != nil {
		return err
	}

	fmt.Println("✨ Refining...")
	refined, err := c.Refine(ctx, wsID, t.ID)
	if err != nil {
		return fmt.Errorf("failed to refine task: %w", err)
	}
	fmt.Printf("%s %s\n", success("✓"), bold(refined.Title))
	if refined.Description != "" {
		fmt.Println(refined.Description)
	}
	return nil
}

func runTaskSummary(cmd *cobra.Command, args []string) error {
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

	t, err := resolveTask(ctx, c, wsID, args[0])
	if err != nil {
		return err
	}

	summarized, err := c.Summarize(ctx, wsID, t.ID)
	if err != nil {
		return fmt.Errorf("failed to summarize task: %w", err)
	}
	fmt.Printf("📝 %s\n", summarized.Summary)
	return nil
}
