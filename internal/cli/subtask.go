package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/existflow/taskboard/internal/client"
)

var subtaskCmd = &cobra.Command{
	Use:     "subtask",
	Aliases: []string{"sub"},
	Short:   "Manage the checklist of a task",
	Long: `Add, toggle and remove sub-tasks. Sub-tasks are referenced by their
1-based number as shown by 'taskboard task show'.`,
}

var subtaskAddCmd = &cobra.Command{
	Use:   "add [task] [text]",
	Short: "Add a sub-task",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runSubtaskAdd,
}

var subtaskToggleCmd = &cobra.Command{
	Use:   "toggle [task] [n]",
	Short: "Check or uncheck a sub-task",
	Args:  cobra.ExactArgs(2),
	RunE:  runSubtaskToggle,
}

var subtaskDeleteCmd = &cobra.Command{
	Use:     "delete [task] [n]",
	Aliases: []string{"rm"},
	Short:   "Remove a sub-task",
	Args:    cobra.ExactArgs(2),
	RunE:    runSubtaskDelete,
}

func init() {
	subtaskCmd.AddCommand(subtaskAddCmd)
	subtaskCmd.AddCommand(subtaskToggleCmd)
	subtaskCmd.AddCommand(subtaskDeleteCmd)
}

func runSubtaskAdd(cmd *cobra.Command, args []string) error {
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

	task, err := resolveTask(ctx, c, wsID, args[0])
	if err != nil {
		return err
	}
	text := strings.TrimSpace(strings.Join(args[1:], " "))
	if text == "" {
		return fmt.Errorf("sub-task text required")
	}

	if _, err := c.AddSubTask(ctx, wsID, task.ID, text); err != nil {
		return fmt.Errorf("failed to add sub-task: %w", err)
	}
	fmt.Printf("%s Added to %q: %s\n", success("✓"), task.Title, text)
	return nil
}

func runSubtaskToggle(cmd *cobra.Command, args []string) error {
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

	task, err := resolveTask(ctx, c, wsID, args[0])
	if err != nil {
		return err
	}
	st, err := resolveSubTask(task, args[1])
	if err != nil {
		return err
	}

	completed := !st.Completed
	updated, err := c.UpdateSubTask(ctx, wsID, task.ID, st.ID, client.SubTaskPatch{Completed: &completed})
	if err != nil {
		return fmt.Errorf("failed to update sub-task: %w", err)
	}
	if updated.Completed {
		fmt.Printf("%s Checked: %s\n", success("✓"), updated.Text)
	} else {
		fmt.Printf("○ Unchecked: %s\n", updated.Text)
	}
	return nil
}

func runSubtaskDelete(cmd *cobra.Command, args []string) error {
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

	task, err := resolveTask(ctx, c, wsID, args[0])
	if err != nil {
		return err
	}
	st, err := resolveSubTask(task, args[1])
	if err != nil {
		return err
	}

	if err := c.DeleteSubTask(ctx, wsID, task.ID, st.ID); err != nil {
		return fmt.Errorf("failed to delete sub-task: %w", err)
	}
	fmt.Printf("🗑️  Removed: %s\n", st.Text)
	return nil
}
