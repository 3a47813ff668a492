package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete [task]",
	Aliases: []string{"rm"},
	Short:   "Delete a task",
	Long: `Delete a task and its sub-tasks.

Examples:
  taskboard task delete abc123
  taskboard task rm abc123 -y`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
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

	fmt.Printf("About to delete: %q (ID: %s)\n", task.Title, shortID(task.ID))
	if !confirm(cmd.OutOrStdout(), "Are you sure?") {
		fmt.Println("Cancelled.")
		return nil
	}

	if err := c.DeleteTask(ctx, wsID, task.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	fmt.Printf("🗑️  Deleted: %q\n", task.Title)
	return nil
}
