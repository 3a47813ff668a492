package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/existflow/taskboard/internal/board"
)

var doneCmd = &cobra.Command{
	Use:   "done [task]",
	Short: "Move a task to the last column",
	Long: `Mark a task as completed by moving it to the last column of the board.
With --undo it goes back to the first column.

Examples:
  taskboard task done abc123
  taskboard task done abc123 --undo`,
	Args: cobra.ExactArgs(1),
	RunE: runDone,
}

var doneUndo bool

func init() {
	doneCmd.Flags().BoolVar(&doneUndo, "undo", false, "Move the task back to the first column")
}

func runDone(cmd *cobra.Command, args []string) error {
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
	columns, err := c.Columns(ctx, wsID)
	if err != nil {
		return err
	}
	columns = board.SortColumns(columns)
	if len(columns) == 0 {
		return board.ErrColumnNotFound
	}

	target := columns[len(columns)-1]
	if doneUndo {
		target = columns[0]
	}
	if task.Status == target.ID {
		fmt.Printf("Already in %s: %q\n", target.Title, task.Title)
		return nil
	}

	if _, err := c.MoveTask(ctx, wsID, task.ID, board.Target{Kind: board.TargetColumn, ID: target.ID}); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	if doneUndo {
		fmt.Printf("○ Reopened: %q\n", task.Title)
	} else {
		fmt.Printf("%s Completed: %q\n", success("✓"), task.Title)
	}
	return nil
}
