package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Print the board of the current workspace",
	Long: `Print every column with its tasks in board order.
Run 'taskboard' without arguments for the interactive board.`,
	RunE: runBoard,
}

func runBoard(cmd *cobra.Command, args []string) error {
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

	b, err := c.Board(ctx, wsID)
	if err != nil {
		return fmt.Errorf("failed to load board: %w", err)
	}

	now := time.Now()
	fmt.Printf("\n%s %s\n", b.Workspace.Icon, bold(b.Workspace.Name))
	for _, lane := range b.Lanes {
		fmt.Printf("\n%s %s\n", bold(lane.Column.Title), muted(fmt.Sprintf("(%d)", len(lane.Tasks))))
		fmt.Println(strings.Repeat("─", 60))
		if len(lane.Tasks) == 0 {
			fmt.Println(muted("  empty"))
			continue
		}
		for _, t := range lane.Tasks {
			line := fmt.Sprintf("  %-8s  %-36s", shortID(t.ID), truncate(t.Title, 36))
			if done, total := t.Progress(); total > 0 {
				line += fmt.Sprintf("  %d/%d", done, total)
			}
			if due := formatDue(&t, now); due != "" {
				line += "  " + due
			}
			fmt.Println(line + "  " + formatPriority(t.Priority))
		}
	}
	fmt.Println()
	return nil
}
