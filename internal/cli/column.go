package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/existflow/taskboard/internal/board"
	"github.com/existflow/taskboard/internal/model"
)

var columnCmd = &cobra.Command{
	Use:     "column",
	Aliases: []string{"col"},
	Short:   "Manage board columns",
}

var columnNewCmd = &cobra.Command{
	Use:   "new [title]",
	Short: "Add a column at the right end of the board",
	Args:  cobra.ExactArgs(1),
	RunE:  runColumnNew,
}

var columnListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List columns in board order",
	RunE:    runColumnList,
}

var columnDeleteCmd = &cobra.Command{
	Use:     "delete [column]",
	Aliases: []string{"rm"},
	Short:   "Delete a column",
	Long:    `Delete a column. Its tasks move to the first default column.`,
	Args:    cobra.ExactArgs(1),
	RunE:    runColumnDelete,
}

var columnColor string

func init() {
	columnNewCmd.Flags().StringVarP(&columnColor, "color", "c", model.DefaultColumnColor, "Column color (hex)")

	columnCmd.AddCommand(columnNewCmd)
	columnCmd.AddCommand(columnListCmd)
	columnCmd.AddCommand(columnDeleteCmd)
}

func runColumnNew(cmd *cobra.Command, args []string) error {
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

	col, err := c.CreateColumn(ctx, wsID, args[0], columnColor)
	if err != nil {
		return fmt.Errorf("failed to create column: %w", err)
	}
	fmt.Printf("%s Added column: %s (id: %s)\n", success("✓"), col.Title, shortID(col.ID))
	return nil
}

func runColumnList(cmd *cobra.Command, args []string) error {
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
		return fmt.Errorf("failed to list columns: %w", err)
	}

	fmt.Println()
	fmt.Printf("  %-10s  %-20s  %s\n", "ID", "Title", "Tasks")
	fmt.Println(strings.Repeat("─", 44))
	for _, lane := range b.Lanes {
		title := lane.Column.Title
		if lane.Column.IsDefault {
			title += " " + muted("(default)")
		}
		fmt.Printf("  %-10s  %-20s  %d\n", shortID(lane.Column.ID), title, len(lane.Tasks))
	}
	fmt.Println()
	return nil
}

func runColumnDelete(cmd *cobra.Command, args []string) error {
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

	col, err := resolveColumn(ctx, c, wsID, args[0])
	if err != nil {
		return err
	}

	if !confirm(cmd.OutOrStdout(), fmt.Sprintf("Delete column %q?", col.Title)) {
		fmt.Println("Cancelled.")
		return nil
	}

	target, err := c.DeleteColumn(ctx, wsID, col.ID)
	if err != nil {
		if strings.Contains(err.Error(), board.ErrLastColumn.Error()) {
			return fmt.Errorf("%s is the only column and cannot be deleted", col.Title)
		}
		return fmt.Errorf("failed to delete column: %w", err)
	}

	fmt.Printf("🗑️  Deleted column: %s (tasks moved to %s)\n", col.Title, target.Title)
	return nil
}
