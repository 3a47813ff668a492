package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Show or change the current workspace",
	Long: `Set or view the current workspace.

Board, task and project commands act on the current workspace unless
--workspace is given.

Examples:
  taskboard context              # Show current workspace
  taskboard context set Home     # Switch to the 'Home' workspace
  taskboard context clear        # Forget the current workspace`,
	RunE: runContextShow,
}

var contextSetCmd = &cobra.Command{
	Use:   "set [workspace]",
	Short: "Set the current workspace",
	Args:  cobra.ExactArgs(1),
	RunE:  runContextSet,
}

var contextClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the current workspace",
	RunE:  runContextClear,
}

func init() {
	contextCmd.AddCommand(contextSetCmd)
	contextCmd.AddCommand(contextClearCmd)
}

func runContextShow(cmd *cobra.Command, args []string) error {
	c, err := openClient()
	if err != nil {
		return err
	}
	id := c.CurrentWorkspace()
	if id == "" {
		fmt.Println("📥 No current workspace. Pick one with: taskboard context set <name>")
		return nil
	}

	ctx, cancel := newContext()
	defer cancel()

	b, err := c.Board(ctx, id)
	if err != nil {
		fmt.Printf("%s Current workspace %s is not available: %v\n", warning("⚠️"), shortID(id), err)
		return nil
	}

	total, done := 0, 0
	for i, lane := range b.Lanes {
		total += len(lane.Tasks)
		if i == len(b.Lanes)-1 {
			done += len(lane.Tasks)
		}
	}
	fmt.Printf("📁 Current workspace: %s %s (%d/%d tasks open)\n", b.Workspace.Icon, b.Workspace.Name, total-done, total)
	return nil
}

func runContextSet(cmd *cobra.Command, args []string) error {
	return useWorkspace(args[0])
}

// useWorkspace resolves ref and stores it as the current workspace
func useWorkspace(ref string) error {
	c, err := openClient()
	if err != nil {
		return err
	}
	ctx, cancel := newContext()
	defer cancel()

	ws, err := resolveWorkspace(ctx, c, ref)
	if err != nil {
		return err
	}
	if err := c.UseWorkspace(ws.ID); err != nil {
		return fmt.Errorf("failed to set workspace: %w", err)
	}

	fmt.Printf("📁 Switched to: %s %s\n", ws.Icon, ws.Name)
	return nil
}

func runContextClear(cmd *cobra.Command, args []string) error {
	c, err := openClient()
	if err != nil {
		return err
	}
	if err := c.UseWorkspace(""); err != nil {
		return fmt.Errorf("failed to clear workspace: %w", err)
	}
	fmt.Println("📥 Current workspace cleared")
	return nil
}
