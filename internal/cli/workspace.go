package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/existflow/taskboard/internal/logger"
)

var workspaceCmd = &cobra.Command{
	Use:     "workspace",
	Aliases: []string{"ws"},
	Short:   "Manage workspaces",
	Long:    `Create, list, switch and clear workspaces.`,
}

var workspaceListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List your workspaces",
	RunE:    runWorkspaceList,
}

var workspaceNewCmd = &cobra.Command{
	Use:   "new [name]",
	Short: "Create a workspace",
	Long: `Create a workspace with the default To Do, In Progress and Done columns.

Examples:
  taskboard workspace new "Home"
  taskboard workspace new "Work" --icon 💼 --color "#FF6B6B"`,
	Args: cobra.ExactArgs(1),
	RunE: runWorkspaceNew,
}

var workspaceUseCmd = &cobra.Command{
	Use:   "use [workspace]",
	Short: "Switch the current workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return useWorkspace(args[0])
	},
}

var workspaceDeleteCmd = &cobra.Command{
	Use:     "delete [workspace]",
	Aliases: []string{"rm"},
	Short:   "Delete a workspace and everything in it",
	Args:    cobra.ExactArgs(1),
	RunE:    runWorkspaceDelete,
}

var workspaceResetCmd = &cobra.Command{
	Use:   "reset [workspace]",
	Short: "Remove all tasks and projects, keeping the columns",
	Long: `Remove all tasks and projects from a workspace. The columns stay.
Without an argument the current workspace is reset.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWorkspaceReset,
}

var (
	workspaceIcon  string
	workspaceColor string
)

func init() {
	workspaceNewCmd.Flags().StringVar(&workspaceIcon, "icon", "", "Workspace icon (emoji)")
	workspaceNewCmd.Flags().StringVarP(&workspaceColor, "color", "c", "", "Workspace color (hex)")

	workspaceCmd.AddCommand(workspaceListCmd)
	workspaceCmd.AddCommand(workspaceNewCmd)
	workspaceCmd.AddCommand(workspaceUseCmd)
	workspaceCmd.AddCommand(workspaceDeleteCmd)
	workspaceCmd.AddCommand(workspaceResetCmd)
}

func runWorkspaceList(cmd *cobra.Command, args []string) error {
	c, err := openClient()
	if err != nil {
		return err
	}
	ctx, cancel := newContext()
	defer cancel()

	list, err := c.Workspaces(ctx)
	if err != nil {
		return fmt.Errorf("failed to list workspaces: %w", err)
	}
	if len(list) == 0 {
		fmt.Println("No workspaces yet. Create one with: taskboard workspace new \"Home\"")
		return nil
	}

	fmt.Println()
	fmt.Printf("  %-10s  %-24s  %s\n", "ID", "Name", "Role")
	fmt.Println(strings.Repeat("─", 50))
	for _, ws := range list {
		marker := "  "
		if ws.ID == c.CurrentWorkspace() {
			marker = "❯ "
		}
		fmt.Printf("%s%-10s  %-24s  %s\n", marker, shortID(ws.ID), truncate(ws.Icon+" "+ws.Name, 24), muted(ws.Role))
	}
	fmt.Println()
	return nil
}

func runWorkspaceNew(cmd *cobra.Command, args []string) error {
	c, err := openClient()
	if err != nil {
		return err
	}
	ctx, cancel := newContext()
	defer cancel()

	ws, err := c.CreateWorkspace(ctx, args[0], workspaceIcon, workspaceColor)
	if err != nil {
		return fmt.Errorf("failed to create workspace: %w", err)
	}

	fmt.Printf("%s Created workspace: %s %s (id: %s)\n", success("✓"), ws.Icon, ws.Name, shortID(ws.ID))
	if c.CurrentWorkspace() == "" {
		if err := c.UseWorkspace(ws.ID); err == nil {
			fmt.Println("📁 Now using it as the current workspace")
		}
	}
	return nil
}

func runWorkspaceDelete(cmd *cobra.Command, args []string) error {
	c, err := openClient()
	if err != nil {
		return err
	}
	ctx, cancel := newContext()
	defer cancel()

	ws, err := resolveWorkspace(ctx, c, args[0])
	if err != nil {
		return err
	}

	if !confirm(cmd.OutOrStdout(), fmt.Sprintf("Delete workspace %q with all its projects, columns and tasks?", ws.Name)) {
		fmt.Println("Cancelled.")
		return nil
	}

	if err := c.DeleteWorkspace(ctx, ws.ID); err != nil {
		return fmt.Errorf("failed to delete workspace: %w", err)
	}
	if c.CurrentWorkspace() == ws.ID {
		_ = c.UseWorkspace("")
	}

	logger.Info("Workspace deleted", logger.F("workspace", ws.ID))
	fmt.Printf("🗑️  Deleted workspace: %s\n", ws.Name)
	return nil
}

func runWorkspaceReset(cmd *cobra.Command, args []string) error {
	c, err := openClient()
	if err != nil {
		return err
	}
	ctx, cancel := newContext()
	defer cancel()

	var id, name string
	if len(args) == 1 {
		ws, err := resolveWorkspace(ctx, c, args[0])
		if err != nil {
			return err
		}
		id, name = ws.ID, ws.Name
	} else {
		if id, err = workspaceID(ctx, c); err != nil {
			return err
		}
		ws, err := c.GetWorkspace(ctx, id)
		if err != nil {
			return err
		}
		name = ws.Name
	}

	if !confirm(cmd.OutOrStdout(), fmt.Sprintf("Remove all tasks and projects from %q?", name)) {
		fmt.Println("Aborted.")
		return nil
	}

	fmt.Println("🧹 Clearing workspace...")
	if err := c.ResetWorkspace(ctx, id); err != nil {
		return fmt.Errorf("failed to reset workspace: %w", err)
	}
	fmt.Printf("%s Workspace %s cleared. Columns were kept.\n", success("✓"), name)
	return nil
}
