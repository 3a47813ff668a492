package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/existflow/taskboard/internal/model"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
	Long:  `Create, list, and manage projects for organizing tasks.`,
}

var projectNewCmd = &cobra.Command{
	Use:   "new [name]",
	Short: "Create a new project",
	Long: `Create a new project for organizing tasks.

Examples:
  taskboard project new "Work"
  taskboard project new "Personal" --color "#FF6B6B"`,
	Args: cobra.ExactArgs(1),
	RunE: runProjectNew,
}

var projectListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all projects",
	RunE:    runProjectList,
}

var projectRenameCmd = &cobra.Command{
	Use:   "rename [project] [name]",
	Short: "Rename a project",
	Args:  cobra.ExactArgs(2),
	RunE:  runProjectRename,
}

var projectDeleteCmd = &cobra.Command{
	Use:     "delete [project]",
	Aliases: []string{"rm"},
	Short:   "Delete a project",
	Long:    `Delete a project. Its tasks stay on the board without a project.`,
	Args:    cobra.ExactArgs(1),
	RunE:    runProjectDelete,
}

var projectColor string

func init() {
	projectNewCmd.Flags().StringVarP(&projectColor, "color", "c", model.DefaultProjectColor, "Project color (hex)")

	projectCmd.AddCommand(projectNewCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectRenameCmd)
	projectCmd.AddCommand(projectDeleteCmd)
}

func runProjectNew(cmd *cobra.Command, args []string) error {
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

	p, err := c.CreateProject(ctx, wsID, args[0], projectColor)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	fmt.Printf("%s Created project: %s (id: %s)\n", success("✓"), p.Name, shortID(p.ID))
	return nil
}

func runProjectList(cmd *cobra.Command, args []string) error {
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
		return fmt.Errorf("failed to list projects: %w", err)
	}
	if len(b.Projects) == 0 {
		fmt.Println("No projects found.")
		return nil
	}

	// Tasks in the last lane count as finished
	open := map[string]int{}
	total := map[string]int{}
	for i, lane := range b.Lanes {
		for _, t := range lane.Tasks {
			total[t.ProjectID]++
			if i < len(b.Lanes)-1 {
				open[t.ProjectID]++
			}
		}
	}

	fmt.Println()
	fmt.Printf("  %-10s  %-20s  %s\n", "ID", "Name", "Tasks")
	fmt.Println(strings.Repeat("─", 50))

	totalOpen := 0
	for _, p := range b.Projects {
		totalOpen += open[p.ID]
		fmt.Printf("  %-10s  %-20s  %d/%d\n", shortID(p.ID), truncate(p.Name, 20), open[p.ID], total[p.ID])
	}

	fmt.Println(strings.Repeat("─", 50))
	fmt.Printf("  %d projects, %d open tasks\n\n", len(b.Projects), totalOpen)
	return nil
}

func runProjectRename(cmd *cobra.Command, args []string) error {
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

	p, err := resolveProject(ctx, c, wsID, args[0])
	if err != nil {
		return err
	}
	renamed, err := c.RenameProject(ctx, wsID, p.ID, args[1])
	if err != nil {
		return fmt.Errorf("failed to rename project: %w", err)
	}

	fmt.Printf("%s Renamed %s to %s\n", success("✓"), p.Name, renamed.Name)
	return nil
}

func runProjectDelete(cmd *cobra.Command, args []string) error {
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

	p, err := resolveProject(ctx, c, wsID, args[0])
	if err != nil {
		return err
	}

	if !confirm(cmd.OutOrStdout(), fmt.Sprintf("Delete project %q? Its tasks are kept.", p.Name)) {
		fmt.Println("Cancelled.")
		return nil
	}

	if err := c.DeleteProject(ctx, wsID, p.ID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	fmt.Printf("🗑️  Deleted project: %s\n", p.Name)
	return nil
}
