package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/existflow/taskboard/internal/client"
	"github.com/existflow/taskboard/internal/model"
)

var addCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a new task",
	Long: `Add a new task to the first column of the board.

Examples:
  taskboard task add "Buy groceries"
  taskboard task add "Meeting with team" -p high -d tomorrow
  taskboard task add "Feature work" --project work --sub "design" --sub "build"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var (
	addProject  string
	addPriority string
	addDue      string
	addStatus   string
	addDesc     string
	addNoDue    bool
	addSubTasks []string
)

func init() {
	addCmd.Flags().StringVarP(&addProject, "project", "P", "", "Project to add the task to")
	addCmd.Flags().StringVarP(&addPriority, "priority", "p", "", "Priority (low, medium, high; default from settings)")
	addCmd.Flags().StringVarP(&addDue, "due", "d", "", "Due date (today, tomorrow, +3d, 2006-01-02)")
	addCmd.Flags().StringVarP(&addStatus, "status", "s", "", "Column to add the task to")
	addCmd.Flags().StringVar(&addDesc, "desc", "", "Description")
	addCmd.Flags().BoolVar(&addNoDue, "no-due", false, "Create without a due date")
	addCmd.Flags().StringArrayVar(&addSubTasks, "sub", nil, "Sub-task (repeatable)")
}

func runAdd(cmd *cobra.Command, args []string) error {
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

	req := client.NewTask{
		Title:       strings.Join(args, " "),
		Description: addDesc,
		NoDueDate:   addNoDue,
		SubTasks:    addSubTasks,
	}
	if addPriority != "" {
		p, ok := model.ParsePriority(addPriority)
		if !ok {
			return fmt.Errorf("invalid priority %q (use low, medium or high)", addPriority)
		}
		req.Priority = string(p)
	}
	if addDue != "" {
		due, err := parseDue(addDue, time.Now())
		if err != nil {
			return err
		}
		req.DueDate = &due
	}

	projectName := ""
	if addProject != "" {
		p, err := resolveProject(ctx, c, wsID, addProject)
		if err != nil {
			return err
		}
		req.ProjectID = p.ID
		projectName = p.Name
	}
	columnName := ""
	if addStatus != "" {
		col, err := resolveColumn(ctx, c, wsID, addStatus)
		if err != nil {
			return err
		}
		req.Status = col.ID
		columnName = col.Title
	}

	t, err := c.CreateTask(ctx, wsID, req)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	where := columnName
	if projectName != "" {
		where = strings.TrimSpace(projectName + " " + where)
	}
	if where != "" {
		where = "[" + where + "] "
	}
	fmt.Printf("%s Added %s%q (%s, id: %s)\n", success("✓"), where, t.Title, t.Priority, shortID(t.ID))
	return nil
}
