package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/existflow/taskboard/internal/board"
	"github.com/existflow/taskboard/internal/model"
)

// Workspace is a workspace with the caller's role in it
type Workspace struct {
	model.Workspace
	Role string `json:"role"`
}

// Board is the full snapshot of a workspace
type Board struct {
	Workspace model.Workspace `json:"workspace"`
	Lanes     []board.Lane    `json:"lanes"`
	Projects  []model.Project `json:"projects"`
}

// MoveResult reports the moved task and every task whose order changed
type MoveResult struct {
	Moved   model.Task   `json:"moved"`
	Changed []model.Task `json:"changed"`
}

// NewTask holds the fields of a task to create. Zero values take the
// server defaults.
type NewTask struct {
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status,omitempty"`
	ProjectID   string     `json:"project_id,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	NoDueDate   bool       `json:"no_due_date,omitempty"`
	SubTasks    []string   `json:"sub_tasks,omitempty"`
}

// TaskPatch changes the non-nil fields of a task
type TaskPatch struct {
	Title        *string    `json:"title,omitempty"`
	Description  *string    `json:"description,omitempty"`
	Status       *string    `json:"status,omitempty"`
	ProjectID    *string    `json:"project_id,omitempty"`
	Priority     *string    `json:"priority,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	ClearDueDate bool       `json:"clear_due_date,omitempty"`
}

// SubTaskPatch changes the non-nil fields of a sub-task
type SubTaskPatch struct {
	Text      *string    `json:"text,omitempty"`
	Completed *bool      `json:"completed,omitempty"`
	Priority  *string    `json:"priority,omitempty"`
	DueDate   *time.Time `json:"due_date,omitempty"`
}

// SettingsPatch changes the non-nil user settings
type SettingsPatch struct {
	DisplayName       *string `json:"display_name,omitempty"`
	Theme             *string `json:"theme,omitempty"`
	DefaultPriority   *string `json:"default_priority,omitempty"`
	EnableAISummaries *bool   `json:"enable_ai_summaries,omitempty"`
}

// WorkspacePatch changes the non-nil workspace fields
type WorkspacePatch struct {
	Name  *string `json:"name,omitempty"`
	Icon  *string `json:"icon,omitempty"`
	Color *string `json:"color,omitempty"`
}

// TaskQuery narrows the task list. Filter is all, status or project.
type TaskQuery struct {
	Filter string
	Value  string
	Query  string
}

func (q TaskQuery) encode() string {
	v := url.Values{}
	if q.Filter != "" {
		v.Set("filter", q.Filter)
	}
	if q.Value != "" {
		v.Set("value", q.Value)
	}
	if q.Query != "" {
		v.Set("q", q.Query)
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// Me returns the signed in user
func (c *Client) Me(ctx context.Context) (model.User, error) {
	var u model.User
	if err := c.authed(); err != nil {
		return u, err
	}
	err := c.do(ctx, http.MethodGet, "/me", nil, &u)
	return u, err
}

// UpdateSettings changes the user's preferences
func (c *Client) UpdateSettings(ctx context.Context, patch SettingsPatch) (model.User, error) {
	var u model.User
	if err := c.authed(); err != nil {
		return u, err
	}
	err := c.do(ctx, http.MethodPut, "/me/settings", patch, &u)
	return u, err
}

// Workspaces lists the workspaces the user owns or joined
func (c *Client) Workspaces(ctx context.Context) ([]Workspace, error) {
	var out []Workspace
	if err := c.authed(); err != nil {
		return nil, err
	}
	err := c.do(ctx, http.MethodGet, "/workspaces", nil, &out)
	return out, err
}

// CreateWorkspace creates a workspace seeded with the default columns
func (c *Client) CreateWorkspace(ctx context.Context, name, icon, color string) (Workspace, error) {
	var ws Workspace
	if err := c.authed(); err != nil {
		return ws, err
	}
	body := map[string]string{"name": name, "icon": icon, "color": color}
	err := c.do(ctx, http.MethodPost, "/workspaces", body, &ws)
	return ws, err
}

// GetWorkspace returns one workspace
func (c *Client) GetWorkspace(ctx context.Context, id string) (Workspace, error) {
	var ws Workspace
	if err := c.authed(); err != nil {
		return ws, err
	}
	err := c.do(ctx, http.MethodGet, wsPath(id), nil, &ws)
	return ws, err
}

// UpdateWorkspace renames or restyles a workspace
func (c *Client) UpdateWorkspace(ctx context.Context, id string, patch WorkspacePatch) (Workspace, error) {
	var ws Workspace
	if err := c.authed(); err != nil {
		return ws, err
	}
	err := c.do(ctx, http.MethodPatch, wsPath(id), patch, &ws)
	return ws, err
}

// DeleteWorkspace removes a workspace and everything in it
func (c *Client) DeleteWorkspace(ctx context.Context, id string) error {
	if err := c.authed(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, wsPath(id), nil, nil)
}

// ResetWorkspace removes all tasks and projects but keeps the columns
func (c *Client) ResetWorkspace(ctx context.Context, id string) error {
	if err := c.authed(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, wsPath(id, "reset"), nil, nil)
}

// Board returns the lanes of a workspace with their ordered tasks
func (c *Client) Board(ctx context.Context, workspaceID string) (Board, error) {
	var b Board
	if err := c.authed(); err != nil {
		return b, err
	}
	err := c.do(ctx, http.MethodGet, wsPath(workspaceID, "board"), nil, &b)
	return b, err
}

// Projects lists a workspace's projects
func (c *Client) Projects(ctx context.Context, workspaceID string) ([]model.Project, error) {
	var out []model.Project
	if err := c.authed(); err != nil {
		return nil, err
	}
	err := c.do(ctx, http.MethodGet, wsPath(workspaceID, "projects"), nil, &out)
	return out, err
}

// CreateProject adds a project
func (c *Client) CreateProject(ctx context.Context, workspaceID, name, color string) (model.Project, error) {
	var p model.Project
	if err := c.authed(); err != nil {
		return p, err
	}
	body := map[string]string{"name": name, "color": color}
	err := c.do(ctx, http.MethodPost, wsPath(workspaceID, "projects"), body, &p)
	return p, err
}

// RenameProject changes a project's name
func (c *Client) RenameProject(ctx context.Context, workspaceID, id, name string) (model.Project, error) {
	var p model.Project
	if err := c.authed(); err != nil {
		return p, err
	}
	err := c.do(ctx, http.MethodPatch, wsPath(workspaceID, "projects", escape(id)), map[string]string{"name": name}, &p)
	return p, err
}

// DeleteProject removes a project; its tasks are kept without a project
func (c *Client) DeleteProject(ctx context.Context, workspaceID, id string) error {
	if err := c.authed(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, wsPath(workspaceID, "projects", escape(id)), nil, nil)
}

// Columns lists a workspace's columns
func (c *Client) Columns(ctx context.Context, workspaceID string) ([]model.Column, error) {
	var out []model.Column
	if err := c.authed(); err != nil {
		return nil, err
	}
	err := c.do(ctx, http.MethodGet, wsPath(workspaceID, "columns"), nil, &out)
	return out, err
}

// CreateColumn appends a column to the board
func (c *Client) CreateColumn(ctx context.Context, workspaceID, title, color string) (model.Column, error) {
	var col model.Column
	if err := c.authed(); err != nil {
		return col, err
	}
	body := map[string]string{"title": title, "color": color}
	err := c.do(ctx, http.MethodPost, wsPath(workspaceID, "columns"), body, &col)
	return col, err
}

// DeleteColumn removes a column and returns the column its tasks moved to
func (c *Client) DeleteColumn(ctx context.Context, workspaceID, id string) (model.Column, error) {
	var resp struct {
		ReassignedTo model.Column `json:"reassigned_to"`
	}
	if err := c.authed(); err != nil {
		return resp.ReassignedTo, err
	}
	err := c.do(ctx, http.MethodDelete, wsPath(workspaceID, "columns", escape(id)), nil, &resp)
	return resp.ReassignedTo, err
}

// Tasks lists tasks newest first
func (c *Client) Tasks(ctx context.Context, workspaceID string, q TaskQuery) ([]model.Task, error) {
	var out []model.Task
	if err := c.authed(); err != nil {
		return nil, err
	}
	err := c.do(ctx, http.MethodGet, wsPath(workspaceID, "tasks")+q.encode(), nil, &out)
	return out, err
}

// Task returns one task
func (c *Client) Task(ctx context.Context, workspaceID, id string) (model.Task, error) {
	var t model.Task
	if err := c.authed(); err != nil {
		return t, err
	}
	err := c.do(ctx, http.MethodGet, wsPath(workspaceID, "tasks", escape(id)), nil, &t)
	return t, err
}

// CreateTask adds a task
func (c *Client) CreateTask(ctx context.Context, workspaceID string, t NewTask) (model.Task, error) {
	var out model.Task
	if err := c.authed(); err != nil {
		return out, err
	}
	err := c.do(ctx, http.MethodPost, wsPath(workspaceID, "tasks"), t, &out)
	return out, err
}

// UpdateTask changes a task
func (c *Client) UpdateTask(ctx context.Context, workspaceID, id string, patch TaskPatch) (model.Task, error) {
	var out model.Task
	if err := c.authed(); err != nil {
		return out, err
	}
	err := c.do(ctx, http.MethodPatch, wsPath(workspaceID, "tasks", escape(id)), patch, &out)
	return out, err
}

// DeleteTask removes a task and its sub-tasks
func (c *Client) DeleteTask(ctx context.Context, workspaceID, id string) error {
	if err := c.authed(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, wsPath(workspaceID, "tasks", escape(id)), nil, nil)
}

// MoveTask drops a task onto another task or a column
func (c *Client) MoveTask(ctx context.Context, workspaceID, id string, over board.Target) (MoveResult, error) {
	var out MoveResult
	if err := c.authed(); err != nil {
		return out, err
	}
	body := map[string]string{"over_kind": string(over.Kind), "over_id": over.ID}
	err := c.do(ctx, http.MethodPost, wsPath(workspaceID, "tasks", escape(id), "move"), body, &out)
	return out, err
}

// Reorder moves activeID to the slot of overID
func (c *Client) Reorder(ctx context.Context, workspaceID, activeID, overID string) (MoveResult, error) {
	var out MoveResult
	if err := c.authed(); err != nil {
		return out, err
	}
	body := map[string]string{"active_id": activeID, "over_id": overID}
	err := c.do(ctx, http.MethodPost, wsPath(workspaceID, "tasks", "reorder"), body, &out)
	return out, err
}

// Refine asks the assistant to fill in a task from its title
func (c *Client) Refine(ctx context.Context, workspaceID, id string) (model.Task, error) {
	var out model.Task
	if err := c.authed(); err != nil {
		return out, err
	}
	err := c.do(ctx, http.MethodPost, wsPath(workspaceID, "tasks", escape(id), "refine"), nil, &out)
	return out, err
}

// Summarize stores a one-sentence summary on a task
func (c *Client) Summarize(ctx context.Context, workspaceID, id string) (model.Task, error) {
	var out model.Task
	if err := c.authed(); err != nil {
		return out, err
	}
	err := c.do(ctx, http.MethodPost, wsPath(workspaceID, "tasks", escape(id), "summary"), nil, &out)
	return out, err
}

// AddSubTask appends a checklist item to a task
func (c *Client) AddSubTask(ctx context.Context, workspaceID, taskID, text string) (model.SubTask, error) {
	var out model.SubTask
	if err := c.authed(); err != nil {
		return out, err
	}
	err := c.do(ctx, http.MethodPost, wsPath(workspaceID, "tasks", escape(taskID), "subtasks"), map[string]string{"text": text}, &out)
	return out, err
}

// UpdateSubTask changes a checklist item
func (c *Client) UpdateSubTask(ctx context.Context, workspaceID, taskID, id string, patch SubTaskPatch) (model.SubTask, error) {
	var out model.SubTask
	if err := c.authed(); err != nil {
		return out, err
	}
	err := c.do(ctx, http.MethodPatch, wsPath(workspaceID, "tasks", escape(taskID), "subtasks", escape(id)), patch, &out)
	return out, err
}

// DeleteSubTask removes a checklist item
func (c *Client) DeleteSubTask(ctx context.Context, workspaceID, taskID, id string) error {
	if err := c.authed(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, wsPath(workspaceID, "tasks", escape(taskID), "subtasks", escape(id)), nil, nil)
}

// Invitations lists the invitations of a workspace
func (c *Client) Invitations(ctx context.Context, workspaceID string) ([]model.Invitation, error) {
	var out []model.Invitation
	if err := c.authed(); err != nil {
		return nil, err
	}
	err := c.do(ctx, http.MethodGet, wsPath(workspaceID, "invitations"), nil, &out)
	return out, err
}

// Invite sends invitations and returns the ones that were new
func (c *Client) Invite(ctx context.Context, workspaceID string, emails []string) ([]model.Invitation, error) {
	var out []model.Invitation
	if err := c.authed(); err != nil {
		return nil, err
	}
	err := c.do(ctx, http.MethodPost, wsPath(workspaceID, "invitations"), map[string][]string{"emails": emails}, &out)
	return out, err
}

// DeleteInvitation revokes an invitation
func (c *Client) DeleteInvitation(ctx context.Context, workspaceID, id string) error {
	if err := c.authed(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, wsPath(workspaceID, "invitations", escape(id)), nil, nil)
}

// PendingInvitations lists invitations addressed to the user
func (c *Client) PendingInvitations(ctx context.Context) ([]model.Invitation, error) {
	var out []model.Invitation
	if err := c.authed(); err != nil {
		return nil, err
	}
	err := c.do(ctx, http.MethodGet, "/invitations", nil, &out)
	return out, err
}

// AcceptInvitation joins the invitation's workspace
func (c *Client) AcceptInvitation(ctx context.Context, id string) (model.Invitation, error) {
	var out model.Invitation
	if err := c.authed(); err != nil {
		return out, err
	}
	err := c.do(ctx, http.MethodPost, "/invitations/"+escape(id)+"/accept", nil, &out)
	return out, err
}
