package model

import "time"

// Workspace is the tenancy boundary that owns projects, columns and tasks
type Workspace struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon"`
	Color     string    `json:"color"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Defaults used by onboarding when the user picks nothing
const (
	DefaultWorkspaceIcon  = "🏠"
	DefaultWorkspaceColor = "#3B82F6"
	DefaultProjectColor   = "#4ECDC4"
	DefaultColumnColor    = "#94A3B8"
)

// Project groups tasks inside a workspace
type Project struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Name        string    `json:"name"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Column is a status lane on the kanban board
type Column struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Title       string    `json:"title"`
	Color       string    `json:"color"`
	IsDefault   bool      `json:"is_default"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
}

// DefaultColumns returns the lanes seeded into every new workspace.
// Ids are left empty for the caller to assign.
func DefaultColumns(workspaceID string, now time.Time) []Column {
	return []Column{
		{WorkspaceID: workspaceID, Title: "To Do", Color: "#94A3B8", IsDefault: true, Position: 0, CreatedAt: now},
		{WorkspaceID: workspaceID, Title: "In Progress", Color: "#3B82F6", IsDefault: true, Position: 1, CreatedAt: now},
		{WorkspaceID: workspaceID, Title: "Done", Color: "#10B981", IsDefault: true, Position: 2, CreatedAt: now},
	}
}
