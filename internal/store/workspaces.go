package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/existflow/taskboard/internal/model"
)

// Role is a user's relation to a workspace
type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

const workspaceColumns = `id, name, icon, color, owner_id, created_at, updated_at`

func scanWorkspace(row interface{ Scan(...any) error }) (model.Workspace, error) {
	var w model.Workspace
	var created, updated string
	if err := row.Scan(&w.ID, &w.Name, &w.Icon, &w.Color, &w.OwnerID, &created, &updated); err != nil {
		return model.Workspace{}, notFound(err)
	}
	w.CreatedAt = parseTime(created)
	w.UpdatedAt = parseTime(updated)
	return w, nil
}

// CreateWorkspace creates a workspace owned by ownerID together with the
// default To Do, In Progress and Done columns.
func (s *Store) CreateWorkspace(ctx context.Context, ownerID string, ws model.Workspace) (model.Workspace, error) {
	ws.Name = strings.TrimSpace(ws.Name)
	if ws.Name == "" {
		ws.Name = "My Workspace"
	}
	if ws.Icon == "" {
		ws.Icon = model.DefaultWorkspaceIcon
	}
	if ws.Color == "" {
		ws.Color = model.DefaultWorkspaceColor
	}
	ws.ID = uuid.NewString()
	ws.OwnerID = ownerID

	err := s.withTx(ctx, func(c conn) error {
		ws.CreatedAt, ws.UpdatedAt = c.now, c.now
		_, err := c.exec(ctx, `
			INSERT INTO workspaces (id, name, icon, color, owner_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			ws.ID, ws.Name, ws.Icon, ws.Color, ws.OwnerID, formatTime(c.now), formatTime(c.now),
		)
		if err != nil {
			return fmt.Errorf("insert workspace: %w", err)
		}

		for _, col := range model.DefaultColumns(ws.ID, c.now) {
			col.ID = uuid.NewString()
			if err := insertColumn(ctx, c, col); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return model.Workspace{}, err
	}
	return ws, nil
}

// GetWorkspace returns a workspace by id
func (s *Store) GetWorkspace(ctx context.Context, id string) (model.Workspace, error) {
	c := s.conn()
	return scanWorkspace(c.queryRow(ctx, `SELECT `+workspaceColumns+` FROM workspaces WHERE id = ?`, id))
}

// ListWorkspaces returns the workspaces userID owns or joined, oldest first
func (s *Store) ListWorkspaces(ctx context.Context, userID string) ([]model.Workspace, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	c := s.conn()
	rows, err := c.query(ctx, `
		SELECT `+workspaceColumns+` FROM workspaces
		WHERE owner_id = ? OR id IN (
			SELECT workspace_id FROM invitations WHERE email = ? AND status = ?
		)
		ORDER BY created_at, id`,
		userID, user.Email, string(model.InvitationAccepted),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workspaces := []model.Workspace{}
	for rows.Next() {
		w, err := scanWorkspace(rows)
		if err != nil {
			return nil, err
		}
		workspaces = append(workspaces, w)
	}
	return workspaces, rows.Err()
}

// UpdateWorkspace saves name, icon and color
func (s *Store) UpdateWorkspace(ctx context.Context, ws model.Workspace) (model.Workspace, error) {
	ws.Name = strings.TrimSpace(ws.Name)
	if ws.Name == "" {
		return model.Workspace{}, fmt.Errorf("%w: workspace name required", ErrInvalidInput)
	}

	c := s.conn()
	err := mustAffect(c.exec(ctx, `
		UPDATE workspaces SET name = ?, icon = ?, color = ?, updated_at = ? WHERE id = ?`,
		ws.Name, ws.Icon, ws.Color, formatTime(c.now), ws.ID,
	))
	if err != nil {
		return model.Workspace{}, err
	}
	return s.GetWorkspace(ctx, ws.ID)
}

// DeleteWorkspace removes a workspace and everything in it
func (s *Store) DeleteWorkspace(ctx context.Context, id string) error {
	return s.withTx(ctx, func(c conn) error {
		steps := []string{
			`DELETE FROM subtasks WHERE task_id IN (SELECT id FROM tasks WHERE workspace_id = ?)`,
			`DELETE FROM tasks WHERE workspace_id = ?`,
			`DELETE FROM kanban_columns WHERE workspace_id = ?`,
			`DELETE FROM projects WHERE workspace_id = ?`,
			`DELETE FROM invitations WHERE workspace_id = ?`,
		}
		for _, q := range steps {
			if _, err := c.exec(ctx, q, id); err != nil {
				return err
			}
		}
		return mustAffect(c.exec(ctx, `DELETE FROM workspaces WHERE id = ?`, id))
	})
}

// ResetWorkspace deletes every task and project but keeps the columns
func (s *Store) ResetWorkspace(ctx context.Context, id string) error {
	if _, err := s.GetWorkspace(ctx, id); err != nil {
		return err
	}
	return s.withTx(ctx, func(c conn) error {
		steps := []string{
			`DELETE FROM subtasks WHERE task_id IN (SELECT id FROM tasks WHERE workspace_id = ?)`,
			`DELETE FROM tasks WHERE workspace_id = ?`,
			`DELETE FROM projects WHERE workspace_id = ?`,
		}
		for _, q := range steps {
			if _, err := c.exec(ctx, q, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// Access returns userID's role in a workspace. ErrNotFound means the
// workspace does not exist, ErrForbidden that the user is not a member.
func (s *Store) Access(ctx context.Context, workspaceID, userID string) (Role, error) {
	ws, err := s.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return "", err
	}
	if ws.OwnerID == userID {
		return RoleOwner, nil
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return "", ErrForbidden
	}

	c := s.conn()
	var n int
	err = c.queryRow(ctx, `
		SELECT COUNT(*) FROM invitations WHERE workspace_id = ? AND email = ? AND status = ?`,
		workspaceID, user.Email, string(model.InvitationAccepted),
	).Scan(&n)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", ErrForbidden
	}
	return RoleMember, nil
}

// CanAccess reports whether userID may read and edit the workspace board
func (s *Store) CanAccess(ctx context.Context, workspaceID, userID string) bool {
	_, err := s.Access(ctx, workspaceID, userID)
	return err == nil
}
