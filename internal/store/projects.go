package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/existflow/taskboard/internal/model"
)

const projectColumns = `id, workspace_id, name, color, created_at, updated_at`

func scanProject(row interface{ Scan(...any) error }) (model.Project, error) {
	var p model.Project
	var created, updated string
	if err := row.Scan(&p.ID, &p.WorkspaceID, &p.Name, &p.Color, &created, &updated); err != nil {
		return model.Project{}, notFound(err)
	}
	p.CreatedAt = parseTime(created)
	p.UpdatedAt = parseTime(updated)
	return p, nil
}

// CreateProject adds a project to a workspace
func (s *Store) CreateProject(ctx context.Context, workspaceID, name, color string) (model.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Project{}, fmt.Errorf("%w: project name required", ErrInvalidInput)
	}
	if color == "" {
		color = model.DefaultProjectColor
	}

	c := s.conn()
	p := model.Project{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		Name:        name,
		Color:       color,
		CreatedAt:   c.now,
		UpdatedAt:   c.now,
	}
	_, err := c.exec(ctx, `
		INSERT INTO projects (id, workspace_id, name, color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.WorkspaceID, p.Name, p.Color, formatTime(c.now), formatTime(c.now),
	)
	if err != nil {
		return model.Project{}, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

// GetProject returns a project inside workspaceID
func (s *Store) GetProject(ctx context.Context, workspaceID, id string) (model.Project, error) {
	c := s.conn()
	return scanProject(c.queryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ? AND workspace_id = ?`, id, workspaceID))
}

// ListProjects returns a workspace's projects by creation time
func (s *Store) ListProjects(ctx context.Context, workspaceID string) ([]model.Project, error) {
	c := s.conn()
	rows, err := c.query(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE workspace_id = ? ORDER BY created_at, id`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// UpdateProject renames or recolors a project
func (s *Store) UpdateProject(ctx context.Context, p model.Project) (model.Project, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return model.Project{}, fmt.Errorf("%w: project name required", ErrInvalidInput)
	}
	if p.Color == "" {
		p.Color = model.DefaultProjectColor
	}

	c := s.conn()
	err := mustAffect(c.exec(ctx, `
		UPDATE projects SET name = ?, color = ?, updated_at = ? WHERE id = ? AND workspace_id = ?`,
		p.Name, p.Color, formatTime(c.now), p.ID, p.WorkspaceID,
	))
	if err != nil {
		return model.Project{}, err
	}
	return s.GetProject(ctx, p.WorkspaceID, p.ID)
}

// DeleteProject removes a project. Its tasks stay on the board without a
// project.
func (s *Store) DeleteProject(ctx context.Context, workspaceID, id string) error {
	return s.withTx(ctx, func(c conn) error {
		_, err := c.exec(ctx, `
			UPDATE tasks SET project_id = NULL, updated_at = ? WHERE project_id = ? AND workspace_id = ?`,
			formatTime(c.now), id, workspaceID,
		)
		if err != nil {
			return err
		}
		return mustAffect(c.exec(ctx, `DELETE FROM projects WHERE id = ? AND workspace_id = ?`, id, workspaceID))
	})
}

// checkProject verifies projectID is empty or belongs to workspaceID
func checkProject(ctx context.Context, c conn, workspaceID, projectID string) error {
	if projectID == "" {
		return nil
	}
	var n int
	err := c.queryRow(ctx, `SELECT COUNT(*) FROM projects WHERE id = ? AND workspace_id = ?`, projectID, workspaceID).Scan(&n)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvalidProject
	}
	return nil
}
