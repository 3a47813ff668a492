package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/existflow/taskboard/internal/board"
	"github.com/existflow/taskboard/internal/model"
)

const columnColumns = `id, workspace_id, title, color, is_default, position, created_at`

func scanColumn(row interface{ Scan(...any) error }) (model.Column, error) {
	var col model.Column
	var created string
	var isDefault int
	if err := row.Scan(&col.ID, &col.WorkspaceID, &col.Title, &col.Color, &isDefault, &col.Position, &created); err != nil {
		return model.Column{}, notFound(err)
	}
	col.IsDefault = isDefault != 0
	col.CreatedAt = parseTime(created)
	return col, nil
}

func insertColumn(ctx context.Context, c conn, col model.Column) error {
	_, err := c.exec(ctx, `
		INSERT INTO kanban_columns (id, workspace_id, title, color, is_default, position, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		col.ID, col.WorkspaceID, col.Title, col.Color, boolInt(col.IsDefault), col.Position, formatTime(col.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert column: %w", err)
	}
	return nil
}

func listColumns(ctx context.Context, c conn, workspaceID string) ([]model.Column, error) {
	rows, err := c.query(ctx,
		`SELECT `+columnColumns+` FROM kanban_columns WHERE workspace_id = ? ORDER BY position, created_at, id`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns := []model.Column{}
	for rows.Next() {
		col, err := scanColumn(rows)
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

// CreateColumn appends a custom column to the board
func (s *Store) CreateColumn(ctx context.Context, workspaceID, title, color string) (model.Column, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Column{}, fmt.Errorf("%w: column title required", ErrInvalidInput)
	}
	if color == "" {
		color = model.DefaultColumnColor
	}

	var col model.Column
	err := s.withTx(ctx, func(c conn) error {
		var next int
		err := c.queryRow(ctx,
			`SELECT COALESCE(MAX(position), -1) + 1 FROM kanban_columns WHERE workspace_id = ?`, workspaceID).Scan(&next)
		if err != nil {
			return err
		}
		col = model.Column{
			ID:          uuid.NewString(),
			WorkspaceID: workspaceID,
			Title:       title,
			Color:       color,
			Position:    next,
			CreatedAt:   c.now,
		}
		return insertColumn(ctx, c, col)
	})
	if err != nil {
		return model.Column{}, err
	}
	return col, nil
}

// ListColumns returns the board columns in display order
func (s *Store) ListColumns(ctx context.Context, workspaceID string) ([]model.Column, error) {
	return listColumns(ctx, s.conn(), workspaceID)
}

// GetColumn returns one column of workspaceID
func (s *Store) GetColumn(ctx context.Context, workspaceID, id string) (model.Column, error) {
	c := s.conn()
	return scanColumn(c.queryRow(ctx,
		`SELECT `+columnColumns+` FROM kanban_columns WHERE id = ? AND workspace_id = ?`, id, workspaceID))
}

// UpdateColumn changes a column's title and color
func (s *Store) UpdateColumn(ctx context.Context, col model.Column) (model.Column, error) {
	col.Title = strings.TrimSpace(col.Title)
	if col.Title == "" {
		return model.Column{}, fmt.Errorf("%w: column title required", ErrInvalidInput)
	}
	if col.Color == "" {
		col.Color = model.DefaultColumnColor
	}

	c := s.conn()
	err := mustAffect(c.exec(ctx,
		`UPDATE kanban_columns SET title = ?, color = ? WHERE id = ? AND workspace_id = ?`,
		col.Title, col.Color, col.ID, col.WorkspaceID,
	))
	if err != nil {
		return model.Column{}, err
	}
	return s.GetColumn(ctx, col.WorkspaceID, col.ID)
}

// DeleteColumn removes a column and moves its tasks to the end of the
// fallback column, keeping their order. It returns the column that received
// them.
func (s *Store) DeleteColumn(ctx context.Context, workspaceID, id string) (model.Column, error) {
	var target model.Column
	err := s.withTx(ctx, func(c conn) error {
		columns, err := listColumns(ctx, c, workspaceID)
		if err != nil {
			return err
		}
		found := false
		for _, col := range columns {
			if col.ID == id {
				found = true
				break
			}
		}
		if !found {
			return ErrNotFound
		}

		target, err = board.FallbackColumn(columns, id)
		if err != nil {
			return err
		}

		tasks, err := listTasks(ctx, c, workspaceID)
		if err != nil {
			return err
		}

		next := board.NextPosition(tasks, target.ID)
		for _, t := range board.ColumnTasks(tasks, id) {
			_, err := c.exec(ctx,
				`UPDATE tasks SET status = ?, position = ?, updated_at = ? WHERE id = ?`,
				target.ID, next, formatTime(c.now), t.ID,
			)
			if err != nil {
				return err
			}
			next++
		}

		return mustAffect(c.exec(ctx, `DELETE FROM kanban_columns WHERE id = ? AND workspace_id = ?`, id, workspaceID))
	})
	if err != nil {
		return model.Column{}, err
	}
	return target, nil
}
