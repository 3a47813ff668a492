package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/existflow/taskboard/internal/board"
	"github.com/existflow/taskboard/internal/model"
)

const taskColumns = `id, workspace_id, project_id, title, description, summary, status, priority, position, due_date, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (model.Task, error) {
	var t model.Task
	var project, due sql.NullString
	var priority, created, updated string
	err := row.Scan(&t.ID, &t.WorkspaceID, &project, &t.Title, &t.Description, &t.Summary,
		&t.Status, &priority, &t.Position, &due, &created, &updated)
	if err != nil {
		return model.Task{}, notFound(err)
	}
	t.ProjectID = project.String
	t.Priority = model.NormalizePriority(priority)
	t.DueDate = timePtr(due)
	t.CreatedAt = parseTime(created)
	t.UpdatedAt = parseTime(updated)
	t.SubTasks = []model.SubTask{}
	return t, nil
}

const subTaskColumns = `id, task_id, text, completed, priority, due_date, position`

func scanSubTask(row interface{ Scan(...any) error }) (model.SubTask, error) {
	var st model.SubTask
	var completed int
	var priority string
	var due sql.NullString
	if err := row.Scan(&st.ID, &st.TaskID, &st.Text, &completed, &priority, &due, &st.Position); err != nil {
		return model.SubTask{}, notFound(err)
	}
	st.Completed = completed != 0
	st.Priority = model.NormalizePriority(priority)
	st.DueDate = timePtr(due)
	return st, nil
}

// listTasks loads every task of a workspace with its sub-tasks
func listTasks(ctx context.Context, c conn, workspaceID string) ([]model.Task, error) {
	rows, err := c.query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE workspace_id = ? ORDER BY status, position, created_at, id`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []model.Task{}
	index := map[string]int{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		index[t.ID] = len(tasks)
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	subRows, err := c.query(ctx, `
		SELECT `+subTaskColumns+` FROM subtasks
		WHERE task_id IN (SELECT id FROM tasks WHERE workspace_id = ?)
		ORDER BY position, id`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer subRows.Close()

	for subRows.Next() {
		st, err := scanSubTask(subRows)
		if err != nil {
			return nil, err
		}
		if i, ok := index[st.TaskID]; ok {
			tasks[i].SubTasks = append(tasks[i].SubTasks, st)
		}
	}
	return tasks, subRows.Err()
}

func getTask(ctx context.Context, c conn, workspaceID, id string) (model.Task, error) {
	t, err := scanTask(c.queryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND workspace_id = ?`, id, workspaceID))
	if err != nil {
		return model.Task{}, err
	}

	rows, err := c.query(ctx, `SELECT `+subTaskColumns+` FROM subtasks WHERE task_id = ? ORDER BY position, id`, id)
	if err != nil {
		return model.Task{}, err
	}
	defer rows.Close()
	for rows.Next() {
		st, err := scanSubTask(rows)
		if err != nil {
			return model.Task{}, err
		}
		t.SubTasks = append(t.SubTasks, st)
	}
	return t, rows.Err()
}

// ListTasks returns all tasks of a workspace grouped by column and position
func (s *Store) ListTasks(ctx context.Context, workspaceID string) ([]model.Task, error) {
	return listTasks(ctx, s.conn(), workspaceID)
}

// GetTask returns a task with its sub-tasks
func (s *Store) GetTask(ctx context.Context, workspaceID, id string) (model.Task, error) {
	return getTask(ctx, s.conn(), workspaceID, id)
}

// CreateTask inserts t at the end of its column. An empty status puts the
// task in the first column of the board.
func (s *Store) CreateTask(ctx context.Context, t model.Task) (model.Task, error) {
	err := s.withTx(ctx, func(c conn) error {
		columns, err := listColumns(ctx, c, t.WorkspaceID)
		if err != nil {
			return err
		}
		if len(columns) == 0 {
			return board.ErrColumnNotFound
		}
		if t.Status == "" {
			t.Status = board.SortColumns(columns)[0].ID
		} else if !hasColumn(columns, t.Status) {
			return board.ErrColumnNotFound
		}
		if err := checkProject(ctx, c, t.WorkspaceID, t.ProjectID); err != nil {
			return err
		}

		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		t.Title = strings.TrimSpace(t.Title)
		if t.Title == "" {
			t.Title = model.DefaultTaskTitle
		}
		t.Priority = model.NormalizePriority(string(t.Priority))
		t.CreatedAt, t.UpdatedAt = c.now, c.now

		if err := c.queryRow(ctx,
			`SELECT COALESCE(MAX(position), -1) + 1 FROM tasks WHERE workspace_id = ? AND status = ?`,
			t.WorkspaceID, t.Status).Scan(&t.Position); err != nil {
			return err
		}

		_, err = c.exec(ctx, `
			INSERT INTO tasks (`+taskColumns+`)
			VALUES (`+placeholders(12)+`)`,
			t.ID, t.WorkspaceID, nullString(t.ProjectID), t.Title, t.Description, t.Summary,
			t.Status, string(t.Priority), t.Position, nullTime(t.DueDate), formatTime(c.now), formatTime(c.now),
		)
		if err != nil {
			return fmt.Errorf("insert task: %w", err)
		}

		subs := t.SubTasks
		t.SubTasks = []model.SubTask{}
		for _, st := range subs {
			added, err := insertSubTask(ctx, c, t.ID, st)
			if err != nil {
				return err
			}
			t.SubTasks = append(t.SubTasks, added)
		}
		return nil
	})
	if err != nil {
		return model.Task{}, err
	}
	return t, nil
}

// UpdateTask saves the editable fields of t. Moving it to another column
// through Status appends it there; use MoveTask for a precise drop.
func (s *Store) UpdateTask(ctx context.Context, t model.Task) (model.Task, error) {
	var out model.Task
	err := s.withTx(ctx, func(c conn) error {
		current, err := getTask(ctx, c, t.WorkspaceID, t.ID)
		if err != nil {
			return err
		}
		if err := checkProject(ctx, c, t.WorkspaceID, t.ProjectID); err != nil {
			return err
		}

		t.Title = strings.TrimSpace(t.Title)
		if t.Title == "" {
			t.Title = model.DefaultTaskTitle
		}
		t.Priority = model.NormalizePriority(string(t.Priority))

		position := current.Position
		if t.Status == "" {
			t.Status = current.Status
		}
		if t.Status != current.Status {
			columns, err := listColumns(ctx, c, t.WorkspaceID)
			if err != nil {
				return err
			}
			if !hasColumn(columns, t.Status) {
				return board.ErrColumnNotFound
			}
			if err := c.queryRow(ctx,
				`SELECT COALESCE(MAX(position), -1) + 1 FROM tasks WHERE workspace_id = ? AND status = ?`,
				t.WorkspaceID, t.Status).Scan(&position); err != nil {
				return err
			}
		}

		_, err = c.exec(ctx, `
			UPDATE tasks SET project_id = ?, title = ?, description = ?, status = ?, priority = ?,
				position = ?, due_date = ?, updated_at = ?
			WHERE id = ? AND workspace_id = ?`,
			nullString(t.ProjectID), t.Title, t.Description, t.Status, string(t.Priority),
			position, nullTime(t.DueDate), formatTime(c.now), t.ID, t.WorkspaceID,
		)
		if err != nil {
			return err
		}

		out, err = getTask(ctx, c, t.WorkspaceID, t.ID)
		return err
	})
	return out, err
}

// DeleteTask removes a task and its sub-tasks
func (s *Store) DeleteTask(ctx context.Context, workspaceID, id string) error {
	return s.withTx(ctx, func(c conn) error {
		if _, err := getTask(ctx, c, workspaceID, id); err != nil {
			return err
		}
		if _, err := c.exec(ctx, `DELETE FROM subtasks WHERE task_id = ?`, id); err != nil {
			return err
		}
		return mustAffect(c.exec(ctx, `DELETE FROM tasks WHERE id = ? AND workspace_id = ?`, id, workspaceID))
	})
}

// MoveTask applies a drag-and-drop to the stored board and persists the
// tasks whose status or position changed.
func (s *Store) MoveTask(ctx context.Context, workspaceID string, req board.MoveRequest) (board.Result, error) {
	var res board.Result
	err := s.withTx(ctx, func(c conn) error {
		columns, err := listColumns(ctx, c, workspaceID)
		if err != nil {
			return err
		}
		tasks, err := listTasks(ctx, c, workspaceID)
		if err != nil {
			return err
		}

		res, err = board.Move(tasks, columns, req)
		if err != nil {
			return err
		}

		stamp := formatTime(c.now)
		for i, t := range res.Changed {
			_, err := c.exec(ctx,
				`UPDATE tasks SET status = ?, position = ?, updated_at = ? WHERE id = ?`,
				t.Status, t.Position, stamp, t.ID,
			)
			if err != nil {
				return err
			}
			res.Changed[i].UpdatedAt = c.now
		}
		return nil
	})
	if err != nil {
		return board.Result{}, err
	}
	return res, nil
}

// SetSummary stores the AI generated summary of a task
func (s *Store) SetSummary(ctx context.Context, workspaceID, id, summary string) (model.Task, error) {
	c := s.conn()
	err := mustAffect(c.exec(ctx,
		`UPDATE tasks SET summary = ?, updated_at = ? WHERE id = ? AND workspace_id = ?`,
		summary, formatTime(c.now), id, workspaceID,
	))
	if err != nil {
		return model.Task{}, err
	}
	return s.GetTask(ctx, workspaceID, id)
}

// ApplyRefinement replaces a task's description, priority and sub-tasks
// with an AI suggestion.
func (s *Store) ApplyRefinement(ctx context.Context, workspaceID, id, description string, priority model.Priority, subTasks []string) (model.Task, error) {
	var out model.Task
	err := s.withTx(ctx, func(c conn) error {
		err := mustAffect(c.exec(ctx,
			`UPDATE tasks SET description = ?, priority = ?, updated_at = ? WHERE id = ? AND workspace_id = ?`,
			description, string(model.NormalizePriority(string(priority))), formatTime(c.now), id, workspaceID,
		))
		if err != nil {
			return err
		}
		if err := replaceSubTasks(ctx, c, id, subTasks); err != nil {
			return err
		}
		out, err = getTask(ctx, c, workspaceID, id)
		return err
	})
	return out, err
}

// ReplaceSubTasks swaps a task's checklist for new items, each medium
// priority and due now.
func (s *Store) ReplaceSubTasks(ctx context.Context, workspaceID, taskID string, texts []string) (model.Task, error) {
	var out model.Task
	err := s.withTx(ctx, func(c conn) error {
		if _, err := getTask(ctx, c, workspaceID, taskID); err != nil {
			return err
		}
		if err := replaceSubTasks(ctx, c, taskID, texts); err != nil {
			return err
		}
		var err error
		out, err = getTask(ctx, c, workspaceID, taskID)
		return err
	})
	return out, err
}

func replaceSubTasks(ctx context.Context, c conn, taskID string, texts []string) error {
	if _, err := c.exec(ctx, `DELETE FROM subtasks WHERE task_id = ?`, taskID); err != nil {
		return err
	}
	due := c.now
	for _, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		st := model.SubTask{Text: text, Priority: model.PriorityMedium, DueDate: &due}
		if _, err := insertSubTask(ctx, c, taskID, st); err != nil {
			return err
		}
	}
	return nil
}

func insertSubTask(ctx context.Context, c conn, taskID string, st model.SubTask) (model.SubTask, error) {
	st.Text = strings.TrimSpace(st.Text)
	if st.Text == "" {
		return model.SubTask{}, fmt.Errorf("%w: sub-task text required", ErrInvalidInput)
	}
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	st.TaskID = taskID
	st.Priority = model.NormalizePriority(string(st.Priority))

	if err := c.queryRow(ctx,
		`SELECT COALESCE(MAX(position), -1) + 1 FROM subtasks WHERE task_id = ?`, taskID).Scan(&st.Position); err != nil {
		return model.SubTask{}, err
	}

	_, err := c.exec(ctx, `
		INSERT INTO subtasks (`+subTaskColumns+`)
		VALUES (`+placeholders(7)+`)`,
		st.ID, st.TaskID, st.Text, boolInt(st.Completed), string(st.Priority), nullTime(st.DueDate), st.Position,
	)
	if err != nil {
		return model.SubTask{}, fmt.Errorf("insert sub-task: %w", err)
	}
	return st, nil
}

// AddSubTask appends a checklist item to a task
func (s *Store) AddSubTask(ctx context.Context, workspaceID, taskID string, st model.SubTask) (model.SubTask, error) {
	var out model.SubTask
	err := s.withTx(ctx, func(c conn) error {
		if _, err := getTask(ctx, c, workspaceID, taskID); err != nil {
			return err
		}
		var err error
		out, err = insertSubTask(ctx, c, taskID, st)
		if err != nil {
			return err
		}
		return touchTask(ctx, c, taskID)
	})
	return out, err
}

// UpdateSubTask saves text, completion, priority and due date
func (s *Store) UpdateSubTask(ctx context.Context, workspaceID string, st model.SubTask) (model.SubTask, error) {
	st.Text = strings.TrimSpace(st.Text)
	if st.Text == "" {
		return model.SubTask{}, fmt.Errorf("%w: sub-task text required", ErrInvalidInput)
	}
	st.Priority = model.NormalizePriority(string(st.Priority))

	var out model.SubTask
	err := s.withTx(ctx, func(c conn) error {
		if _, err := getTask(ctx, c, workspaceID, st.TaskID); err != nil {
			return err
		}
		err := mustAffect(c.exec(ctx, `
			UPDATE subtasks SET text = ?, completed = ?, priority = ?, due_date = ?
			WHERE id = ? AND task_id = ?`,
			st.Text, boolInt(st.Completed), string(st.Priority), nullTime(st.DueDate), st.ID, st.TaskID,
		))
		if err != nil {
			return err
		}
		if err := touchTask(ctx, c, st.TaskID); err != nil {
			return err
		}
		out, err = scanSubTask(c.queryRow(ctx, `SELECT `+subTaskColumns+` FROM subtasks WHERE id = ?`, st.ID))
		return err
	})
	return out, err
}

// GetSubTask returns one checklist item of a task
func (s *Store) GetSubTask(ctx context.Context, workspaceID, taskID, id string) (model.SubTask, error) {
	c := s.conn()
	if _, err := getTask(ctx, c, workspaceID, taskID); err != nil {
		return model.SubTask{}, err
	}
	return scanSubTask(c.queryRow(ctx,
		`SELECT `+subTaskColumns+` FROM subtasks WHERE id = ? AND task_id = ?`, id, taskID))
}

// DeleteSubTask removes a checklist item
func (s *Store) DeleteSubTask(ctx context.Context, workspaceID, taskID, id string) error {
	return s.withTx(ctx, func(c conn) error {
		if _, err := getTask(ctx, c, workspaceID, taskID); err != nil {
			return err
		}
		if err := mustAffect(c.exec(ctx, `DELETE FROM subtasks WHERE id = ? AND task_id = ?`, id, taskID)); err != nil {
			return err
		}
		return touchTask(ctx, c, taskID)
	})
}

func touchTask(ctx context.Context, c conn, taskID string) error {
	_, err := c.exec(ctx, `UPDATE tasks SET updated_at = ? WHERE id = ?`, formatTime(c.now), taskID)
	return err
}

func hasColumn(columns []model.Column, id string) bool {
	for _, col := range columns {
		if col.ID == id {
			return true
		}
	}
	return false
}
