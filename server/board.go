package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/existflow/taskboard/internal/board"
	"github.com/existflow/taskboard/internal/model"
	"github.com/existflow/taskboard/internal/realtime"
)

type moveRequest struct {
	OverKind string `json:"over_kind" validate:"required,oneof=task column"`
	OverID   string `json:"over_id" validate:"required"`
}

type reorderRequest struct {
	ActiveID string `json:"active_id" validate:"required"`
	OverID   string `json:"over_id" validate:"required"`
}

// boardResponse is a full snapshot of a workspace
type boardResponse struct {
	Workspace model.Workspace `json:"workspace"`
	Lanes     []board.Lane    `json:"lanes"`
	Projects  []model.Project `json:"projects"`
}

// moveResponse lists the moved task and every task whose order changed
type moveResponse struct {
	Moved   model.Task   `json:"moved"`
	Changed []model.Task `json:"changed"`
}

// handleBoard returns the columns with their ordered tasks
func (s *Server) handleBoard(c echo.Context) error {
	ctx := c.Request().Context()
	ws := workspace(c)

	columns, err := s.store.ListColumns(ctx, ws.ID)
	if err != nil {
		return s.fail(c, err)
	}
	tasks, err := s.store.ListTasks(ctx, ws.ID)
	if err != nil {
		return s.fail(c, err)
	}
	projects, err := s.store.ListProjects(ctx, ws.ID)
	if err != nil {
		return s.fail(c, err)
	}

	lanes := board.Group(columns, tasks)
	if lanes == nil {
		lanes = []board.Lane{}
	}
	return c.JSON(http.StatusOK, boardResponse{Workspace: ws, Lanes: lanes, Projects: projects})
}

// handleMoveTask drops a task onto another task or onto a column
func (s *Server) handleMoveTask(c echo.Context) error {
	var req moveRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	return s.move(c, board.MoveRequest{
		TaskID: c.Param("id"),
		Over:   board.Target{Kind: board.TargetKind(req.OverKind), ID: req.OverID},
	})
}

// handleReorderTasks is the list view drag: the active task takes the place
// of the one it was dropped on.
func (s *Server) handleReorderTasks(c echo.Context) error {
	var req reorderRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	return s.move(c, board.MoveRequest{
		TaskID: req.ActiveID,
		Over:   board.Target{Kind: board.TargetTask, ID: req.OverID},
	})
}

func (s *Server) move(c echo.Context, req board.MoveRequest) error {
	res, err := s.store.MoveTask(c.Request().Context(), workspace(c).ID, req)
	if err != nil {
		return s.fail(c, err)
	}

	changed := res.Changed
	if changed == nil {
		changed = []model.Task{}
	}
	if len(changed) > 0 {
		s.publish(c, realtime.TaskMoved, res.Moved.ID, changed)
	}
	return c.JSON(http.StatusOK, moveResponse{Moved: res.Moved, Changed: changed})
}
