package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/existflow/taskboard/internal/logger"
	"github.com/existflow/taskboard/internal/model"
	"github.com/existflow/taskboard/internal/realtime"
	"github.com/existflow/taskboard/internal/store"
)

type workspaceRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Icon  string `json:"icon" validate:"max=16"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

type workspacePatch struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=100"`
	Icon  *string `json:"icon" validate:"omitempty,max=16"`
	Color *string `json:"color" validate:"omitempty,hexcolor"`
}

// workspaceView adds the caller's role to a workspace
type workspaceView struct {
	model.Workspace
	Role string `json:"role"`
}

func (s *Server) publish(c echo.Context, typ realtime.EventType, entityID string, data any) {
	s.hub.Publish(realtime.Event{
		Type:        typ,
		WorkspaceID: workspace(c).ID,
		EntityID:    entityID,
		Actor:       userID(c),
		Data:        data,
	})
}

func (s *Server) handleListWorkspaces(c echo.Context) error {
	workspaces, err := s.store.ListWorkspaces(c.Request().Context(), userID(c))
	if err != nil {
		return s.fail(c, err)
	}

	views := make([]workspaceView, 0, len(workspaces))
	for _, ws := range workspaces {
		role := store.RoleMember
		if ws.OwnerID == userID(c) {
			role = store.RoleOwner
		}
		views = append(views, workspaceView{Workspace: ws, Role: string(role)})
	}
	return c.JSON(http.StatusOK, views)
}

func (s *Server) handleCreateWorkspace(c echo.Context) error {
	var req workspaceRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ws, err := s.store.CreateWorkspace(c.Request().Context(), userID(c), model.Workspace{
		Name:  req.Name,
		Icon:  req.Icon,
		Color: req.Color,
	})
	if err != nil {
		return s.fail(c, err)
	}

	logger.Info("Workspace created", logger.F("workspace", ws.ID), logger.F("user", userID(c)))
	return c.JSON(http.StatusCreated, workspaceView{Workspace: ws, Role: string(store.RoleOwner)})
}

func (s *Server) handleGetWorkspace(c echo.Context) error {
	role, _ := c.Get(ctxRole).(store.Role)
	return c.JSON(http.StatusOK, workspaceView{Workspace: workspace(c), Role: string(role)})
}

func (s *Server) handleUpdateWorkspace(c echo.Context) error {
	var req workspacePatch
	if err := bind(c, &req); err != nil {
		return err
	}

	ws := workspace(c)
	if req.Name != nil {
		ws.Name = *req.Name
	}
	if req.Icon != nil {
		ws.Icon = *req.Icon
	}
	if req.Color != nil {
		ws.Color = *req.Color
	}

	updated, err := s.store.UpdateWorkspace(c.Request().Context(), ws)
	if err != nil {
		return s.fail(c, err)
	}
	s.publish(c, realtime.WorkspaceUpdated, updated.ID, updated)
	return c.JSON(http.StatusOK, workspaceView{Workspace: updated, Role: string(store.RoleOwner)})
}

func (s *Server) handleDeleteWorkspace(c echo.Context) error {
	ws := workspace(c)
	if err := s.store.DeleteWorkspace(c.Request().Context(), ws.ID); err != nil {
		return s.fail(c, err)
	}
	logger.Info("Workspace deleted", logger.F("workspace", ws.ID), logger.F("user", userID(c)))
	s.publish(c, realtime.WorkspaceDeleted, ws.ID, nil)
	s.hub.Disconnect(ws.ID, "")
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleResetWorkspace(c echo.Context) error {
	ws := workspace(c)
	if err := s.store.ResetWorkspace(c.Request().Context(), ws.ID); err != nil {
		return s.fail(c, err)
	}
	logger.Info("Workspace reset", logger.F("workspace", ws.ID), logger.F("user", userID(c)))
	s.publish(c, realtime.WorkspaceReset, ws.ID, nil)
	return c.JSON(http.StatusOK, map[string]string{"message": "workspace reset"})
}
