package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/existflow/taskboard/internal/model"
	"github.com/existflow/taskboard/internal/realtime"
)

type projectRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

type projectPatch struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=100"`
	Color *string `json:"color" validate:"omitempty,hexcolor"`
}

func (s *Server) handleListProjects(c echo.Context) error {
	projects, err := s.store.ListProjects(c.Request().Context(), workspace(c).ID)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, projects)
}

func (s *Server) handleCreateProject(c echo.Context) error {
	var req projectRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	p, err := s.store.CreateProject(c.Request().Context(), workspace(c).ID, req.Name, req.Color)
	if err != nil {
		return s.fail(c, err)
	}
	s.publish(c, realtime.ProjectCreated, p.ID, p)
	return c.JSON(http.StatusCreated, p)
}

func (s *Server) handleUpdateProject(c echo.Context) error {
	var req projectPatch
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	p, err := s.store.GetProject(ctx, workspace(c).ID, c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Color != nil {
		p.Color = *req.Color
	}

	updated, err := s.store.UpdateProject(ctx, p)
	if err != nil {
		return s.fail(c, err)
	}
	s.publish(c, realtime.ProjectUpdated, updated.ID, updated)
	return c.JSON(http.StatusOK, updated)
}

// handleDeleteProject removes a project; its tasks lose their project
func (s *Server) handleDeleteProject(c echo.Context) error {
	id := c.Param("id")
	if err := s.store.DeleteProject(c.Request().Context(), workspace(c).ID, id); err != nil {
		return s.fail(c, err)
	}
	s.publish(c, realtime.ProjectDeleted, id, nil)
	return c.NoContent(http.StatusNoContent)
}

type columnRequest struct {
	Title string `json:"title" validate:"required,max=60"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

type columnPatch struct {
	Title *string `json:"title" validate:"omitempty,min=1,max=60"`
	Color *string `json:"color" validate:"omitempty,hexcolor"`
}

func (s *Server) handleListColumns(c echo.Context) error {
	columns, err := s.store.ListColumns(c.Request().Context(), workspace(c).ID)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, columns)
}

func (s *Server) handleCreateColumn(c echo.Context) error {
	var req columnRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	col, err := s.store.CreateColumn(c.Request().Context(), workspace(c).ID, req.Title, req.Color)
	if err != nil {
		return s.fail(c, err)
	}
	s.publish(c, realtime.ColumnCreated, col.ID, col)
	return c.JSON(http.StatusCreated, col)
}

func (s *Server) handleUpdateColumn(c echo.Context) error {
	var req columnPatch
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	col, err := s.store.GetColumn(ctx, workspace(c).ID, c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	if req.Title != nil {
		col.Title = *req.Title
	}
	if req.Color != nil {
		col.Color = *req.Color
	}

	updated, err := s.store.UpdateColumn(ctx, col)
	if err != nil {
		return s.fail(c, err)
	}
	s.publish(c, realtime.ColumnUpdated, updated.ID, updated)
	return c.JSON(http.StatusOK, updated)
}

// handleDeleteColumn removes a column and reports where its tasks went
func (s *Server) handleDeleteColumn(c echo.Context) error {
	id := c.Param("id")
	target, err := s.store.DeleteColumn(c.Request().Context(), workspace(c).ID, id)
	if err != nil {
		return s.fail(c, err)
	}
	s.publish(c, realtime.ColumnDeleted, id, map[string]string{"reassigned_to": target.ID})
	return c.JSON(http.StatusOK, struct {
		ReassignedTo model.Column `json:"reassigned_to"`
	}{target})
}
