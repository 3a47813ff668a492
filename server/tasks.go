package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/existflow/taskboard/internal/board"
	"github.com/existflow/taskboard/internal/model"
	"github.com/existflow/taskboard/internal/realtime"
)

type taskRequest struct {
	Title       string     `json:"title" validate:"max=200"`
	Description string     `json:"description" validate:"max=10000"`
	Status      string     `json:"status"`
	ProjectID   string     `json:"project_id"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"due_date"`
	NoDueDate   bool       `json:"no_due_date"`
	SubTasks    []string   `json:"sub_tasks" validate:"dive,required,max=200"`
}

type taskPatch struct {
	Title        *string    `json:"title" validate:"omitempty,max=200"`
	Description  *string    `json:"description" validate:"omitempty,max=10000"`
	Status       *string    `json:"status"`
	ProjectID    *string    `json:"project_id"`
	Priority     *string    `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate      *time.Time `json:"due_date"`
	ClearDueDate bool       `json:"clear_due_date"`
}

type subTaskRequest struct {
	Text     string     `json:"text" validate:"required,max=200"`
	Priority string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate  *time.Time `json:"due_date"`
}

type subTaskPatch struct {
	Text      *string    `json:"text" validate:"omitempty,min=1,max=200"`
	Completed *bool      `json:"completed"`
	Priority  *string    `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate   *time.Time `json:"due_date"`
}

// handleListTasks serves the list view: filtered, searched, newest first
func (s *Server) handleListTasks(c echo.Context) error {
	tasks, err := s.store.ListTasks(c.Request().Context(), workspace(c).ID)
	if err != nil {
		return s.fail(c, err)
	}

	out := board.Apply(tasks, board.Filter{
		Kind:  board.ParseFilterKind(c.QueryParam("filter")),
		Value: c.QueryParam("value"),
		Query: c.QueryParam("q"),
	})
	board.NewestFirst(out)
	return c.JSON(http.StatusOK, out)
}

// handleCreateTask adds a task. Unset fields take the board defaults and the
// user's preferred priority.
func (s *Server) handleCreateTask(c echo.Context) error {
	var req taskRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	user, err := s.store.GetUser(ctx, userID(c))
	if err != nil {
		return s.fail(c, err)
	}

	task := model.NewTask(uuid.NewString(), workspace(c).ID, req.Title, time.Now().UTC())
	task.Description = req.Description
	task.Status = req.Status
	task.ProjectID = req.ProjectID
	task.Priority = user.Settings.DefaultPriority
	if req.Priority != "" {
		task.Priority = model.Priority(req.Priority)
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.NoDueDate {
		task.DueDate = nil
	}
	for _, text := range req.SubTasks {
		task.SubTasks = append(task.SubTasks, model.SubTask{Text: text, Priority: model.PriorityMedium})
	}

	created, err := s.store.CreateTask(ctx, task)
	if err != nil {
		return s.fail(c, err)
	}
	s.publish(c, realtime.TaskCreated, created.ID, created)
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) handleGetTask(c echo.Context) error {
	task, err := s.store.GetTask(c.Request().Context(), workspace(c).ID, c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, task)
}

func (s *Server) handleUpdateTask(c echo.Context) error {
	var req taskPatch
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	task, err := s.store.GetTask(ctx, workspace(c).ID, c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != nil {
		task.Status = *req.Status
	}
	if req.ProjectID != nil {
		task.ProjectID = *req.ProjectID
	}
	if req.Priority != nil {
		task.Priority = model.Priority(*req.Priority)
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.ClearDueDate {
		task.DueDate = nil
	}

	updated, err := s.store.UpdateTask(ctx, task)
	if err != nil {
		return s.fail(c, err)
	}
	s.publish(c, realtime.TaskUpdated, updated.ID, updated)
	return c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteTask(c echo.Context) error {
	id := c.Param("id")
	if err := s.store.DeleteTask(c.Request().Context(), workspace(c).ID, id); err != nil {
		return s.fail(c, err)
	}
	s.publish(c, realtime.TaskDeleted, id, nil)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleAddSubTask(c echo.Context) error {
	var req subTaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	taskID := c.Param("id")
	st, err := s.store.AddSubTask(c.Request().Context(), workspace(c).ID, taskID, model.SubTask{
		Text:     req.Text,
		Priority: model.Priority(req.Priority),
		DueDate:  req.DueDate,
	})
	if err != nil {
		return s.fail(c, err)
	}
	s.publish(c, realtime.TaskUpdated, taskID, nil)
	return c.JSON(http.StatusCreated, st)
}

func (s *Server) handleUpdateSubTask(c echo.Context) error {
	var req subTaskPatch
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	wsID, taskID := workspace(c).ID, c.Param("id")

	st, err := s.store.GetSubTask(ctx, wsID, taskID, c.Param("sid"))
	if err != nil {
		return s.fail(c, err)
	}
	if req.Text != nil {
		st.Text = *req.Text
	}
	if req.Completed != nil {
		st.Completed = *req.Completed
	}
	if req.Priority != nil {
		st.Priority = model.Priority(*req.Priority)
	}
	if req.DueDate != nil {
		st.DueDate = req.DueDate
	}

	updated, err := s.store.UpdateSubTask(ctx, wsID, st)
	if err != nil {
		return s.fail(c, err)
	}
	s.publish(c, realtime.TaskUpdated, taskID, nil)
	return c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteSubTask(c echo.Context) error {
	taskID := c.Param("id")
	if err := s.store.DeleteSubTask(c.Request().Context(), workspace(c).ID, taskID, c.Param("sid")); err != nil {
		return s.fail(c, err)
	}
	s.publish(c, realtime.TaskUpdated, taskID, nil)
	return c.NoContent(http.StatusNoContent)
}
