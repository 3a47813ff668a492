package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/existflow/taskboard/internal/assist"
	"github.com/existflow/taskboard/internal/logger"
	"github.com/existflow/taskboard/internal/realtime"
)

// handleRefineTask asks the assistant to rewrite a task from its title. The
// suggested sub-tasks replace the existing ones.
func (s *Server) handleRefineTask(c echo.Context) error {
	if s.assistant == nil {
		return s.fail(c, assist.ErrDisabled)
	}
	ctx := c.Request().Context()
	wsID := workspace(c).ID

	task, err := s.store.GetTask(ctx, wsID, c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}

	r, err := s.assistant.Refine(ctx, task.Title)
	if err != nil {
		logger.Warn("refine failed", logger.F("task", task.ID), logger.F("error", err.Error()))
		return s.fail(c, err)
	}

	updated, err := s.store.ApplyRefinement(ctx, wsID, task.ID, r.Description, r.Priority, r.SubTasks)
	if err != nil {
		return s.fail(c, err)
	}
	s.publish(c, realtime.TaskUpdated, updated.ID, updated)
	return c.JSON(http.StatusOK, updated)
}

// handleSummarizeTask stores a one-sentence summary of a task
func (s *Server) handleSummarizeTask(c echo.Context) error {
	if s.assistant == nil {
		return s.fail(c, assist.ErrDisabled)
	}
	ctx := c.Request().Context()
	wsID := workspace(c).ID

	user, err := s.store.GetUser(ctx, userID(c))
	if err != nil {
		return s.fail(c, err)
	}
	if !user.Settings.EnableAISummaries {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "AI summaries are turned off in your settings"})
	}

	task, err := s.store.GetTask(ctx, wsID, c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}

	summary, err := s.assistant.Summarize(ctx, task.Title, task.Description)
	if err != nil {
		logger.Warn("summary failed", logger.F("task", task.ID), logger.F("error", err.Error()))
		return s.fail(c, err)
	}

	updated, err := s.store.SetSummary(ctx, wsID, task.ID, summary)
	if err != nil {
		return s.fail(c, err)
	}
	s.publish(c, realtime.TaskUpdated, updated.ID, updated)
	return c.JSON(http.StatusOK, updated)
}
