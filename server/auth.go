package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/existflow/taskboard/internal/auth"
	"github.com/existflow/taskboard/internal/logger"
	"github.com/existflow/taskboard/internal/mail"
	"github.com/existflow/taskboard/internal/model"
)

type magicCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type authResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
}

type settingsRequest struct {
	DisplayName       *string `json:"display_name" validate:"omitempty,max=100"`
	Theme             *string `json:"theme" validate:"omitempty,oneof=light dark system"`
	DefaultPriority   *string `json:"default_priority" validate:"omitempty,oneof=low medium high"`
	EnableAISummaries *bool   `json:"enable_ai_summaries"`
}

// handleMagicCode emails a one-time sign-in code
func (s *Server) handleMagicCode(c echo.Context) error {
	var req magicCodeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	email := model.NormalizeEmail(req.Email)

	code, err := auth.GenerateCode()
	if err != nil {
		return s.fail(c, err)
	}
	if _, err := s.store.CreateMagicCode(c.Request().Context(), email, code); err != nil {
		return s.fail(c, err)
	}

	if err := s.mailer.Send(c.Request().Context(), mail.CodeMessage(email, code)); err != nil {
		logger.Error("failed to send sign-in code", logger.F("email", email), logger.F("error", err.Error()))
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "could not send the sign-in code"})
	}

	logger.Info("Sign-in code created", logger.F("email", email))

	resp := map[string]string{"message": "a sign-in code has been sent"}
	if s.devMode {
		resp["code"] = code
	}
	return c.JSON(http.StatusOK, resp)
}

// handleVerify exchanges a sign-in code for a session token
func (s *Server) handleVerify(c echo.Context) error {
	var req verifyRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	user, err := s.store.ConsumeMagicCode(ctx, req.Email, req.Code)
	if err != nil {
		return s.fail(c, err)
	}

	session, err := s.store.CreateSession(ctx, user.ID)
	if err != nil {
		return s.fail(c, err)
	}
	token, err := s.tokens.Issue(session, user.Email)
	if err != nil {
		return s.fail(c, err)
	}

	logger.Info("User signed in", logger.F("email", user.Email))

	return c.JSON(http.StatusOK, authResponse{
		Token:     token,
		ExpiresAt: session.ExpiresAt.Format(time.RFC3339),
		UserID:    user.ID,
		Email:     user.Email,
	})
}

// handleMe returns current user info
func (s *Server) handleMe(c echo.Context) error {
	user, err := s.store.GetUser(c.Request().Context(), userID(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// handleUpdateSettings changes the fields present in the request
func (s *Server) handleUpdateSettings(c echo.Context) error {
	var req settingsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	user, err := s.store.GetUser(ctx, userID(c))
	if err != nil {
		return s.fail(c, err)
	}

	settings := user.Settings
	if req.DisplayName != nil {
		settings.DisplayName = *req.DisplayName
	}
	if req.Theme != nil {
		settings.Theme = model.Theme(*req.Theme)
	}
	if req.DefaultPriority != nil {
		settings.DefaultPriority = model.Priority(*req.DefaultPriority)
	}
	if req.EnableAISummaries != nil {
		settings.EnableAISummaries = *req.EnableAISummaries
	}

	updated, err := s.store.UpdateSettings(ctx, user.ID, settings)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// handleLogout ends the current session
func (s *Server) handleLogout(c echo.Context) error {
	sessionID, _ := c.Get(ctxSessionID).(string)
	if err := s.store.DeleteSession(c.Request().Context(), sessionID); err != nil {
		return s.fail(c, err)
	}
	s.hub.DisconnectSession(sessionID)
	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}
