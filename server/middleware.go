package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/existflow/taskboard/internal/assist"
	"github.com/existflow/taskboard/internal/board"
	"github.com/existflow/taskboard/internal/logger"
	"github.com/existflow/taskboard/internal/model"
	"github.com/existflow/taskboard/internal/store"
)

// Context keys set by the middlewares
const (
	ctxUserID    = "user_id"
	ctxSessionID = "session_id"
	ctxWorkspace = "workspace"
	ctxRole      = "role"
)

// requestLogger logs each request with its status and duration. Only the
// path is logged; the query may carry a session token.
func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		req := c.Request()

		err := next(c)
		if err != nil {
			c.Error(err)
		}

		res := c.Response()
		fields := []logger.Field{
			logger.F("method", req.Method),
			logger.F("path", req.URL.Path),
			logger.F("status", res.Status),
			logger.F("size", res.Size),
			logger.F("duration", time.Since(start).String()),
			logger.F("request_id", res.Header().Get(echo.HeaderXRequestID)),
		}
		if res.Status >= http.StatusInternalServerError {
			logger.Error("HTTP Response", fields...)
		} else {
			logger.Info("HTTP Response", fields...)
		}
		return nil
	}
}

// authMiddleware checks the session token. Browsers cannot set headers on
// websocket requests, so a token query parameter is accepted as well.
func (s *Server) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := c.QueryParam("token")
		if auth := c.Request().Header.Get("Authorization"); auth != "" {
			token = strings.TrimPrefix(auth, "Bearer ")
			if token == auth {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid authorization format"})
			}
		}
		if token == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authorization required"})
		}

		claims, err := s.tokens.Parse(token)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		}

		// A logged out session invalidates its token
		session, err := s.store.GetSession(c.Request().Context(), claims.ID)
		if err != nil || session.UserID != claims.Subject {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "session expired"})
		}

		c.Set(ctxUserID, session.UserID)
		c.Set(ctxSessionID, session.ID)
		return next(c)
	}
}

// workspaceAccess loads the :ws workspace and checks membership
func (s *Server) workspaceAccess(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		role, err := s.store.Access(ctx, c.Param("ws"), userID(c))
		if err != nil {
			return s.fail(c, err)
		}
		ws, err := s.store.GetWorkspace(ctx, c.Param("ws"))
		if err != nil {
			return s.fail(c, err)
		}
		c.Set(ctxWorkspace, ws)
		c.Set(ctxRole, role)
		return next(c)
	}
}

// ownerOnly rejects members who do not own the workspace
func (s *Server) ownerOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if role, _ := c.Get(ctxRole).(store.Role); role != store.RoleOwner {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "only the workspace owner can do this"})
		}
		return next(c)
	}
}

func userID(c echo.Context) string {
	id, _ := c.Get(ctxUserID).(string)
	return id
}

func workspace(c echo.Context) model.Workspace {
	ws, _ := c.Get(ctxWorkspace).(model.Workspace)
	return ws
}

// requestValidator plugs go-playground/validator into echo's Validate hook
type requestValidator struct {
	v *validator.Validate
}

func newValidator() *requestValidator {
	return &requestValidator{v: validator.New()}
}

func (rv *requestValidator) Validate(i any) error {
	return rv.v.Struct(i)
}

// bind decodes and validates the request body
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, validationMessage(err))
	}
	return nil
}

// errorHandler renders echo errors in the API's {"error": ...} shape
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code, msg := http.StatusInternalServerError, "internal error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code, msg = he.Code, fmt.Sprint(he.Message)
	} else {
		logger.Error("unhandled error", logger.F("path", c.Request().URL.Path), logger.F("error", err.Error()))
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, map[string]string{"error": msg})
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " required"
	case "email":
		return "invalid email"
	case "oneof":
		return field + " must be one of: " + fe.Param()
	default:
		return "invalid " + field
	}
}

// fail maps domain errors to HTTP responses
func (s *Server) fail(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, board.ErrTaskNotFound),
		errors.Is(err, board.ErrTargetNotFound),
		errors.Is(err, board.ErrColumnNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, store.ErrForbidden):
		status, msg = http.StatusForbidden, err.Error()
	case errors.Is(err, store.ErrInvalidCode), errors.Is(err, store.ErrCodeExpired):
		status, msg = http.StatusUnauthorized, err.Error()
	case errors.Is(err, store.ErrTooManyAttempts):
		status, msg = http.StatusTooManyRequests, err.Error()
	case errors.Is(err, store.ErrAlreadyAccepted), errors.Is(err, board.ErrLastColumn):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, store.ErrInvalidEmail),
		errors.Is(err, store.ErrInvalidProject),
		errors.Is(err, store.ErrInvalidInput),
		errors.Is(err, board.ErrInvalidTarget),
		errors.Is(err, assist.ErrEmptyTitle):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, assist.ErrDisabled):
		status, msg = http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, assist.ErrBadCompletion):
		status, msg = http.StatusBadGateway, "the assistant returned an unusable answer"
	case errors.Is(err, assist.ErrUpstream):
		status, msg = http.StatusBadGateway, assist.ErrUpstream.Error()
	}

	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			logger.F("path", c.Request().URL.Path),
			logger.F("error", err.Error()))
	}
	return c.JSON(status, map[string]string{"error": msg})
}
