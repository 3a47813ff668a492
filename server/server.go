package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/existflow/taskboard/internal/assist"
	"github.com/existflow/taskboard/internal/auth"
	"github.com/existflow/taskboard/internal/mail"
	"github.com/existflow/taskboard/internal/realtime"
	"github.com/existflow/taskboard/internal/store"
)

// Options wires the server's dependencies
type Options struct {
	Store     *store.Store
	Mailer    mail.Mailer
	Assistant assist.Assistant // nil disables refine and summary
	Hub       *realtime.Hub
	JWTSecret string
	DevMode   bool    // return sign-in codes in the response
	RateLimit float64 // auth requests per second per IP
}

// Server is the taskboard API server
type Server struct {
	store     *store.Store
	mailer    mail.Mailer
	assistant assist.Assistant
	hub       *realtime.Hub
	tokens    *auth.TokenManager
	devMode   bool
	rateLimit float64
	stopHub   context.CancelFunc
	echo      *echo.Echo
}

// New creates a new server. It starts the event hub; Close stops it.
func New(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("store required")
	}
	if opts.JWTSecret == "" {
		return nil, errors.New("JWT secret required")
	}
	if opts.Mailer == nil {
		opts.Mailer = mail.LogMailer{}
	}
	if opts.Hub == nil {
		opts.Hub = realtime.NewHub()
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5
	}

	ctx, cancel := context.WithCancel(context.Background())
	go opts.Hub.Run(ctx)

	s := &Server{
		store:     opts.Store,
		mailer:    opts.Mailer,
		assistant: opts.Assistant,
		hub:       opts.Hub,
		tokens:    auth.NewTokenManager(opts.JWTSecret),
		devMode:   opts.DevMode,
		rateLimit: opts.RateLimit,
		stopHub:   cancel,
	}

	s.setupEcho()

	return s, nil
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newValidator()
	e.HTTPErrorHandler = errorHandler

	e.Use(requestLogger)
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())

	// Health check
	e.GET("/health", s.handleHealth)

	// API v1
	api := e.Group("/api/v1")

	// Auth endpoints (public, rate limited)
	public := api.Group("/auth")
	public.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(s.rateLimit))))
	public.POST("/magic-code", s.handleMagicCode)
	public.POST("/verify", s.handleVerify)

	// Protected endpoints
	protected := api.Group("")
	protected.Use(s.authMiddleware)
	protected.GET("/me", s.handleMe)
	protected.PUT("/me/settings", s.handleUpdateSettings)
	protected.POST("/logout", s.handleLogout)

	protected.GET("/workspaces", s.handleListWorkspaces)
	protected.POST("/workspaces", s.handleCreateWorkspace)

	protected.GET("/invitations", s.handlePendingInvitations)
	protected.POST("/invitations/:id/accept", s.handleAcceptInvitation)

	ws := protected.Group("/workspaces/:ws")
	ws.Use(s.workspaceAccess)
	ws.GET("", s.handleGetWorkspace)
	ws.GET("/board", s.handleBoard)
	ws.GET("/events", s.handleEvents)

	ws.GET("/projects", s.handleListProjects)
	ws.POST("/projects", s.handleCreateProject)
	ws.PATCH("/projects/:id", s.handleUpdateProject)
	ws.DELETE("/projects/:id", s.handleDeleteProject)

	ws.GET("/columns", s.handleListColumns)
	ws.POST("/columns", s.handleCreateColumn)
	ws.PATCH("/columns/:id", s.handleUpdateColumn)
	ws.DELETE("/columns/:id", s.handleDeleteColumn)

	ws.GET("/tasks", s.handleListTasks)
	ws.POST("/tasks", s.handleCreateTask)
	ws.POST("/tasks/reorder", s.handleReorderTasks)
	ws.GET("/tasks/:id", s.handleGetTask)
	ws.PATCH("/tasks/:id", s.handleUpdateTask)
	ws.DELETE("/tasks/:id", s.handleDeleteTask)
	ws.POST("/tasks/:id/move", s.handleMoveTask)
	ws.POST("/tasks/:id/refine", s.handleRefineTask)
	ws.POST("/tasks/:id/summary", s.handleSummarizeTask)
	ws.POST("/tasks/:id/subtasks", s.handleAddSubTask)
	ws.PATCH("/tasks/:id/subtasks/:sid", s.handleUpdateSubTask)
	ws.DELETE("/tasks/:id/subtasks/:sid", s.handleDeleteSubTask)

	owner := ws.Group("", s.ownerOnly)
	owner.PATCH("", s.handleUpdateWorkspace)
	owner.DELETE("", s.handleDeleteWorkspace)
	owner.POST("/reset", s.handleResetWorkspace)
	owner.GET("/invitations", s.handleListInvitations)
	owner.POST("/invitations", s.handleCreateInvitations)
	owner.DELETE("/invitations/:id", s.handleDeleteInvitation)

	s.echo = e
}

// Close stops the event hub and closes the database connection
func (s *Server) Close() error {
	s.stopHub()
	return s.store.Close()
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start starts the server
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	if err := s.store.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "database unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
