package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/existflow/taskboard/internal/assist"
	"github.com/existflow/taskboard/internal/config"
	"github.com/existflow/taskboard/internal/logger"
	"github.com/existflow/taskboard/internal/mail"
	"github.com/existflow/taskboard/internal/store"
	"github.com/existflow/taskboard/server"
)

func main() {
	if err := run(); err != nil {
		logger.Error("Server failed", logger.F("error", err))
		logger.Close()
		os.Exit(1)
	}
}

func run() error {
	// A .env file is optional
	_ = godotenv.Load()

	path := os.Getenv("TASKBOARD_CONFIG")
	if path == "" {
		path = "taskboard.yaml"
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:      logger.ParseLevel(cfg.LogLevel),
		FilePath:   os.Getenv("TASKBOARD_LOG_FILE"),
		MaxSize:    10 * 1024 * 1024, // 10MB
		MaxAge:     7,
		MaxBackups: 5,
		Console:    true,
	}); err != nil {
		return err
	}
	defer logger.Close()

	sc := cfg.Server
	if err := sc.Validate(); err != nil {
		return err
	}
	if sc.DevMode {
		logger.Warn("Dev mode is on: sign-in codes are returned in responses")
	}

	st, err := store.Open(sc.DatabaseDriver, sc.DatabaseURL)
	if err != nil {
		return err
	}

	opts := server.Options{
		Store:     st,
		Mailer:    mail.New(sc.SMTP),
		JWTSecret: sc.JWTSecret,
		DevMode:   sc.DevMode,
		RateLimit: sc.RateLimit,
	}
	if sc.AIEnabled() {
		a, err := assist.New(sc.AI.APIKey, sc.AI.Model)
		if err != nil {
			logger.Warn("AI assistant disabled", logger.F("error", err))
		} else {
			opts.Assistant = a
		}
	}

	srv, err := server.New(opts)
	if err != nil {
		_ = st.Close()
		return err
	}
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Error("Error closing server", logger.F("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Taskboard server starting",
			logger.F("port", sc.Port),
			logger.F("driver", sc.DatabaseDriver),
			logger.F("ai", opts.Assistant != nil))
		errCh <- srv.Start(":" + sc.Port)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}
