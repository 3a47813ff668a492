package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFileMissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if !cfg.ConfirmDelete {
		t.Error("confirm_delete should default to true")
	}
	if cfg.Server.DatabaseDriver == "" {
		t.Error("expected a default database driver")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskboard.yaml")
	data := []byte(`
confirm_delete: false
log_level: DEBUG
server:
  port: "9090"
  database_driver: postgres
  database_url: postgres://localhost/taskboard
  jwt_secret: s3cret
  ai:
    model: claude-test
`)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.ConfirmDelete {
		t.Error("expected confirm_delete false")
	}
	if cfg.LogLevel != "DEBUG" {
		t.Errorf("expected DEBUG, got %s", cfg.LogLevel)
	}
	if cfg.Server.Port != "9090" || cfg.Server.DatabaseDriver != "postgres" {
		t.Errorf("server section not applied: %+v", cfg.Server)
	}
	if cfg.Server.AI.Model != "claude-test" {
		t.Errorf("expected ai model, got %q", cfg.Server.AI.Model)
	}
	if err := cfg.Server.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadFileInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestSaveFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.ConfirmDelete = false
	cfg.LogLevel = "WARN"

	if err := cfg.SaveFile(path); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if loaded.ConfirmDelete || loaded.LogLevel != "WARN" {
		t.Errorf("saved values not loaded back: %+v", loaded)
	}
}

func TestValidate(t *testing.T) {
	s := ServerConfig{DatabaseDriver: "mysql", DatabaseURL: "x"}
	if err := s.Validate(); err == nil {
		t.Error("expected unsupported driver error")
	}

	s = ServerConfig{DatabaseDriver: "sqlite", DatabaseURL: "x"}
	if err := s.Validate(); err == nil {
		t.Error("expected missing secret error outside dev mode")
	}

	s.DevMode = true
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if s.JWTSecret == "" || s.RateLimit <= 0 {
		t.Errorf("dev defaults not applied: %+v", s)
	}
	if s.AIEnabled() {
		t.Error("AI should be disabled without a key")
	}
}
