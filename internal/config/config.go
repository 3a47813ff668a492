package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds user preferences for the CLI and the server settings
type Config struct {
	ConfirmDelete bool `yaml:"confirm_delete" json:"confirm_delete"` // Require confirmation for delete

	// Logging configuration
	LogLevel   string `yaml:"log_level" json:"log_level"`     // Log level: DEBUG, INFO, WARN, ERROR
	LogFile    string `yaml:"log_file" json:"log_file"`       // Path to log file
	LogConsole bool   `yaml:"log_console" json:"log_console"` // Enable console logging

	Server ServerConfig `yaml:"server" json:"server"`
}

// ServerConfig configures taskboard-server
type ServerConfig struct {
	Port           string  `yaml:"port" json:"port"`
	DatabaseDriver string  `yaml:"database_driver" json:"database_driver"` // sqlite or postgres
	DatabaseURL    string  `yaml:"database_url" json:"database_url"`
	JWTSecret      string  `yaml:"jwt_secret" json:"-"`
	DevMode        bool    `yaml:"dev_mode" json:"dev_mode"`     // Echo magic codes in responses
	RateLimit      float64 `yaml:"rate_limit" json:"rate_limit"` // Auth requests per second per client

	SMTP SMTPConfig `yaml:"smtp" json:"smtp"`
	AI   AIConfig   `yaml:"ai" json:"ai"`
}

// SMTPConfig configures magic code delivery. An empty host logs codes instead.
type SMTPConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     string `yaml:"port" json:"port"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
	From     string `yaml:"from" json:"from"`
}

// AIConfig configures the task assistant. An empty key disables it.
type AIConfig struct {
	APIKey string `yaml:"api_key" json:"-"`
	Model  string `yaml:"model" json:"model"`
}

const devJWTSecret = "taskboard-dev-secret"

// Dir returns ~/.taskboard
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".taskboard"), nil
}

// DefaultConfig returns default settings
func DefaultConfig() *Config {
	logPath := ""
	if dir, err := Dir(); err == nil {
		logPath = filepath.Join(dir, "logs", "taskboard.log")
	}

	return &Config{
		ConfirmDelete: true,
		LogLevel:      getEnv("TASKBOARD_LOG_LEVEL", "INFO"),
		LogFile:       getEnv("TASKBOARD_LOG_FILE", logPath),
		LogConsole:    getEnv("TASKBOARD_LOG_CONSOLE", "false") == "true",
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			DatabaseDriver: getEnv("DATABASE_DRIVER", "sqlite"),
			DatabaseURL:    getEnv("DATABASE_URL", "taskboard.db"),
			JWTSecret:      getEnv("JWT_SECRET", ""),
			DevMode:        getEnv("TASKBOARD_DEV", "false") == "true",
			RateLimit:      getEnvFloat("TASKBOARD_RATE_LIMIT", 5),
			SMTP: SMTPConfig{
				Host:     getEnv("SMTP_HOST", ""),
				Port:     getEnv("SMTP_PORT", "587"),
				Username: getEnv("SMTP_USERNAME", ""),
				Password: getEnv("SMTP_PASSWORD", ""),
				From:     getEnv("SMTP_FROM", ""),
			},
			AI: AIConfig{
				APIKey: getEnv("ANTHROPIC_API_KEY", ""),
				Model:  getEnv("TASKBOARD_AI_MODEL", ""),
			},
		},
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// Path returns the CLI config location, ~/.taskboard/config.yaml
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads config from ~/.taskboard/config.yaml
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads a YAML config on top of the defaults. A missing file is not
// an error.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Save saves config to ~/.taskboard/config.yaml
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config as YAML
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate checks the server section and fills the dev-mode secret
func (s *ServerConfig) Validate() error {
	switch s.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", s.DatabaseDriver)
	}
	if s.DatabaseURL == "" {
		return errors.New("database_url is required")
	}
	if s.JWTSecret == "" {
		if !s.DevMode {
			return errors.New("jwt_secret is required outside dev mode")
		}
		s.JWTSecret = devJWTSecret
	}
	if s.RateLimit <= 0 {
		s.RateLimit = 5
	}
	return nil
}

// AIEnabled reports whether an assistant key is configured
func (s *ServerConfig) AIEnabled() bool {
	return s.AI.APIKey != ""
}
