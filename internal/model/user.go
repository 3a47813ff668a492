package model

import (
	"strings"
	"time"
)

// Theme is the UI colour scheme preference
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// Settings are per-user preferences
type Settings struct {
	DisplayName       string   `json:"display_name"`
	Theme             Theme    `json:"theme"`
	DefaultPriority   Priority `json:"default_priority"`
	EnableAISummaries bool     `json:"enable_ai_summaries"`
}

// DefaultSettings returns the settings of a freshly created user
func DefaultSettings() Settings {
	return Settings{
		Theme:             ThemeSystem,
		DefaultPriority:   PriorityMedium,
		EnableAISummaries: true,
	}
}

// User is an account identified by email
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Settings  Settings  `json:"settings"`
	CreatedAt time.Time `json:"created_at"`
}

// Session represents an active login session
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// MagicCode is an emailed one-time sign-in code. Only its hash is stored.
type MagicCode struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CodeHash  string    `json:"-"`
	Attempts  int       `json:"attempts"`
	Used      bool      `json:"used"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired returns true if the session has expired
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// IsExpired returns true if the code can no longer be used
func (m *MagicCode) IsExpired(now time.Time) bool {
	return now.After(m.ExpiresAt)
}

// NormalizeEmail lowercases and trims an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail does the same loose check the sign-in form does
func ValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	return strings.Count(email, "@") == 1 && !strings.ContainsAny(email, " \t\n")
}
