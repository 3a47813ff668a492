package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/existflow/taskboard/internal/model"
)

const (
	// MaxCodeAttempts is how many wrong guesses burn a magic code
	MaxCodeAttempts = 5
	// MagicCodeTTL is how long an emailed code stays valid
	MagicCodeTTL = 15 * time.Minute
	// SessionTTL is how long a login lasts
	SessionTTL = 30 * 24 * time.Hour
)

const userColumns = `id, email, display_name, theme, default_priority, enable_ai_summaries, created_at`

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	var theme, priority, created string
	var ai int
	if err := row.Scan(&u.ID, &u.Email, &u.Settings.DisplayName, &theme, &priority, &ai, &created); err != nil {
		return model.User{}, notFound(err)
	}
	u.Settings.Theme = model.Theme(theme)
	u.Settings.DefaultPriority = model.NormalizePriority(priority)
	u.Settings.EnableAISummaries = ai != 0
	u.CreatedAt = parseTime(created)
	return u, nil
}

// GetUser returns a user by id
func (s *Store) GetUser(ctx context.Context, id string) (model.User, error) {
	c := s.conn()
	return scanUser(c.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// GetUserByEmail returns a user by normalized email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	c := s.conn()
	return scanUser(c.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, model.NormalizeEmail(email)))
}

// UpsertUserByEmail returns the user with email, creating it on first sign-in
func (s *Store) UpsertUserByEmail(ctx context.Context, email string) (model.User, error) {
	var user model.User
	err := s.withTx(ctx, func(c conn) error {
		var err error
		user, err = upsertUser(ctx, c, email)
		return err
	})
	return user, err
}

func upsertUser(ctx context.Context, c conn, email string) (model.User, error) {
	email = model.NormalizeEmail(email)
	if !model.ValidEmail(email) {
		return model.User{}, ErrInvalidEmail
	}

	settings := model.DefaultSettings()
	_, err := c.exec(ctx, `
		INSERT INTO users (id, email, display_name, theme, default_priority, enable_ai_summaries, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (email) DO NOTHING`,
		uuid.NewString(), email, settings.DisplayName, string(settings.Theme),
		string(settings.DefaultPriority), boolInt(settings.EnableAISummaries), formatTime(c.now),
	)
	if err != nil {
		return model.User{}, fmt.Errorf("insert user: %w", err)
	}

	return scanUser(c.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

// UpdateSettings replaces the user's preferences
func (s *Store) UpdateSettings(ctx context.Context, userID string, settings model.Settings) (model.User, error) {
	switch settings.Theme {
	case model.ThemeLight, model.ThemeDark, model.ThemeSystem:
	default:
		settings.Theme = model.ThemeSystem
	}
	settings.DefaultPriority = model.NormalizePriority(string(settings.DefaultPriority))

	c := s.conn()
	err := mustAffect(c.exec(ctx, `
		UPDATE users SET display_name = ?, theme = ?, default_priority = ?, enable_ai_summaries = ?
		WHERE id = ?`,
		settings.DisplayName, string(settings.Theme), string(settings.DefaultPriority),
		boolInt(settings.EnableAISummaries), userID,
	))
	if err != nil {
		return model.User{}, err
	}
	return s.GetUser(ctx, userID)
}

// CreateSession records a login for userID
func (s *Store) CreateSession(ctx context.Context, userID string) (model.Session, error) {
	c := s.conn()
	session := model.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: c.now.Add(SessionTTL),
		CreatedAt: c.now,
	}
	_, err := c.exec(ctx, `
		INSERT INTO sessions (id, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)`,
		session.ID, session.UserID, formatTime(session.ExpiresAt), formatTime(session.CreatedAt),
	)
	if err != nil {
		return model.Session{}, fmt.Errorf("insert session: %w", err)
	}
	return session, nil
}

// GetSession returns an unexpired session
func (s *Store) GetSession(ctx context.Context, id string) (model.Session, error) {
	c := s.conn()
	var session model.Session
	var expires, created string
	err := c.queryRow(ctx, `SELECT id, user_id, expires_at, created_at FROM sessions WHERE id = ?`, id).
		Scan(&session.ID, &session.UserID, &expires, &created)
	if err != nil {
		return model.Session{}, notFound(err)
	}
	session.ExpiresAt = parseTime(expires)
	session.CreatedAt = parseTime(created)
	if session.IsExpired(c.now) {
		return model.Session{}, ErrNotFound
	}
	return session, nil
}

// DeleteSession ends a login
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	c := s.conn()
	return mustAffect(c.exec(ctx, `DELETE FROM sessions WHERE id = ?`, id))
}

// CreateMagicCode stores a bcrypt hash of code for email. Earlier codes for
// the same email stop working.
func (s *Store) CreateMagicCode(ctx context.Context, email, code string) (model.MagicCode, error) {
	email = model.NormalizeEmail(email)
	if !model.ValidEmail(email) {
		return model.MagicCode{}, ErrInvalidEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.codeCost)
	if err != nil {
		return model.MagicCode{}, fmt.Errorf("hash code: %w", err)
	}

	var mc model.MagicCode
	err = s.withTx(ctx, func(c conn) error {
		if _, err := c.exec(ctx, `UPDATE magic_codes SET used = 1 WHERE email = ? AND used = 0`, email); err != nil {
			return err
		}
		mc = model.MagicCode{
			ID:        uuid.NewString(),
			Email:     email,
			CodeHash:  string(hash),
			ExpiresAt: c.now.Add(MagicCodeTTL),
			CreatedAt: c.now,
		}
		_, err := c.exec(ctx, `
			INSERT INTO magic_codes (id, email, code_hash, attempts, used, expires_at, created_at)
			VALUES (?, ?, ?, 0, 0, ?, ?)`,
			mc.ID, mc.Email, mc.CodeHash, formatTime(mc.ExpiresAt), formatTime(mc.CreatedAt),
		)
		return err
	})
	if err != nil {
		return model.MagicCode{}, fmt.Errorf("insert magic code: %w", err)
	}
	return mc, nil
}

// ConsumeMagicCode checks code against the latest code sent to email. A
// match burns the code and returns the user, creating it if needed. A miss
// counts against the attempt limit.
func (s *Store) ConsumeMagicCode(ctx context.Context, email, code string) (model.User, error) {
	email = model.NormalizeEmail(email)

	var user model.User
	var verifyErr error
	err := s.withTx(ctx, func(c conn) error {
		var mc model.MagicCode
		var expires string
		err := c.queryRow(ctx, `
			SELECT id, code_hash, attempts, expires_at FROM magic_codes
			WHERE email = ? AND used = 0
			ORDER BY created_at DESC LIMIT 1`, email).
			Scan(&mc.ID, &mc.CodeHash, &mc.Attempts, &expires)
		if errors.Is(err, sql.ErrNoRows) {
			verifyErr = ErrInvalidCode
			return nil
		}
		if err != nil {
			return err
		}
		mc.ExpiresAt = parseTime(expires)

		if mc.IsExpired(c.now) {
			verifyErr = ErrCodeExpired
			return nil
		}
		if mc.Attempts >= MaxCodeAttempts {
			verifyErr = ErrTooManyAttempts
			return nil
		}

		if bcrypt.CompareHashAndPassword([]byte(mc.CodeHash), []byte(code)) != nil {
			if _, err := c.exec(ctx, `UPDATE magic_codes SET attempts = attempts + 1 WHERE id = ?`, mc.ID); err != nil {
				return err
			}
			verifyErr = ErrInvalidCode
			if mc.Attempts+1 >= MaxCodeAttempts {
				verifyErr = ErrTooManyAttempts
			}
			return nil
		}

		if _, err := c.exec(ctx, `UPDATE magic_codes SET used = 1 WHERE id = ?`, mc.ID); err != nil {
			return err
		}
		user, err = upsertUser(ctx, c, email)
		return err
	})
	if err != nil {
		return model.User{}, err
	}
	if verifyErr != nil {
		return model.User{}, verifyErr
	}
	return user, nil
}
