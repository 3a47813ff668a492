package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/existflow/taskboard/internal/model"
)

func TestGenerateCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode: %v", err)
		}
		if len(code) != CodeLength {
			t.Fatalf("expected %d digits, got %q", CodeLength, code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("non-digit in code %q", code)
			}
		}
		seen[code] = true
	}
	if len(seen) < 2 {
		t.Error("codes should vary")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret")
	now := time.Now()
	session := model.Session{ID: "s1", UserID: "u1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}

	token, err := tm.Issue(session, "jane@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := tm.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.ID != "s1" || claims.Subject != "u1" || claims.Email != "jane@example.com" {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestTokenRejected(t *testing.T) {
	tm := NewTokenManager("secret")
	now := time.Now()

	expired, _ := tm.Issue(model.Session{ID: "s1", UserID: "u1", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}, "")
	if _, err := tm.Parse(expired); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token: expected ErrInvalidToken, got %v", err)
	}

	other, _ := NewTokenManager("other").Issue(model.Session{ID: "s1", UserID: "u1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}, "")
	if _, err := tm.Parse(other); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign token: expected ErrInvalidToken, got %v", err)
	}

	if _, err := tm.Parse("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage: expected ErrInvalidToken, got %v", err)
	}
}
