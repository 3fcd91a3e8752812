package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestIssueAndVerify(t *testing.T) {
	mgr, err := NewManager("test-secret", time.Hour, "lodestar")
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	userID := uuid.New()
	tok, expiresAt, err := mgr.Issue(userID)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if tok == "" {
		t.Fatal("Issue() returned empty token")
	}
	if remaining := time.Until(expiresAt); remaining < 59*time.Minute || remaining > time.Hour {
		t.Errorf("expiry not ~1h out, got %v remaining", remaining)
	}

	got, err := mgr.Verify(tok)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if got != userID {
		t.Errorf("Verify() = %v, want %v", got, userID)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	mgr, err := NewManager("test-secret", time.Nanosecond, "lodestar")
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	tok, _, err := mgr.Issue(uuid.New())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	if _, err := mgr.Verify(tok); err != ErrInvalidToken {
		t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer, _ := NewManager("secret-a", time.Hour, "lodestar")
	verifier, _ := NewManager("secret-b", time.Hour, "lodestar")

	tok, _, err := issuer.Issue(uuid.New())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := verifier.Verify(tok); err != ErrInvalidToken {
		t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	mgr, _ := NewManager("test-secret", time.Hour, "lodestar")

	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := mgr.Verify(tok); err != ErrInvalidToken {
			t.Errorf("Verify(%q) error = %v, want ErrInvalidToken", tok, err)
		}
	}
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	issuer, _ := NewManager("test-secret", time.Hour, "someone-else")
	verifier, _ := NewManager("test-secret", time.Hour, "lodestar")

	tok, _, err := issuer.Issue(uuid.New())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := verifier.Verify(tok); err != ErrInvalidToken {
		t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
	}
}

func TestNewManagerValidation(t *testing.T) {
	if _, err := NewManager("", time.Hour, "lodestar"); err == nil {
		t.Error("NewManager with empty secret should fail")
	}
	if _, err := NewManager("secret", 0, "lodestar"); err == nil {
		t.Error("NewManager with zero TTL should fail")
	}
}
