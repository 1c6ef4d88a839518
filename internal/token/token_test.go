package token

import (
	"testing"
	"time"

	"github.com/pavelanni/proctor/internal/model"
)

var testUser = &model.User{
	ID:    42,
	Email: "student@example.com",
	Role:  model.RoleStudent,
}

func TestIssueAndVerify(t *testing.T) {
	iss := NewIssuer([]byte("test-secret"), time.Hour)

	tok, err := iss.Issue(testUser)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := iss.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Email != "student@example.com" {
		t.Errorf("expected email student@example.com, got %q", claims.Email)
	}
	if claims.Role != model.RoleStudent {
		t.Errorf("expected role student, got %q", claims.Role)
	}
	id, err := claims.UserID()
	if err != nil {
		t.Fatalf("UserID: %v", err)
	}
	if id != 42 {
		t.Errorf("expected user ID 42, got %d", id)
	}
}

func TestVerifyExpired(t *testing.T) {
	iss := NewIssuer([]byte("test-secret"), -time.Minute)

	tok, err := iss.Issue(testUser)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := iss.Verify(tok); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	iss := NewIssuer([]byte("secret-a"), time.Hour)
	other := NewIssuer([]byte("secret-b"), time.Hour)

	tok, err := iss.Issue(testUser)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := other.Verify(tok); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	iss := NewIssuer([]byte("test-secret"), time.Hour)
	if _, err := iss.Verify("not.a.token"); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}
