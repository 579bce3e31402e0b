package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testUser() models.User {
	return models.User{
		ID:    primitive.NewObjectID(),
		Name:  "Test User",
		Email: "test@example.com",
	}
}

func TestIssueValidate_Roundtrip(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)
	u := testUser()

	token, err := issuer.Issue(u)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	id, err := issuer.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if id != u.ID {
		t.Errorf("account id: got %s, want %s", id.Hex(), u.ID.Hex())
	}
}

func TestValidate_Expired(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)
	u := testUser()

	token, err := issuer.Issue(u)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// Move the clock past expiry.
	issuer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = issuer.Validate(token)
	if !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	token, err := NewIssuer("secret-one", time.Hour).Issue(testUser())
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	_, err = NewIssuer("secret-two", time.Hour).Validate(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidate_Garbage(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := issuer.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Validate(%q): expected ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestNewIssuer_DefaultTTL(t *testing.T) {
	issuer := NewIssuer("test-secret", 0)
	if issuer.ttl != DefaultTokenTTL {
		t.Errorf("ttl: got %v, want %v", issuer.ttl, DefaultTokenTTL)
	}
}
