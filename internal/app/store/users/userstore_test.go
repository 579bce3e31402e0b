package userstore_test

import (
	"errors"
	"testing"

	userstore "github.com/dalemusser/taskhub/internal/app/store/users"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/dalemusser/taskhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func setupStore(t *testing.T) *userstore.Store {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}
	return store
}

func TestCreate_NormalizesEmail(t *testing.T) {
	store := setupStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		Name:       " Alice ",
		Email:      "  Alice@Example.COM ",
		AuthMethod: models.AuthMethodPassword,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Email != "alice@example.com" {
		t.Errorf("email: got %q, want normalized %q", created.Email, "alice@example.com")
	}
	if created.Name != "Alice" {
		t.Errorf("name: got %q, want trimmed %q", created.Name, "Alice")
	}
	if created.LastLoginAt.IsZero() {
		t.Error("expected last_login_at to default to now")
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	store := setupStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.User{
		Name: "Alice", Email: "alice@example.com", AuthMethod: models.AuthMethodPassword,
	}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	_, err := store.Create(ctx, models.User{
		Name: "Alice Two", Email: "ALICE@example.com", AuthMethod: models.AuthMethodPassword,
	})
	if !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestGetByEmail_Normalizes(t *testing.T) {
	store := setupStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		Name: "Bob", Email: "bob@example.com", AuthMethod: models.AuthMethodPassword,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.GetByEmail(ctx, " BOB@Example.com ")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("id: got %s, want %s", got.ID.Hex(), created.ID.Hex())
	}

	if _, err := store.GetByEmail(ctx, "missing@example.com"); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments for unknown email, got %v", err)
	}
}

func TestLinkGoogle_KeepsPassword(t *testing.T) {
	store := setupStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	hash := "$2a$12$notarealhashbutgoodenough"
	created, err := store.Create(ctx, models.User{
		Name: "Carol", Email: "carol@example.com",
		AuthMethod: models.AuthMethodPassword, PasswordHash: &hash,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	linked, err := store.LinkGoogle(ctx, created.ID, userstore.GoogleLink{
		GoogleID: "google-123",
		Avatar:   "https://example.com/pic.jpg",
	})
	if err != nil {
		t.Fatalf("LinkGoogle failed: %v", err)
	}

	if linked.GoogleID == nil || *linked.GoogleID != "google-123" {
		t.Error("expected google id to be set")
	}
	if !linked.HasPassword() {
		t.Error("linking must not remove the password hash")
	}
	if !linked.EmailVerified {
		t.Error("expected email_verified after provider link")
	}
	if linked.AuthMethod != models.AuthMethodGoogle {
		t.Errorf("auth method: got %q, want %q", linked.AuthMethod, models.AuthMethodGoogle)
	}

	byGoogle, err := store.GetByGoogleID(ctx, "google-123")
	if err != nil {
		t.Fatalf("GetByGoogleID failed: %v", err)
	}
	if byGoogle.ID != created.ID {
		t.Errorf("GetByGoogleID: got %s, want %s", byGoogle.ID.Hex(), created.ID.Hex())
	}
}

func TestGetManyByID(t *testing.T) {
	store := setupStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, err := store.Create(ctx, models.User{Name: "A", Email: "a@example.com", AuthMethod: models.AuthMethodPassword})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	b, err := store.Create(ctx, models.User{Name: "B", Email: "b@example.com", AuthMethod: models.AuthMethodPassword})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.GetManyByID(ctx, []primitive.ObjectID{a.ID, b.ID, primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("GetManyByID failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("result size: got %d, want 2", len(got))
	}
	if got[a.ID].Name != "A" || got[b.ID].Name != "B" {
		t.Error("result not keyed by id")
	}
}
