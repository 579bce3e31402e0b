package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/dalemusser/taskhub/internal/app/system/normalize"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreatePasswordUser creates a password-auth user with the given plain-text
// password (bcrypt-hashed on the way in).
func (f *Fixtures) CreatePasswordUser(ctx context.Context, name, email, password string) models.User {
	f.t.Helper()

	hash, err := auth.HashPassword(password)
	if err != nil {
		f.t.Fatalf("failed to hash test password: %v", err)
	}

	now := time.Now().UTC()
	user := models.User{
		ID:           primitive.NewObjectID(),
		Name:         name,
		Email:        normalize.Email(email),
		AuthMethod:   models.AuthMethodPassword,
		PasswordHash: &hash,
		LastLoginAt:  now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateGoogleUser creates a Google-auth user with no password.
func (f *Fixtures) CreateGoogleUser(ctx context.Context, name, email, googleID string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:            primitive.NewObjectID(),
		Name:          name,
		Email:         normalize.Email(email),
		AuthMethod:    models.AuthMethodGoogle,
		GoogleID:      &googleID,
		EmailVerified: true,
		LastLoginAt:   now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTask creates a task owned by ownerID and shared with the given
// accounts under the read permission.
func (f *Fixtures) CreateTask(ctx context.Context, ownerID primitive.ObjectID, title string, sharedWith ...primitive.ObjectID) models.Task {
	f.t.Helper()

	now := time.Now().UTC()
	task := models.Task{
		ID:       primitive.NewObjectID(),
		Title:    title,
		OwnerID:  ownerID,
		Status:   models.StatusPending,
		Priority: models.PriorityMedium,

		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, id := range sharedWith {
		task.SharedWith = append(task.SharedWith, models.SharedUser{
			UserID:     id,
			Permission: models.PermissionRead,
		})
	}

	if _, err := f.db.Collection("tasks").InsertOne(ctx, task); err != nil {
		f.t.Fatalf("failed to create test task: %v", err)
	}
	return task
}
