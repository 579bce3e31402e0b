package taskstore_test

import (
	"errors"
	"testing"
	"time"

	taskstore "github.com/dalemusser/taskhub/internal/app/store/tasks"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/dalemusser/taskhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func setupStore(t *testing.T) *taskstore.Store {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}
	return store
}

func TestCreate_AppliesDefaults(t *testing.T) {
	store := setupStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Task{
		Title:   "Buy milk",
		OwnerID: primitive.NewObjectID(),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Status != models.StatusPending {
		t.Errorf("status: got %q, want default %q", created.Status, models.StatusPending)
	}
	if created.Priority != models.PriorityMedium {
		t.Errorf("priority: got %q, want default %q", created.Priority, models.PriorityMedium)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps set")
	}
}

func TestCreate_RejectsInvalid(t *testing.T) {
	store := setupStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()

	if _, err := store.Create(ctx, models.Task{OwnerID: owner}); err == nil {
		t.Error("expected error for missing title")
	}
	if _, err := store.Create(ctx, models.Task{Title: "T", OwnerID: owner, Status: "done"}); err == nil {
		t.Error("expected error for bad status")
	}
	if _, err := store.Create(ctx, models.Task{Title: "T", OwnerID: owner, Priority: "urgent"}); err == nil {
		t.Error("expected error for bad priority")
	}
}

func TestListForUser_OwnedAndShared(t *testing.T) {
	store := setupStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	me := primitive.NewObjectID()
	other := primitive.NewObjectID()

	if _, err := store.Create(ctx, models.Task{Title: "Mine", OwnerID: me}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Create(ctx, models.Task{
		Title: "Shared with me", OwnerID: other,
		SharedWith: []models.SharedUser{{UserID: me, Permission: models.PermissionRead}},
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Create(ctx, models.Task{Title: "Not mine", OwnerID: other}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.ListForUser(ctx, me)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("tasks: got %d, want 2", len(got))
	}
}

func TestUpdateStatus(t *testing.T) {
	store := setupStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Task{Title: "Work", OwnerID: primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := store.UpdateStatus(ctx, created.ID, models.StatusCompleted)
	if err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if updated.Status != models.StatusCompleted {
		t.Errorf("status: got %q", updated.Status)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Error("expected updated_at to advance")
	}

	if _, err := store.UpdateStatus(ctx, primitive.NewObjectID(), models.StatusCompleted); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments for unknown task, got %v", err)
	}
	if _, err := store.UpdateStatus(ctx, created.ID, "done"); err == nil {
		t.Error("expected error for bad status value")
	}
}

func TestApply_PartialUpdateAndDueDateClear(t *testing.T) {
	store := setupStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	due := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Millisecond)
	created, err := store.Create(ctx, models.Task{
		Title: "Dated", Description: "original", OwnerID: primitive.NewObjectID(), DueDate: &due,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Only the title: everything else stays.
	title := "Renamed"
	updated, err := store.Apply(ctx, created.ID, taskstore.Update{Title: &title})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if updated.Title != "Renamed" {
		t.Errorf("title: got %q", updated.Title)
	}
	if updated.Description != "original" {
		t.Errorf("description changed: got %q", updated.Description)
	}
	if updated.DueDate == nil {
		t.Fatal("due date cleared by unrelated update")
	}

	// Explicit nil due date clears it.
	var cleared *time.Time
	updated, err = store.Apply(ctx, created.ID, taskstore.Update{DueDate: &cleared})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if updated.DueDate != nil {
		t.Error("expected due date cleared")
	}

	// Empty title rejected.
	empty := ""
	if _, err := store.Apply(ctx, created.ID, taskstore.Update{Title: &empty}); err == nil {
		t.Error("expected error for empty title")
	}
}

func TestDelete(t *testing.T) {
	store := setupStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Task{Title: "Doomed", OwnerID: primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	n, err := store.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted count: got %d, want 1", n)
	}

	n, err = store.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
	if n != 0 {
		t.Errorf("second delete count: got %d, want 0", n)
	}
}
