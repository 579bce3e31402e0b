package taskpolicy_test

import (
	"testing"

	"github.com/dalemusser/taskhub/internal/app/policy/taskpolicy"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	owner    = primitive.NewObjectID()
	shared   = primitive.NewObjectID()
	stranger = primitive.NewObjectID()
)

func sharedTask() models.Task {
	return models.Task{
		ID:      primitive.NewObjectID(),
		Title:   "Shared task",
		OwnerID: owner,
		SharedWith: []models.SharedUser{
			{UserID: shared, Permission: models.PermissionRead},
		},
	}
}

func TestAccessSet(t *testing.T) {
	got := taskpolicy.AccessSet(sharedTask())

	if len(got) != 2 {
		t.Fatalf("access set size: got %d, want 2", len(got))
	}
	if got[0] != owner {
		t.Errorf("access set[0]: got %s, want owner %s", got[0].Hex(), owner.Hex())
	}
	if got[1] != shared {
		t.Errorf("access set[1]: got %s, want shared %s", got[1].Hex(), shared.Hex())
	}
}

func TestPredicates(t *testing.T) {
	task := sharedTask()

	tests := []struct {
		name   string
		pred   func(primitive.ObjectID, models.Task) bool
		caller primitive.ObjectID
		want   bool
	}{
		{"owner can view", taskpolicy.CanView, owner, true},
		{"shared can view", taskpolicy.CanView, shared, true},
		{"stranger cannot view", taskpolicy.CanView, stranger, false},

		{"owner can edit status", taskpolicy.CanEditStatus, owner, true},
		{"shared can edit status", taskpolicy.CanEditStatus, shared, true},
		{"stranger cannot edit status", taskpolicy.CanEditStatus, stranger, false},

		{"owner can edit full", taskpolicy.CanEditFull, owner, true},
		{"shared cannot edit full", taskpolicy.CanEditFull, shared, false},
		{"stranger cannot edit full", taskpolicy.CanEditFull, stranger, false},

		{"owner can delete", taskpolicy.CanDelete, owner, true},
		{"shared cannot delete", taskpolicy.CanDelete, shared, false},
		{"stranger cannot delete", taskpolicy.CanDelete, stranger, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pred(tt.caller, task); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPredicates_UnsharedTask(t *testing.T) {
	task := models.Task{ID: primitive.NewObjectID(), Title: "Private", OwnerID: owner}

	if taskpolicy.CanView(shared, task) {
		t.Error("account not in the sharing list must not view")
	}
	if set := taskpolicy.AccessSet(task); len(set) != 1 || set[0] != owner {
		t.Errorf("access set: got %v, want just the owner", set)
	}
}
