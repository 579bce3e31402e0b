// internal/domain/models/task.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task status values.
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

// Task priority values.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// PermissionRead is the only sharing permission currently issued. Shared
// accounts may still change a task's status; see taskpolicy.CanEditStatus.
const PermissionRead = "read"

// IsValidStatus checks if a value is a valid task status.
func IsValidStatus(value string) bool {
	switch value {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// IsValidPriority checks if a value is a valid task priority.
func IsValidPriority(value string) bool {
	switch value {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// SharedUser grants one account access to a task. Each user id appears at
// most once per task, and the owner is never listed here.
type SharedUser struct {
	UserID     primitive.ObjectID `bson:"user_id" json:"user_id"`
	Permission string             `bson:"permission" json:"permission"`
}

// Task is a tracked unit of work. OwnerID is immutable after creation;
// everything else is owner-editable, and status alone is editable by any
// account the task is shared with.
type Task struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	OwnerID     primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	Status      string             `bson:"status" json:"status"`
	Priority    string             `bson:"priority" json:"priority"`
	DueDate     *time.Time         `bson:"due_date,omitempty" json:"due_date,omitempty"`
	SharedWith  []SharedUser       `bson:"shared_with,omitempty" json:"shared_with,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
