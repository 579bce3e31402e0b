// Package taskpolicy provides the authorization predicates for task access.
//
// Authorization rules:
//   - The access set of a task is its owner plus every shared account.
//   - Viewing and status changes are open to the whole access set.
//   - Full edits (title, description, due date, priority, sharing list) and
//     deletion are owner-only.
//
// All predicates are pure functions over the task value and an explicit
// caller id. Handlers re-fetch the task and re-check these predicates at
// mutation time; decisions are never cached across the read-then-write gap.
package taskpolicy

import (
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccessSet returns the ids of every account permitted to view the task:
// the owner followed by the shared accounts. This same set is used as the
// notification fan-out target after a mutation.
func AccessSet(t models.Task) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, 1+len(t.SharedWith))
	ids = append(ids, t.OwnerID)
	for _, s := range t.SharedWith {
		ids = append(ids, s.UserID)
	}
	return ids
}

// CanView reports whether the account may read the task.
func CanView(userID primitive.ObjectID, t models.Task) bool {
	if userID == t.OwnerID {
		return true
	}
	for _, s := range t.SharedWith {
		if s.UserID == userID {
			return true
		}
	}
	return false
}

// CanEditFull reports whether the account may edit every task field,
// including the sharing list. Owner-only.
func CanEditFull(userID primitive.ObjectID, t models.Task) bool {
	return userID == t.OwnerID
}

// CanEditStatus reports whether the account may change the task's status.
// Status transitions are the one mutation shared accounts may perform, even
// though their sharing permission reads "read".
func CanEditStatus(userID primitive.ObjectID, t models.Task) bool {
	return CanView(userID, t)
}

// CanDelete reports whether the account may delete the task. Owner-only.
func CanDelete(userID primitive.ObjectID, t models.Task) bool {
	return userID == t.OwnerID
}
