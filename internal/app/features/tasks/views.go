// internal/app/features/tasks/views.go
package tasks

import (
	"time"

	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// sharedView is one entry in a task's sharing list, with the account
// identity expanded for display.
type sharedView struct {
	User       models.Summary `json:"user"`
	Permission string         `json:"permission"`
}

// taskView is the wire shape for a task in responses and change events.
// Owner and shared accounts are expanded to identity summaries so clients
// never need a second lookup.
type taskView struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Owner       models.Summary `json:"owner"`
	Status      string         `json:"status"`
	Priority    string         `json:"priority"`
	DueDate     *time.Time     `json:"dueDate,omitempty"`
	SharedWith  []sharedView   `json:"sharedWith"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// buildView expands a task into its response shape using a pre-fetched map
// of the involved accounts. Accounts missing from the map (deleted since
// the share was granted) render as bare ids.
func buildView(t models.Task, users map[primitive.ObjectID]models.User) taskView {
	v := taskView{
		ID:          t.ID.Hex(),
		Title:       t.Title,
		Description: t.Description,
		Owner:       summaryFor(t.OwnerID, users),
		Status:      t.Status,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		SharedWith:  make([]sharedView, 0, len(t.SharedWith)),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	for _, s := range t.SharedWith {
		v.SharedWith = append(v.SharedWith, sharedView{
			User:       summaryFor(s.UserID, users),
			Permission: s.Permission,
		})
	}
	return v
}

func summaryFor(id primitive.ObjectID, users map[primitive.ObjectID]models.User) models.Summary {
	if u, ok := users[id]; ok {
		return u.Summary()
	}
	return models.Summary{ID: id.Hex()}
}

// participantIDs collects every account id referenced by the given tasks,
// deduplicated, for a single batched identity lookup.
func participantIDs(tasks ...models.Task) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool)
	var ids []primitive.ObjectID
	for _, t := range tasks {
		if !seen[t.OwnerID] {
			seen[t.OwnerID] = true
			ids = append(ids, t.OwnerID)
		}
		for _, s := range t.SharedWith {
			if !seen[s.UserID] {
				seen[s.UserID] = true
				ids = append(ids, s.UserID)
			}
		}
	}
	return ids
}
