// Package realtime fans task change events out to connected clients.
//
// The hub is a publish-by-account-id sink: every websocket connection
// subscribes under its authenticated account id, and a mutation publishes
// one event to each account in the task's access set. Delivery is
// best-effort and at-most-once: a subscriber whose buffer is full or whose
// connection is gone simply misses the event; nothing is retried and the
// originating request never fails because of fan-out.
package realtime

import (
	"sync"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Event types published after authorized mutations.
const (
	EventTaskCreated = "taskCreated"
	EventTaskUpdated = "taskUpdated"
	EventTaskDeleted = "taskDeleted"
)

// Event is one fan-out message. Task carries the resulting snapshot for
// creates and updates; deletes carry only TaskID.
type Event struct {
	Type   string `json:"type"`
	Task   any    `json:"task,omitempty"`
	TaskID string `json:"taskId,omitempty"`
}

// subscriberBuffer is how many undelivered events a connection may lag
// before further events are dropped for it.
const subscriberBuffer = 16

// Hub routes events to subscribers keyed by account id. Safe for concurrent
// use; all methods may be called from request goroutines.
type Hub struct {
	mu   sync.RWMutex
	subs map[primitive.ObjectID]map[string]chan Event
	log  *zap.Logger
}

// NewHub creates an empty Hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subs: make(map[primitive.ObjectID]map[string]chan Event),
		log:  logger,
	}
}

// Subscribe registers a new subscriber for an account and returns its id and
// receive channel. The channel is closed by Unsubscribe.
func (h *Hub) Subscribe(accountID primitive.ObjectID) (string, <-chan Event) {
	id := uuid.NewString()
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[accountID] == nil {
		h.subs[accountID] = make(map[string]chan Event)
	}
	h.subs[accountID][id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel. Safe to call for
// an already-removed subscriber.
func (h *Hub) Unsubscribe(accountID primitive.ObjectID, id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.subs[accountID]
	ch, ok := conns[id]
	if !ok {
		return
	}
	delete(conns, id)
	if len(conns) == 0 {
		delete(h.subs, accountID)
	}
	close(ch)
}

// Publish delivers an event to every subscriber of every listed account.
// Accounts with no subscribers are skipped; subscribers that cannot accept
// the event immediately are skipped too.
func (h *Hub) Publish(accountIDs []primitive.ObjectID, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, accountID := range accountIDs {
		for id, ch := range h.subs[accountID] {
			select {
			case ch <- ev:
			default:
				// Lagging subscriber; drop rather than block the mutation.
				h.log.Debug("dropping event for slow subscriber",
					zap.String("subscriber", id),
					zap.String("account_id", accountID.Hex()),
					zap.String("event", ev.Type))
			}
		}
	}
}

// TaskCreated builds a creation event carrying the task snapshot view.
func TaskCreated(view any) Event {
	return Event{Type: EventTaskCreated, Task: view}
}

// TaskUpdated builds an update event carrying the task snapshot view.
func TaskUpdated(view any) Event {
	return Event{Type: EventTaskUpdated, Task: view}
}

// TaskDeleted builds a deletion event carrying only the task id.
func TaskDeleted(taskID primitive.ObjectID) Event {
	return Event{Type: EventTaskDeleted, TaskID: taskID.Hex()}
}
