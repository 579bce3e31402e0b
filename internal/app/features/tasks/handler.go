// internal/app/features/tasks/handler.go
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/taskhub/internal/app/policy/taskpolicy"
	taskstore "github.com/dalemusser/taskhub/internal/app/store/tasks"
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/dalemusser/taskhub/internal/app/system/httperr"
	"github.com/dalemusser/taskhub/internal/app/system/normalize"
	"github.com/dalemusser/taskhub/internal/app/system/realtime"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// TaskStore is the task persistence surface the handlers need.
// *taskstore.Store satisfies it.
type TaskStore interface {
	Create(ctx context.Context, t models.Task) (models.Task, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Task, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Task, error)
	Apply(ctx context.Context, id primitive.ObjectID, upd taskstore.Update) (*models.Task, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
}

// Directory resolves accounts for share grants and view expansion.
// *userstore.Store satisfies it.
type Directory interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetManyByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error)
}

// Publisher fans change events out to connected clients. *realtime.Hub
// satisfies it.
type Publisher interface {
	Publish(accountIDs []primitive.ObjectID, ev realtime.Event)
}

// Handler serves the task CRUD endpoints. Every route runs behind the
// bearer middleware, so a caller id is always present; every mutation
// re-fetches the task and re-checks the policy before writing.
type Handler struct {
	Tasks  TaskStore
	Users  Directory
	Hub    Publisher
	ErrLog *httperr.ErrorLogger
	Log    *zap.Logger
}

// NewHandler creates the tasks handler.
func NewHandler(tasks TaskStore, users Directory, hub Publisher, errLog *httperr.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Tasks:  tasks,
		Users:  users,
		Hub:    hub,
		ErrLog: errLog,
		Log:    logger,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /tasks                                                                   |
| Lists every task the caller owns or has been shared, newest first.           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	callerID, ok := auth.CallerID(r)
	if !ok {
		h.ErrLog.Unauthorized(w, r, "Invalid token")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Tasks.ListForUser(ctx, callerID)
	if err != nil {
		h.ErrLog.Internal(w, r, "failed to list tasks", err, "Failed to fetch tasks")
		return
	}

	users, err := h.Users.GetManyByID(ctx, participantIDs(list...))
	if err != nil {
		h.ErrLog.Internal(w, r, "failed to resolve task participants", err, "Failed to fetch tasks")
		return
	}

	views := make([]taskView, 0, len(list))
	for _, t := range list {
		views = append(views, buildView(t, users))
	}
	writeJSON(w, http.StatusOK, views)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /tasks                                                                  |
| Creates a task owned by the caller and notifies its access set.              |
*─────────────────────────────────────────────────────────────────────────────*/

// createRequest is the POST /tasks body. SharedWith carries email addresses;
// unresolvable ones are silently dropped.
type createRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	SharedWith  []string   `json:"sharedWith"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	callerID, ok := auth.CallerID(r)
	if !ok {
		h.ErrLog.Unauthorized(w, r, "Invalid token")
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.BadRequest(w, r, "malformed create task body", err, "Invalid request body")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		h.ErrLog.BadRequest(w, r, "create task without title", nil, "Title is required")
		return
	}
	if req.Status != "" && !models.IsValidStatus(req.Status) {
		h.ErrLog.BadRequest(w, r, "create task with bad status", nil, "Invalid status value")
		return
	}
	if req.Priority != "" && !models.IsValidPriority(req.Priority) {
		h.ErrLog.BadRequest(w, r, "create task with bad priority", nil, "Invalid priority value")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	shared, err := h.resolveShares(ctx, callerID, req.SharedWith)
	if err != nil {
		h.ErrLog.Internal(w, r, "failed to resolve share emails", err, "Failed to create task")
		return
	}

	t, err := h.Tasks.Create(ctx, models.Task{
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		OwnerID:     callerID,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		SharedWith:  shared,
	})
	if err != nil {
		h.ErrLog.Internal(w, r, "failed to create task", err, "Failed to create task")
		return
	}

	h.Log.Info("task created",
		zap.String("task_id", t.ID.Hex()),
		zap.String("owner_id", callerID.Hex()),
		zap.Int("shared_with", len(t.SharedWith)))

	view := h.viewOf(ctx, t)
	h.Hub.Publish(taskpolicy.AccessSet(t), realtime.TaskCreated(view))

	writeJSON(w, http.StatusCreated, view)
}

/*─────────────────────────────────────────────────────────────────────────────*
| PATCH /tasks/{id}/status                                                     |
| Status is the one field any access-set member may change.                    |
*─────────────────────────────────────────────────────────────────────────────*/

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	callerID, ok := auth.CallerID(r)
	if !ok {
		h.ErrLog.Unauthorized(w, r, "Invalid token")
		return
	}

	taskID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.NotFound(w, r, "Task not found")
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.BadRequest(w, r, "malformed status body", err, "Invalid request body")
		return
	}
	if !models.IsValidStatus(req.Status) {
		h.ErrLog.BadRequest(w, r, "bad status value", nil, "Invalid status value")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	t, err := h.Tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.ErrLog.NotFound(w, r, "Task not found")
			return
		}
		h.ErrLog.Internal(w, r, "failed to load task", err, "Failed to update task")
		return
	}
	if !taskpolicy.CanEditStatus(callerID, *t) {
		h.ErrLog.NotFound(w, r, "Task not found")
		return
	}

	updated, err := h.Tasks.UpdateStatus(ctx, taskID, req.Status)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.ErrLog.NotFound(w, r, "Task not found")
			return
		}
		h.ErrLog.Internal(w, r, "failed to update task status", err, "Failed to update task")
		return
	}

	h.Log.Info("task status updated",
		zap.String("task_id", taskID.Hex()),
		zap.String("user_id", callerID.Hex()),
		zap.String("status", req.Status))

	view := h.viewOf(ctx, *updated)
	h.Hub.Publish(taskpolicy.AccessSet(*updated), realtime.TaskUpdated(view))

	writeJSON(w, http.StatusOK, view)
}

/*─────────────────────────────────────────────────────────────────────────────*
| PUT /tasks/{id}                                                              |
| Full edit, owner-only. Absent fields keep their stored value; an explicit    |
| null dueDate clears the date.                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// updateRequest distinguishes absent fields from provided ones: nil pointers
// mean "leave alone". DueDate additionally distinguishes null from absent.
type updateRequest struct {
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	Priority    *string      `json:"priority"`
	DueDate     nullableTime `json:"dueDate"`
	SharedWith  *[]string    `json:"sharedWith"`
}

// nullableTime is a tri-state timestamp: absent (Set false), explicit null
// (Set true, Value nil), or a value.
type nullableTime struct {
	Set   bool
	Value *time.Time
}

func (n *nullableTime) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	n.Value = &t
	return nil
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	callerID, ok := auth.CallerID(r)
	if !ok {
		h.ErrLog.Unauthorized(w, r, "Invalid token")
		return
	}

	taskID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.NotFound(w, r, "Task not found")
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.BadRequest(w, r, "malformed update body", err, "Invalid request body")
		return
	}

	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		if trimmed == "" {
			h.ErrLog.BadRequest(w, r, "update task with empty title", nil, "Title is required")
			return
		}
		req.Title = &trimmed
	}
	if req.Priority != nil && !models.IsValidPriority(*req.Priority) {
		h.ErrLog.BadRequest(w, r, "update task with bad priority", nil, "Invalid priority value")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	t, err := h.Tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.ErrLog.NotFound(w, r, "Task not found")
			return
		}
		h.ErrLog.Internal(w, r, "failed to load task", err, "Failed to update task")
		return
	}
	if !taskpolicy.CanEditFull(callerID, *t) {
		h.ErrLog.NotFound(w, r, "Task not found")
		return
	}

	upd := taskstore.Update{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	}
	if req.DueDate.Set {
		upd.DueDate = &req.DueDate.Value
	}
	if req.SharedWith != nil {
		shared, err := h.resolveShares(ctx, t.OwnerID, *req.SharedWith)
		if err != nil {
			h.ErrLog.Internal(w, r, "failed to resolve share emails", err, "Failed to update task")
			return
		}
		upd.SharedWith = &shared
	}

	updated, err := h.Tasks.Apply(ctx, taskID, upd)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.ErrLog.NotFound(w, r, "Task not found")
			return
		}
		h.ErrLog.Internal(w, r, "failed to update task", err, "Failed to update task")
		return
	}

	h.Log.Info("task updated",
		zap.String("task_id", taskID.Hex()),
		zap.String("owner_id", callerID.Hex()))

	view := h.viewOf(ctx, *updated)
	h.Hub.Publish(taskpolicy.AccessSet(*updated), realtime.TaskUpdated(view))

	writeJSON(w, http.StatusOK, view)
}

/*─────────────────────────────────────────────────────────────────────────────*
| DELETE /tasks/{id}                                                           |
| Owner-only. The access set is captured before the delete so shared accounts  |
| still hear about it.                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	callerID, ok := auth.CallerID(r)
	if !ok {
		h.ErrLog.Unauthorized(w, r, "Invalid token")
		return
	}

	taskID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.NotFound(w, r, "Task not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	t, err := h.Tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.ErrLog.NotFound(w, r, "Task not found")
			return
		}
		h.ErrLog.Internal(w, r, "failed to load task", err, "Failed to delete task")
		return
	}
	if !taskpolicy.CanDelete(callerID, *t) {
		h.ErrLog.NotFound(w, r, "Task not found")
		return
	}

	recipients := taskpolicy.AccessSet(*t)

	n, err := h.Tasks.Delete(ctx, taskID)
	if err != nil {
		h.ErrLog.Internal(w, r, "failed to delete task", err, "Failed to delete task")
		return
	}
	if n == 0 {
		// Lost the race with another delete.
		h.ErrLog.NotFound(w, r, "Task not found")
		return
	}

	h.Log.Info("task deleted",
		zap.String("task_id", taskID.Hex()),
		zap.String("owner_id", callerID.Hex()))

	h.Hub.Publish(recipients, realtime.TaskDeleted(taskID))

	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted successfully"})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// resolveShares maps share emails to grants. Unresolvable addresses, the
// owner's own address, and duplicates are dropped without error.
func (h *Handler) resolveShares(ctx context.Context, ownerID primitive.ObjectID, emails []string) ([]models.SharedUser, error) {
	var shared []models.SharedUser
	seen := make(map[primitive.ObjectID]bool)

	for _, raw := range emails {
		email := normalize.Email(raw)
		if email == "" {
			continue
		}
		u, err := h.Users.GetByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				h.Log.Debug("share email not found, skipping", zap.String("email", email))
				continue
			}
			return nil, err
		}
		if u.ID == ownerID || seen[u.ID] {
			continue
		}
		seen[u.ID] = true
		shared = append(shared, models.SharedUser{
			UserID:     u.ID,
			Permission: models.PermissionRead,
		})
	}
	return shared, nil
}

// viewOf expands a single task; on lookup failure the view degrades to bare
// ids rather than failing a mutation that already committed.
func (h *Handler) viewOf(ctx context.Context, t models.Task) taskView {
	users, err := h.Users.GetManyByID(ctx, participantIDs(t))
	if err != nil {
		h.Log.Warn("failed to resolve task participants for view",
			zap.String("task_id", t.ID.Hex()), zap.Error(err))
		users = nil
	}
	return buildView(t, users)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
