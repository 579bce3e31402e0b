package taskstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store wraps the tasks collection. Updates are single-document $set writes:
// concurrent edits by permitted accounts apply last-write-wins at the field
// level, which is the accepted consistency model for tasks.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tasks")}
}

var (
	errMissingTitle = errors.New("title is required")
	errBadStatus    = errors.New(`status must be "pending"|"in-progress"|"completed"`)
	errBadPriority  = errors.New(`priority must be "low"|"medium"|"high"`)
)

// EnsureIndexes creates indexes for the access-set listing query.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_tasks_owner"),
		},
		{
			Keys:    bson.D{{Key: "shared_with.user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_tasks_shared"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create inserts a new task after validating fields and applying defaults
// (status pending, priority medium).
func (s *Store) Create(ctx context.Context, t models.Task) (models.Task, error) {
	t.ID = primitive.NewObjectID()

	if t.Title == "" {
		return models.Task{}, errMissingTitle
	}
	if t.Status == "" {
		t.Status = models.StatusPending
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	if !models.IsValidStatus(t.Status) {
		return models.Task{}, errBadStatus
	}
	if !models.IsValidPriority(t.Priority) {
		return models.Task{}, errBadPriority
	}

	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// GetByID loads a task by ObjectID. Returns mongo.ErrNoDocuments if absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	var t models.Task
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListForUser returns the tasks the given account may view: owned tasks plus
// tasks shared with it, newest-created first.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Task, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"owner_id": userID},
		bson.M{"shared_with.user_id": userID},
	}}

	cur, err := s.c.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var tasks []models.Task
	for cur.Next(ctx) {
		var t models.Task
		if err := cur.Decode(&t); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, cur.Err()
}

// UpdateStatus sets a task's status and returns the updated document.
// Returns mongo.ErrNoDocuments if the task no longer exists.
func (s *Store) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Task, error) {
	if !models.IsValidStatus(status) {
		return nil, errBadStatus
	}

	res := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var t models.Task
	if err := res.Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Update holds the owner-editable fields for a full edit. Nil pointers leave
// the stored value untouched; DueDate uses a double pointer so an explicit
// null clears the date.
type Update struct {
	Title       *string
	Description *string
	Priority    *string
	DueDate     **time.Time
	SharedWith  *[]models.SharedUser
}

// Apply performs a full edit and returns the updated document. OwnerID and
// status are never touched here; status changes go through UpdateStatus.
func (s *Store) Apply(ctx context.Context, id primitive.ObjectID, upd Update) (*models.Task, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	unset := bson.M{}

	if upd.Title != nil {
		if *upd.Title == "" {
			return nil, errMissingTitle
		}
		set["title"] = *upd.Title
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Priority != nil {
		if !models.IsValidPriority(*upd.Priority) {
			return nil, errBadPriority
		}
		set["priority"] = *upd.Priority
	}
	if upd.DueDate != nil {
		if *upd.DueDate == nil {
			unset["due_date"] = ""
		} else {
			set["due_date"] = **upd.DueDate
		}
	}
	if upd.SharedWith != nil {
		set["shared_with"] = *upd.SharedWith
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	res := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var t models.Task
	if err := res.Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Delete removes a task by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
