package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/taskhub/internal/app/system/normalize"
	"github.com/dalemusser/taskhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store wraps the users collection. The collection's unique indexes are the
// concurrency-safety mechanism for account creation: a duplicate insert
// surfaces as ErrDuplicateEmail and callers re-read instead of failing.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when an insert or update collides with
	// the unique email index (or the sparse unique google_id index).
	ErrDuplicateEmail = errors.New("a user with this email already exists")

	errMissingName  = errors.New("name is required")
	errMissingEmail = errors.New("email is required")
	errBadMethod    = errors.New(`auth_method must be "password"|"google"`)
)

// EnsureIndexes creates the uniqueness indexes the identity resolver relies on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_users_email"),
		},
		// Sparse: password-only accounts carry no google_id at all.
		{
			Keys:    bson.D{{Key: "google_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("idx_users_google_id"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by normalized email.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByGoogleID looks up a user by linked Google identity.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"google_id": googleID}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user after normalizing & validating fields.
// Email uniqueness is enforced by the index, not by a prior read; concurrent
// creations for the same email fail here with ErrDuplicateEmail.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Name = normalize.Name(u.Name)
	u.Email = normalize.Email(u.Email)

	if u.Name == "" {
		return models.User{}, errMissingName
	}
	if u.Email == "" {
		return models.User{}, errMissingEmail
	}
	if !models.IsValidAuthMethod(u.AuthMethod) {
		return models.User{}, errBadMethod
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.LastLoginAt.IsZero() {
		u.LastLoginAt = now
	}

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// GoogleLink holds the provider fields attached to an account during a link
// event (a Google login for an email that already has an account).
type GoogleLink struct {
	GoogleID string
	Avatar   string
}

// LinkGoogle attaches a Google identity to an existing account and records
// the login. The account keeps any password it already has; email_verified
// is set because the provider vouched for the address.
func (s *Store) LinkGoogle(ctx context.Context, id primitive.ObjectID, link GoogleLink) (*models.User, error) {
	now := time.Now().UTC()
	set := bson.M{
		"google_id":      link.GoogleID,
		"auth_method":    models.AuthMethodGoogle,
		"email_verified": true,
		"last_login_at":  now,
		"updated_at":     now,
	}
	if link.Avatar != "" {
		set["avatar"] = link.Avatar
	}

	res := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var u models.User
	if err := res.Decode(&u); err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return &u, nil
}

// TouchLogin updates last_login_at for a returning account.
func (s *Store) TouchLogin(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"last_login_at": now, "updated_at": now}},
	)
	return err
}

// GetManyByID loads the users for a set of ids, returned keyed by id.
// Missing ids are simply absent from the result.
func (s *Store) GetManyByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	out := make(map[primitive.ObjectID]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, cur.Err()
}
