// Package identity maps a verified credential to exactly one durable account
// record, creating or merging accounts as needed. Email is the sole merge
// key: a Google login for an address that already signed up with a password
// silently links the two into one account.
package identity

import (
	"context"
	"errors"

	userstore "github.com/dalemusser/taskhub/internal/app/store/users"
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/dalemusser/taskhub/internal/app/system/normalize"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	// ErrAccountExists is returned by RegisterPassword when the email
	// already has an account. Plain signup never merges; merging only
	// happens through provider linking.
	ErrAccountExists = errors.New("user already exists with this email")

	// ErrWeakCredential is returned when a signup password is too short.
	ErrWeakCredential = errors.New("password must be at least 6 characters")
)

// MinPasswordLength is the signup password floor.
const MinPasswordLength = 6

// AccountStore is the storage surface the resolver drives.
// *userstore.Store satisfies it.
type AccountStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	Create(ctx context.Context, u models.User) (models.User, error)
	LinkGoogle(ctx context.Context, id primitive.ObjectID, link userstore.GoogleLink) (*models.User, error)
	TouchLogin(ctx context.Context, id primitive.ObjectID) error
}

// Resolver finds, creates, or merges the one account behind a verified
// credential. All writes go through the account store; the store's unique
// indexes arbitrate races.
type Resolver struct {
	Accounts AccountStore
	Log      *zap.Logger
}

// NewResolver creates a Resolver over the given account store.
func NewResolver(accounts AccountStore, logger *zap.Logger) *Resolver {
	return &Resolver{Accounts: accounts, Log: logger}
}

// Resolve maps a verified identity to its account, with side effects:
// returning accounts get last_login_at touched, link events attach the
// Google identity, and first-ever Google logins create the account.
func (r *Resolver) Resolve(ctx context.Context, v auth.VerifiedIdentity) (*models.User, error) {
	if v.AccountID != primitive.NilObjectID {
		// Password path: the verifier already matched an account.
		u, err := r.Accounts.GetByID(ctx, v.AccountID)
		if err != nil {
			return nil, err
		}
		if err := r.Accounts.TouchLogin(ctx, u.ID); err != nil {
			return nil, err
		}
		return u, nil
	}

	if v.GoogleID != "" {
		return r.resolveGoogle(ctx, v)
	}

	return nil, errors.New("identity carries neither an account id nor a provider id")
}

// resolveGoogle implements the merge algorithm for provider identities, in
// priority order: known provider id, then email link, then create. The
// duplicate-key path retries as a lookup so concurrent first-time logins for
// the same email converge on one account instead of erroring.
func (r *Resolver) resolveGoogle(ctx context.Context, v auth.VerifiedIdentity) (*models.User, error) {
	// 1. Already linked: a returning Google login.
	if u, err := r.Accounts.GetByGoogleID(ctx, v.GoogleID); err == nil {
		if err := r.Accounts.TouchLogin(ctx, u.ID); err != nil {
			return nil, err
		}
		return u, nil
	}

	// 2. Link event: an account exists for this email (created via signup).
	// It gains the Google identity without losing its password.
	if u, err := r.Accounts.GetByEmail(ctx, v.Email); err == nil {
		linked, err := r.Accounts.LinkGoogle(ctx, u.ID, userstore.GoogleLink{
			GoogleID: v.GoogleID,
			Avatar:   v.Avatar,
		})
		if err != nil {
			return nil, err
		}
		r.Log.Info("linked existing account with Google",
			zap.String("user_id", linked.ID.Hex()),
			zap.String("email", linked.Email))
		return linked, nil
	}

	// 3. First-ever login for this email: create the account.
	googleID := v.GoogleID
	created, err := r.Accounts.Create(ctx, models.User{
		Name:          v.Name,
		Email:         v.Email,
		AuthMethod:    models.AuthMethodGoogle,
		GoogleID:      &googleID,
		Avatar:        v.Avatar,
		EmailVerified: true,
	})
	if err == nil {
		r.Log.Info("new account created via Google",
			zap.String("user_id", created.ID.Hex()),
			zap.String("email", created.Email))
		return &created, nil
	}
	if !errors.Is(err, userstore.ErrDuplicateEmail) {
		return nil, err
	}

	// 4. Lost a race: someone created or linked this account concurrently.
	// Re-read and fold into case (1) or (2); never surface the conflict.
	if u, lookupErr := r.Accounts.GetByGoogleID(ctx, v.GoogleID); lookupErr == nil {
		if err := r.Accounts.TouchLogin(ctx, u.ID); err != nil {
			return nil, err
		}
		return u, nil
	}
	u, lookupErr := r.Accounts.GetByEmail(ctx, v.Email)
	if lookupErr != nil {
		return nil, err
	}
	return r.Accounts.LinkGoogle(ctx, u.ID, userstore.GoogleLink{
		GoogleID: v.GoogleID,
		Avatar:   v.Avatar,
	})
}

// RegisterPassword creates a new password account. Fails with
// ErrAccountExists when the email is taken and ErrWeakCredential when the
// password is under the minimum length. A duplicate-key race on insert is
// reported as ErrAccountExists too; unlike the Google path, signup never
// adopts an account it did not create.
func (r *Resolver) RegisterPassword(ctx context.Context, name, email, password string) (*models.User, error) {
	email = normalize.Email(email)

	if len(password) < MinPasswordLength {
		return nil, ErrWeakCredential
	}

	if _, err := r.Accounts.GetByEmail(ctx, email); err == nil {
		return nil, ErrAccountExists
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	created, err := r.Accounts.Create(ctx, models.User{
		Name:         normalize.Name(name),
		Email:        email,
		AuthMethod:   models.AuthMethodPassword,
		PasswordHash: &hash,
	})
	if err == nil {
		r.Log.Info("new account created via signup",
			zap.String("user_id", created.ID.Hex()),
			zap.String("email", created.Email))
		return &created, nil
	}
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		// Insert race: the account now exists, but it is not ours to return.
		return nil, ErrAccountExists
	}
	return nil, err
}
