// Package auth holds the credential verifier, the bearer token issuer, and
// the middleware that resolves the caller's account id on API requests.
//
// The verifier decides whether a presented credential is genuine; it never
// creates or mutates accounts. Account side effects (create, link, touch
// login) belong to the identity resolver.
package auth

import (
	"context"
	"errors"

	"github.com/dalemusser/taskhub/internal/app/system/normalize"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials covers unknown email and wrong password alike,
	// so callers cannot probe which addresses have accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrNoPassword is returned for accounts that exist but have never set
	// a password (Google-only accounts).
	ErrNoPassword = errors.New("account has no password set")
)

// bcryptCost matches the cost used across the WAFFLE family of services.
const bcryptCost = 12

// AccountSource is the read-side the verifier needs. *userstore.Store
// satisfies it.
type AccountSource interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// VerifiedIdentity is the outcome of a successful credential check, handed
// to the identity resolver. AccountID is set when the credential was checked
// against an existing account (password signin); GoogleID is set for
// provider-issued profiles.
type VerifiedIdentity struct {
	AccountID primitive.ObjectID
	Email     string // normalized
	Name      string
	GoogleID  string
	Avatar    string
}

// Verifier checks password credentials against stored accounts.
type Verifier struct {
	Accounts AccountSource
}

// NewVerifier creates a Verifier over the given account source.
func NewVerifier(accounts AccountSource) *Verifier {
	return &Verifier{Accounts: accounts}
}

// VerifyPassword checks an email/password pair. It fails with
// ErrInvalidCredentials when the account is absent or the password does not
// match, and with ErrNoPassword when the account exists but is Google-only.
func (v *Verifier) VerifyPassword(ctx context.Context, email, plaintext string) (VerifiedIdentity, error) {
	u, err := v.Accounts.GetByEmail(ctx, normalize.Email(email))
	if err != nil {
		// Absent account and lookup failure collapse into the same answer.
		return VerifiedIdentity{}, ErrInvalidCredentials
	}

	if !u.HasPassword() {
		return VerifiedIdentity{}, ErrNoPassword
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(plaintext)); err != nil {
		return VerifiedIdentity{}, ErrInvalidCredentials
	}

	return VerifiedIdentity{
		AccountID: u.ID,
		Email:     u.Email,
		Name:      u.Name,
	}, nil
}

// GoogleProfile carries the fields Google's userinfo endpoint vouched for.
// The OAuth code exchange itself happens in the authgoogle feature; by the
// time a profile reaches here it is already authenticated.
type GoogleProfile struct {
	ID     string
	Email  string
	Name   string
	Avatar string
}

// VerifyGoogleProfile accepts a provider-authenticated profile and produces
// a verified identity. Pure: it normalizes, it does not touch storage.
func VerifyGoogleProfile(p GoogleProfile) VerifiedIdentity {
	return VerifiedIdentity{
		Email:    normalize.Email(p.Email),
		Name:     normalize.Name(p.Name),
		GoogleID: p.ID,
		Avatar:   p.Avatar,
	}
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
