// internal/domain/models/user.go
package models

import (
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a durable account record. One record exists per email address,
// regardless of how many authentication methods the account has accumulated:
// a password-created account that later signs in with Google keeps its
// password hash and gains a GoogleID (a "linked" account).
type User struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email" json:"email"` // stored normalized (lowercased, trimmed)

	// AuthMethod records how the account most recently authenticated,
	// not its full history.
	AuthMethod string `bson:"auth_method" json:"auth_method"`

	// PasswordHash is set iff a password was ever set for this account.
	// Google-only accounts have no password and cannot use password signin.
	PasswordHash *string `bson:"password_hash,omitempty" json:"-"`

	// GoogleID is set iff the account is linked to a Google identity.
	// Unique across users when present.
	GoogleID *string `bson:"google_id,omitempty" json:"-"`

	Avatar        string    `bson:"avatar,omitempty" json:"avatar,omitempty"`
	EmailVerified bool      `bson:"email_verified" json:"email_verified"`
	LastLoginAt   time.Time `bson:"last_login_at" json:"last_login_at"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasPassword reports whether a password was ever set for this account.
func (u User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// HasGoogle reports whether the account is linked to a Google identity.
func (u User) HasGoogle() bool {
	return u.GoogleID != nil && *u.GoogleID != ""
}

// AvatarURL returns the stored avatar reference, or a generated placeholder
// built from the user's initials when none is set. Pure function of the
// user value; nothing is persisted.
func (u User) AvatarURL() string {
	if u.Avatar != "" {
		return u.Avatar
	}
	var initials strings.Builder
	for _, part := range strings.Fields(u.Name) {
		r := []rune(part)
		initials.WriteRune(r[0])
	}
	name := strings.ToUpper(initials.String())
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name) +
		"&background=random&color=fff&size=200"
}

// Profile is the account's own view of itself, returned by /auth/me and
// embedded in auth responses. Never carries the password hash.
type Profile struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Avatar        string    `json:"avatar"`
	AuthMethod    string    `json:"authMethod"`
	EmailVerified bool      `json:"isEmailVerified"`
	LastLogin     time.Time `json:"lastLogin"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Profile builds the public profile for this user.
func (u User) Profile() Profile {
	return Profile{
		ID:            u.ID.Hex(),
		Name:          u.Name,
		Email:         u.Email,
		Avatar:        u.AvatarURL(),
		AuthMethod:    u.AuthMethod,
		EmailVerified: u.EmailVerified,
		LastLogin:     u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
	}
}

// Summary identifies a user inside task payloads (owner and shared-with
// entries resolve to name and email only).
type Summary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Summary builds the task-payload identity summary for this user.
func (u User) Summary() Summary {
	return Summary{ID: u.ID.Hex(), Name: u.Name, Email: u.Email}
}
