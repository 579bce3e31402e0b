// internal/app/system/auth/middleware.go
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/taskhub/internal/app/system/httperr"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ctxKey string

const callerIDKey ctxKey = "callerID"

// CallerID returns the authenticated account id placed in the request
// context by RequireBearer. ok is false on unauthenticated requests.
func CallerID(r *http.Request) (primitive.ObjectID, bool) {
	id, ok := r.Context().Value(callerIDKey).(primitive.ObjectID)
	return id, ok
}

// WithCallerID attaches an account id to the request context.
// Exposed for handler tests.
func WithCallerID(r *http.Request, id primitive.ObjectID) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), callerIDKey, id))
}

// BearerToken extracts the token from an Authorization: Bearer header.
// Returns "" when the header is absent or not a bearer credential.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// RequireBearer validates the bearer token on every request and resolves the
// caller's account id into context. 401 with a JSON body on missing,
// malformed, or expired tokens.
func RequireBearer(issuer *Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				httperr.Write(w, http.StatusUnauthorized, "No token provided")
				return
			}

			id, err := issuer.Validate(token)
			if err != nil {
				if errors.Is(err, ErrExpiredToken) {
					httperr.Write(w, http.StatusUnauthorized, "Token expired")
					return
				}
				httperr.Write(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			next.ServeHTTP(w, WithCallerID(r, id))
		})
	}
}
