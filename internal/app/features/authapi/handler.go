// internal/app/features/authapi/handler.go
package authapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/dalemusser/taskhub/internal/app/system/httperr"
	"github.com/dalemusser/taskhub/internal/app/system/identity"
	"github.com/dalemusser/taskhub/internal/app/system/ratelimit"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// UserGetter is the lookup surface /auth/me needs. *userstore.Store
// satisfies it.
type UserGetter interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Handler serves the password-credential auth endpoints and /auth/me.
type Handler struct {
	Verifier *auth.Verifier
	Resolver *identity.Resolver
	Tokens   *auth.Issuer
	Users    UserGetter
	Limits   *ratelimit.SigninLimiter
	ErrLog   *httperr.ErrorLogger
	Log      *zap.Logger
}

// NewHandler creates the auth API handler.
func NewHandler(
	verifier *auth.Verifier,
	resolver *identity.Resolver,
	tokens *auth.Issuer,
	users UserGetter,
	limits *ratelimit.SigninLimiter,
	errLog *httperr.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Verifier: verifier,
		Resolver: resolver,
		Tokens:   tokens,
		Users:    users,
		Limits:   limits,
		ErrLog:   errLog,
		Log:      logger,
	}
}

// userSummary is the compact identity block returned with tokens.
type userSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

func summarize(u *models.User) userSummary {
	return userSummary{
		ID:     u.ID.Hex(),
		Name:   u.Name,
		Email:  u.Email,
		Avatar: u.AvatarURL(),
	}
}

// authResponse is the body for successful signup and signin.
type authResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    userSummary `json:"user"`
}

// isValidEmail applies the same light syntactic check the clients rely on:
// one @, non-empty local part, dot somewhere in the domain.
func isValidEmail(email string) bool {
	at := strings.Index(email, "@")
	if at < 1 || at != strings.LastIndex(email, "@") {
		return false
	}
	domain := email[at+1:]
	dot := strings.Index(domain, ".")
	return dot >= 1 && dot < len(domain)-1
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /auth/signup                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.BadRequest(w, r, "signup: decode body failed", err, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)

	switch {
	case req.Name == "" || req.Email == "" || req.Password == "":
		httperr.Write(w, http.StatusBadRequest, "Name, email, and password are required")
		return
	case !isValidEmail(req.Email):
		httperr.Write(w, http.StatusBadRequest, "Please enter a valid email address")
		return
	case len(req.Name) < 2:
		httperr.Write(w, http.StatusBadRequest, "Name must be at least 2 characters")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Resolver.RegisterPassword(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrWeakCredential):
			httperr.Write(w, http.StatusBadRequest, "Password must be at least 6 characters")
		case errors.Is(err, identity.ErrAccountExists):
			httperr.Write(w, http.StatusBadRequest, "User already exists with this email")
		default:
			h.ErrLog.Internal(w, r, "signup: register failed", err, "Failed to create user")
		}
		return
	}

	token, err := h.Tokens.Issue(*u)
	if err != nil {
		h.ErrLog.Internal(w, r, "signup: token issue failed", err, "Failed to create user")
		return
	}

	h.Log.Info("user signed up",
		zap.String("user_id", u.ID.Hex()),
		zap.String("email", u.Email))

	writeJSON(w, http.StatusCreated, authResponse{
		Message: "User created successfully",
		Token:   token,
		User:    summarize(u),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /auth/signin                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) HandleSignin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.BadRequest(w, r, "signin: decode body failed", err, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)

	if req.Email == "" || req.Password == "" {
		httperr.Write(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	if !isValidEmail(req.Email) {
		httperr.Write(w, http.StatusBadRequest, "Please enter a valid email address")
		return
	}

	if h.Limits != nil && !h.Limits.Allow(r, req.Email) {
		h.Log.Warn("signin rate limited",
			zap.String("ip", ratelimit.ClientIP(r)))
		httperr.Write(w, http.StatusTooManyRequests,
			"Too many sign in attempts. Please try again later.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	verified, err := h.Verifier.VerifyPassword(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrNoPassword) {
			httperr.Write(w, http.StatusBadRequest,
				"This account was created with Google. Please sign in with Google.")
			return
		}
		httperr.Write(w, http.StatusBadRequest, "Invalid email or password")
		return
	}

	if h.Limits != nil {
		h.Limits.Forgive(req.Email)
	}

	u, err := h.Resolver.Resolve(ctx, verified)
	if err != nil {
		h.ErrLog.Internal(w, r, "signin: resolve failed", err, "Failed to sign in")
		return
	}

	token, err := h.Tokens.Issue(*u)
	if err != nil {
		h.ErrLog.Internal(w, r, "signin: token issue failed", err, "Failed to sign in")
		return
	}

	h.Log.Info("user signed in",
		zap.String("user_id", u.ID.Hex()),
		zap.String("email", u.Email))

	writeJSON(w, http.StatusOK, authResponse{
		Message: "Sign in successful",
		Token:   token,
		User:    summarize(u),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/me (bearer token required)                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	callerID, ok := auth.CallerID(r)
	if !ok {
		httperr.Write(w, http.StatusUnauthorized, "No token provided")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, callerID)
	if err != nil {
		// A valid token for a vanished account is still an invalid token.
		httperr.Write(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]models.Profile{"user": u.Profile()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
