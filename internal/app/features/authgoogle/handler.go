// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/dalemusser/taskhub/internal/app/system/identity"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// StateStore persists one-time OAuth state nonces. *oauthstate.Store
// satisfies it.
type StateStore interface {
	Save(ctx context.Context, state string, expiresAt time.Time) error
	Validate(ctx context.Context, state string) (bool, error)
}

// Handler handles Google OAuth authentication. On success the browser is
// redirected to the client app with a freshly minted bearer token; all
// failure modes redirect to the client's error page.
type Handler struct {
	Resolver   *identity.Resolver
	Tokens     *auth.Issuer
	StateStore StateStore
	Log        *zap.Logger

	// OAuth configuration
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g., "https://taskhub.example.com/auth/google/callback"

	// ClientBaseURL is the front-end origin that receives the post-auth
	// redirects (/auth/success?token=... and /auth/error).
	ClientBaseURL string
}

// NewHandler creates a new Google OAuth handler.
func NewHandler(
	resolver *identity.Resolver,
	tokens *auth.Issuer,
	stateStore StateStore,
	clientID, clientSecret, baseURL, clientBaseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Resolver:      resolver,
		Tokens:        tokens,
		StateStore:    stateStore,
		Log:           logger,
		ClientID:      clientID,
		ClientSecret:  clientSecret,
		RedirectURL:   baseURL + "/auth/google/callback",
		ClientBaseURL: clientBaseURL,
	}
}

// oauth2Config returns the Google OAuth2 configuration.
func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google                                                             |
| Initiates the OAuth flow by redirecting to Google's consent screen.          |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeStart(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		h.redirectError(w, r)
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		h.redirectError(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	expiresAt := time.Now().UTC().Add(10 * time.Minute)
	if err := h.StateStore.Save(ctx, state, expiresAt); err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		h.redirectError(w, r)
		return
	}

	url := h.oauth2Config().AuthCodeURL(state, oauth2.AccessTypeOffline)

	h.Log.Debug("initiating Google OAuth flow", zap.String("redirect_url", url))

	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/callback                                                    |
| Exchanges the code, fetches the profile, resolves the account, and sends     |
| the browser back to the client with a bearer token.                          |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		h.redirectError(w, r)
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" {
		h.Log.Warn("missing OAuth state parameter")
		h.redirectError(w, r)
		return
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	valid, err := h.StateStore.Validate(ctxTimeout, state)
	if err != nil {
		h.Log.Error("failed to validate OAuth state", zap.Error(err))
		h.redirectError(w, r)
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		h.redirectError(w, r)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		h.redirectError(w, r)
		return
	}

	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		h.redirectError(w, r)
		return
	}

	googleUser, err := fetchGoogleUserInfo(ctx, token)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		h.redirectError(w, r)
		return
	}

	h.Log.Debug("Google user info fetched",
		zap.String("google_id", googleUser.ID),
		zap.String("email", googleUser.Email))

	// Two-step pipeline: trust decision first (pure), then the effectful
	// find-or-create-or-merge against the account store.
	verified := auth.VerifyGoogleProfile(auth.GoogleProfile{
		ID:     googleUser.ID,
		Email:  googleUser.Email,
		Name:   googleUser.Name,
		Avatar: googleUser.Picture,
	})

	resolveCtx, cancelResolve := context.WithTimeout(ctx, timeouts.Medium())
	defer cancelResolve()

	u, err := h.Resolver.Resolve(resolveCtx, verified)
	if err != nil {
		h.Log.Error("failed to resolve Google identity", zap.Error(err))
		h.redirectError(w, r)
		return
	}

	bearer, err := h.Tokens.Issue(*u)
	if err != nil {
		h.Log.Error("failed to issue token after Google login", zap.Error(err))
		h.redirectError(w, r)
		return
	}

	h.Log.Info("user logged in via Google OAuth",
		zap.String("user_id", u.ID.Hex()),
		zap.String("email", u.Email))

	http.Redirect(w, r, h.ClientBaseURL+"/auth/success?token="+bearer, http.StatusSeeOther)
}

// redirectError sends the browser to the client's auth error page.
func (h *Handler) redirectError(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.ClientBaseURL+"/auth/error", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// googleUserInfo represents user info returned from Google.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// fetchGoogleUserInfo retrieves user information from Google's userinfo endpoint.
func fetchGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	return &info, nil
}

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
