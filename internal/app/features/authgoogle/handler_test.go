package authgoogle_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/taskhub/internal/app/features/authgoogle"
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/dalemusser/taskhub/internal/app/system/identity"
	"go.uber.org/zap"
)

// fakeStates stores nonces in memory with one-time-use semantics.
type fakeStates struct {
	states map[string]time.Time
}

func newFakeStates() *fakeStates {
	return &fakeStates{states: make(map[string]time.Time)}
}

func (f *fakeStates) Save(ctx context.Context, state string, expiresAt time.Time) error {
	f.states[state] = expiresAt
	return nil
}

func (f *fakeStates) Validate(ctx context.Context, state string) (bool, error) {
	expiresAt, ok := f.states[state]
	if !ok {
		return false, nil
	}
	delete(f.states, state)
	return time.Now().UTC().Before(expiresAt), nil
}

func newGoogleHandler(states authgoogle.StateStore, clientID, clientSecret string) *authgoogle.Handler {
	logger := zap.NewNop()
	return authgoogle.NewHandler(
		identity.NewResolver(nil, logger),
		auth.NewIssuer("test-secret", time.Hour),
		states,
		clientID, clientSecret,
		"http://localhost:8080",
		"http://localhost:3000",
		logger,
	)
}

func TestServeStart_RedirectsToGoogle(t *testing.T) {
	states := newFakeStates()
	h := newGoogleHandler(states, "client-id", "client-secret")

	req := httptest.NewRequest("GET", "/auth/google", nil)
	rec := httptest.NewRecorder()
	h.ServeStart(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusTemporaryRedirect)
	}

	location, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("failed to parse redirect location: %v", err)
	}
	if location.Host != "accounts.google.com" {
		t.Errorf("redirect host: got %q", location.Host)
	}

	state := location.Query().Get("state")
	if state == "" {
		t.Fatal("expected a state parameter in the consent URL")
	}
	if _, saved := states.states[state]; !saved {
		t.Error("expected the state nonce to be persisted")
	}
	if got := location.Query().Get("redirect_uri"); got != "http://localhost:8080/auth/google/callback" {
		t.Errorf("redirect_uri: got %q", got)
	}
}

func TestServeStart_UnconfiguredRedirectsToError(t *testing.T) {
	h := newGoogleHandler(newFakeStates(), "", "")

	req := httptest.NewRequest("GET", "/auth/google", nil)
	rec := httptest.NewRecorder()
	h.ServeStart(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if got := rec.Header().Get("Location"); got != "http://localhost:3000/auth/error" {
		t.Errorf("location: got %q", got)
	}
}

func TestServeCallback_FailuresRedirectToError(t *testing.T) {
	tests := []struct {
		name  string
		query string
		setup func(*fakeStates)
	}{
		{"provider error", "error=access_denied", nil},
		{"missing state", "code=abc", nil},
		{"unknown state", "code=abc&state=never-saved", nil},
		{
			"expired state", "code=abc&state=old",
			func(f *fakeStates) { f.states["old"] = time.Now().UTC().Add(-time.Minute) },
		},
		{
			"missing code", "state=good",
			func(f *fakeStates) { f.states["good"] = time.Now().UTC().Add(10 * time.Minute) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			states := newFakeStates()
			if tt.setup != nil {
				tt.setup(states)
			}
			h := newGoogleHandler(states, "client-id", "client-secret")

			req := httptest.NewRequest("GET", "/auth/google/callback?"+tt.query, nil)
			rec := httptest.NewRecorder()
			h.ServeCallback(rec, req)

			if rec.Code != http.StatusSeeOther {
				t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
			}
			location := rec.Header().Get("Location")
			if !strings.HasSuffix(location, "/auth/error") {
				t.Errorf("location: got %q, want the client error page", location)
			}
		})
	}
}

func TestServeCallback_StateIsSingleUse(t *testing.T) {
	states := newFakeStates()
	states.states["once"] = time.Now().UTC().Add(10 * time.Minute)
	h := newGoogleHandler(states, "client-id", "client-secret")

	// The state check runs before the code check, so even a request that
	// fails later consumes the nonce.
	req := httptest.NewRequest("GET", "/auth/google/callback?state=once", nil)
	h.ServeCallback(httptest.NewRecorder(), req)

	if _, ok := states.states["once"]; ok {
		t.Error("expected the state nonce to be consumed")
	}
}
