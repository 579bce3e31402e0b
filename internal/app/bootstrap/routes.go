// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	authapifeature "github.com/dalemusser/taskhub/internal/app/features/authapi"
	authgooglefeature "github.com/dalemusser/taskhub/internal/app/features/authgoogle"
	healthfeature "github.com/dalemusser/taskhub/internal/app/features/health"
	tasksfeature "github.com/dalemusser/taskhub/internal/app/features/tasks"
	"github.com/dalemusser/taskhub/internal/app/store/oauthstate"
	taskstore "github.com/dalemusser/taskhub/internal/app/store/tasks"
	userstore "github.com/dalemusser/taskhub/internal/app/store/users"
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/dalemusser/taskhub/internal/app/system/httperr"
	"github.com/dalemusser/taskhub/internal/app/system/identity"
	"github.com/dalemusser/taskhub/internal/app/system/ratelimit"
	"github.com/dalemusser/taskhub/internal/app/system/realtime"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// TaskHub wires the identity pipeline (credential verification, account
// resolution, token issuance) and mounts the auth, task, health, and
// websocket surfaces.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.TaskHubMongoDatabase

	// Stores
	users := userstore.New(db)
	tasks := taskstore.New(db)
	states := oauthstate.New(db)

	// Identity pipeline: verifier decides trust, resolver finds or creates
	// the account, issuer mints the bearer token.
	verifier := auth.NewVerifier(users)
	resolver := identity.NewResolver(users, logger)
	tokens := auth.NewIssuer(appCfg.JWTSecret, appCfg.TokenTTL)

	// Error logger for handlers.
	errLog := httperr.NewErrorLogger(logger)

	// Fan-out hub for task change events.
	hub := realtime.NewHub(logger)

	r := chi.NewRouter()

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.TaskHubMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Password auth and /auth/me. Signin attempts are throttled per IP
	// and per email.
	limits := ratelimit.NewSigninLimiter()
	authHandler := authapifeature.NewHandler(verifier, resolver, tokens, users, limits, errLog, logger)
	r.Mount("/auth", authapifeature.Routes(authHandler, tokens))

	// Google OAuth
	googleHandler := authgooglefeature.NewHandler(
		resolver, tokens, states,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret,
		appCfg.BaseURL, appCfg.ClientBaseURL,
		logger,
	)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	// Task CRUD (bearer-protected inside the feature router)
	taskHandler := tasksfeature.NewHandler(tasks, users, hub, errLog, logger)
	r.Mount("/tasks", tasksfeature.Routes(taskHandler, tokens))

	// Websocket change feed
	r.Mount("/ws", hub.Handler(tokens))

	logger.Info("routes mounted",
		zap.Bool("google_oauth", googleHandler.IsConfigured()),
		zap.String("env", coreCfg.Env))

	return r, nil
}
