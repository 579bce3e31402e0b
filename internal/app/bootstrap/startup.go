// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	"github.com/dalemusser/taskhub/internal/app/store/oauthstate"
	"github.com/dalemusser/taskhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// stateCleanup runs for the life of the process; Shutdown stops it.
var stateCleanup *workers.StateCleanup

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
//
// The TTL index on OAuth state nonces handles expiry going forward; the
// cleanup worker sweeps anything the TTL monitor misses and clears states
// left behind while the index was absent.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	states := oauthstate.New(deps.TaskHubMongoDatabase)
	stateCleanup = workers.NewStateCleanup(states, logger, time.Hour)
	stateCleanup.Start()
	return nil
}
