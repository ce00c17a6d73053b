// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. FlockHub
// uses it to launch the background workers.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := deps.BadgeWorker.Start(); err != nil {
		return err
	}
	if err := deps.SweepWorker.Start(); err != nil {
		deps.BadgeWorker.Stop()
		return err
	}
	return nil
}
