// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown cleanly tears down workers, the live-query layer, the cache, and
// the MongoDB connection, in dependency order.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.SweepWorker != nil {
		deps.SweepWorker.Stop()
	}
	if deps.BadgeWorker != nil {
		deps.BadgeWorker.Stop()
	}
	if deps.Live != nil {
		deps.Live.Close()
	}
	if deps.Cache != nil {
		if err := deps.Cache.Close(); err != nil {
			logger.Error("cache close failed", zap.Error(err))
		}
	}
	if deps.MongoClient != nil {
		logger.Info("disconnecting MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
