// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	achievementstore "github.com/covenantapps/flockhub/internal/app/store/achievements"
	attendancestore "github.com/covenantapps/flockhub/internal/app/store/attendance"
	memberstore "github.com/covenantapps/flockhub/internal/app/store/members"
	sessionstore "github.com/covenantapps/flockhub/internal/app/store/sessions"
	"github.com/covenantapps/flockhub/internal/app/system/cache"
	"github.com/covenantapps/flockhub/internal/app/system/connectivity"
	"github.com/covenantapps/flockhub/internal/app/system/indexes"
	"github.com/covenantapps/flockhub/internal/app/system/livequery"
	"github.com/covenantapps/flockhub/internal/app/system/workers"
)

// ConnectDB establishes the MongoDB connection and assembles the backend
// dependencies: the snapshot cache, the connectivity hub, the live-query
// manager, and the badge recompute worker.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}
	db := client.Database(appCfg.MongoDatabase)
	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", appCfg.MongoMaxPoolSize))

	c, err := cache.Open(appCfg.CachePath, appCfg.CacheTTL, logger)
	if err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("open cache: %w", err)
	}

	hub := connectivity.NewHub(logger)
	live := livequery.NewManager(livequery.NewMongoSource(db), c, hub, logger)

	badgeWorker := workers.NewBadgeRecompute(
		memberstore.New(db), sessionstore.New(db),
		attendancestore.New(db), achievementstore.New(db),
		c, logger, appCfg.BadgeRecomputeSchedule)
	sweepWorker := workers.NewCacheSweep(c, logger, appCfg.CacheSweepSchedule)

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
		Cache:         c,
		Hub:           hub,
		Live:          live,
		BadgeWorker:   badgeWorker,
		SweepWorker:   sweepWorker,
	}, nil
}

// EnsureSchema creates the collection indexes, including the unique
// constraints the stores rely on for duplicate detection.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	logger.Info("database indexes ensured")
	return nil
}
