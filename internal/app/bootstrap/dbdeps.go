// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/covenantapps/flockhub/internal/app/system/cache"
	"github.com/covenantapps/flockhub/internal/app/system/connectivity"
	"github.com/covenantapps/flockhub/internal/app/system/livequery"
	"github.com/covenantapps/flockhub/internal/app/system/workers"
)

// DBDeps holds database and backend dependencies for the app.
// It is assembled in ConnectDB and threaded through the remaining
// lifecycle hooks.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Cache backs live-query fallbacks and dashboard reads.
	Cache *cache.Cache

	// Hub tracks database reachability for the live-query layer and the
	// health endpoint.
	Hub *connectivity.Hub

	// Live is the reactive query manager behind the SSE watch endpoints.
	Live *livequery.Manager

	// BadgeWorker is the nightly badge recompute; started in Startup and
	// stopped in Shutdown.
	BadgeWorker *workers.BadgeRecompute

	// SweepWorker reclaims expired cache entries on an hourly schedule.
	SweepWorker *workers.CacheSweep
}
