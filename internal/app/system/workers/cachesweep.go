// internal/app/system/workers/cachesweep.go
package workers

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/covenantapps/flockhub/internal/app/system/cache"
)

// CacheSweep periodically reclaims space held by expired snapshot entries.
// Expiry itself is enforced on read; the sweep only keeps the on-disk value
// log from growing without bound.
type CacheSweep struct {
	cache *cache.Cache
	log   *zap.Logger

	schedule string
	cron     *cron.Cron
}

// NewCacheSweep creates the worker. Blank schedule means hourly.
func NewCacheSweep(c *cache.Cache, logger *zap.Logger, schedule string) *CacheSweep {
	if schedule == "" {
		schedule = "@hourly"
	}
	return &CacheSweep{cache: c, log: logger, schedule: schedule}
}

// Start schedules the sweep. It returns an error only for an invalid
// schedule expression.
func (w *CacheSweep) Start() error {
	w.cron = cron.New()
	if _, err := w.cron.AddFunc(w.schedule, w.runOnce); err != nil {
		return err
	}
	w.cron.Start()
	w.log.Info("cache sweep worker started", zap.String("schedule", w.schedule))
	return nil
}

// Stop halts the schedule and waits for an in-flight sweep to finish.
func (w *CacheSweep) Stop() {
	if w.cron == nil {
		return
	}
	<-w.cron.Stop().Done()
	w.log.Info("cache sweep worker stopped")
}

func (w *CacheSweep) runOnce() {
	if err := w.cache.Sweep(); err != nil {
		w.log.Error("cache sweep failed", zap.Error(err))
	}
}
