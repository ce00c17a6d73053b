// internal/app/system/workers/badgerecompute.go
package workers

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	achievementstore "github.com/covenantapps/flockhub/internal/app/store/achievements"
	attendancestore "github.com/covenantapps/flockhub/internal/app/store/attendance"
	memberstore "github.com/covenantapps/flockhub/internal/app/store/members"
	sessionstore "github.com/covenantapps/flockhub/internal/app/store/sessions"
	"github.com/covenantapps/flockhub/internal/app/system/cache"
	"github.com/covenantapps/flockhub/internal/app/system/stats"
	"github.com/covenantapps/flockhub/internal/domain/models"
)

// BadgeRecompute is a background worker that rebuilds every member's stored
// badge set from the attendance history on a cron schedule. Member detail
// reads compute badges on the fly; the stored set exists so listings never
// pay that cost, and this worker keeps it from drifting.
type BadgeRecompute struct {
	members      *memberstore.Store
	sessions     *sessionstore.Store
	attendance   *attendancestore.Store
	achievements *achievementstore.Store
	cache        *cache.Cache
	log          *zap.Logger

	schedule string
	cron     *cron.Cron
}

// NewBadgeRecompute creates the worker. schedule is a standard five-field
// cron expression; blank means nightly at 02:00.
func NewBadgeRecompute(
	memberStore *memberstore.Store,
	sessionStore *sessionstore.Store,
	attendanceStore *attendancestore.Store,
	achievementStore *achievementstore.Store,
	c *cache.Cache,
	logger *zap.Logger,
	schedule string,
) *BadgeRecompute {
	if schedule == "" {
		schedule = "0 2 * * *"
	}
	return &BadgeRecompute{
		members:      memberStore,
		sessions:     sessionStore,
		attendance:   attendanceStore,
		achievements: achievementStore,
		cache:        c,
		log:          logger,
		schedule:     schedule,
	}
}

// Start schedules the worker. It returns an error only for an invalid
// schedule expression.
func (w *BadgeRecompute) Start() error {
	w.cron = cron.New()
	if _, err := w.cron.AddFunc(w.schedule, w.runOnce); err != nil {
		return err
	}
	w.cron.Start()
	w.log.Info("badge recompute worker started", zap.String("schedule", w.schedule))
	return nil
}

// Stop halts the schedule and waits for an in-flight run to finish.
func (w *BadgeRecompute) Stop() {
	if w.cron == nil {
		return
	}
	<-w.cron.Stop().Done()
	w.log.Info("badge recompute worker stopped")
}

func (w *BadgeRecompute) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	n, err := w.RecomputeAll(ctx, time.Now())
	if err != nil {
		w.log.Error("badge recompute failed", zap.Error(err))
		return
	}
	w.log.Info("badge recompute finished", zap.Int("members", n))
}

// RecomputeAll rebuilds the stored badge set for every member and returns how
// many members were processed. The attendance history and session list are
// loaded once and bucketed in memory rather than queried per member.
func (w *BadgeRecompute) RecomputeAll(ctx context.Context, now time.Time) (int, error) {
	allMembers, err := w.members.All(ctx)
	if err != nil {
		return 0, err
	}
	allSessions, err := w.sessions.All(ctx)
	if err != nil {
		return 0, err
	}
	allRecords, err := w.attendance.All(ctx)
	if err != nil {
		return 0, err
	}

	byIdentifier := make(map[string][]models.AttendanceRecord, len(allRecords))
	for _, rec := range allRecords {
		byIdentifier[rec.MemberID] = append(byIdentifier[rec.MemberID], rec)
	}

	for _, m := range allMembers {
		records := append([]models.AttendanceRecord(nil), byIdentifier[m.MemberID]...)
		if hex := m.ID.Hex(); hex != m.MemberID {
			records = append(records, byIdentifier[hex]...)
		}

		att := stats.ComputeAttendance(now, stats.NewMemberRef(m), records, allSessions)
		badges := stats.EarnedBadges(att, stats.DefaultBadgeRules)

		if err := w.achievements.Replace(ctx, m.ID, badges); err != nil {
			return 0, err
		}
	}

	// Stored badge sets feed cached reads, so drop those entries now rather
	// than waiting out the TTL.
	if w.cache != nil {
		if err := w.cache.ClearAll("dashboard"); err != nil {
			w.log.Warn("dashboard cache clear failed", zap.Error(err))
		}
	}
	return len(allMembers), nil
}
