// internal/app/features/dashboard/handler.go
package dashboard

import (
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	achievementstore "github.com/covenantapps/flockhub/internal/app/store/achievements"
	contributionstore "github.com/covenantapps/flockhub/internal/app/store/contributions"
	memberstore "github.com/covenantapps/flockhub/internal/app/store/members"
	notestore "github.com/covenantapps/flockhub/internal/app/store/notes"
	sessionstore "github.com/covenantapps/flockhub/internal/app/store/sessions"
	visitorstore "github.com/covenantapps/flockhub/internal/app/store/visitors"
	"github.com/covenantapps/flockhub/internal/app/system/cache"
	"github.com/covenantapps/flockhub/internal/app/system/stats"
	"github.com/covenantapps/flockhub/internal/app/system/timeouts"
	"github.com/covenantapps/flockhub/internal/app/system/webjson"
)

// Summary is the cached dashboard payload.
type Summary struct {
	GeneratedAt time.Time `json:"generated_at"`

	Members struct {
		Total  int64 `json:"total"`
		Active int64 `json:"active"`
	} `json:"members"`

	Visitors struct {
		Total           int64 `json:"total"`
		PendingFollowUp int64 `json:"pending_follow_up"`
	} `json:"visitors"`

	Giving struct {
		GrandTotal float64                  `json:"grand_total"`
		Monthly    []stats.MonthTotal       `json:"monthly"`
		Top        []stats.ContributorTotal `json:"top"`
	} `json:"giving"`

	OpenFollowUps int   `json:"open_follow_ups"`
	Sessions      int   `json:"sessions"`
	BadgesAwarded int64 `json:"badges_awarded"`
}

// Handler aggregates the overview numbers the landing page shows. The
// summary is expensive to assemble, so it is served from the snapshot
// cache and recomputed only after the cache entry expires.
type Handler struct {
	Members       *memberstore.Store
	Visitors      *visitorstore.Store
	Sessions      *sessionstore.Store
	Contributions *contributionstore.Store
	Notes         *notestore.Store
	Achievements  *achievementstore.Store
	Cache         *cache.Cache
	Log           *zap.Logger
}

func NewHandler(db *mongo.Database, c *cache.Cache, logger *zap.Logger) *Handler {
	return &Handler{
		Members:       memberstore.New(db),
		Visitors:      visitorstore.New(db),
		Sessions:      sessionstore.New(db),
		Contributions: contributionstore.New(db),
		Notes:         notestore.New(db),
		Achievements:  achievementstore.New(db),
		Cache:         c,
		Log:           logger,
	}
}

// ServeSummary returns the dashboard numbers, cached or fresh.
func (h *Handler) ServeSummary(w http.ResponseWriter, r *http.Request) {
	key := cache.Key("dashboard", "summary")
	if h.Cache != nil {
		var cached Summary
		if h.Cache.Get(key, &cached) {
			webjson.OK(w, cached)
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "dashboard summary")
	defer cancel()

	var s Summary
	s.GeneratedAt = time.Now()

	var err error
	if s.Members.Total, err = h.Members.Count(ctx, ""); err != nil {
		h.Log.Error("member count failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if s.Members.Active, err = h.Members.Count(ctx, "active"); err != nil {
		h.Log.Error("member count failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if s.Visitors.Total, err = h.Visitors.Count(ctx, ""); err != nil {
		h.Log.Error("visitor count failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if s.Visitors.PendingFollowUp, err = h.Visitors.Count(ctx, visitorstore.FollowUpPending); err != nil {
		h.Log.Error("visitor count failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	contribs, err := h.Contributions.All(ctx)
	if err != nil {
		h.Log.Error("contribution load failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	// Canonicalize owner ids first so a member with rows under both the
	// business id and the document id counts as one contributor.
	ms, err := h.Members.All(ctx)
	if err != nil {
		h.Log.Error("member load failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	rollup := stats.RollupContributions(stats.CanonicalizeOwners(ms, contribs))
	s.Giving.GrandTotal = rollup.GrandTotal
	s.Giving.Monthly = rollup.Monthly
	s.Giving.Top = stats.TopContributors(rollup, 5)

	followUps, err := h.Notes.OpenFollowUps(ctx)
	if err != nil {
		h.Log.Error("follow-up load failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.OpenFollowUps = len(followUps)

	sessions, err := h.Sessions.All(ctx)
	if err != nil {
		h.Log.Error("session load failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.Sessions = len(sessions)

	if s.BadgesAwarded, err = h.Achievements.TotalAwarded(ctx); err != nil {
		h.Log.Error("badge count failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	if h.Cache != nil {
		if err := h.Cache.Put(key, s); err != nil {
			h.Log.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	webjson.OK(w, s)
}
