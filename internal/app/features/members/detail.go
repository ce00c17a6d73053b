// internal/app/features/members/detail.go
package members

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	contributionstore "github.com/covenantapps/flockhub/internal/app/store/contributions"
	"github.com/covenantapps/flockhub/internal/app/system/authz"
	"github.com/covenantapps/flockhub/internal/app/system/stats"
	"github.com/covenantapps/flockhub/internal/app/system/timeouts"
	"github.com/covenantapps/flockhub/internal/app/system/webjson"
	"github.com/covenantapps/flockhub/internal/domain/models"
)

// ServeDetail returns the member profile with attendance figures, earned
// badges, a contribution summary and pastoral notes. Figures are computed
// live; the stored achievement document carries the badge set as of the
// last nightly recompute.
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	m := h.resolveMember(w, r)
	if m == nil {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "member detail")
	defer cancel()

	ref := stats.NewMemberRef(*m)

	records, err := h.Attendance.ByMemberIDs(ctx, []string{m.MemberID, m.ID.Hex()})
	if err != nil {
		h.Log.Error("attendance load failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	sessions, err := h.Sessions.All(ctx)
	if err != nil {
		h.Log.Error("session load failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	att := stats.ComputeAttendance(time.Now(), ref, records, sessions)
	badges := stats.EarnedBadges(att, stats.DefaultBadgeRules)

	contribs, err := h.Contributions.List(ctx, contributionstore.ListFilter{
		MemberIDs: []string{m.MemberID, m.ID.Hex()},
	})
	if err != nil {
		h.Log.Error("contribution load failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	rollup := stats.RollupContributions(stats.ContributionsForMember(ref, contribs))

	// Pastoral notes are admin/leader material; viewers get the profile
	// without them.
	notes := []models.MemberNote{}
	if authz.CanRecord(r) {
		notes, err = h.Notes.ByMember(ctx, m.ID)
		if err != nil {
			h.Log.Error("note load failed", zap.Error(err))
			webjson.Error(w, http.StatusInternalServerError, "internal error")
			return
		}
		if notes == nil {
			notes = []models.MemberNote{}
		}
	}

	stored, err := h.Achievements.ByMember(ctx, m.ID)
	if err != nil {
		h.Log.Error("achievement load failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	webjson.OK(w, map[string]any{
		"member": m,
		"attendance": map[string]any{
			"total":          att.Total,
			"current_streak": att.CurrentStreak,
			"longest_streak": att.LongestStreak,
			"perfect_months": att.PerfectMonths,
			"perfect_years":  att.PerfectYears,
		},
		"badges":           badges,
		"badges_as_stored": stored.Badges,
		"badges_computed":  stored.ComputedAt,
		"contributions":    rollup,
		"notes":            notes,
	})
}
