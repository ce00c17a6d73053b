// internal/app/system/stats/badges.go
package stats

import (
	"sort"
	"time"

	"github.com/covenantapps/flockhub/internal/domain/models"
)

// Metric names a measurable a badge threshold applies to.
type Metric string

const (
	MetricTotalAttendance Metric = "total_attendance"
	MetricLongestStreak   Metric = "longest_streak"
	MetricPerfectMonth    Metric = "perfect_month"
	MetricPerfectYear     Metric = "perfect_year"
)

// BadgeRule maps a metric threshold to a badge id.
type BadgeRule struct {
	ID        string
	Metric    Metric
	Threshold int
}

// DefaultBadgeRules is the fixed badge table. A member earns the union of all
// thresholds met; rules are evaluated independently.
var DefaultBadgeRules = []BadgeRule{
	{ID: "faithful_10", Metric: MetricTotalAttendance, Threshold: 10},
	{ID: "faithful_25", Metric: MetricTotalAttendance, Threshold: 25},
	{ID: "faithful_50", Metric: MetricTotalAttendance, Threshold: 50},
	{ID: "faithful_100", Metric: MetricTotalAttendance, Threshold: 100},
	{ID: "streak_4", Metric: MetricLongestStreak, Threshold: 4},
	{ID: "streak_8", Metric: MetricLongestStreak, Threshold: 8},
	{ID: "streak_12", Metric: MetricLongestStreak, Threshold: 12},
	{ID: "perfect_month", Metric: MetricPerfectMonth, Threshold: 1},
	{ID: "perfect_year", Metric: MetricPerfectYear, Threshold: 1},
}

// MemberAttendance bundles the per-member attendance figures the badge table
// and the member views both need.
type MemberAttendance struct {
	Total         int
	CurrentStreak int
	LongestStreak int
	PerfectMonths []string
	PerfectYears  []string
}

// ComputeAttendance derives a member's attendance figures from the full
// record and session sets. Records are matched under both identifiers and
// de-duplicated before anything is counted.
func ComputeAttendance(now time.Time, ref MemberRef, records []models.AttendanceRecord, sessions []models.AttendanceSession) MemberAttendance {
	mine := RecordsForMember(ref, records)
	byID := make(map[string]models.AttendanceSession, len(sessions))
	for _, s := range sessions {
		byID[s.ID.Hex()] = s
	}
	return MemberAttendance{
		Total:         len(mine),
		CurrentStreak: CurrentStreak(now, mine, byID),
		LongestStreak: LongestStreak(mine, byID),
		PerfectMonths: PerfectMonths(ref, records, sessions),
		PerfectYears:  PerfectYears(ref, records, sessions),
	}
}

// EarnedBadges evaluates the rule table against the figures. The result is
// sorted and duplicate-free, and depends only on the input, so recomputing is
// idempotent.
func EarnedBadges(att MemberAttendance, rules []BadgeRule) []string {
	earned := make(map[string]struct{})
	for _, r := range rules {
		var v int
		switch r.Metric {
		case MetricTotalAttendance:
			v = att.Total
		case MetricLongestStreak:
			v = att.LongestStreak
		case MetricPerfectMonth:
			v = len(att.PerfectMonths)
		case MetricPerfectYear:
			v = len(att.PerfectYears)
		default:
			continue
		}
		if v >= r.Threshold {
			earned[r.ID] = struct{}{}
		}
	}

	out := make([]string, 0, len(earned))
	for id := range earned {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
