// internal/app/system/stats/streaks.go
package stats

import (
	"sort"
	"time"

	"github.com/covenantapps/flockhub/internal/domain/models"
)

// currentStreakWindow is how recent the last attended session must be for the
// current streak to count at all. Two missed Sundays and the streak is gone.
const currentStreakWindow = 14 * 24 * time.Hour

// attendedDates resolves each record to its session date, drops records whose
// session is missing or whose date does not parse, and returns the dates
// sorted ascending.
func attendedDates(records []models.AttendanceRecord, sessions map[string]models.AttendanceSession) []time.Time {
	dates := make([]time.Time, 0, len(records))
	for _, rec := range records {
		sess, ok := sessions[rec.SessionID.Hex()]
		if !ok {
			continue
		}
		d, ok := parseDate(sess.Date)
		if !ok {
			continue
		}
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// withinAWeek applies the streak step rule: two dates chain when
// floor(dayDifference/7) <= 1, i.e. up to 13 whole days apart.
func withinAWeek(earlier, later time.Time) bool {
	days := int(later.Sub(earlier).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days/7 <= 1
}

// CurrentStreak returns the member's active streak as of now. If the most
// recent attended session is older than the 14-day window the streak is 0;
// otherwise it walks backward from the most recent date until the first gap.
func CurrentStreak(now time.Time, records []models.AttendanceRecord, sessions map[string]models.AttendanceSession) int {
	dates := attendedDates(records, sessions)
	if len(dates) == 0 {
		return 0
	}

	last := dates[len(dates)-1]
	if now.Sub(last) > currentStreakWindow {
		return 0
	}

	streak := 1
	for i := len(dates) - 1; i > 0; i-- {
		if !withinAWeek(dates[i-1], dates[i]) {
			break
		}
		streak++
	}
	return streak
}

// LongestStreak returns the longest chain of sessions attended at most a week
// step apart, over the member's whole history.
func LongestStreak(records []models.AttendanceRecord, sessions map[string]models.AttendanceSession) int {
	dates := attendedDates(records, sessions)
	if len(dates) == 0 {
		return 0
	}

	longest, run := 1, 1
	for i := 1; i < len(dates); i++ {
		if withinAWeek(dates[i-1], dates[i]) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// perfectPeriods groups sessions by key, then reports the keys where the
// member attended every session and the period has at least minSessions.
func perfectPeriods(ref MemberRef, records []models.AttendanceRecord, sessions []models.AttendanceSession, keyFn func(time.Time) string, minSessions int) []string {
	sessionsByKey := make(map[string]map[string]struct{}) // period -> session ids
	for _, s := range sessions {
		d, ok := parseDate(s.Date)
		if !ok {
			continue
		}
		k := keyFn(d)
		if sessionsByKey[k] == nil {
			sessionsByKey[k] = make(map[string]struct{})
		}
		sessionsByKey[k][s.ID.Hex()] = struct{}{}
	}

	attended := make(map[string]struct{})
	seen := make(map[string]struct{})
	for _, rec := range records {
		if !ref.Matches(rec.MemberID) {
			continue
		}
		id := rec.ID.Hex()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		attended[rec.SessionID.Hex()] = struct{}{}
	}

	var out []string
	for k, ids := range sessionsByKey {
		if len(ids) < minSessions {
			continue
		}
		all := true
		for id := range ids {
			if _, ok := attended[id]; !ok {
				all = false
				break
			}
		}
		if all {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// PerfectMonths returns "2006-01" keys for months with >=4 sessions where the
// member attended every one.
func PerfectMonths(ref MemberRef, records []models.AttendanceRecord, sessions []models.AttendanceSession) []string {
	return perfectPeriods(ref, records, sessions, func(t time.Time) string { return t.Format("2006-01") }, 4)
}

// PerfectYears returns "2006" keys for years with >=40 sessions where the
// member attended every one.
func PerfectYears(ref MemberRef, records []models.AttendanceRecord, sessions []models.AttendanceSession) []string {
	return perfectPeriods(ref, records, sessions, func(t time.Time) string { return t.Format("2006") }, 40)
}
