// internal/app/system/stats/refs.go
package stats

import (
	"time"

	"github.com/covenantapps/flockhub/internal/domain/models"
)

// MemberRef resolves a member's two identifiers once, at load time. Attendance
// and contribution rows written by older clients hold the member document's
// hex ObjectID where newer rows hold the business member id; every join over
// those collections must accept both or it undercounts.
type MemberRef struct {
	DocID    string
	MemberID string
}

// NewMemberRef builds the resolved reference for a member.
func NewMemberRef(m models.Member) MemberRef {
	return MemberRef{DocID: m.ID.Hex(), MemberID: m.MemberID}
}

// Matches reports whether id refers to this member under either identifier.
func (r MemberRef) Matches(id string) bool {
	if id == "" {
		return false
	}
	return id == r.MemberID || id == r.DocID
}

// RecordsForMember returns the member's attendance records matched under both
// identifiers, de-duplicated by record id. Without the de-dup step a row that
// somehow matches both lookups would count twice.
func RecordsForMember(ref MemberRef, records []models.AttendanceRecord) []models.AttendanceRecord {
	seen := make(map[string]struct{}, len(records))
	var out []models.AttendanceRecord
	for _, rec := range records {
		if !ref.Matches(rec.MemberID) {
			continue
		}
		id := rec.ID.Hex()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, rec)
	}
	return out
}

// ContributionsForMember is the contribution-side twin of RecordsForMember.
func ContributionsForMember(ref MemberRef, contribs []models.Contribution) []models.Contribution {
	seen := make(map[string]struct{}, len(contribs))
	var out []models.Contribution
	for _, c := range contribs {
		if !ref.Matches(c.MemberID) {
			continue
		}
		id := c.ID.Hex()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, c)
	}
	return out
}

// dateLayouts covers the formats that exist in production documents.
var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"}

// parseDate parses a stored date string. Unparseable values report ok=false
// and the row is excluded from date-based groupings rather than failing the
// whole aggregation.
func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
