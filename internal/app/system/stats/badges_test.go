package stats

import (
	"reflect"
	"testing"
	"time"
)

func TestEarnedBadges_Thresholds(t *testing.T) {
	tests := []struct {
		name string
		att  MemberAttendance
		want []string
	}{
		{
			name: "nothing earned",
			att:  MemberAttendance{Total: 3, LongestStreak: 2},
			want: []string{},
		},
		{
			name: "attendance tiers accumulate",
			att:  MemberAttendance{Total: 60, LongestStreak: 1},
			want: []string{"faithful_10", "faithful_25", "faithful_50"},
		},
		{
			name: "streak and perfect month",
			att:  MemberAttendance{Total: 12, LongestStreak: 8, PerfectMonths: []string{"2025-10"}},
			want: []string{"faithful_10", "perfect_month", "streak_4", "streak_8"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EarnedBadges(tt.att, DefaultBadgeRules)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("EarnedBadges: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEarnedBadges_Idempotent(t *testing.T) {
	att := MemberAttendance{Total: 30, LongestStreak: 5, PerfectMonths: []string{"2025-09", "2025-10"}}

	first := EarnedBadges(att, DefaultBadgeRules)
	second := EarnedBadges(att, DefaultBadgeRules)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("recompute must not accumulate: %v vs %v", first, second)
	}
}

func TestComputeAttendance_DualIdentifierDedup(t *testing.T) {
	records, _, sessions := buildHistory("M-001", "2025-10-05", "2025-10-12")
	ref := MemberRef{MemberID: "M-001", DocID: "abcdef"}

	// A legacy record referencing the member by document id.
	legacy, _, legacySessions := buildHistory(ref.DocID, "2025-10-19")
	records = append(records, legacy...)
	sessions = append(sessions, legacySessions...)

	att := ComputeAttendance(time.Now(), ref, records, sessions)
	if att.Total != 3 {
		t.Errorf("Total across both identifiers: got %d, want 3", att.Total)
	}
}
