package stats

import (
	"testing"

	"github.com/covenantapps/flockhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMemberRefMatches(t *testing.T) {
	m := models.Member{ID: primitive.NewObjectID(), MemberID: "M-042"}
	ref := NewMemberRef(m)

	if !ref.Matches("M-042") {
		t.Error("business id must match")
	}
	if !ref.Matches(m.ID.Hex()) {
		t.Error("document id must match")
	}
	if ref.Matches("M-999") {
		t.Error("other member id must not match")
	}
	if ref.Matches("") {
		t.Error("empty id must not match")
	}
}

func TestRecordsForMember_BothIdentifiers(t *testing.T) {
	m := models.Member{ID: primitive.NewObjectID(), MemberID: "M-042"}
	ref := NewMemberRef(m)
	session := primitive.NewObjectID()

	records := []models.AttendanceRecord{
		{ID: primitive.NewObjectID(), SessionID: session, MemberID: "M-042"},
		{ID: primitive.NewObjectID(), SessionID: session, MemberID: m.ID.Hex()},
		{ID: primitive.NewObjectID(), SessionID: session, MemberID: "M-999"},
	}

	got := RecordsForMember(ref, records)
	if len(got) != 2 {
		t.Errorf("got %d records, want 2 (one per identifier)", len(got))
	}
}

func TestRecordsForMember_DedupByRecordID(t *testing.T) {
	ref := MemberRef{MemberID: "M-042", DocID: "abc123"}
	rec := models.AttendanceRecord{ID: primitive.NewObjectID(), SessionID: primitive.NewObjectID(), MemberID: "M-042"}

	got := RecordsForMember(ref, []models.AttendanceRecord{rec, rec})
	if len(got) != 1 {
		t.Errorf("duplicate record id counted twice: got %d, want 1", len(got))
	}
}

func TestContributionsForMember(t *testing.T) {
	m := models.Member{ID: primitive.NewObjectID(), MemberID: "M-042"}
	ref := NewMemberRef(m)

	contribs := []models.Contribution{
		{ID: primitive.NewObjectID(), MemberID: "M-042", Amount: 10},
		{ID: primitive.NewObjectID(), MemberID: m.ID.Hex(), Amount: 20},
		{ID: primitive.NewObjectID(), MemberID: "M-999", Amount: 40},
	}

	got := ContributionsForMember(ref, contribs)
	var sum float64
	for _, c := range got {
		sum += c.Amount
	}
	if sum != 30 {
		t.Errorf("matched total: got %v, want 30", sum)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"2025-10-12", true},
		{"2025-10-12T09:30:00Z", true},
		{"2025-10-12T09:30:00", true},
		{"12/10/2025", false},
		{"", false},
	}
	for _, tt := range tests {
		if _, ok := parseDate(tt.in); ok != tt.ok {
			t.Errorf("parseDate(%q) ok = %v, want %v", tt.in, ok, tt.ok)
		}
	}
}
