package attendancestore

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/covenantapps/flockhub/internal/app/system/indexes"
	"github.com/covenantapps/flockhub/internal/testutil"
)

func TestMark_DoubleMarkRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	f := testutil.NewFixtures(t, db)
	sess := f.CreateSession(ctx, "Sunday Service", "2025-10-12")
	store := New(db)

	if _, err := store.Mark(ctx, sess.ID, "GCC-0001", primitive.NewObjectID()); err != nil {
		t.Fatalf("first mark: %v", err)
	}

	_, err := store.Mark(ctx, sess.ID, "GCC-0001", primitive.NewObjectID())
	if !errors.Is(err, ErrAlreadyMarked) {
		t.Errorf("second mark: got %v, want ErrAlreadyMarked", err)
	}

	// Same member in a different session is fine.
	other := f.CreateSession(ctx, "Midweek", "2025-10-15")
	if _, err := store.Mark(ctx, other.ID, "GCC-0001", primitive.NewObjectID()); err != nil {
		t.Errorf("mark in other session: %v", err)
	}
}

func TestUnmarkAndCascade(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)

	f := testutil.NewFixtures(t, db)
	sess := f.CreateSession(ctx, "Sunday Service", "2025-10-12")
	store := New(db)

	if _, err := store.Mark(ctx, sess.ID, "GCC-0001", primitive.NewObjectID()); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if _, err := store.Mark(ctx, sess.ID, "GCC-0002", primitive.NewObjectID()); err != nil {
		t.Fatalf("mark: %v", err)
	}

	if err := store.Unmark(ctx, sess.ID, "GCC-0001"); err != nil {
		t.Fatalf("unmark: %v", err)
	}
	recs, err := store.BySession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("by session: %v", err)
	}
	if len(recs) != 1 || recs[0].MemberID != "GCC-0002" {
		t.Errorf("after unmark: got %v", recs)
	}

	n, err := store.DeleteBySession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("delete by session: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d records, want 1", n)
	}
}

func TestByMemberIDs_MatchesBothIdentifiers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)

	f := testutil.NewFixtures(t, db)
	m := f.CreateMember(ctx, "Ama Mensah", "GCC-0001")
	s1 := f.CreateSession(ctx, "Service 1", "2025-10-05")
	s2 := f.CreateSession(ctx, "Service 2", "2025-10-12")

	// One record per identifier style.
	f.MarkAttendance(ctx, s1.ID, m.MemberID)
	f.MarkAttendance(ctx, s2.ID, m.ID.Hex())
	f.MarkAttendance(ctx, s1.ID, "GCC-9999")

	store := New(db)
	recs, err := store.ByMemberIDs(ctx, []string{m.MemberID, m.ID.Hex()})
	if err != nil {
		t.Fatalf("by member ids: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("got %d records, want 2", len(recs))
	}
}
