package memberstore

import (
	"errors"
	"testing"

	"github.com/covenantapps/flockhub/internal/app/system/indexes"
	"github.com/covenantapps/flockhub/internal/domain/models"
	"github.com/covenantapps/flockhub/internal/testutil"
)

func TestCreate_AssignsSequentialMemberIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)

	store := New(db)
	first, err := store.Create(ctx, models.Member{FullName: "Ama Mensah"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := store.Create(ctx, models.Member{FullName: "Kofi Owusu"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if first.MemberID == "" || second.MemberID == "" {
		t.Fatal("member ids not assigned")
	}
	if first.MemberID == second.MemberID {
		t.Errorf("duplicate assigned member id %q", first.MemberID)
	}
	if first.Status != "active" {
		t.Errorf("default status: got %q, want active", first.Status)
	}
	if first.FullNameCI == "" {
		t.Error("folded name not set")
	}
}

func TestCreate_DuplicateMemberID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	store := New(db)
	if _, err := store.Create(ctx, models.Member{FullName: "Ama", MemberID: "GCC-0042"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := store.Create(ctx, models.Member{FullName: "Other", MemberID: "GCC-0042"})
	if !errors.Is(err, ErrDuplicateMemberID) {
		t.Errorf("got %v, want ErrDuplicateMemberID", err)
	}
}

func TestResolve_BothIdentifiers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)

	store := New(db)
	m, err := store.Create(ctx, models.Member{FullName: "Ama Mensah", MemberID: "GCC-0042"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	byBusiness, err := store.Resolve(ctx, "GCC-0042")
	if err != nil {
		t.Fatalf("resolve by business id: %v", err)
	}
	byDoc, err := store.Resolve(ctx, m.ID.Hex())
	if err != nil {
		t.Fatalf("resolve by doc id: %v", err)
	}
	if byBusiness.ID != m.ID || byDoc.ID != m.ID {
		t.Error("resolve returned a different member")
	}
}

func TestList_SearchAndStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)

	store := New(db)
	if _, err := store.Create(ctx, models.Member{FullName: "Ama Mensah"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.Create(ctx, models.Member{FullName: "Kofi Owusu"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	inactive, err := store.Create(ctx, models.Member{FullName: "Ama Boateng", Status: "inactive"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.List(ctx, ListFilter{Search: "ama"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("search 'ama': got %d members, want 2", len(got))
	}

	got, err = store.List(ctx, ListFilter{Status: "inactive"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != inactive.ID {
		t.Errorf("status filter: got %v", got)
	}
}
