package membershipstore

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/covenantapps/flockhub/internal/app/system/indexes"
	"github.com/covenantapps/flockhub/internal/domain/models"
	"github.com/covenantapps/flockhub/internal/testutil"
)

func TestRequest_OneRowPerGroupUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	store := New(db)
	group := primitive.NewObjectID()
	user := primitive.NewObjectID()

	if _, err := store.Request(ctx, group, user); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if _, err := store.Request(ctx, group, user); !errors.Is(err, ErrAlreadyRequested) {
		t.Errorf("second request: got %v, want ErrAlreadyRequested", err)
	}
}

func TestDecide(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)

	store := New(db)
	group := primitive.NewObjectID()
	user := primitive.NewObjectID()
	decider := primitive.NewObjectID()

	gm, err := store.Request(ctx, group, user)
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	if err := store.Decide(ctx, gm.ID, true, decider); err != nil {
		t.Fatalf("decide: %v", err)
	}

	got, err := store.Get(ctx, gm.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != models.MembershipApproved {
		t.Errorf("status: got %q, want approved", got.Status)
	}
	if got.DecidedBy != decider || got.DecidedAt == nil {
		t.Errorf("decision audit fields not set: %+v", got)
	}

	// A decided row cannot be decided again.
	if err := store.Decide(ctx, gm.ID, false, decider); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("second decide: got %v, want ErrNoDocuments", err)
	}
}

func TestLeaveAndCascade(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)

	store := New(db)
	group := primitive.NewObjectID()
	u1 := primitive.NewObjectID()
	u2 := primitive.NewObjectID()
	decider := primitive.NewObjectID()

	if _, err := store.Approve(ctx, group, u1, decider); err != nil {
		t.Fatalf("approve u1: %v", err)
	}
	if _, err := store.Approve(ctx, group, u2, decider); err != nil {
		t.Fatalf("approve u2: %v", err)
	}

	if err := store.Leave(ctx, group, u1); err != nil {
		t.Fatalf("leave: %v", err)
	}
	rows, err := store.ByGroup(ctx, group, models.MembershipApproved)
	if err != nil {
		t.Fatalf("by group: %v", err)
	}
	if len(rows) != 1 || rows[0].UserID != u2 {
		t.Errorf("after leave: got %v", rows)
	}

	n, err := store.DeleteByGroup(ctx, group)
	if err != nil {
		t.Fatalf("delete by group: %v", err)
	}
	if n != 1 {
		t.Errorf("cascade removed %d rows, want 1", n)
	}
}
