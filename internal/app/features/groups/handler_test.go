package groups

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/covenantapps/flockhub/internal/app/system/auth"
	"github.com/covenantapps/flockhub/internal/testutil"
)

// routerAs wires the group routes behind a fixed session user.
func routerAs(h *Handler, u *auth.SessionUser) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, auth.WithUser(req, u))
		})
	})
	r.Mount("/groups", Routes(h))
	return r
}

func sessionUser(id primitive.ObjectID, role string) *auth.SessionUser {
	return &auth.SessionUser{ID: id.Hex(), Name: "U " + role, Email: role + "@example.com", Role: role}
}

func TestJoinFlow_PrivateGroup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	f := testutil.NewFixtures(t, db)

	ownerID := primitive.NewObjectID()
	joinerID := primitive.NewObjectID()
	g := f.CreateGroup(ctx, "Prayer Warriors", "private", ownerID)

	h := NewHandler(nil, db, nil, zap.NewNop())
	owner := routerAs(h, sessionUser(ownerID, "viewer"))
	joiner := routerAs(h, sessionUser(joinerID, "viewer"))

	// Join queues a pending request.
	rec := httptest.NewRecorder()
	joiner.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/groups/"+g.ID.Hex()+"/join", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("join: got %d, body %s", rec.Code, rec.Body.String())
	}
	var row struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &row); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if row.Status != "pending" {
		t.Errorf("join status: got %q, want pending", row.Status)
	}

	// A second join while pending is a conflict.
	rec = httptest.NewRecorder()
	joiner.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/groups/"+g.ID.Hex()+"/join", nil))
	if rec.Code != http.StatusConflict {
		t.Errorf("second join: got %d, want 409", rec.Code)
	}

	// The owner approves.
	body, _ := json.Marshal(map[string]bool{"approve": true})
	rec = httptest.NewRecorder()
	owner.ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/groups/"+g.ID.Hex()+"/requests/"+row.ID+"/decide", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("decide: got %d, body %s", rec.Code, rec.Body.String())
	}

	// The decision is final.
	rec = httptest.NewRecorder()
	owner.ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/groups/"+g.ID.Hex()+"/requests/"+row.ID+"/decide", bytes.NewReader(body)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("second decide: got %d, want 404", rec.Code)
	}
}

func TestDecide_NonManagerForbidden(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	f := testutil.NewFixtures(t, db)

	ownerID := primitive.NewObjectID()
	g := f.CreateGroup(ctx, "Bible Study", "private", ownerID)

	h := NewHandler(nil, db, nil, zap.NewNop())
	stranger := routerAs(h, sessionUser(primitive.NewObjectID(), "viewer"))

	body, _ := json.Marshal(map[string]bool{"approve": true})
	rec := httptest.NewRecorder()
	stranger.ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost,
			"/groups/"+g.ID.Hex()+"/requests/"+primitive.NewObjectID().Hex()+"/decide", bytes.NewReader(body)))
	if rec.Code != http.StatusForbidden {
		t.Errorf("stranger decide: got %d, want 403", rec.Code)
	}
}

func TestPrivateGroup_HiddenFromStrangers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	f := testutil.NewFixtures(t, db)

	ownerID := primitive.NewObjectID()
	g := f.CreateGroup(ctx, "Elders", "private", ownerID)

	h := NewHandler(nil, db, nil, zap.NewNop())
	stranger := routerAs(h, sessionUser(primitive.NewObjectID(), "viewer"))
	admin := routerAs(h, sessionUser(primitive.NewObjectID(), "admin"))

	rec := httptest.NewRecorder()
	stranger.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/groups/"+g.ID.Hex(), nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("stranger detail: got %d, want 403", rec.Code)
	}

	// Admins see everything, including the pending queue.
	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/groups/"+g.ID.Hex(), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("admin detail: got %d", rec.Code)
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, has := out["pending"]; !has {
		t.Error("admin detail missing pending queue")
	}

	// Private groups do not show in the stranger's listing.
	rec = httptest.NewRecorder()
	stranger.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/groups/", nil))
	var listing struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if listing.Count != 0 {
		t.Errorf("stranger listing: got %d groups, want 0", listing.Count)
	}
}

func TestPublicGroup_JoinApprovesImmediately(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	f := testutil.NewFixtures(t, db)

	g := f.CreateGroup(ctx, "Newcomers", "public", primitive.NewObjectID())

	h := NewHandler(nil, db, nil, zap.NewNop())
	joiner := routerAs(h, sessionUser(primitive.NewObjectID(), "viewer"))

	rec := httptest.NewRecorder()
	joiner.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/groups/"+g.ID.Hex()+"/join", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("join: got %d, body %s", rec.Code, rec.Body.String())
	}
	var row struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &row); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if row.Status != "approved" {
		t.Errorf("public join status: got %q, want approved", row.Status)
	}
}

func TestCreate_OwnerIsApprovedMember(t *testing.T) {
	db := testutil.SetupTestDB(t)

	ownerID := primitive.NewObjectID()
	h := NewHandler(nil, db, nil, zap.NewNop())
	owner := routerAs(h, sessionUser(ownerID, "viewer"))

	body, _ := json.Marshal(map[string]string{"name": "Choir Friends", "visibility": "private"})
	rec := httptest.NewRecorder()
	owner.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/groups/", bytes.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d, body %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	owner.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/groups/mine", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("mine: got %d", rec.Code)
	}
	var mine struct {
		Count  int `json:"count"`
		Groups []struct {
			Status string `json:"status"`
		} `json:"groups"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &mine); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if mine.Count != 1 || mine.Groups[0].Status != "approved" {
		t.Errorf("mine: got %+v", mine)
	}
}
