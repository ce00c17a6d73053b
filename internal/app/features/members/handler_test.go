package members

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

// testRouter mounts the member routes behind a middleware that injects the
// given session user, standing in for the cookie layer.
func testRouter(h *Handler, u *auth.SessionUser) http.Handler {
	r := chi.NewRouter()
	if u != nil {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, auth.WithUser(req, u))
			})
		})
	}
	r.Mount("/members", Routes(h))
	return r
}

func adminUser() *auth.SessionUser {
	return &auth.SessionUser{
		ID:   primitive.NewObjectID().Hex(),
		Name: "Admin", Email: "admin@example.com", Role: "admin",
	}
}

func TestCreateAndDetail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewHandler(nil, db, nil, zap.NewNop())
	router := testRouter(h, adminUser())

	body, _ := json.Marshal(map[string]any{
		"full_name": "Ama Mensah",
		"email":     "ama@example.com",
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/members/", bytes.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d, body %s", rec.Code, rec.Body.String())
	}
	var created struct {
		MemberID string `json:"member_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.MemberID == "" {
		t.Fatal("member id not assigned")
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/members/"+created.MemberID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("detail: got %d, body %s", rec.Code, rec.Body.String())
	}
	var detail struct {
		Attendance struct {
			Total int `json:"total"`
		} `json:"attendance"`
		Badges []string `json:"badges"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if detail.Attendance.Total != 0 || len(detail.Badges) != 0 {
		t.Errorf("fresh member should have no attendance or badges: %s", rec.Body.String())
	}
}

func TestCreate_RequiresWriteRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewHandler(nil, db, nil, zap.NewNop())

	viewer := &auth.SessionUser{
		ID:   primitive.NewObjectID().Hex(),
		Name: "Viewer", Email: "v@example.com", Role: "viewer",
	}
	router := testRouter(h, viewer)

	body, _ := json.Marshal(map[string]any{"full_name": "Ama Mensah"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/members/", bytes.NewReader(body)))
	if rec.Code != http.StatusForbidden {
		t.Errorf("viewer create: got %d, want 403", rec.Code)
	}

	// Signed out entirely is a 401.
	anon := testRouter(h, nil)
	rec = httptest.NewRecorder()
	anon.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/members/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous list: got %d, want 401", rec.Code)
	}
}

func TestList_SearchFilter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	f := testutil.NewFixtures(t, db)
	f.CreateMember(ctx, "Ama Mensah", "GCC-0001")
	f.CreateMember(ctx, "Kofi Owusu", "GCC-0002")

	h := NewHandler(nil, db, nil, zap.NewNop())
	router := testRouter(h, adminUser())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/members/?q=ama", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list: got %d", rec.Code)
	}
	var out struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Count != 1 {
		t.Errorf("search: got %d members, want 1", out.Count)
	}
}
