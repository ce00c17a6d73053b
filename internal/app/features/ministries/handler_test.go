package ministries

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/covenantapps/flockhub/internal/app/system/auth"
	"github.com/covenantapps/flockhub/internal/app/system/indexes"
	"github.com/covenantapps/flockhub/internal/testutil"
)

func testRouter(h *Handler, role string) http.Handler {
	u := &auth.SessionUser{
		ID:   primitive.NewObjectID().Hex(),
		Name: "Test User", Email: "t@example.com", Role: role,
	}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, auth.WithUser(req, u))
		})
	})
	r.Mount("/ministries", Routes(h))
	return r
}

func TestCreate_DuplicateName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	h := NewHandler(db, nil, zap.NewNop())
	router := testRouter(h, "admin")

	body, _ := json.Marshal(map[string]string{"name": "Choir", "type": "music"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ministries/", bytes.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d, body %s", rec.Code, rec.Body.String())
	}

	// Same name with different casing hits the folded unique index.
	body, _ = json.Marshal(map[string]string{"name": "CHOIR"})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ministries/", bytes.NewReader(body)))
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate: got %d, want 409", rec.Code)
	}
}

func TestRosterAddAndDetail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	f := testutil.NewFixtures(t, db)
	m := f.CreateMember(ctx, "Ama Mensah", "GCC-0001")

	h := NewHandler(db, nil, zap.NewNop())
	router := testRouter(h, "leader")

	body, _ := json.Marshal(map[string]string{"name": "Choir"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ministries/", bytes.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d", rec.Code)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Add twice; the roster is a set.
	addBody, _ := json.Marshal(map[string]string{"member_id": m.MemberID})
	for i := 0; i < 2; i++ {
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec,
			httptest.NewRequest(http.MethodPost, "/ministries/"+created.ID+"/members", bytes.NewReader(addBody)))
		if rec.Code != http.StatusOK {
			t.Fatalf("roster add %d: got %d, body %s", i, rec.Code, rec.Body.String())
		}
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ministries/"+created.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("detail: got %d", rec.Code)
	}
	var detail struct {
		Roster []struct {
			MemberID string `json:"member_id"`
		} `json:"roster"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if len(detail.Roster) != 1 || detail.Roster[0].MemberID != m.MemberID {
		t.Errorf("roster: got %+v", detail.Roster)
	}
}

func TestAnnounce_SanitizesBody(t *testing.T) {
	db := testutil.SetupTestDB(t)

	h := NewHandler(db, nil, zap.NewNop())
	router := testRouter(h, "admin")

	body, _ := json.Marshal(map[string]string{"name": "Youth"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ministries/", bytes.NewReader(body)))
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	annBody, _ := json.Marshal(map[string]string{
		"title": "Retreat",
		"body":  `<p>Sign up</p><script>alert("x")</script>`,
	})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/ministries/"+created.ID+"/announcements", bytes.NewReader(annBody)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("announce: got %d, body %s", rec.Code, rec.Body.String())
	}
	var ann struct {
		Body string `json:"body"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &ann); err != nil {
		t.Fatalf("decode announcement: %v", err)
	}
	if strings.Contains(ann.Body, "<script>") {
		t.Errorf("script tag survived sanitization: %q", ann.Body)
	}
	if !strings.Contains(ann.Body, "Sign up") {
		t.Errorf("benign markup stripped too far: %q", ann.Body)
	}
}
