package events

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
	r.Mount("/events", Routes(h))
	return r
}

func createEvent(t *testing.T, router http.Handler, name string, capacity int) string {
	t.Helper()
	body, _ := json.Marshal(map[string]any{
		"name":     name,
		"date":     "2025-12-24",
		"capacity": capacity,
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/events/", bytes.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create event: got %d, body %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return created.ID
}

func TestRegister_CapacityAndDuplicates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	f := testutil.NewFixtures(t, db)
	m1 := f.CreateMember(ctx, "Ama Mensah", "GCC-0001")
	m2 := f.CreateMember(ctx, "Kofi Owusu", "GCC-0002")
	m3 := f.CreateMember(ctx, "Efua Asante", "GCC-0003")

	h := NewHandler(db, nil, zap.NewNop())
	router := testRouter(h, "leader")
	eventID := createEvent(t, router, "Christmas Concert", 2)

	register := func(memberID string) int {
		body, _ := json.Marshal(map[string]string{"member_id": memberID})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec,
			httptest.NewRequest(http.MethodPost, "/events/"+eventID+"/register", bytes.NewReader(body)))
		return rec.Code
	}

	if code := register(m1.MemberID); code != http.StatusCreated {
		t.Fatalf("first register: got %d", code)
	}
	if code := register(m1.MemberID); code != http.StatusConflict {
		t.Errorf("duplicate register: got %d, want 409", code)
	}
	if code := register(m2.MemberID); code != http.StatusCreated {
		t.Fatalf("second register: got %d", code)
	}
	if code := register(m3.MemberID); code != http.StatusConflict {
		t.Errorf("register past capacity: got %d, want 409", code)
	}
}

func TestDetail_RemainingSeats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	f := testutil.NewFixtures(t, db)
	m := f.CreateMember(ctx, "Ama Mensah", "GCC-0001")

	h := NewHandler(db, nil, zap.NewNop())
	router := testRouter(h, "admin")
	eventID := createEvent(t, router, "Harvest Dinner", 10)

	body, _ := json.Marshal(map[string]string{"member_id": m.MemberID})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/events/"+eventID+"/register", bytes.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events/"+eventID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("detail: got %d", rec.Code)
	}
	var out struct {
		Registered int `json:"registered"`
		Remaining  int `json:"remaining"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Registered != 1 || out.Remaining != 9 {
		t.Errorf("seats: got %+v, want 1 registered / 9 remaining", out)
	}
}

func TestParticipation_RollsUpAcrossEvents(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	f := testutil.NewFixtures(t, db)
	m1 := f.CreateMember(ctx, "Ama Mensah", "GCC-0001")
	m2 := f.CreateMember(ctx, "Kofi Owusu", "GCC-0002")

	h := NewHandler(db, nil, zap.NewNop())
	router := testRouter(h, "leader")

	retreat := createEvent(t, router, "Youth Retreat", 0)
	picnic := createEvent(t, router, "Church Picnic", 0)

	register := func(eventID, memberID string) {
		body, _ := json.Marshal(map[string]string{"member_id": memberID})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec,
			httptest.NewRequest(http.MethodPost, "/events/"+eventID+"/register", bytes.NewReader(body)))
		if rec.Code != http.StatusCreated {
			t.Fatalf("register: got %d, body %s", rec.Code, rec.Body.String())
		}
	}
	register(retreat, m1.MemberID)
	register(retreat, m2.MemberID)
	register(picnic, m1.MemberID)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events/participation", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("participation: got %d, body %s", rec.Code, rec.Body.String())
	}

	var out struct {
		Events []struct {
			EventID   string   `json:"event_id"`
			EventName string   `json:"event_name"`
			Count     int      `json:"count"`
			MemberIDs []string `json:"member_ids"`
		} `json:"events"`
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Count != 2 {
		t.Fatalf("event count: got %d, want 2", out.Count)
	}

	counts := map[string]int{}
	for _, e := range out.Events {
		counts[e.EventName] = e.Count
	}
	if counts["Youth Retreat"] != 2 {
		t.Errorf("retreat head count: got %d, want 2", counts["Youth Retreat"])
	}
	if counts["Church Picnic"] != 1 {
		t.Errorf("picnic head count: got %d, want 1", counts["Church Picnic"])
	}
}
