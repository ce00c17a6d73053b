package attendance

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
	r.Mount("/attendance", Routes(h))
	return r
}

func TestMark_ConflictOnSecondMark(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	f := testutil.NewFixtures(t, db)
	m := f.CreateMember(ctx, "Ama Mensah", "GCC-0001")
	sess := f.CreateSession(ctx, "Sunday Service", "2025-10-12")

	h := NewHandler(nil, db, nil, zap.NewNop())
	router := testRouter(h, "leader")

	body, _ := json.Marshal(map[string]string{"member_id": m.MemberID})
	url := "/attendance/sessions/" + sess.ID.Hex() + "/mark"

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, url, bytes.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("first mark: got %d, body %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, url, bytes.NewReader(body)))
	if rec.Code != http.StatusConflict {
		t.Errorf("second mark: got %d, want 409", rec.Code)
	}
}

func TestMark_UnknownMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	f := testutil.NewFixtures(t, db)
	sess := f.CreateSession(ctx, "Sunday Service", "2025-10-12")

	h := NewHandler(nil, db, nil, zap.NewNop())
	router := testRouter(h, "admin")

	body, _ := json.Marshal(map[string]string{"member_id": "GCC-9999"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/attendance/sessions/"+sess.ID.Hex()+"/mark", bytes.NewReader(body)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown member: got %d, want 404", rec.Code)
	}
}

func TestSessionDetail_Counts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	f := testutil.NewFixtures(t, db)
	sess := f.CreateSession(ctx, "Sunday Service", "2025-10-12")
	f.MarkAttendance(ctx, sess.ID, "GCC-0001")
	f.MarkAttendance(ctx, sess.ID, "GCC-0002")

	h := NewHandler(nil, db, nil, zap.NewNop())
	router := testRouter(h, "viewer")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/attendance/sessions/"+sess.ID.Hex(), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("detail: got %d", rec.Code)
	}
	var out struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Count != 2 {
		t.Errorf("head count: got %d, want 2", out.Count)
	}
}

func TestCreateSession_BadDate(t *testing.T) {
	db := testutil.SetupTestDB(t)

	h := NewHandler(nil, db, nil, zap.NewNop())
	router := testRouter(h, "leader")

	body, _ := json.Marshal(map[string]string{"name": "Sunday", "date": "12/10/2025"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/attendance/sessions", bytes.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad date: got %d, want 400", rec.Code)
	}
}

func TestDeleteSession_RemovesRecords(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	f := testutil.NewFixtures(t, db)
	sess := f.CreateSession(ctx, "Sunday Service", "2025-10-12")
	f.MarkAttendance(ctx, sess.ID, "GCC-0001")
	f.MarkAttendance(ctx, sess.ID, "GCC-0002")

	h := NewHandler(nil, db, nil, zap.NewNop())
	router := testRouter(h, "admin")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec,
		httptest.NewRequest(http.MethodDelete, "/attendance/sessions/"+sess.ID.Hex(), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: got %d, body %s", rec.Code, rec.Body.String())
	}

	if _, err := h.Sessions.GetByID(ctx, sess.ID); err == nil {
		t.Error("session still present after delete")
	}
	n, err := h.Records.CountBySession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("count records: %v", err)
	}
	if n != 0 {
		t.Errorf("orphaned records after delete: got %d, want 0", n)
	}
}

func TestDeleteSession_RecoverableAfterPartialCascade(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	f := testutil.NewFixtures(t, db)
	sess := f.CreateSession(ctx, "Sunday Service", "2025-10-12")
	f.MarkAttendance(ctx, sess.ID, "GCC-0001")

	h := NewHandler(nil, db, nil, zap.NewNop())
	router := testRouter(h, "admin")

	// The cascade deletes records before the session, so a failure between
	// the two steps leaves this state: records gone, session still present.
	// The session must still resolve, and retrying the delete must finish
	// the job instead of 404ing.
	if _, err := h.Records.DeleteBySession(ctx, sess.ID); err != nil {
		t.Fatalf("delete records: %v", err)
	}
	if _, err := h.Sessions.GetByID(ctx, sess.ID); err != nil {
		t.Fatalf("session must survive a partial cascade: %v", err)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec,
		httptest.NewRequest(http.MethodDelete, "/attendance/sessions/"+sess.ID.Hex(), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("retried delete: got %d, want 200", rec.Code)
	}
	if _, err := h.Sessions.GetByID(ctx, sess.ID); err == nil {
		t.Error("session still present after retried delete")
	}
}
