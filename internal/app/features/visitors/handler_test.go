package visitors

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
	r.Mount("/visitors", Routes(h))
	return r
}

func TestCreate_AssignsVisitorID(t *testing.T) {
	db := testutil.SetupTestDB(t)

	h := NewHandler(nil, db, nil, zap.NewNop())
	router := testRouter(h, "leader")

	body, _ := json.Marshal(map[string]string{
		"full_name":  "Efua Asante",
		"visit_date": "2025-10-12",
		"invited_by": "Ama Mensah",
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/visitors/", bytes.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d, body %s", rec.Code, rec.Body.String())
	}
	var v struct {
		VisitorID      string `json:"visitor_id"`
		FollowUpStatus string `json:"follow_up_status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.VisitorID == "" {
		t.Error("visitor id not assigned")
	}
	if v.FollowUpStatus != "pending" {
		t.Errorf("follow-up: got %q, want pending", v.FollowUpStatus)
	}
}

func TestFollowUp_RejectsUnknownStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	f := testutil.NewFixtures(t, db)
	v := f.CreateVisitor(ctx, "Efua Asante", "VIS-0001", "2025-10-12")

	h := NewHandler(nil, db, nil, zap.NewNop())
	router := testRouter(h, "admin")

	body, _ := json.Marshal(map[string]string{"status": "ghosted"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec,
		httptest.NewRequest(http.MethodPut, "/visitors/"+v.ID.Hex()+"/follow-up", bytes.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad status: got %d, want 400", rec.Code)
	}
}

func TestConvert(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	f := testutil.NewFixtures(t, db)
	v := f.CreateVisitor(ctx, "Efua Asante", "VIS-0001", "2025-10-12")

	h := NewHandler(nil, db, nil, zap.NewNop())
	router := testRouter(h, "admin")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/visitors/"+v.ID.Hex()+"/convert", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("convert: got %d, body %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Member struct {
			MemberID string `json:"member_id"`
			FullName string `json:"full_name"`
		} `json:"member"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Member.MemberID == "" || out.Member.FullName != "Efua Asante" {
		t.Errorf("converted member: %+v", out.Member)
	}

	// Conversion is one-way; a second convert is a conflict and the visitor
	// row survives as the closed pipeline record.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/visitors/"+v.ID.Hex()+"/convert", nil))
	if rec.Code != http.StatusConflict {
		t.Errorf("second convert: got %d, want 409", rec.Code)
	}

	got, err := h.Visitors.GetByID(ctx, v.ID)
	if err != nil {
		t.Fatalf("visitor reload: %v", err)
	}
	if !got.ConvertedToMember || got.FollowUpStatus != "closed" {
		t.Errorf("visitor after convert: %+v", got)
	}
}
