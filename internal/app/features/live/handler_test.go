package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/covenantapps/flockhub/internal/app/system/auth"
	"github.com/covenantapps/flockhub/internal/app/system/cache"
	"github.com/covenantapps/flockhub/internal/app/system/connectivity"
	"github.com/covenantapps/flockhub/internal/app/system/livequery"
)

// staticSource serves one snapshot per stream and then blocks until the
// subscription is cancelled.
type staticSource struct {
	records []livequery.Record
}

func (s *staticSource) Open(ctx context.Context, collection string, opts livequery.Options) (livequery.Stream, error) {
	return &staticStream{records: s.records}, nil
}

type staticStream struct {
	records []livequery.Record
	served  bool
}

func (s *staticStream) Next(ctx context.Context) ([]livequery.Record, error) {
	if !s.served {
		s.served = true
		return s.records, nil
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func (s *staticStream) Close(ctx context.Context) error { return nil }

func newTestManager(t *testing.T, src livequery.Source) *livequery.Manager {
	t.Helper()
	c, err := cache.Open("", cache.DefaultTTL, zap.NewNop())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	m := livequery.NewManager(src, c, connectivity.NewHub(zap.NewNop()), zap.NewNop())
	t.Cleanup(m.Close)
	return m
}

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
	r.Mount("/live", Routes(h))
	return r
}

func TestWatch_StreamsSnapshot(t *testing.T) {
	src := &staticSource{records: []livequery.Record{{"id": "abc", "full_name": "Ama Mensah"}}}
	h := NewHandler(newTestManager(t, src), zap.NewNop())
	router := testRouter(h, "viewer")

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/live/members", nil).WithContext(ctx)
	router.ServeHTTP(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type: got %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "event: snapshot") {
		t.Errorf("no snapshot frame in body: %q", body)
	}
	if !strings.Contains(body, "Ama Mensah") {
		t.Errorf("snapshot payload missing record: %q", body)
	}
}

func TestWatch_UnknownCollection(t *testing.T) {
	h := NewHandler(newTestManager(t, &staticSource{}), zap.NewNop())
	router := testRouter(h, "viewer")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/live/passwords", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown collection: got %d, want 404", rec.Code)
	}
}

func TestWatch_StaffOnlyCollection(t *testing.T) {
	h := NewHandler(newTestManager(t, &staticSource{}), zap.NewNop())
	router := testRouter(h, "viewer")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/live/visitors", nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("viewer on staff-only stream: got %d, want 403", rec.Code)
	}
}
