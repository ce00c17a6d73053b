// internal/app/features/auditlog/handler.go
package auditlog

import (
	"net/http"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/covenantapps/flockhub/internal/app/store/audit"
	"github.com/covenantapps/flockhub/internal/app/system/timeouts"
	"github.com/covenantapps/flockhub/internal/app/system/webjson"
)

// Handler exposes the audit trail to administrators.
type Handler struct {
	Audit *audit.Store
	Log   *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{Audit: audit.New(db), Log: logger}
}

// ServeList returns audit events newest first, with optional category,
// event type, user and time-range filters.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "audit list")
	defer cancel()

	q := r.URL.Query()
	f := audit.QueryFilter{
		Category:  q.Get("category"),
		EventType: q.Get("event_type"),
		Limit:     100,
	}
	if v, err := strconv.ParseInt(q.Get("limit"), 10, 64); err == nil && v > 0 {
		f.Limit = v
	}
	if v, err := strconv.ParseInt(q.Get("offset"), 10, 64); err == nil {
		f.Offset = v
	}
	if id := q.Get("user_id"); id != "" {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			webjson.Error(w, http.StatusBadRequest, "invalid user_id")
			return
		}
		f.UserID = &oid
	}
	if s := q.Get("since"); s != "" {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			webjson.Error(w, http.StatusBadRequest, "since must be RFC 3339")
			return
		}
		f.StartTime = &ts
	}
	if s := q.Get("until"); s != "" {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			webjson.Error(w, http.StatusBadRequest, "until must be RFC 3339")
			return
		}
		f.EndTime = &ts
	}

	events, err := h.Audit.List(ctx, f)
	if err != nil {
		h.Log.Error("audit list failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	webjson.OK(w, map[string]any{"events": events, "count": len(events)})
}
