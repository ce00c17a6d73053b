// internal/app/features/live/handler.go
package live

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/covenantapps/flockhub/internal/app/system/authz"
	"github.com/covenantapps/flockhub/internal/app/system/livequery"
	"github.com/covenantapps/flockhub/internal/app/system/webjson"
)

// watchable maps URL names to collections and the minimum access they need.
// Contributions are deliberately absent; giving data does not stream.
var watchable = map[string]struct {
	collection string
	staffOnly  bool
}{
	"members":  {collection: "members"},
	"sessions": {collection: "attendance_sessions"},
	"marks":    {collection: "attendance_records"},
	"visitors": {collection: "visitors", staffOnly: true},
	"events":   {collection: "events"},
	"groups":   {collection: "groups"},
}

// Handler bridges live subscriptions onto Server-Sent Events. Each
// connected client holds one subscription; snapshots stream as SSE data
// frames until the client disconnects or the subscription ends.
type Handler struct {
	Live *livequery.Manager
	Log  *zap.Logger
}

func NewHandler(live *livequery.Manager, logger *zap.Logger) *Handler {
	return &Handler{Live: live, Log: logger}
}

// ServeWatch streams snapshots of one collection.
func (h *Handler) ServeWatch(w http.ResponseWriter, r *http.Request) {
	name := strings.ToLower(chi.URLParam(r, "collection"))
	target, ok := watchable[name]
	if !ok {
		webjson.Error(w, http.StatusNotFound, "unknown live collection")
		return
	}
	if target.staffOnly && !authz.CanRecord(r) {
		webjson.Error(w, http.StatusForbidden, "forbidden")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		webjson.Error(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	opts := livequery.Options{}
	if v, err := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64); err == nil && v > 0 {
		opts.Limit = v
	}
	if sort := r.URL.Query().Get("sort"); sort != "" {
		field, desc := sort, false
		if strings.HasPrefix(sort, "-") {
			field, desc = sort[1:], true
		}
		opts.Sort = []livequery.SortField{{Field: field, Desc: desc}}
	}

	// Buffered so a slow client skips intermediate snapshots instead of
	// stalling the subscription goroutine.
	updates := make(chan []livequery.Record, 1)
	errs := make(chan error, 1)

	unsubscribe := h.Live.Subscribe(target.collection, opts,
		func(records []livequery.Record) {
			select {
			case updates <- records:
			default:
				select {
				case <-updates:
				default:
				}
				updates <- records
			}
		},
		func(err error) {
			select {
			case errs <- err:
			default:
			}
		},
	)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case err := <-errs:
			h.Log.Warn("live stream ended",
				zap.String("collection", target.collection), zap.Error(err))
			fmt.Fprintf(w, "event: error\ndata: %q\n\n", "stream ended")
			flusher.Flush()
			return
		case records := <-updates:
			payload, err := json.Marshal(records)
			if err != nil {
				h.Log.Error("snapshot marshal failed", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
