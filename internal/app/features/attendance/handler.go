// internal/app/features/attendance/handler.go
package attendance

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	attendancestore "github.com/covenantapps/flockhub/internal/app/store/attendance"
	"github.com/covenantapps/flockhub/internal/app/store/audit"
	memberstore "github.com/covenantapps/flockhub/internal/app/store/members"
	sessionstore "github.com/covenantapps/flockhub/internal/app/store/sessions"
	"github.com/covenantapps/flockhub/internal/app/system/auditlog"
	"github.com/covenantapps/flockhub/internal/app/system/authz"
	"github.com/covenantapps/flockhub/internal/app/system/timeouts"
	"github.com/covenantapps/flockhub/internal/app/system/txn"
	"github.com/covenantapps/flockhub/internal/app/system/webjson"
	"github.com/covenantapps/flockhub/internal/domain/models"
)

var validate = validator.New()

// Handler serves attendance sessions and the marking operations.
type Handler struct {
	Client   *mongo.Client
	Sessions *sessionstore.Store
	Records  *attendancestore.Store
	Members  *memberstore.Store
	Audit    *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(client *mongo.Client, db *mongo.Database, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Client:   client,
		Sessions: sessionstore.New(db),
		Records:  attendancestore.New(db),
		Members:  memberstore.New(db),
		Audit:    auditLog,
		Log:      logger,
	}
}

func (h *Handler) sessionFromURL(w http.ResponseWriter, r *http.Request) *models.AttendanceSession {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		webjson.Error(w, http.StatusBadRequest, "invalid session id")
		return nil
	}
	sess, err := h.Sessions.GetByID(r.Context(), oid)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			webjson.Error(w, http.StatusNotFound, "session not found")
			return nil
		}
		h.Log.Error("session lookup failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return nil
	}
	return sess
}

// ServeListSessions returns sessions newest first.
func (h *Handler) ServeListSessions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "session list")
	defer cancel()

	var limit, offset int64
	if v, err := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64); err == nil {
		limit = v
	}
	if v, err := strconv.ParseInt(r.URL.Query().Get("offset"), 10, 64); err == nil {
		offset = v
	}

	sessions, err := h.Sessions.List(ctx, limit, offset)
	if err != nil {
		h.Log.Error("session list failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if sessions == nil {
		sessions = []models.AttendanceSession{}
	}
	webjson.OK(w, map[string]any{"sessions": sessions, "count": len(sessions)})
}

type sessionRequest struct {
	Name       string `json:"name" validate:"required"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	EventType  string `json:"event_type"`
	Department string `json:"department"`
}

// ServeCreateSession opens a new attendance session.
func (h *Handler) ServeCreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !webjson.Decode(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		webjson.Error(w, http.StatusBadRequest, "name and a date of the form 2006-01-02 are required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "session create")
	defer cancel()

	_, _, actor, _ := authz.UserCtx(r)
	sess, err := h.Sessions.Create(ctx, models.AttendanceSession{
		Name:       req.Name,
		Date:       req.Date,
		EventType:  req.EventType,
		Department: req.Department,
		CreatedBy:  actor,
	})
	if err != nil {
		h.Log.Error("session create failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.Audit.AdminEvent(ctx, r, audit.EventSessionCreated, actor,
		map[string]string{"session": sess.Name, "date": sess.Date})
	webjson.Created(w, sess)
}

// ServeUpdateSession rewrites a session's fields.
func (h *Handler) ServeUpdateSession(w http.ResponseWriter, r *http.Request) {
	sess := h.sessionFromURL(w, r)
	if sess == nil {
		return
	}

	var req sessionRequest
	if !webjson.Decode(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		webjson.Error(w, http.StatusBadRequest, "name and a date of the form 2006-01-02 are required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "session update")
	defer cancel()

	if err := h.Sessions.Update(ctx, sess.ID, req.Name, req.Date, req.EventType, req.Department); err != nil {
		h.Log.Error("session update failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	webjson.OK(w, map[string]any{"updated": true})
}

// ServeDeleteSession removes a session and its marks together.
func (h *Handler) ServeDeleteSession(w http.ResponseWriter, r *http.Request) {
	sess := h.sessionFromURL(w, r)
	if sess == nil {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "session delete")
	defer cancel()

	// Records go first: on deployments where txn.Run falls back to running
	// the closure sequentially, a failure after the record delete leaves the
	// session in place, so the delete can be retried. The reverse order would
	// strand orphaned records behind a 404.
	err := txn.Run(ctx, h.Client, h.Log, func(ctx context.Context) error {
		if _, err := h.Records.DeleteBySession(ctx, sess.ID); err != nil {
			return err
		}
		return h.Sessions.Delete(ctx, sess.ID)
	})
	if err != nil {
		h.Log.Error("session delete failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	if _, _, actor, ok := authz.UserCtx(r); ok {
		h.Audit.AdminEvent(ctx, r, audit.EventSessionDeleted, actor,
			map[string]string{"session": sess.Name, "date": sess.Date})
	}
	webjson.OK(w, map[string]any{"deleted": true})
}

// ServeSessionDetail returns a session with its marks and head count.
func (h *Handler) ServeSessionDetail(w http.ResponseWriter, r *http.Request) {
	sess := h.sessionFromURL(w, r)
	if sess == nil {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "session detail")
	defer cancel()

	records, err := h.Records.BySession(ctx, sess.ID)
	if err != nil {
		h.Log.Error("record load failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if records == nil {
		records = []models.AttendanceRecord{}
	}
	webjson.OK(w, map[string]any{
		"session": sess,
		"records": records,
		"count":   len(records),
	})
}

type markRequest struct {
	MemberID string `json:"member_id" validate:"required"`
}

// ServeMark records a member as present. Marking the same member twice in
// one session is a conflict, enforced by a unique index rather than a
// read-then-write.
func (h *Handler) ServeMark(w http.ResponseWriter, r *http.Request) {
	sess := h.sessionFromURL(w, r)
	if sess == nil {
		return
	}

	var req markRequest
	if !webjson.Decode(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		webjson.Error(w, http.StatusBadRequest, "member_id is required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "attendance mark")
	defer cancel()

	// The member must exist under either identifier, but the mark stores the
	// identifier exactly as given; historical rows use both styles.
	if _, err := h.Members.Resolve(ctx, req.MemberID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			webjson.Error(w, http.StatusNotFound, "member not found")
			return
		}
		h.Log.Error("member lookup failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	_, _, actor, _ := authz.UserCtx(r)
	rec, err := h.Records.Mark(ctx, sess.ID, req.MemberID, actor)
	if err != nil {
		if errors.Is(err, attendancestore.ErrAlreadyMarked) {
			webjson.Error(w, http.StatusConflict, "member already marked for this session")
			return
		}
		h.Log.Error("mark failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.Audit.AdminEvent(ctx, r, audit.EventAttendanceMarked, actor,
		map[string]string{"session": sess.Name, "member_id": req.MemberID})
	webjson.Created(w, rec)
}

// ServeUnmark removes a member's mark from a session.
func (h *Handler) ServeUnmark(w http.ResponseWriter, r *http.Request) {
	sess := h.sessionFromURL(w, r)
	if sess == nil {
		return
	}
	memberID := chi.URLParam(r, "memberID")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "attendance unmark")
	defer cancel()

	if err := h.Records.Unmark(ctx, sess.ID, memberID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			webjson.Error(w, http.StatusNotFound, "no mark for this member in this session")
			return
		}
		h.Log.Error("unmark failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	if _, _, actor, ok := authz.UserCtx(r); ok {
		h.Audit.AdminEvent(ctx, r, audit.EventAttendanceUnmarked, actor,
			map[string]string{"session": sess.Name, "member_id": memberID})
	}
	webjson.OK(w, map[string]any{"unmarked": true})
}
