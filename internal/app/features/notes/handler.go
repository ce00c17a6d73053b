// internal/app/features/notes/handler.go
package notes

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/covenantapps/flockhub/internal/app/store/audit"
	memberstore "github.com/covenantapps/flockhub/internal/app/store/members"
	notestore "github.com/covenantapps/flockhub/internal/app/store/notes"
	"github.com/covenantapps/flockhub/internal/app/system/auditlog"
	"github.com/covenantapps/flockhub/internal/app/system/authz"
	"github.com/covenantapps/flockhub/internal/app/system/timeouts"
	"github.com/covenantapps/flockhub/internal/app/system/webjson"
	"github.com/covenantapps/flockhub/internal/domain/models"
)

var validate = validator.New()

// Handler serves pastoral notes and their follow-up queue.
type Handler struct {
	Notes   *notestore.Store
	Members *memberstore.Store
	Audit   *auditlog.Logger
	Log     *zap.Logger
}

func NewHandler(db *mongo.Database, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Notes:   notestore.New(db),
		Members: memberstore.New(db),
		Audit:   auditLog,
		Log:     logger,
	}
}

type noteRequest struct {
	MemberID         string `json:"member_id" validate:"required"`
	Category         string `json:"category"`
	Priority         string `json:"priority" validate:"omitempty,oneof=low normal high"`
	Body             string `json:"body" validate:"required"`
	FollowUpRequired bool   `json:"follow_up_required"`
}

// ServeCreate records a note against a member. The body is sanitized in
// the store.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if !webjson.Decode(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		webjson.Error(w, http.StatusBadRequest, `member_id and body are required; priority is "low"|"normal"|"high"`)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "note create")
	defer cancel()

	m, err := h.Members.Resolve(ctx, req.MemberID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			webjson.Error(w, http.StatusNotFound, "member not found")
			return
		}
		h.Log.Error("member lookup failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	_, _, actor, _ := authz.UserCtx(r)
	n, err := h.Notes.Create(ctx, models.MemberNote{
		MemberID:         m.ID,
		Category:         req.Category,
		Priority:         req.Priority,
		Body:             req.Body,
		FollowUpRequired: req.FollowUpRequired,
		AuthorID:         actor,
	})
	if err != nil {
		h.Log.Error("note create failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.Audit.AdminEvent(ctx, r, audit.EventNoteCreated, actor,
		map[string]string{"member_id": m.MemberID})
	webjson.Created(w, n)
}

// ServeByMember lists a member's notes, newest first.
func (h *Handler) ServeByMember(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "note list")
	defer cancel()

	m, err := h.Members.Resolve(ctx, chi.URLParam(r, "memberID"))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			webjson.Error(w, http.StatusNotFound, "member not found")
			return
		}
		h.Log.Error("member lookup failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	ns, err := h.Notes.ByMember(ctx, m.ID)
	if err != nil {
		h.Log.Error("note list failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if ns == nil {
		ns = []models.MemberNote{}
	}
	webjson.OK(w, map[string]any{"notes": ns, "count": len(ns)})
}

// ServeFollowUps returns the open follow-up queue, oldest first, so the
// longest-waiting member is handled first.
func (h *Handler) ServeFollowUps(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "follow-up queue")
	defer cancel()

	ns, err := h.Notes.OpenFollowUps(ctx)
	if err != nil {
		h.Log.Error("follow-up queue failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if ns == nil {
		ns = []models.MemberNote{}
	}
	webjson.OK(w, map[string]any{"follow_ups": ns, "count": len(ns)})
}

// ServeComplete closes a follow-up.
func (h *Handler) ServeComplete(w http.ResponseWriter, r *http.Request) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		webjson.Error(w, http.StatusBadRequest, "invalid note id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "follow-up complete")
	defer cancel()

	if err := h.Notes.CompleteFollowUp(ctx, oid); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			webjson.Error(w, http.StatusNotFound, "no open follow-up with this id")
			return
		}
		h.Log.Error("follow-up complete failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	webjson.OK(w, map[string]any{"completed": true})
}
