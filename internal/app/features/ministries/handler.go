// internal/app/features/ministries/handler.go
package ministries

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
	ministrystore "github.com/covenantapps/flockhub/internal/app/store/ministries"
	"github.com/covenantapps/flockhub/internal/app/system/auditlog"
	"github.com/covenantapps/flockhub/internal/app/system/authz"
	"github.com/covenantapps/flockhub/internal/app/system/timeouts"
	"github.com/covenantapps/flockhub/internal/app/system/webjson"
	"github.com/covenantapps/flockhub/internal/domain/models"
)

var validate = validator.New()

// Handler serves ministries and departments: rosters, leaders,
// announcements and shared resources.
type Handler struct {
	Ministries *ministrystore.Store
	Members    *memberstore.Store
	Audit      *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Ministries: ministrystore.New(db),
		Members:    memberstore.New(db),
		Audit:      auditLog,
		Log:        logger,
	}
}

func (h *Handler) ministryFromURL(w http.ResponseWriter, r *http.Request) *models.Ministry {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		webjson.Error(w, http.StatusBadRequest, "invalid ministry id")
		return nil
	}
	m, err := h.Ministries.GetByID(r.Context(), oid)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			webjson.Error(w, http.StatusNotFound, "ministry not found")
			return nil
		}
		h.Log.Error("ministry lookup failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return nil
	}
	return m
}

type ministryRequest struct {
	Name            string `json:"name" validate:"required,min=2"`
	Type            string `json:"type"`
	Description     string `json:"description"`
	MeetingSchedule string `json:"meeting_schedule"`
}

// ServeCreate opens a new ministry.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	var req ministryRequest
	if !webjson.Decode(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		webjson.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "ministry create")
	defer cancel()

	m, err := h.Ministries.Create(ctx, models.Ministry{
		Name:            req.Name,
		Type:            req.Type,
		Description:     req.Description,
		MeetingSchedule: req.MeetingSchedule,
	})
	if err != nil {
		if errors.Is(err, ministrystore.ErrDuplicateName) {
			webjson.Error(w, http.StatusConflict, err.Error())
			return
		}
		h.Log.Error("ministry create failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	if _, _, actor, ok := authz.UserCtx(r); ok {
		h.Audit.AdminEvent(ctx, r, audit.EventMinistryCreated, actor,
			map[string]string{"ministry": m.Name})
	}
	webjson.Created(w, m)
}

// ServeList returns every ministry sorted by name.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "ministry list")
	defer cancel()

	ms, err := h.Ministries.List(ctx)
	if err != nil {
		h.Log.Error("ministry list failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if ms == nil {
		ms = []models.Ministry{}
	}
	webjson.OK(w, map[string]any{"ministries": ms, "count": len(ms)})
}

// ServeDetail returns one ministry with its roster resolved to member names.
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	m := h.ministryFromURL(w, r)
	if m == nil {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "ministry detail")
	defer cancel()

	roster := make([]map[string]string, 0, len(m.Members))
	for _, id := range m.Members {
		mem, err := h.Members.GetByID(ctx, id)
		if err != nil {
			// Roster references a deleted member; show the id and move on.
			roster = append(roster, map[string]string{"id": id.Hex()})
			continue
		}
		roster = append(roster, map[string]string{
			"id":        id.Hex(),
			"member_id": mem.MemberID,
			"full_name": mem.FullName,
		})
	}
	webjson.OK(w, map[string]any{"ministry": m, "roster": roster})
}

// ServeUpdate rewrites a ministry's fields.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	m := h.ministryFromURL(w, r)
	if m == nil {
		return
	}

	var req ministryRequest
	if !webjson.Decode(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		webjson.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "ministry update")
	defer cancel()

	if err := h.Ministries.Update(ctx, m.ID, req.Name, req.Type, req.Description, req.MeetingSchedule); err != nil {
		if errors.Is(err, ministrystore.ErrDuplicateName) {
			webjson.Error(w, http.StatusConflict, err.Error())
			return
		}
		h.Log.Error("ministry update failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	if _, _, actor, ok := authz.UserCtx(r); ok {
		h.Audit.AdminEvent(ctx, r, audit.EventMinistryUpdated, actor,
			map[string]string{"ministry": req.Name})
	}
	webjson.OK(w, map[string]any{"updated": true})
}

type rosterRequest struct {
	MemberID string `json:"member_id" validate:"required"`
}

// ServeAddMember puts a member on the ministry roster. Adding twice is a
// no-op; the roster is a set.
func (h *Handler) ServeAddMember(w http.ResponseWriter, r *http.Request) {
	m := h.ministryFromURL(w, r)
	if m == nil {
		return
	}

	var req rosterRequest
	if !webjson.Decode(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		webjson.Error(w, http.StatusBadRequest, "member_id is required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "ministry roster add")
	defer cancel()

	mem, err := h.Members.Resolve(ctx, req.MemberID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			webjson.Error(w, http.StatusNotFound, "member not found")
			return
		}
		h.Log.Error("member lookup failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := h.Ministries.AddMember(ctx, m.ID, mem.ID); err != nil {
		h.Log.Error("roster add failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	webjson.OK(w, map[string]any{"added": mem.MemberID})
}

// ServeRemoveMember takes a member off the roster.
func (h *Handler) ServeRemoveMember(w http.ResponseWriter, r *http.Request) {
	m := h.ministryFromURL(w, r)
	if m == nil {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "ministry roster remove")
	defer cancel()

	mem, err := h.Members.Resolve(ctx, chi.URLParam(r, "memberID"))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			webjson.Error(w, http.StatusNotFound, "member not found")
			return
		}
		h.Log.Error("member lookup failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := h.Ministries.RemoveMember(ctx, m.ID, mem.ID); err != nil {
		h.Log.Error("roster remove failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	webjson.OK(w, map[string]any{"removed": mem.MemberID})
}

type leadersRequest struct {
	Leaders []string `json:"leaders" validate:"required"`
}

// ServeSetLeaders replaces the leader list wholesale.
func (h *Handler) ServeSetLeaders(w http.ResponseWriter, r *http.Request) {
	m := h.ministryFromURL(w, r)
	if m == nil {
		return
	}

	var req leadersRequest
	if !webjson.Decode(w, r, &req) {
		return
	}

	leaders := make([]primitive.ObjectID, 0, len(req.Leaders))
	for _, id := range req.Leaders {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			webjson.Error(w, http.StatusBadRequest, "invalid leader id "+id)
			return
		}
		leaders = append(leaders, oid)
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "ministry leaders")
	defer cancel()

	if err := h.Ministries.SetLeaders(ctx, m.ID, leaders); err != nil {
		h.Log.Error("set leaders failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	webjson.OK(w, map[string]any{"leaders": req.Leaders})
}

type announcementRequest struct {
	Title string `json:"title" validate:"required"`
	Body  string `json:"body" validate:"required"`
}

// ServeAnnounce posts an announcement to the ministry. The body is
// sanitized in the store before it is persisted.
func (h *Handler) ServeAnnounce(w http.ResponseWriter, r *http.Request) {
	m := h.ministryFromURL(w, r)
	if m == nil {
		return
	}

	var req announcementRequest
	if !webjson.Decode(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		webjson.Error(w, http.StatusBadRequest, "title and body are required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "ministry announce")
	defer cancel()

	_, _, actor, _ := authz.UserCtx(r)
	ann, err := h.Ministries.PostAnnouncement(ctx, m.ID, req.Title, req.Body, actor)
	if err != nil {
		h.Log.Error("announcement failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	webjson.Created(w, ann)
}

type resourceRequest struct {
	Title string `json:"title" validate:"required"`
	URL   string `json:"url" validate:"required,url"`
}

// ServeAddResource attaches a shared resource link to the ministry.
func (h *Handler) ServeAddResource(w http.ResponseWriter, r *http.Request) {
	m := h.ministryFromURL(w, r)
	if m == nil {
		return
	}

	var req resourceRequest
	if !webjson.Decode(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		webjson.Error(w, http.StatusBadRequest, "title and a valid url are required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "ministry resource")
	defer cancel()

	res, err := h.Ministries.AddResource(ctx, m.ID, req.Title, req.URL)
	if err != nil {
		h.Log.Error("resource add failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	webjson.Created(w, res)
}
