// internal/app/features/events/handler.go
package events

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/covenantapps/flockhub/internal/app/store/audit"
	eventstore "github.com/covenantapps/flockhub/internal/app/store/events"
	memberstore "github.com/covenantapps/flockhub/internal/app/store/members"
	registrationstore "github.com/covenantapps/flockhub/internal/app/store/registrations"
	"github.com/covenantapps/flockhub/internal/app/system/auditlog"
	"github.com/covenantapps/flockhub/internal/app/system/authz"
	"github.com/covenantapps/flockhub/internal/app/system/stats"
	"github.com/covenantapps/flockhub/internal/app/system/timeouts"
	"github.com/covenantapps/flockhub/internal/app/system/webjson"
	"github.com/covenantapps/flockhub/internal/domain/models"
)

var validate = validator.New()

// Handler serves church events and registrations.
type Handler struct {
	Events        *eventstore.Store
	Registrations *registrationstore.Store
	Members       *memberstore.Store
	Audit         *auditlog.Logger
	Log           *zap.Logger
}

func NewHandler(db *mongo.Database, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Events:        eventstore.New(db),
		Registrations: registrationstore.New(db),
		Members:       memberstore.New(db),
		Audit:         auditLog,
		Log:           logger,
	}
}

func (h *Handler) eventFromURL(w http.ResponseWriter, r *http.Request) *models.Event {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		webjson.Error(w, http.StatusBadRequest, "invalid event id")
		return nil
	}
	e, err := h.Events.GetByID(r.Context(), oid)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			webjson.Error(w, http.StatusNotFound, "event not found")
			return nil
		}
		h.Log.Error("event lookup failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return nil
	}
	return e
}

type eventRequest struct {
	Name        string `json:"name" validate:"required,min=2"`
	Description string `json:"description"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Location    string `json:"location"`
	Capacity    int    `json:"capacity" validate:"gte=0"`
}

// ServeCreate schedules an event. Capacity 0 means unlimited.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if !webjson.Decode(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		webjson.Error(w, http.StatusBadRequest, "name and a 2006-01-02 date are required; capacity cannot be negative")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "event create")
	defer cancel()

	e, err := h.Events.Create(ctx, models.Event{
		Name:        req.Name,
		Description: req.Description,
		Date:        req.Date,
		Location:    req.Location,
		Capacity:    req.Capacity,
	})
	if err != nil {
		h.Log.Error("event create failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	if _, _, actor, ok := authz.UserCtx(r); ok {
		h.Audit.AdminEvent(ctx, r, audit.EventEventCreated, actor,
			map[string]string{"event": e.Name, "date": e.Date})
	}
	webjson.Created(w, e)
}

// ServeList returns events, soonest last (the store sorts date descending).
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "event list")
	defer cancel()

	var limit, offset int64
	if v, err := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64); err == nil {
		limit = v
	}
	if v, err := strconv.ParseInt(r.URL.Query().Get("offset"), 10, 64); err == nil {
		offset = v
	}

	es, err := h.Events.List(ctx, limit, offset)
	if err != nil {
		h.Log.Error("event list failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if es == nil {
		es = []models.Event{}
	}
	webjson.OK(w, map[string]any{"events": es, "count": len(es)})
}

// ServeDetail returns an event with its registrations and remaining seats.
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	e := h.eventFromURL(w, r)
	if e == nil {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "event detail")
	defer cancel()

	regs, err := h.Registrations.ByEvent(ctx, e.ID)
	if err != nil {
		h.Log.Error("registration load failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if regs == nil {
		regs = []models.EventRegistration{}
	}

	body := map[string]any{
		"event":         e,
		"registrations": regs,
		"registered":    len(regs),
	}
	if e.Capacity > 0 {
		remaining := e.Capacity - len(regs)
		if remaining < 0 {
			remaining = 0
		}
		body["remaining"] = remaining
	}
	webjson.OK(w, body)
}

// ServeParticipation returns the registration rollup across all events:
// per-event head counts with the registered member identifiers, in event
// order. Registrations left behind by a deleted event are dropped from the
// join rather than surfaced.
func (h *Handler) ServeParticipation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "event participation")
	defer cancel()

	es, err := h.Events.All(ctx)
	if err != nil {
		h.Log.Error("event load failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	regs, err := h.Registrations.All(ctx)
	if err != nil {
		h.Log.Error("registration load failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	participation := stats.JoinEventParticipation(es, regs)
	webjson.OK(w, map[string]any{"events": participation, "count": len(participation)})
}

// ServeUpdate rewrites an event's fields.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	e := h.eventFromURL(w, r)
	if e == nil {
		return
	}

	var req eventRequest
	if !webjson.Decode(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		webjson.Error(w, http.StatusBadRequest, "name and a 2006-01-02 date are required; capacity cannot be negative")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "event update")
	defer cancel()

	if err := h.Events.Update(ctx, e.ID, req.Name, req.Description, req.Date, req.Location, req.Capacity); err != nil {
		h.Log.Error("event update failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	webjson.OK(w, map[string]any{"updated": true})
}

type registerRequest struct {
	MemberID string `json:"member_id" validate:"required"`
}

// ServeRegister signs a member up for an event. The capacity check is a
// read-then-write, so a burst can briefly oversell; the unique index still
// guarantees one row per member.
func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	e := h.eventFromURL(w, r)
	if e == nil {
		return
	}

	var req registerRequest
	if !webjson.Decode(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		webjson.Error(w, http.StatusBadRequest, "member_id is required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "event register")
	defer cancel()

	if _, err := h.Members.Resolve(ctx, req.MemberID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			webjson.Error(w, http.StatusNotFound, "member not found")
			return
		}
		h.Log.Error("member lookup failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	if e.Capacity > 0 {
		n, err := h.Registrations.CountByEvent(ctx, e.ID)
		if err != nil {
			h.Log.Error("registration count failed", zap.Error(err))
			webjson.Error(w, http.StatusInternalServerError, "internal error")
			return
		}
		if n >= int64(e.Capacity) {
			webjson.Error(w, http.StatusConflict, "event is full")
			return
		}
	}

	reg, err := h.Registrations.Register(ctx, e.ID, req.MemberID)
	if err != nil {
		if errors.Is(err, registrationstore.ErrAlreadyRegistered) {
			webjson.Error(w, http.StatusConflict, "member already registered")
			return
		}
		h.Log.Error("register failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	if _, _, actor, ok := authz.UserCtx(r); ok {
		h.Audit.AdminEvent(ctx, r, audit.EventEventRegistration, actor,
			map[string]string{"event": e.Name, "member_id": req.MemberID})
	}
	webjson.Created(w, reg)
}

// ServeUnregister drops a member's registration.
func (h *Handler) ServeUnregister(w http.ResponseWriter, r *http.Request) {
	e := h.eventFromURL(w, r)
	if e == nil {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "event unregister")
	defer cancel()

	if err := h.Registrations.Unregister(ctx, e.ID, chi.URLParam(r, "memberID")); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			webjson.Error(w, http.StatusNotFound, "no registration for this member")
			return
		}
		h.Log.Error("unregister failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	webjson.OK(w, map[string]any{"unregistered": true})
}
