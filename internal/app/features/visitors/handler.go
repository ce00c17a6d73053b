// internal/app/features/visitors/handler.go
package visitors

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

	"github.com/covenantapps/flockhub/internal/app/store/audit"
	memberstore "github.com/covenantapps/flockhub/internal/app/store/members"
	visitorstore "github.com/covenantapps/flockhub/internal/app/store/visitors"
	"github.com/covenantapps/flockhub/internal/app/system/auditlog"
	"github.com/covenantapps/flockhub/internal/app/system/authz"
	"github.com/covenantapps/flockhub/internal/app/system/timeouts"
	"github.com/covenantapps/flockhub/internal/app/system/txn"
	"github.com/covenantapps/flockhub/internal/app/system/webjson"
	"github.com/covenantapps/flockhub/internal/domain/models"
)

var validate = validator.New()

// Handler serves the visitor pipeline: first-time visitors, follow-up and
// conversion into the member roster.
type Handler struct {
	Client   *mongo.Client
	Visitors *visitorstore.Store
	Members  *memberstore.Store
	Audit    *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(client *mongo.Client, db *mongo.Database, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Client:   client,
		Visitors: visitorstore.New(db),
		Members:  memberstore.New(db),
		Audit:    auditLog,
		Log:      logger,
	}
}

func (h *Handler) visitorFromURL(w http.ResponseWriter, r *http.Request) *models.Visitor {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		webjson.Error(w, http.StatusBadRequest, "invalid visitor id")
		return nil
	}
	v, err := h.Visitors.GetByID(r.Context(), oid)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			webjson.Error(w, http.StatusNotFound, "visitor not found")
			return nil
		}
		h.Log.Error("visitor lookup failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return nil
	}
	return v
}

type visitorRequest struct {
	FullName        string `json:"full_name" validate:"required,min=2"`
	Phone           string `json:"phone"`
	Email           string `json:"email" validate:"omitempty,email"`
	VisitDate       string `json:"visit_date" validate:"required,datetime=2006-01-02"`
	InvitedBy       string `json:"invited_by"`
	ServiceAttended string `json:"service_attended"`
}

// ServeCreate records a first-time visitor with a pending follow-up.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	var req visitorRequest
	if !webjson.Decode(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		webjson.Error(w, http.StatusBadRequest, "full_name and a 2006-01-02 visit_date are required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "visitor create")
	defer cancel()

	v, err := h.Visitors.Create(ctx, models.Visitor{
		FullName:        req.FullName,
		Phone:           req.Phone,
		Email:           req.Email,
		VisitDate:       req.VisitDate,
		InvitedBy:       req.InvitedBy,
		ServiceAttended: req.ServiceAttended,
	})
	if err != nil {
		h.Log.Error("visitor create failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	if _, _, actor, ok := authz.UserCtx(r); ok {
		h.Audit.AdminEvent(ctx, r, audit.EventVisitorCreated, actor,
			map[string]string{"visitor_id": v.VisitorID})
	}
	webjson.Created(w, v)
}

// ServeList returns visitors, optionally filtered by follow-up status.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "visitor list")
	defer cancel()

	f := visitorstore.ListFilter{FollowUpStatus: r.URL.Query().Get("follow_up")}
	if v, err := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64); err == nil {
		f.Limit = v
	}
	if v, err := strconv.ParseInt(r.URL.Query().Get("offset"), 10, 64); err == nil {
		f.Offset = v
	}

	vs, err := h.Visitors.List(ctx, f)
	if err != nil {
		h.Log.Error("visitor list failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if vs == nil {
		vs = []models.Visitor{}
	}
	webjson.OK(w, map[string]any{"visitors": vs, "count": len(vs)})
}

type followUpRequest struct {
	Status string `json:"status" validate:"required,oneof=pending contacted visited closed"`
}

// ServeFollowUp advances the follow-up state.
func (h *Handler) ServeFollowUp(w http.ResponseWriter, r *http.Request) {
	v := h.visitorFromURL(w, r)
	if v == nil {
		return
	}

	var req followUpRequest
	if !webjson.Decode(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		webjson.Error(w, http.StatusBadRequest, `status must be "pending"|"contacted"|"visited"|"closed"`)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "visitor follow-up")
	defer cancel()

	if err := h.Visitors.SetFollowUpStatus(ctx, v.ID, req.Status); err != nil {
		h.Log.Error("follow-up update failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	webjson.OK(w, map[string]any{"visitor_id": v.VisitorID, "follow_up_status": req.Status})
}

// ServeConvert turns a visitor into a member. The visitor document stays as
// the pipeline record, flagged converted with its follow-up closed; the new
// member gets the next sequence id. Both writes commit together where the
// deployment supports transactions.
func (h *Handler) ServeConvert(w http.ResponseWriter, r *http.Request) {
	v := h.visitorFromURL(w, r)
	if v == nil {
		return
	}
	if v.ConvertedToMember {
		webjson.Error(w, http.StatusConflict, "visitor already converted")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "visitor convert")
	defer cancel()

	var m models.Member
	err := txn.Run(ctx, h.Client, h.Log, func(ctx context.Context) error {
		var err error
		m, err = h.Members.Create(ctx, models.Member{
			FullName: v.FullName,
			Phone:    v.Phone,
			Email:    v.Email,
		})
		if err != nil {
			return err
		}
		return h.Visitors.MarkConverted(ctx, v.ID)
	})
	if err != nil {
		h.Log.Error("visitor convert failed",
			zap.String("visitor_id", v.VisitorID), zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	if _, _, actor, ok := authz.UserCtx(r); ok {
		h.Audit.AdminEvent(ctx, r, audit.EventVisitorConverted, actor,
			map[string]string{"visitor_id": v.VisitorID, "member_id": m.MemberID})
	}
	webjson.Created(w, map[string]any{"visitor_id": v.VisitorID, "member": m})
}
