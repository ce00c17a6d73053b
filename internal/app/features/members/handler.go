// internal/app/features/members/handler.go
package members

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	achievementstore "github.com/covenantapps/flockhub/internal/app/store/achievements"
	attendancestore "github.com/covenantapps/flockhub/internal/app/store/attendance"
	"github.com/covenantapps/flockhub/internal/app/store/audit"
	contributionstore "github.com/covenantapps/flockhub/internal/app/store/contributions"
	memberstore "github.com/covenantapps/flockhub/internal/app/store/members"
	notestore "github.com/covenantapps/flockhub/internal/app/store/notes"
	sessionstore "github.com/covenantapps/flockhub/internal/app/store/sessions"
	"github.com/covenantapps/flockhub/internal/app/system/auditlog"
	"github.com/covenantapps/flockhub/internal/app/system/authz"
	"github.com/covenantapps/flockhub/internal/app/system/timeouts"
	"github.com/covenantapps/flockhub/internal/app/system/txn"
	"github.com/covenantapps/flockhub/internal/app/system/webjson"
	"github.com/covenantapps/flockhub/internal/domain/models"
)

var validate = validator.New()

// Handler serves the member roster.
type Handler struct {
	Client        *mongo.Client
	Members       *memberstore.Store
	Sessions      *sessionstore.Store
	Attendance    *attendancestore.Store
	Contributions *contributionstore.Store
	Notes         *notestore.Store
	Achievements  *achievementstore.Store
	Audit         *auditlog.Logger
	Log           *zap.Logger
}

func NewHandler(client *mongo.Client, db *mongo.Database, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Client:        client,
		Members:       memberstore.New(db),
		Sessions:      sessionstore.New(db),
		Attendance:    attendancestore.New(db),
		Contributions: contributionstore.New(db),
		Notes:         notestore.New(db),
		Achievements:  achievementstore.New(db),
		Audit:         auditLog,
		Log:           logger,
	}
}

// resolveMember loads the member named in the URL, writing the error response
// on failure. The id may be either identifier form.
func (h *Handler) resolveMember(w http.ResponseWriter, r *http.Request) *models.Member {
	id := chi.URLParam(r, "id")
	m, err := h.Members.Resolve(r.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			webjson.Error(w, http.StatusNotFound, "member not found")
			return nil
		}
		h.Log.Error("member lookup failed", zap.String("id", id), zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return nil
	}
	return m
}

// ServeList returns members filtered by status, department and name prefix.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "member list")
	defer cancel()

	f := memberstore.ListFilter{
		Status:     r.URL.Query().Get("status"),
		Department: r.URL.Query().Get("department"),
		Search:     r.URL.Query().Get("q"),
	}
	if v, err := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64); err == nil {
		f.Limit = v
	}
	if v, err := strconv.ParseInt(r.URL.Query().Get("offset"), 10, 64); err == nil {
		f.Offset = v
	}

	ms, err := h.Members.List(ctx, f)
	if err != nil {
		h.Log.Error("member list failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if ms == nil {
		ms = []models.Member{}
	}
	webjson.OK(w, map[string]any{"members": ms, "count": len(ms)})
}

type memberRequest struct {
	MemberID       string   `json:"member_id"`
	FullName       string   `json:"full_name" validate:"required,min=2"`
	Departments    []string `json:"departments"`
	MembershipType string   `json:"membership_type"`
	DateOfBirth    string   `json:"date_of_birth"`
	Email          string   `json:"email" validate:"omitempty,email"`
	Phone          string   `json:"phone"`
	Address        string   `json:"address"`
	Status         string   `json:"status"`
}

// ServeCreate registers a new member. A blank member_id gets the next
// sequence value.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if !webjson.Decode(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		webjson.Error(w, http.StatusBadRequest, "full_name is required; email must be valid when set")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "member create")
	defer cancel()

	m, err := h.Members.Create(ctx, models.Member{
		MemberID:       req.MemberID,
		FullName:       req.FullName,
		Departments:    req.Departments,
		MembershipType: req.MembershipType,
		DateOfBirth:    req.DateOfBirth,
		Email:          req.Email,
		Phone:          req.Phone,
		Address:        req.Address,
		Status:         req.Status,
	})
	if err != nil {
		if errors.Is(err, memberstore.ErrDuplicateMemberID) {
			webjson.Error(w, http.StatusConflict, err.Error())
			return
		}
		h.Log.Error("member create failed", zap.Error(err))
		webjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, _, actor, ok := authz.UserCtx(r); ok {
		h.Audit.AdminEvent(ctx, r, audit.EventMemberCreated, actor,
			map[string]string{"member_id": m.MemberID})
	}
	webjson.Created(w, m)
}

// ServeUpdate rewrites a member's editable fields. member_id never changes.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	m := h.resolveMember(w, r)
	if m == nil {
		return
	}

	var req memberRequest
	if !webjson.Decode(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		webjson.Error(w, http.StatusBadRequest, "full_name is required; email must be valid when set")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "member update")
	defer cancel()

	err := h.Members.Update(ctx, m.ID, memberstore.Update{
		FullName:       req.FullName,
		Departments:    req.Departments,
		MembershipType: req.MembershipType,
		DateOfBirth:    req.DateOfBirth,
		Email:          req.Email,
		Phone:          req.Phone,
		Address:        req.Address,
		Status:         req.Status,
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			webjson.Error(w, http.StatusNotFound, "member not found")
			return
		}
		h.Log.Error("member update failed", zap.Error(err))
		webjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, _, actor, ok := authz.UserCtx(r); ok {
		h.Audit.AdminEvent(ctx, r, audit.EventMemberUpdated, actor,
			map[string]string{"member_id": m.MemberID})
	}

	updated, err := h.Members.GetByID(ctx, m.ID)
	if err != nil {
		webjson.OK(w, map[string]any{"updated": true})
		return
	}
	webjson.OK(w, updated)
}

// ServeDelete removes a member and their dependent records in one
// transaction where the deployment supports it. Attendance rows are matched
// under both identifiers. Contribution rows are financial records and are
// kept; they still carry the member name as recorded.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	m := h.resolveMember(w, r)
	if m == nil {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "member delete")
	defer cancel()

	// Dependent rows go first so a partial failure on the sequential
	// fallback leaves the member document in place for a retry.
	err := txn.Run(ctx, h.Client, h.Log, func(ctx context.Context) error {
		if _, err := h.Attendance.DeleteByMemberIDs(ctx, []string{m.MemberID, m.ID.Hex()}); err != nil {
			return err
		}
		if _, err := h.Notes.DeleteByMember(ctx, m.ID); err != nil {
			return err
		}
		if err := h.Achievements.DeleteByMember(ctx, m.ID); err != nil {
			return err
		}
		return h.Members.Delete(ctx, m.ID)
	})
	if err != nil {
		h.Log.Error("member delete failed",
			zap.String("member_id", m.MemberID), zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	if _, _, actor, ok := authz.UserCtx(r); ok {
		h.Audit.AdminEvent(ctx, r, audit.EventMemberDeleted, actor,
			map[string]string{"member_id": m.MemberID})
	}
	webjson.OK(w, map[string]any{"deleted": true, "member_id": m.MemberID})
}
