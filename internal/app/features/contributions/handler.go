// internal/app/features/contributions/handler.go
package contributions

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
	contributionstore "github.com/covenantapps/flockhub/internal/app/store/contributions"
	memberstore "github.com/covenantapps/flockhub/internal/app/store/members"
	"github.com/covenantapps/flockhub/internal/app/system/auditlog"
	"github.com/covenantapps/flockhub/internal/app/system/authz"
	"github.com/covenantapps/flockhub/internal/app/system/stats"
	"github.com/covenantapps/flockhub/internal/app/system/timeouts"
	"github.com/covenantapps/flockhub/internal/app/system/webjson"
	"github.com/covenantapps/flockhub/internal/domain/models"
)

var validate = validator.New()

// Handler records contributions and serves the giving reports.
type Handler struct {
	Contributions *contributionstore.Store
	Members       *memberstore.Store
	Audit         *auditlog.Logger
	Log           *zap.Logger
}

func NewHandler(db *mongo.Database, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Contributions: contributionstore.New(db),
		Members:       memberstore.New(db),
		Audit:         auditLog,
		Log:           logger,
	}
}

type contributionRequest struct {
	MemberID         string  `json:"member_id" validate:"required"`
	ContributionType string  `json:"contribution_type" validate:"required"`
	Amount           float64 `json:"amount" validate:"required,gt=0"`
	Date             string  `json:"date" validate:"required,datetime=2006-01-02"`
	PaymentMethod    string  `json:"payment_method"`
}

// ServeCreate records a contribution. The receipt number is issued here and
// never changes afterwards, even through edits.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	var req contributionRequest
	if !webjson.Decode(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		webjson.Error(w, http.StatusBadRequest,
			"member_id, contribution_type, a positive amount and a 2006-01-02 date are required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "contribution create")
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
	c, err := h.Contributions.Create(ctx, models.Contribution{
		MemberID:         req.MemberID,
		MemberName:       m.FullName,
		ContributionType: req.ContributionType,
		Amount:           req.Amount,
		Date:             req.Date,
		PaymentMethod:    req.PaymentMethod,
		RecordedBy:       actor,
	})
	if err != nil {
		if errors.Is(err, contributionstore.ErrBadAmount) {
			webjson.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		h.Log.Error("contribution create failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.Audit.AdminEvent(ctx, r, audit.EventContributionRecorded, actor,
		map[string]string{"receipt": c.ReceiptNumber, "member_id": c.MemberID})
	webjson.Created(w, c)
}

// ServeList returns contributions with optional type and date-range filters.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "contribution list")
	defer cancel()

	f := contributionstore.ListFilter{
		ContributionType: r.URL.Query().Get("type"),
		DateFrom:         r.URL.Query().Get("from"),
		DateTo:           r.URL.Query().Get("to"),
	}
	if v, err := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64); err == nil {
		f.Limit = v
	}
	if v, err := strconv.ParseInt(r.URL.Query().Get("offset"), 10, 64); err == nil {
		f.Offset = v
	}

	cs, err := h.Contributions.List(ctx, f)
	if err != nil {
		h.Log.Error("contribution list failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if cs == nil {
		cs = []models.Contribution{}
	}
	webjson.OK(w, map[string]any{"contributions": cs, "count": len(cs)})
}

type updateRequest struct {
	ContributionType string  `json:"contribution_type" validate:"required"`
	Amount           float64 `json:"amount" validate:"required,gt=0"`
	Date             string  `json:"date" validate:"required,datetime=2006-01-02"`
	PaymentMethod    string  `json:"payment_method"`
}

// ServeUpdate edits a contribution without touching its receipt number.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		webjson.Error(w, http.StatusBadRequest, "invalid contribution id")
		return
	}

	var req updateRequest
	if !webjson.Decode(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		webjson.Error(w, http.StatusBadRequest,
			"contribution_type, a positive amount and a 2006-01-02 date are required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "contribution update")
	defer cancel()

	if err := h.Contributions.Update(ctx, oid, req.ContributionType, req.Amount, req.Date, req.PaymentMethod); err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			webjson.Error(w, http.StatusNotFound, "contribution not found")
		case errors.Is(err, contributionstore.ErrBadAmount):
			webjson.Error(w, http.StatusBadRequest, err.Error())
		default:
			h.Log.Error("contribution update failed", zap.Error(err))
			webjson.Error(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	if _, _, actor, ok := authz.UserCtx(r); ok {
		h.Audit.AdminEvent(ctx, r, audit.EventContributionUpdated, actor,
			map[string]string{"contribution": oid.Hex()})
	}
	webjson.OK(w, map[string]any{"updated": true})
}

// ServeDelete removes a contribution record.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		webjson.Error(w, http.StatusBadRequest, "invalid contribution id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "contribution delete")
	defer cancel()

	if err := h.Contributions.Delete(ctx, oid); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			webjson.Error(w, http.StatusNotFound, "contribution not found")
			return
		}
		h.Log.Error("contribution delete failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	if _, _, actor, ok := authz.UserCtx(r); ok {
		h.Audit.AdminEvent(ctx, r, audit.EventContributionDeleted, actor,
			map[string]string{"contribution": oid.Hex()})
	}
	webjson.OK(w, map[string]any{"deleted": true})
}

// ServeReport returns the full giving rollup: grand total, per-method and
// monthly trend with growth, plus the top givers.
func (h *Handler) ServeReport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "contribution report")
	defer cancel()

	f := contributionstore.ListFilter{
		ContributionType: r.URL.Query().Get("type"),
		DateFrom:         r.URL.Query().Get("from"),
		DateTo:           r.URL.Query().Get("to"),
	}
	cs, err := h.Contributions.List(ctx, f)
	if err != nil {
		h.Log.Error("contribution load failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	topN := 10
	if v, err := strconv.Atoi(r.URL.Query().Get("top")); err == nil && v > 0 {
		topN = v
	}

	// Canonicalize owner ids first so a member with rows under both the
	// business id and the document id counts as one contributor.
	ms, err := h.Members.All(ctx)
	if err != nil {
		h.Log.Error("member load failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	rollup := stats.RollupContributions(stats.CanonicalizeOwners(ms, cs))
	webjson.OK(w, map[string]any{
		"grand_total":      rollup.GrandTotal,
		"by_method":        rollup.ByMethod,
		"monthly":          rollup.Monthly,
		"top_contributors": stats.TopContributors(rollup, topN),
	})
}

// ServeStatement returns one member's giving history and totals, the shape
// an end-of-year statement is rendered from.
func (h *Handler) ServeStatement(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "giving statement")
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

	cs, err := h.Contributions.List(ctx, contributionstore.ListFilter{
		MemberIDs: []string{m.MemberID, m.ID.Hex()},
		DateFrom:  r.URL.Query().Get("from"),
		DateTo:    r.URL.Query().Get("to"),
	})
	if err != nil {
		h.Log.Error("contribution load failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	ref := stats.NewMemberRef(*m)
	mine := stats.ContributionsForMember(ref, cs)
	rollup := stats.RollupContributions(mine)
	if mine == nil {
		mine = []models.Contribution{}
	}
	webjson.OK(w, map[string]any{
		"member":        map[string]string{"member_id": m.MemberID, "full_name": m.FullName},
		"contributions": mine,
		"total":         rollup.GrandTotal,
		"monthly":       rollup.Monthly,
	})
}
