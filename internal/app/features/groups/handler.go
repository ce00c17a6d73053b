// internal/app/features/groups/handler.go
package groups

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/covenantapps/flockhub/internal/app/store/audit"
	groupstore "github.com/covenantapps/flockhub/internal/app/store/groups"
	membershipstore "github.com/covenantapps/flockhub/internal/app/store/memberships"
	"github.com/covenantapps/flockhub/internal/app/system/auditlog"
	"github.com/covenantapps/flockhub/internal/app/system/authz"
	"github.com/covenantapps/flockhub/internal/app/system/timeouts"
	"github.com/covenantapps/flockhub/internal/app/system/txn"
	"github.com/covenantapps/flockhub/internal/app/system/webjson"
	"github.com/covenantapps/flockhub/internal/domain/models"
)

var validate = validator.New()

// Handler serves small groups and the join-approval flow.
type Handler struct {
	Client      *mongo.Client
	Groups      *groupstore.Store
	Memberships *membershipstore.Store
	Audit       *auditlog.Logger
	Log         *zap.Logger
}

func NewHandler(client *mongo.Client, db *mongo.Database, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Client:      client,
		Groups:      groupstore.New(db),
		Memberships: membershipstore.New(db),
		Audit:       auditLog,
		Log:         logger,
	}
}

func (h *Handler) groupFromURL(w http.ResponseWriter, r *http.Request) *models.Group {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		webjson.Error(w, http.StatusBadRequest, "invalid group id")
		return nil
	}
	g, err := h.Groups.GetByID(r.Context(), oid)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			webjson.Error(w, http.StatusNotFound, "group not found")
			return nil
		}
		h.Log.Error("group lookup failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return nil
	}
	return g
}

// canSee reports whether the requester may view a group at all. Private
// groups are visible to admins, managers and members (any membership row,
// pending included, so a requester can see where they asked to join).
func (h *Handler) canSee(r *http.Request, g *models.Group) bool {
	if g.Visibility == groupstore.VisibilityPublic {
		return true
	}
	if authz.IsAdmin(r) || authz.CanManageGroup(r, g.OwnerID, g.Moderators) {
		return true
	}
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		return false
	}
	rows, err := h.Memberships.ByUser(r.Context(), userID, "")
	if err != nil {
		return false
	}
	for _, row := range rows {
		if row.GroupID == g.ID {
			return true
		}
	}
	return false
}

type groupRequest struct {
	Name        string `json:"name" validate:"required,min=2"`
	Description string `json:"description"`
	Visibility  string `json:"visibility" validate:"omitempty,oneof=public private"`
}

// ServeCreate opens a group. The creator becomes owner and an approved
// member in one step.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if !webjson.Decode(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		webjson.Error(w, http.StatusBadRequest, `name is required; visibility must be "public" or "private"`)
		return
	}

	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		webjson.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "group create")
	defer cancel()

	var g models.Group
	err := txn.Run(ctx, h.Client, h.Log, func(ctx context.Context) error {
		var err error
		g, err = h.Groups.Create(ctx, models.Group{
			Name:        req.Name,
			Description: req.Description,
			Visibility:  req.Visibility,
			OwnerID:     userID,
		})
		if err != nil {
			return err
		}
		_, err = h.Memberships.Approve(ctx, g.ID, userID, userID)
		return err
	})
	if err != nil {
		h.Log.Error("group create failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.Audit.AdminEvent(ctx, r, audit.EventGroupCreated, userID,
		map[string]string{"group": g.Name})
	webjson.Created(w, g)
}

// ServeList returns groups the requester may see: public ones for everyone,
// everything for admins.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "group list")
	defer cancel()

	gs, err := h.Groups.List(ctx, !authz.IsAdmin(r))
	if err != nil {
		h.Log.Error("group list failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if gs == nil {
		gs = []models.Group{}
	}
	webjson.OK(w, map[string]any{"groups": gs, "count": len(gs)})
}

// ServeMine returns the requester's groups with their membership status.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		webjson.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "my groups")
	defer cancel()

	rows, err := h.Memberships.ByUser(ctx, userID, "")
	if err != nil {
		h.Log.Error("membership load failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	ids := make([]primitive.ObjectID, 0, len(rows))
	statusByGroup := make(map[primitive.ObjectID]string, len(rows))
	for _, row := range rows {
		ids = append(ids, row.GroupID)
		statusByGroup[row.GroupID] = row.Status
	}

	gs, err := h.Groups.ByIDs(ctx, ids)
	if err != nil {
		h.Log.Error("group load failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]map[string]any, 0, len(gs))
	for _, g := range gs {
		out = append(out, map[string]any{
			"group":  g,
			"status": statusByGroup[g.ID],
		})
	}
	webjson.OK(w, map[string]any{"groups": out, "count": len(out)})
}

// ServeDetail returns a group with its approved members. Managers also see
// the pending join requests.
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	g := h.groupFromURL(w, r)
	if g == nil {
		return
	}
	if !h.canSee(r, g) {
		webjson.Error(w, http.StatusForbidden, "forbidden")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "group detail")
	defer cancel()

	approved, err := h.Memberships.ByGroup(ctx, g.ID, models.MembershipApproved)
	if err != nil {
		h.Log.Error("membership load failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if approved == nil {
		approved = []models.GroupMembership{}
	}

	body := map[string]any{"group": g, "members": approved}
	if authz.IsAdmin(r) || authz.CanManageGroup(r, g.OwnerID, g.Moderators) {
		pending, err := h.Memberships.ByGroup(ctx, g.ID, models.MembershipPending)
		if err != nil {
			h.Log.Error("pending load failed", zap.Error(err))
			webjson.Error(w, http.StatusInternalServerError, "internal error")
			return
		}
		if pending == nil {
			pending = []models.GroupMembership{}
		}
		body["pending"] = pending
	}
	webjson.OK(w, body)
}

// ServeUpdate rewrites group fields. Owner, moderators and admins only.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	g := h.groupFromURL(w, r)
	if g == nil {
		return
	}
	if !authz.CanManageGroup(r, g.OwnerID, g.Moderators) {
		webjson.Error(w, http.StatusForbidden, "forbidden")
		return
	}

	var req groupRequest
	if !webjson.Decode(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		webjson.Error(w, http.StatusBadRequest, `name is required; visibility must be "public" or "private"`)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "group update")
	defer cancel()

	if err := h.Groups.Update(ctx, g.ID, req.Name, req.Description, req.Visibility); err != nil {
		h.Log.Error("group update failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	if _, _, actor, ok := authz.UserCtx(r); ok {
		h.Audit.AdminEvent(ctx, r, audit.EventGroupUpdated, actor,
			map[string]string{"group": req.Name})
	}
	webjson.OK(w, map[string]any{"updated": true})
}

type moderatorsRequest struct {
	Moderators []string `json:"moderators"`
}

// ServeSetModerators replaces the moderator list. Owner and admins only;
// moderators cannot appoint each other.
func (h *Handler) ServeSetModerators(w http.ResponseWriter, r *http.Request) {
	g := h.groupFromURL(w, r)
	if g == nil {
		return
	}
	_, _, userID, ok := authz.UserCtx(r)
	if !ok || (!authz.IsAdmin(r) && userID != g.OwnerID) {
		webjson.Error(w, http.StatusForbidden, "forbidden")
		return
	}

	var req moderatorsRequest
	if !webjson.Decode(w, r, &req) {
		return
	}
	mods := make([]primitive.ObjectID, 0, len(req.Moderators))
	for _, id := range req.Moderators {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			webjson.Error(w, http.StatusBadRequest, "invalid moderator id "+id)
			return
		}
		mods = append(mods, oid)
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "group moderators")
	defer cancel()

	if err := h.Groups.SetModerators(ctx, g.ID, mods); err != nil {
		h.Log.Error("set moderators failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	webjson.OK(w, map[string]any{"moderators": req.Moderators})
}

// ServeDelete removes a group and its membership rows together. Owner and
// admins only.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	g := h.groupFromURL(w, r)
	if g == nil {
		return
	}
	_, _, userID, ok := authz.UserCtx(r)
	if !ok || (!authz.IsAdmin(r) && userID != g.OwnerID) {
		webjson.Error(w, http.StatusForbidden, "forbidden")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "group delete")
	defer cancel()

	// Membership rows go first so a partial failure on the sequential
	// fallback leaves the group document in place for a retry.
	err := txn.Run(ctx, h.Client, h.Log, func(ctx context.Context) error {
		if _, err := h.Memberships.DeleteByGroup(ctx, g.ID); err != nil {
			return err
		}
		return h.Groups.Delete(ctx, g.ID)
	})
	if err != nil {
		h.Log.Error("group delete failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.Audit.AdminEvent(ctx, r, audit.EventGroupDeleted, userID,
		map[string]string{"group": g.Name})
	webjson.OK(w, map[string]any{"deleted": true})
}

// ServeJoin requests membership. Public groups approve on the spot; private
// groups queue the request for a manager to decide.
func (h *Handler) ServeJoin(w http.ResponseWriter, r *http.Request) {
	g := h.groupFromURL(w, r)
	if g == nil {
		return
	}
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		webjson.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "group join")
	defer cancel()

	var (
		row models.GroupMembership
		err error
	)
	if g.Visibility == groupstore.VisibilityPublic {
		row, err = h.Memberships.Approve(ctx, g.ID, userID, userID)
	} else {
		row, err = h.Memberships.Request(ctx, g.ID, userID)
	}
	if err != nil {
		if errors.Is(err, membershipstore.ErrAlreadyRequested) {
			webjson.Error(w, http.StatusConflict, "already a member or awaiting a decision")
			return
		}
		h.Log.Error("group join failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	webjson.Created(w, row)
}

type decideRequest struct {
	Approve bool `json:"approve"`
}

// ServeDecide settles a pending join request. One decision per request;
// a second decide is a 404 because the row is no longer pending.
func (h *Handler) ServeDecide(w http.ResponseWriter, r *http.Request) {
	g := h.groupFromURL(w, r)
	if g == nil {
		return
	}
	if !authz.CanManageGroup(r, g.OwnerID, g.Moderators) {
		webjson.Error(w, http.StatusForbidden, "forbidden")
		return
	}

	reqID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "requestID"))
	if err != nil {
		webjson.Error(w, http.StatusBadRequest, "invalid request id")
		return
	}

	var req decideRequest
	if !webjson.Decode(w, r, &req) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "join decide")
	defer cancel()

	_, _, actor, _ := authz.UserCtx(r)
	if err := h.Memberships.Decide(ctx, reqID, req.Approve, actor); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			webjson.Error(w, http.StatusNotFound, "no pending request with this id")
			return
		}
		h.Log.Error("join decide failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	outcome := "rejected"
	if req.Approve {
		outcome = "approved"
	}
	h.Audit.AdminEvent(ctx, r, audit.EventJoinRequestDecided, actor,
		map[string]string{"group": g.Name, "outcome": outcome})
	webjson.OK(w, map[string]any{"decided": outcome})
}

// ServeLeave drops the requester's membership row, pending or approved.
func (h *Handler) ServeLeave(w http.ResponseWriter, r *http.Request) {
	g := h.groupFromURL(w, r)
	if g == nil {
		return
	}
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		webjson.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "group leave")
	defer cancel()

	if err := h.Memberships.Leave(ctx, g.ID, userID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			webjson.Error(w, http.StatusNotFound, "not a member of this group")
			return
		}
		h.Log.Error("group leave failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	webjson.OK(w, map[string]any{"left": true})
}
