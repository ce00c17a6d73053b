// internal/app/features/users/handler.go
package users

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	userstore "github.com/covenantapps/flockhub/internal/app/store/users"
	"github.com/covenantapps/flockhub/internal/app/system/auth"
	"github.com/covenantapps/flockhub/internal/app/system/timeouts"
	"github.com/covenantapps/flockhub/internal/app/system/webjson"
	"github.com/covenantapps/flockhub/internal/domain/models"
)

var validate = validator.New()

// Handler is the admin surface for application logins.
type Handler struct {
	Users *userstore.Store
	Log   *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{Users: userstore.New(db), Log: logger}
}

// ServeList returns every login account. Password hashes never serialize;
// the model hides them from JSON.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "user list")
	defer cancel()

	us, err := h.Users.List(ctx)
	if err != nil {
		h.Log.Error("user list failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if us == nil {
		us = []models.User{}
	}
	webjson.OK(w, map[string]any{"users": us, "count": len(us)})
}

type roleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin leader viewer"`
}

// ServeSetRole changes an account's role. Admins cannot demote themselves,
// which keeps at least one admin reachable.
func (h *Handler) ServeSetRole(w http.ResponseWriter, r *http.Request) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		webjson.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req roleRequest
	if !webjson.Decode(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		webjson.Error(w, http.StatusBadRequest, `role must be "admin"|"leader"|"viewer"`)
		return
	}

	if u, ok := auth.CurrentUser(r); ok && u.ID == oid.Hex() && req.Role != "admin" {
		webjson.Error(w, http.StatusBadRequest, "cannot change your own admin role")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "user role")
	defer cancel()

	if err := h.Users.SetRole(ctx, oid, req.Role); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			webjson.Error(w, http.StatusNotFound, "user not found")
			return
		}
		h.Log.Error("set role failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	webjson.OK(w, map[string]any{"role": req.Role})
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=active disabled"`
}

// ServeSetStatus enables or disables a login.
func (h *Handler) ServeSetStatus(w http.ResponseWriter, r *http.Request) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		webjson.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req statusRequest
	if !webjson.Decode(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		webjson.Error(w, http.StatusBadRequest, `status must be "active"|"disabled"`)
		return
	}

	if u, ok := auth.CurrentUser(r); ok && u.ID == oid.Hex() && req.Status == "disabled" {
		webjson.Error(w, http.StatusBadRequest, "cannot disable your own account")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "user status")
	defer cancel()

	if err := h.Users.SetStatus(ctx, oid, req.Status); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			webjson.Error(w, http.StatusNotFound, "user not found")
			return
		}
		h.Log.Error("set status failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	webjson.OK(w, map[string]any{"status": req.Status})
}
