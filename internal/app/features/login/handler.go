// internal/app/features/login/handler.go
package login

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/covenantapps/flockhub/internal/app/store/audit"
	userstore "github.com/covenantapps/flockhub/internal/app/store/users"
	"github.com/covenantapps/flockhub/internal/app/system/auditlog"
	"github.com/covenantapps/flockhub/internal/app/system/auth"
	"github.com/covenantapps/flockhub/internal/app/system/status"
	"github.com/covenantapps/flockhub/internal/app/system/timeouts"
	"github.com/covenantapps/flockhub/internal/app/system/webjson"
)

var validate = validator.New()

// Handler signs users in with email and password.
type Handler struct {
	Users    *userstore.Store
	Sessions *auth.Manager
	Audit    *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(users *userstore.Store, sessions *auth.Manager, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Sessions: sessions, Audit: auditLog, Log: logger}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ServeLogin checks credentials and writes the session cookie. Failed
// lookups and wrong passwords both come back as the same 401 so the
// response does not leak which emails have accounts.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !webjson.Decode(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		webjson.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login lookup")
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.Audit.AuthEvent(ctx, r, audit.EventLoginFailedUserNotFound, nil, false, "user not found")
			webjson.Error(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.Log.Error("login lookup failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	if u.Status == status.Disabled {
		h.Audit.AuthEvent(ctx, r, audit.EventLoginFailedWrongPassword, &u.ID, false, "account disabled")
		webjson.Error(w, http.StatusUnauthorized, "account disabled")
		return
	}
	if u.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		h.Audit.AuthEvent(ctx, r, audit.EventLoginFailedWrongPassword, &u.ID, false, "wrong password")
		webjson.Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	su := auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
		Role:  u.Role,
	}
	if err := h.Sessions.SignIn(w, r, su); err != nil {
		h.Log.Error("session save failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.Audit.AuthEvent(ctx, r, audit.EventLoginSuccess, &u.ID, true, "")
	webjson.OK(w, map[string]any{
		"id":    su.ID,
		"name":  su.Name,
		"email": su.Email,
		"role":  su.Role,
	})
}

// ServeMe returns the signed-in user from the session, for clients that
// need to restore state after a reload.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		webjson.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	webjson.OK(w, map[string]any{
		"id":    u.ID,
		"name":  u.Name,
		"email": u.Email,
		"role":  u.Role,
	})
}
