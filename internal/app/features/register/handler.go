// internal/app/features/register/handler.go
package register

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/covenantapps/flockhub/internal/app/store/audit"
	userstore "github.com/covenantapps/flockhub/internal/app/store/users"
	"github.com/covenantapps/flockhub/internal/app/system/auditlog"
	"github.com/covenantapps/flockhub/internal/app/system/auth"
	"github.com/covenantapps/flockhub/internal/app/system/timeouts"
	"github.com/covenantapps/flockhub/internal/app/system/webjson"
	"github.com/covenantapps/flockhub/internal/domain/models"
)

var validate = validator.New()

// Handler creates password accounts.
type Handler struct {
	Users    *userstore.Store
	Sessions *auth.Manager
	Audit    *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(users *userstore.Store, sessions *auth.Manager, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Sessions: sessions, Audit: auditLog, Log: logger}
}

type registerRequest struct {
	FullName string `json:"full_name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// ServeRegister creates an account and signs it in. The very first account
// becomes the admin; everyone after that starts as a viewer and gets
// promoted by an admin.
func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !webjson.Decode(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		webjson.Error(w, http.StatusBadRequest, "full_name, email and a password of 8+ chars are required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "register")
	defer cancel()

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.Log.Error("password hash failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	role := "viewer"
	if n, err := h.Users.Count(ctx); err == nil && n == 0 {
		role = "admin"
	}

	u, err := h.Users.Create(ctx, models.User{
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: string(hash),
		AuthMethod:   "password",
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			webjson.Error(w, http.StatusConflict, "an account with this email already exists")
			return
		}
		h.Log.Error("user create failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	su := auth.SessionUser{ID: u.ID.Hex(), Name: u.FullName, Email: u.Email, Role: u.Role}
	if err := h.Sessions.SignIn(w, r, su); err != nil {
		h.Log.Error("session save failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.Audit.AuthEvent(ctx, r, audit.EventUserRegistered, &u.ID, true, "")
	webjson.Created(w, map[string]any{
		"id":    su.ID,
		"name":  su.Name,
		"email": su.Email,
		"role":  su.Role,
	})
}
