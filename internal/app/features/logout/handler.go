// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/covenantapps/flockhub/internal/app/store/audit"
	"github.com/covenantapps/flockhub/internal/app/system/auditlog"
	"github.com/covenantapps/flockhub/internal/app/system/auth"
	"github.com/covenantapps/flockhub/internal/app/system/webjson"
)

// Handler signs users out.
type Handler struct {
	Sessions *auth.Manager
	Audit    *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(sessions *auth.Manager, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Sessions: sessions, Audit: auditLog, Log: logger}
}

// ServeLogout clears the session cookie. Always succeeds, signed in or not.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		if oid, err := primitive.ObjectIDFromHex(u.ID); err == nil {
			h.Audit.AuthEvent(r.Context(), r, audit.EventLogout, &oid, true, "")
		}
	}
	if err := h.Sessions.SignOut(w, r); err != nil {
		h.Log.Error("session clear failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	webjson.OK(w, map[string]any{"signed_out": true})
}
