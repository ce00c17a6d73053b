// internal/app/features/health/handler.go
package health

import (
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/covenantapps/flockhub/internal/app/system/connectivity"
	"github.com/covenantapps/flockhub/internal/app/system/timeouts"
	"github.com/covenantapps/flockhub/internal/app/system/webjson"
)

// Handler serves liveness and readiness checks.
type Handler struct {
	Client *mongo.Client
	Hub    *connectivity.Hub
	Log    *zap.Logger
}

func NewHandler(client *mongo.Client, hub *connectivity.Hub, logger *zap.Logger) *Handler {
	return &Handler{Client: client, Hub: hub, Log: logger}
}

// ServeHealth reports process and database health. The connectivity status
// reflects what the live-query layer is seeing, which can go offline before
// a direct ping fails.
func (h *Handler) ServeHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Ping(), h.Log, "health ping")
	defer cancel()

	dbOK := h.Client.Ping(ctx, readpref.Primary()) == nil
	body := map[string]any{
		"status":       "ok",
		"database":     dbOK,
		"connectivity": string(h.Hub.Status()),
	}
	if !dbOK {
		body["status"] = "degraded"
		webjson.Write(w, http.StatusServiceUnavailable, body)
		return
	}
	webjson.OK(w, body)
}
