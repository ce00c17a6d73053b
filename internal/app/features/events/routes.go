// internal/app/features/events/routes.go
package events

import (
	"github.com/go-chi/chi/v5"

	"github.com/covenantapps/flockhub/internal/app/system/auth"
)

// Routes mounts events. Reads need a sign-in; scheduling and registration
// changes need admin or leader.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Get("/", h.ServeList)
		pr.Get("/participation", h.ServeParticipation)
		pr.Get("/{id}", h.ServeDetail)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole("admin", "leader"))
		pr.Post("/", h.ServeCreate)
		pr.Put("/{id}", h.ServeUpdate)
		pr.Post("/{id}/register", h.ServeRegister)
		pr.Delete("/{id}/register/{memberID}", h.ServeUnregister)
	})

	return r
}
