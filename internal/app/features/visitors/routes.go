// internal/app/features/visitors/routes.go
package visitors

import (
	"github.com/go-chi/chi/v5"

	"github.com/covenantapps/flockhub/internal/app/system/auth"
)

// Routes mounts the visitor pipeline. Reads need a sign-in; the pipeline
// moves (create, follow-up, convert) need admin or leader.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Get("/", h.ServeList)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole("admin", "leader"))
		pr.Post("/", h.ServeCreate)
		pr.Put("/{id}/follow-up", h.ServeFollowUp)
		pr.Post("/{id}/convert", h.ServeConvert)
	})

	return r
}
