// internal/app/features/notes/routes.go
package notes

import (
	"github.com/go-chi/chi/v5"

	"github.com/covenantapps/flockhub/internal/app/system/auth"
)

// Routes mounts pastoral notes. These are sensitive, so everything is
// admin/leader only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole("admin", "leader"))
		pr.Post("/", h.ServeCreate)
		pr.Get("/member/{memberID}", h.ServeByMember)
		pr.Get("/follow-ups", h.ServeFollowUps)
		pr.Post("/{id}/complete", h.ServeComplete)
	})

	return r
}
