// internal/app/features/ministries/routes.go
package ministries

import (
	"github.com/go-chi/chi/v5"

	"github.com/covenantapps/flockhub/internal/app/system/auth"
)

// Routes mounts ministries. Reading is open to any signed-in user; roster
// and content changes need admin or leader.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Get("/", h.ServeList)
		pr.Get("/{id}", h.ServeDetail)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole("admin", "leader"))
		pr.Post("/", h.ServeCreate)
		pr.Put("/{id}", h.ServeUpdate)
		pr.Post("/{id}/members", h.ServeAddMember)
		pr.Delete("/{id}/members/{memberID}", h.ServeRemoveMember)
		pr.Put("/{id}/leaders", h.ServeSetLeaders)
		pr.Post("/{id}/announcements", h.ServeAnnounce)
		pr.Post("/{id}/resources", h.ServeAddResource)
	})

	return r
}
