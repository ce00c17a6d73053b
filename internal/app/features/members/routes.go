// internal/app/features/members/routes.go
package members

import (
	"github.com/go-chi/chi/v5"

	"github.com/covenantapps/flockhub/internal/app/system/auth"
)

// Routes mounts the member roster. Any signed-in user can read; writes need
// the admin or leader role.
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
	})

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole("admin"))
		pr.Delete("/{id}", h.ServeDelete)
	})

	return r
}
