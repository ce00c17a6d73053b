// internal/app/features/users/routes.go
package users

import (
	"github.com/go-chi/chi/v5"

	"github.com/covenantapps/flockhub/internal/app/system/auth"
)

// Routes mounts account administration. Admin only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole("admin"))
		pr.Get("/", h.ServeList)
		pr.Put("/{id}/role", h.ServeSetRole)
		pr.Put("/{id}/status", h.ServeSetStatus)
	})

	return r
}
