// internal/app/features/contributions/routes.go
package contributions

import (
	"github.com/go-chi/chi/v5"

	"github.com/covenantapps/flockhub/internal/app/system/auth"
)

// Routes mounts the giving records. Financial data is the most sensitive
// surface here, so even reads are admin/leader only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole("admin", "leader"))
		pr.Get("/", h.ServeList)
		pr.Post("/", h.ServeCreate)
		pr.Get("/report", h.ServeReport)
		pr.Get("/statement/{memberID}", h.ServeStatement)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole("admin"))
		pr.Put("/{id}", h.ServeUpdate)
		pr.Delete("/{id}", h.ServeDelete)
	})

	return r
}
