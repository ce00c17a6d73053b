// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/go-chi/chi/v5"

	"github.com/covenantapps/flockhub/internal/app/system/auth"
)

// Routes mounts the audit trail. Admin only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole("admin"))
		pr.Get("/", h.ServeList)
	})

	return r
}
