// internal/app/features/dashboard/routes.go
package dashboard

import (
	"github.com/go-chi/chi/v5"

	"github.com/covenantapps/flockhub/internal/app/system/auth"
)

// MountRoutes registers the overview. It includes giving figures, so it is
// admin/leader only, same as the contributions surface.
func MountRoutes(r chi.Router, h *Handler) {
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole("admin", "leader"))
		pr.Get("/dashboard", h.ServeSummary)
	})
}
