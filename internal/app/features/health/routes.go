// internal/app/features/health/routes.go
package health

import "github.com/go-chi/chi/v5"

// MountRoutes registers GET /healthz on the supplied router.
func MountRoutes(r chi.Router, h *Handler) {
	r.Get("/healthz", h.ServeHealth)
}
