// internal/app/features/authgoogle/routes.go
package authgoogle

import "github.com/go-chi/chi/v5"

func MountRoutes(r chi.Router, h *Handler) {
	r.Get("/auth/google", h.ServeStart)
	r.Get("/auth/google/callback", h.ServeCallback)
}
