// internal/app/features/login/routes.go
package login

import "github.com/go-chi/chi/v5"

func MountRoutes(r chi.Router, h *Handler) {
	r.Post("/auth/login", h.ServeLogin)
	r.Get("/auth/me", h.ServeMe)
}
