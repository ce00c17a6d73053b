// internal/app/features/register/routes.go
package register

import "github.com/go-chi/chi/v5"

func MountRoutes(r chi.Router, h *Handler) {
	r.Post("/auth/register", h.ServeRegister)
}
