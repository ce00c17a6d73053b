// internal/app/features/groups/routes.go
package groups

import (
	"github.com/go-chi/chi/v5"

	"github.com/covenantapps/flockhub/internal/app/system/auth"
)

// Routes mounts small groups. Everything needs a sign-in; finer-grained
// owner/moderator checks live in the handlers because they depend on the
// group document.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Get("/", h.ServeList)
		pr.Get("/mine", h.ServeMine)
		pr.Post("/", h.ServeCreate)
		pr.Get("/{id}", h.ServeDetail)
		pr.Put("/{id}", h.ServeUpdate)
		pr.Put("/{id}/moderators", h.ServeSetModerators)
		pr.Delete("/{id}", h.ServeDelete)
		pr.Post("/{id}/join", h.ServeJoin)
		pr.Post("/{id}/requests/{requestID}/decide", h.ServeDecide)
		pr.Post("/{id}/leave", h.ServeLeave)
	})

	return r
}
