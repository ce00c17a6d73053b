// internal/app/features/attendance/routes.go
package attendance

import (
	"github.com/go-chi/chi/v5"

	"github.com/covenantapps/flockhub/internal/app/system/auth"
)

// Routes mounts attendance sessions and marking. Reading needs a sign-in;
// recording needs admin or leader; deleting a whole session is admin-only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Get("/sessions", h.ServeListSessions)
		pr.Get("/sessions/{id}", h.ServeSessionDetail)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole("admin", "leader"))
		pr.Post("/sessions", h.ServeCreateSession)
		pr.Put("/sessions/{id}", h.ServeUpdateSession)
		pr.Post("/sessions/{id}/mark", h.ServeMark)
		pr.Delete("/sessions/{id}/mark/{memberID}", h.ServeUnmark)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole("admin"))
		pr.Delete("/sessions/{id}", h.ServeDeleteSession)
	})

	return r
}
