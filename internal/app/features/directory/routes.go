// internal/app/features/directory/routes.go
package directory

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter that serves the directory endpoints.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/users", h.ListUsers)
	r.Get("/users/{id}", h.GetUser)
	r.Get("/roles", h.ListRoles)
	r.Get("/roles/{name}/members", h.RoleMembers)
	return r
}
