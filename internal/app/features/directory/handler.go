// internal/app/features/directory/handler.go
package directory

import (
	"context"
	"encoding/json"
	"net/http"

	rolestore "github.com/anaychenko/mongoidentity/internal/app/store/roles"
	userstore "github.com/anaychenko/mongoidentity/internal/app/store/users"
	"github.com/anaychenko/mongoidentity/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the read-only directory endpoints: user and role
// enumeration for operators and admin tooling. Password hashes and
// security stamps never appear in responses; the models hide them from
// JSON encoding.
type Handler struct {
	Users *userstore.Store
	Roles *rolestore.Store
	Log   *zap.Logger
}

// NewHandler constructs a directory Handler over the two stores.
func NewHandler(users *userstore.Store, roles *rolestore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Users: users,
		Roles: roles,
		Log:   logger,
	}
}

// activeFilter translates the optional ?active=true|false query parameter
// into a store filter. No parameter means everything, deleted included.
func activeFilter(r *http.Request) bson.M {
	switch r.URL.Query().Get("active") {
	case "true":
		return bson.M{"active": true}
	case "false":
		return bson.M{"active": false}
	default:
		return nil
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ListUsers handles GET /directory/users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	users, err := h.Users.List(ctx, activeFilter(r))
	if err != nil {
		h.Log.Error("directory: list users failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "listing users failed")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// GetUser handles GET /directory/users/{id}.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := h.Users.FindByID(ctx, id)
	if err != nil {
		h.Log.Error("directory: find user failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "finding user failed")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ListRoles handles GET /directory/roles.
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	roles, err := h.Roles.List(ctx, activeFilter(r))
	if err != nil {
		h.Log.Error("directory: list roles failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "listing roles failed")
		return
	}
	writeJSON(w, http.StatusOK, roles)
}

// RoleMembers handles GET /directory/roles/{name}/members.
func (h *Handler) RoleMembers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	name := chi.URLParam(r, "name")
	members, err := h.Users.UsersInRole(ctx, name)
	if err != nil {
		h.Log.Error("directory: role members failed",
			zap.String("role", name),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "listing role members failed")
		return
	}
	writeJSON(w, http.StatusOK, members)
}
