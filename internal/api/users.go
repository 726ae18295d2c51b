package api

import (
	"net/http"

	"github.com/erazemk/renova/internal/engine"
)

// UsersHandler handles user management endpoints.
type UsersHandler struct {
	Engine *engine.Engine
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users := h.Engine.Users()
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, viewUser(u))
	}
	jsonResponse(w, http.StatusOK, views)
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req engine.UserInput
	if err := decodeJSON(w, r, &req); err != nil {
		invalidBody(w, err)
		return
	}

	user, err := h.Engine.AddUser(r.Context(), actorFrom(r.Context()), req)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, viewUser(user))
}

// ResetPassword handles PUT /api/users/{id}/password.
func (h *UsersHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		invalidBody(w, err)
		return
	}

	if err := h.Engine.ChangePassword(r.Context(), actorFrom(r.Context()), r.PathValue("id"), req.Password); err != nil {
		writeEngineError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// Delete handles DELETE /api/users/{id}.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.DeleteUser(r.Context(), actorFrom(r.Context()), r.PathValue("id")); err != nil {
		writeEngineError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "user deleted"})
}
