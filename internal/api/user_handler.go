package api

import (
	"net/http"

	"github.com/dkowalski/libris-api/internal/domain"
	"github.com/dkowalski/libris-api/internal/service"
)

// UserHandler handles user registration and administration requests.
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Register handles POST /api/users. Open to anonymous callers; every new
// account is an active member.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.userService.RegisterUser(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create user")
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, NewUserResponse(user))
}

// List handles GET /api/users (librarian/admin).
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListUsers(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list users")
		return
	}

	out := make([]UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, NewUserResponse(user))
	}
	RespondWithJSON(w, r, http.StatusOK, out)
}

// Get handles GET /api/users/{id} (librarian/admin).
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := requirePathUUID(w, r, "id")
	if !ok {
		return
	}

	user, err := h.userService.GetUser(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to retrieve user")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, NewUserResponse(user))
}

// Update handles PUT /api/users/{id} (librarian/admin). Only the fields
// present in the payload change.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := requirePathUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if req.Email != nil {
		if err := h.userService.UpdateUserEmail(r.Context(), id, *req.Email); err != nil {
			HandleAPIError(w, r, err, "Failed to update user")
			return
		}
	}
	if req.Password != nil {
		if err := h.userService.UpdateUserPassword(r.Context(), id, *req.Password); err != nil {
			HandleAPIError(w, r, err, "Failed to update user")
			return
		}
	}
	if req.Role != nil {
		if err := h.userService.SetUserRole(r.Context(), id, domain.Role(*req.Role)); err != nil {
			HandleAPIError(w, r, err, "Failed to update user")
			return
		}
	}
	if req.IsActive != nil {
		if err := h.userService.SetUserActive(r.Context(), id, *req.IsActive); err != nil {
			HandleAPIError(w, r, err, "Failed to update user")
			return
		}
	}

	user, err := h.userService.GetUser(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to retrieve user")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, NewUserResponse(user))
}

// Delete handles DELETE /api/users/{id} (librarian/admin).
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := requirePathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete user")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
