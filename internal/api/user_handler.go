package api

import (
	"log/slog"
	"net/http"

	"github.com/corvid-labs/postboard/internal/api/shared"
	"github.com/corvid-labs/postboard/internal/domain"
	"github.com/corvid-labs/postboard/internal/service"
)

// UserHandler handles the /api/users routes.
type UserHandler struct {
	users  service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users service.UserService, logger *slog.Logger) *UserHandler {
	if users == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("user service cannot be nil for UserHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{
		users:  users,
		logger: logger.With(slog.String("component", "user_handler")),
	}
}

// List handles GET /api/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.users.ListUsers(r.Context(), listParams(r))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list users")
		return
	}
	respondWithList(w, r, "Users", usersToResponse(result.Items), result)
}

// Get handles GET /api/users/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUIDOrError(w, r, "id")
	if !ok {
		return
	}
	user, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get user")
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, "User", userToResponse(user))
}

// Update handles PUT /api/users/{id}. Only the account holder may update it.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUIDOrError(w, r, "id")
	if !ok {
		return
	}
	var req UpdateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.users.UpdateUser(r.Context(), principalFromRequest(r), id, domain.UserChanges{
		Name:     req.Name,
		Password: req.Password,
		Address:  req.Address,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update user")
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, "User updated", userToResponse(user))
}

// Delete handles DELETE /api/users/{id}. The account's posts go with it.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUIDOrError(w, r, "id")
	if !ok {
		return
	}
	if err := h.users.DeleteUser(r.Context(), principalFromRequest(r), id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete user")
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, "User deleted", nil)
}
