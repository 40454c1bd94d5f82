package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/corvid-labs/postboard/internal/api/shared"
	"github.com/corvid-labs/postboard/internal/platform/logger"
	"github.com/corvid-labs/postboard/internal/service"
)

// AuthHandler handles registration, login and the caller's profile.
type AuthHandler struct {
	users  service.UserService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(users service.UserService, logger *slog.Logger) *AuthHandler {
	if users == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("user service cannot be nil for AuthHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		users:  users,
		logger: logger.With(slog.String("component", "auth_handler")),
	}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.users.Register(r.Context(), service.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Address:  req.Address,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create user")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("user registered",
		slog.String("user_id", user.ID.String()))
	shared.RespondWithData(w, r, http.StatusCreated, "User registered", userToResponse(user))
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to authenticate user")
		return
	}

	shared.RespondWithData(w, r, http.StatusOK, "Login successful", AuthResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt.UTC().Format(time.RFC3339),
		User:      userToResponse(result.User),
	})
}

// Profile handles GET /api/auth/profile.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	p := principalFromRequest(r)
	if p == nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.users.GetUser(r.Context(), p.ID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get profile")
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, "Profile", userToResponse(user))
}
