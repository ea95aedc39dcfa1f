package handler

import (
	"log/slog"
	"net/http"

	"github.com/mailtriage/mailtriage/internal/auth"
	"github.com/mailtriage/mailtriage/internal/handler/dto"
	"github.com/mailtriage/mailtriage/internal/service"
)

// UserHandler handles user management within a tenant.
type UserHandler struct {
	svc    UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

// Create handles POST /api/v1/users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	user, err := h.svc.CreateUser(r.Context(), service.CreateUserInput{
		TenantID: auth.TenantFromContext(r.Context()),
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	h.logger.Info("user_created",
		"user_id", user.ID,
		"tenant_id", user.TenantID,
		"role", user.Role,
		"created_by", auth.UserIDFromContext(r.Context()),
	)
	writeJSON(w, http.StatusCreated, user)
}
