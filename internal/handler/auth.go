package handler

import (
	"log/slog"
	"net/http"

	"github.com/mailtriage/mailtriage/internal/auth"
	"github.com/mailtriage/mailtriage/internal/handler/dto"
	"github.com/mailtriage/mailtriage/internal/service"
)

// AuthHandler handles login, registration and logout.
type AuthHandler struct {
	svc    AuthService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	session, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAuthResponse(session))
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	session, err := h.svc.Register(r.Context(), service.RegisterInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		TenantName: req.Tenant.Name,
		Plan:       req.Tenant.Plan,
	})
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAuthResponse(session))
}

// Logout handles POST /api/v1/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if err := h.svc.Logout(r.Context(), claims); err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	h.logger.Info("logged out", "user_id", claims.UserID)
	w.WriteHeader(http.StatusNoContent)
}

func toAuthResponse(s *service.Session) dto.AuthResponse {
	return dto.AuthResponse{
		User:      s.User,
		Tenant:    s.Tenant,
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
	}
}
