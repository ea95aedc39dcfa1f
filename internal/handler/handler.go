// Package handler provides HTTP request handlers.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/mailtriage/mailtriage/internal/apperr"
	"github.com/mailtriage/mailtriage/internal/middleware"
	"github.com/mailtriage/mailtriage/internal/model"
	"github.com/mailtriage/mailtriage/internal/service"
)

// AuthService is the account logic behind the auth endpoints.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*service.Session, error)
	Register(ctx context.Context, in service.RegisterInput) (*service.Session, error)
	Logout(ctx context.Context, claims *model.AuthClaims) error
}

// UserService is the user management logic.
type UserService interface {
	CreateUser(ctx context.Context, in service.CreateUserInput) (*model.User, error)
}

// EmailService is the ingestion and email query logic.
type EmailService interface {
	Ingest(ctx context.Context, source string, in model.NewEmail) (*model.Email, error)
	ListEmails(ctx context.Context, filter model.EmailFilter) ([]*model.Email, error)
	GetEmail(ctx context.Context, tenantID, id string) (*model.Email, error)
}

// TaskService is the task query and mutation logic.
type TaskService interface {
	ListTasks(ctx context.Context, filter model.TaskFilter) (*model.TaskPage, error)
	UpdateTask(ctx context.Context, tenantID, id string, upd model.TaskUpdate) (*model.Task, error)
	DeleteTask(ctx context.Context, tenantID, id string) error
}

// Handler serves the routes that belong to no resource.
type Handler struct {
	version string
}

// New creates a new Handler instance.
func New(version string) *Handler {
	return &Handler{version: version}
}

// Index identifies the service.
// GET /
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "mailtriage",
		"version": h.version,
	})
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	middleware.WriteError(w, apperr.New(apperr.NotFound, "Resource not found"))
}

// MethodNotAllowed handles 405 responses. The closed error set has no
// kind for it, so the body is written here.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "Method not allowed",
		"code":  "METHOD_NOT_ALLOWED",
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError logs server-side failures with their cause and writes the
// client-facing error body. Causes are never sent to clients.
func writeError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	e := apperr.As(err)
	if e.Kind.HTTPStatus() >= http.StatusInternalServerError {
		logger.Error("request failed",
			slog.String("code", e.Kind.Code()),
			slog.String("error", err.Error()),
			slog.String("endpoint", r.Method+" "+r.URL.Path),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
	}
	middleware.WriteError(w, e)
}

// decodeJSON reads a JSON request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return apperr.New(apperr.ValidationFailed, "Request body is required")
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		return apperr.New(apperr.ValidationFailed, "Request body is required")
	default:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.New(apperr.ValidationFailed, "Request body too large")
		}
		return apperr.Wrapf(apperr.ValidationFailed, err, "Invalid request body")
	}
}
