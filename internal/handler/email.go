package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mailtriage/mailtriage/internal/apperr"
	"github.com/mailtriage/mailtriage/internal/auth"
	"github.com/mailtriage/mailtriage/internal/handler/dto"
	"github.com/mailtriage/mailtriage/internal/model"
	"github.com/mailtriage/mailtriage/internal/service"
)

// EmailHandler handles HTTP requests for email operations.
type EmailHandler struct {
	svc    EmailService
	logger *slog.Logger
}

// NewEmailHandler creates a new EmailHandler.
func NewEmailHandler(svc EmailService, logger *slog.Logger) *EmailHandler {
	return &EmailHandler{svc: svc, logger: logger}
}

// Create handles POST /api/v1/emails.
func (h *EmailHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEmailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	email, err := h.svc.Ingest(r.Context(), service.SourceAPI, model.NewEmail{
		TenantID:  auth.TenantFromContext(r.Context()),
		Subject:   req.Subject,
		Body:      req.Body,
		Sender:    req.Sender,
		Recipient: req.Recipient,
	})
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, email)
}

// List handles GET /api/v1/emails.
func (h *EmailHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	start, end, err := parseDateRange(q)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	emails, err := h.svc.ListEmails(r.Context(), model.EmailFilter{
		TenantID:  auth.TenantFromContext(r.Context()),
		Category:  strings.TrimSpace(q.Get("category")),
		Priority:  strings.TrimSpace(q.Get("priority")),
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, emails)
}

// Get handles GET /api/v1/emails/{id}.
func (h *EmailHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(h.logger, w, r, apperr.New(apperr.ValidationFailed, "Email ID is required"))
		return
	}

	email, err := h.svc.GetEmail(r.Context(), auth.TenantFromContext(r.Context()), id)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, email)
}
