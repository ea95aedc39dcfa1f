package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/mailtriage/mailtriage/internal/auth"
	"github.com/mailtriage/mailtriage/internal/handler/dto"
	"github.com/mailtriage/mailtriage/internal/model"
)

// TaskHandler handles HTTP requests for task operations.
type TaskHandler struct {
	svc    TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(svc TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{svc: svc, logger: logger}
}

// List handles GET /api/v1/tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	start, end, err := parseDateRange(q)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	page, err := h.svc.ListTasks(r.Context(), model.TaskFilter{
		TenantID:  auth.TenantFromContext(r.Context()),
		EmailID:   strings.TrimSpace(q.Get("email_id")),
		UserID:    strings.TrimSpace(q.Get("user_id")),
		Priority:  strings.TrimSpace(q.Get("priority")),
		Status:    strings.TrimSpace(q.Get("status")),
		StartDate: start,
		EndDate:   end,
		Page:      parseInt(q, "page"),
		PageSize:  parseInt(q, "page_size"),
	})
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// Update handles PUT /api/v1/tasks. The task id travels in the body.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	task, err := h.svc.UpdateTask(r.Context(), auth.TenantFromContext(r.Context()), req.ID, model.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		AssignedTo:  req.AssignedTo.Update(),
	})
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// Delete handles DELETE /api/v1/tasks. The task id travels in the body.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req dto.DeleteTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	if err := h.svc.DeleteTask(r.Context(), auth.TenantFromContext(r.Context()), req.ID); err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
