package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/mailtriage/mailtriage/internal/apperr"
	"github.com/mailtriage/mailtriage/internal/metrics"
	"github.com/mailtriage/mailtriage/internal/model"
	"github.com/mailtriage/mailtriage/internal/repository"
	"github.com/mailtriage/mailtriage/internal/validate"
)

// Task paging defaults.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// TaskService serves task queries and mutations within a tenant.
type TaskService struct {
	store   TaskStore
	metrics metrics.Recorder
}

// NewTaskService creates a new TaskService.
func NewTaskService(store TaskStore, recorder metrics.Recorder) *TaskService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &TaskService{store: store, metrics: recorder}
}

// NormalizePage replaces out of range paging values with the defaults
// and caps the page size.
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// ListTasks returns one page of the tenant's tasks, newest first.
func (s *TaskService) ListTasks(ctx context.Context, filter model.TaskFilter) (*model.TaskPage, error) {
	if filter.TenantID == "" {
		return nil, apperr.ErrTenantHeaderMissing
	}
	filter.Page, filter.PageSize = NormalizePage(filter.Page, filter.PageSize)
	if filter.UserID != "" {
		if _, err := uuid.Parse(filter.UserID); err != nil {
			return nil, apperr.New(apperr.ValidationFailed, "user_id is not a valid user id")
		}
	}

	tasks, total, err := s.store.ListTasks(ctx, filter)
	if err != nil {
		return nil, apperr.Wrap(apperr.InternalError, err)
	}
	if tasks == nil {
		tasks = []model.Task{}
	}

	return &model.TaskPage{
		Data:       tasks,
		Pagination: model.NewPagination(total, filter.Page, filter.PageSize),
	}, nil
}

// UpdateTask applies upd to one of the tenant's tasks. An empty assignee
// clears the assignment; any other assignee must be a user of the tenant.
func (s *TaskService) UpdateTask(ctx context.Context, tenantID, id string, upd model.TaskUpdate) (*model.Task, error) {
	if tenantID == "" {
		return nil, apperr.ErrTenantHeaderMissing
	}
	if strings.TrimSpace(id) == "" {
		return nil, apperr.New(apperr.ValidationFailed, "id is required")
	}
	if err := s.validateUpdate(ctx, tenantID, &upd); err != nil {
		return nil, err
	}

	task, err := s.store.UpdateTask(ctx, tenantID, id, upd)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, apperr.Wrapf(apperr.NotFound, err, "Task not found")
		}
		return nil, apperr.Wrap(apperr.InternalError, err)
	}

	s.metrics.IncTaskUpdated()
	return task, nil
}

func (s *TaskService) validateUpdate(ctx context.Context, tenantID string, upd *model.TaskUpdate) error {
	var errs validate.Errors
	if upd.Title != nil {
		title := validate.StripHTML(*upd.Title)
		upd.Title = &title
		errs.Add("title", validate.Text(title, validate.MaxTaskTitleLength, true))
	}
	if upd.Description != nil {
		errs.Add("description", validate.Text(*upd.Description, validate.MaxBodyLength, false))
	}
	if upd.Status != nil {
		errs.Add("status", validate.Text(*upd.Status, validate.MaxNameLength, true))
	}
	if upd.Priority != nil {
		errs.Add("priority", validate.Text(*upd.Priority, validate.MaxNameLength, true))
	}
	if err := errs.Err(); err != nil {
		return apperr.Wrapf(apperr.ValidationFailed, err, err.Error())
	}

	if upd.AssignedTo == nil || *upd.AssignedTo == "" {
		return nil
	}
	if _, err := uuid.Parse(*upd.AssignedTo); err != nil {
		return apperr.New(apperr.ValidationFailed, "assigned_to is not a valid user id")
	}
	user, err := s.store.GetUserByID(ctx, *upd.AssignedTo)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperr.New(apperr.ValidationFailed, "assigned_to is not a user of this tenant")
		}
		return apperr.Wrap(apperr.InternalError, err)
	}
	if user.TenantID != tenantID {
		return apperr.New(apperr.ValidationFailed, "assigned_to is not a user of this tenant")
	}
	return nil
}

// DeleteTask removes one of the tenant's tasks.
func (s *TaskService) DeleteTask(ctx context.Context, tenantID, id string) error {
	if tenantID == "" {
		return apperr.ErrTenantHeaderMissing
	}
	if strings.TrimSpace(id) == "" {
		return apperr.New(apperr.ValidationFailed, "id is required")
	}
	if err := s.store.DeleteTask(ctx, tenantID, id); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return apperr.Wrapf(apperr.NotFound, err, "Task not found")
		}
		return apperr.Wrap(apperr.InternalError, err)
	}
	s.metrics.IncTaskDeleted()
	return nil
}
