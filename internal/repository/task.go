package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mailtriage/mailtriage/internal/model"
)

// ErrTaskNotFound is returned when a task does not exist in the tenant.
var ErrTaskNotFound = errors.New("task not found")

const taskSelect = `
	SELECT t.id, t.tenant_id, t.email_id, t.title, t.description, t.priority, t.status,
	       t.assigned_to, t.created_at, t.updated_at, e.subject, e.sender
	FROM tasks t
	LEFT JOIN emails e ON e.id = t.email_id AND e.tenant_id = t.tenant_id
`

// ListTasks returns one page of a tenant's tasks, newest first, with the
// total number of matching tasks.
func (r *Repository) ListTasks(ctx context.Context, filter model.TaskFilter) ([]model.Task, int, error) {
	where := ` WHERE t.tenant_id = $1`
	args := []any{filter.TenantID}
	argIndex := 2

	if filter.EmailID != "" {
		where += fmt.Sprintf(" AND t.email_id = $%d", argIndex)
		args = append(args, filter.EmailID)
		argIndex++
	}

	if filter.UserID != "" {
		where += fmt.Sprintf(" AND t.assigned_to = $%d", argIndex)
		args = append(args, filter.UserID)
		argIndex++
	}

	if filter.Priority != "" {
		where += fmt.Sprintf(" AND t.priority = $%d", argIndex)
		args = append(args, filter.Priority)
		argIndex++
	}

	if filter.Status != "" {
		where += fmt.Sprintf(" AND t.status = $%d", argIndex)
		args = append(args, filter.Status)
		argIndex++
	}

	if filter.StartDate != nil {
		where += fmt.Sprintf(" AND t.created_at >= $%d", argIndex)
		args = append(args, *filter.StartDate)
		argIndex++
	}

	if filter.EndDate != nil {
		where += fmt.Sprintf(" AND t.created_at <= $%d", argIndex)
		args = append(args, *filter.EndDate)
		argIndex++
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tasks t`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	query := taskSelect + where +
		fmt.Sprintf(" ORDER BY t.created_at DESC, t.id DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask retrieves one task of a tenant with its email projection.
func (r *Repository) GetTask(ctx context.Context, tenantID, id string) (*model.Task, error) {
	task, err := scanTask(r.db.QueryRow(ctx, taskSelect+` WHERE t.id = $1 AND t.tenant_id = $2`, id, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// UpdateTask applies the set fields of upd to a tenant's task, stamps
// updated_at and returns the updated task. An empty update leaves the
// row untouched.
func (r *Repository) UpdateTask(ctx context.Context, tenantID, id string, upd model.TaskUpdate) (*model.Task, error) {
	if upd.IsEmpty() {
		return r.GetTask(ctx, tenantID, id)
	}

	var assign bool
	var assignee string
	if upd.AssignedTo != nil {
		assign = true
		assignee = *upd.AssignedTo
	}

	result, err := r.db.Exec(ctx, `
		UPDATE tasks SET
			title       = COALESCE($3, title),
			description = COALESCE($4, description),
			priority    = COALESCE($5, priority),
			status      = COALESCE($6, status),
			assigned_to = CASE WHEN $7::boolean THEN NULLIF($8::text, '')::uuid ELSE assigned_to END,
			updated_at  = NOW()
		WHERE id = $1 AND tenant_id = $2
	`,
		id,
		tenantID,
		upd.Title,
		upd.Description,
		upd.Priority,
		upd.Status,
		assign,
		assignee,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, ErrTaskNotFound
	}

	return r.GetTask(ctx, tenantID, id)
}

// DeleteTask removes a tenant's task.
func (r *Repository) DeleteTask(ctx context.Context, tenantID, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func scanTask(row pgx.Row) (*model.Task, error) {
	var t model.Task
	var subject, sender *string
	err := row.Scan(
		&t.ID,
		&t.TenantID,
		&t.EmailID,
		&t.Title,
		&t.Description,
		&t.Priority,
		&t.Status,
		&t.AssignedTo,
		&t.CreatedAt,
		&t.UpdatedAt,
		&subject,
		&sender,
	)
	if err != nil {
		return nil, err
	}
	if subject != nil && sender != nil {
		t.Email = &model.EmailRef{Subject: *subject, Sender: *sender}
	}
	return &t, nil
}
