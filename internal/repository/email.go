package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
	"github.com/oklog/ulid/v2"

	"github.com/mailtriage/mailtriage/internal/model"
)

// ErrEmailNotFound is returned when an email does not exist in the tenant.
var ErrEmailNotFound = errors.New("email not found")

// CreateEmailWithTasks stores an email and one pending task per suggested
// task in a single transaction, then re-reads the email with its tasks.
// Either everything is committed or nothing is.
func (r *Repository) CreateEmailWithTasks(ctx context.Context, in model.NewEmail, c model.Classification) (*model.Email, error) {
	var created *model.Email

	err := r.WithTx(ctx, func(tx *Repository) error {
		now := time.Now().UTC()
		emailID := ulid.Make().String()

		labels := c.Labels
		if labels == nil {
			labels = []string{}
		}

		_, err := tx.db.Exec(ctx, `
			INSERT INTO emails (id, tenant_id, subject, body, sender, recipient, priority, category, labels, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`,
			emailID,
			in.TenantID,
			in.Subject,
			in.Body,
			in.Sender,
			in.Recipient,
			c.Priority,
			c.Category,
			pq.Array(labels),
			now,
		)
		if err != nil {
			return fmt.Errorf("insert email: %w", err)
		}

		for i, st := range c.SuggestedTasks {
			_, err := tx.db.Exec(ctx, `
				INSERT INTO tasks (id, tenant_id, email_id, title, description, priority, status, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
			`,
				ulid.Make().String(),
				in.TenantID,
				emailID,
				st.Title,
				st.Description,
				st.Priority,
				model.TaskStatusPending,
				// Keeps insertion order visible in created_at ordering.
				now.Add(time.Duration(i)*time.Microsecond),
			)
			if err != nil {
				return fmt.Errorf("insert task %d: %w", i, err)
			}
		}

		created, err = tx.GetEmail(ctx, in.TenantID, emailID)
		if err != nil {
			return fmt.Errorf("reload email: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// GetEmail retrieves one email of a tenant with its tasks.
func (r *Repository) GetEmail(ctx context.Context, tenantID, id string) (*model.Email, error) {
	query := `SELECT ` + emailColumns + ` FROM emails WHERE id = $1 AND tenant_id = $2`

	email, err := scanEmail(r.db.QueryRow(ctx, query, id, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEmailNotFound
		}
		return nil, fmt.Errorf("failed to get email: %w", err)
	}

	emails := []*model.Email{email}
	if err := r.attachTasks(ctx, tenantID, emails); err != nil {
		return nil, err
	}
	return email, nil
}

// ListEmails retrieves a tenant's emails, newest first, each with its tasks.
func (r *Repository) ListEmails(ctx context.Context, filter model.EmailFilter) ([]*model.Email, error) {
	query := `SELECT ` + emailColumns + ` FROM emails WHERE tenant_id = $1`
	args := []any{filter.TenantID}
	argIndex := 2

	if filter.Category != "" {
		query += fmt.Sprintf(" AND category = $%d", argIndex)
		args = append(args, filter.Category)
		argIndex++
	}

	if filter.Priority != "" {
		query += fmt.Sprintf(" AND priority = $%d", argIndex)
		args = append(args, filter.Priority)
		argIndex++
	}

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIndex)
		args = append(args, *filter.StartDate)
		argIndex++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argIndex)
		args = append(args, *filter.EndDate)
	}

	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list emails: %w", err)
	}
	defer rows.Close()

	emails := []*model.Email{}
	for rows.Next() {
		email, err := scanEmail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan email: %w", err)
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating emails: %w", err)
	}

	if err := r.attachTasks(ctx, filter.TenantID, emails); err != nil {
		return nil, err
	}
	return emails, nil
}

const emailColumns = `id, tenant_id, subject, body, sender, recipient, priority, category, labels, created_at`

// attachTasks loads the restricted task projection for emails, oldest first.
func (r *Repository) attachTasks(ctx context.Context, tenantID string, emails []*model.Email) error {
	if len(emails) == 0 {
		return nil
	}

	ids := make([]string, len(emails))
	byID := make(map[string]*model.Email, len(emails))
	for i, e := range emails {
		ids[i] = e.ID
		e.Tasks = []model.TaskSummary{}
		byID[e.ID] = e
	}

	rows, err := r.db.Query(ctx, `
		SELECT email_id, id, title, description, priority, status, created_at
		FROM tasks
		WHERE tenant_id = $1 AND email_id = ANY($2)
		ORDER BY created_at ASC, id ASC
	`, tenantID, ids)
	if err != nil {
		return fmt.Errorf("failed to list email tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var emailID string
		var t model.TaskSummary
		if err := rows.Scan(&emailID, &t.ID, &t.Title, &t.Description, &t.Priority, &t.Status, &t.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan email task: %w", err)
		}
		if e, ok := byID[emailID]; ok {
			e.Tasks = append(e.Tasks, t)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating email tasks: %w", err)
	}
	return nil
}

func scanEmail(row pgx.Row) (*model.Email, error) {
	var e model.Email
	var labels pq.StringArray
	err := row.Scan(
		&e.ID,
		&e.TenantID,
		&e.Subject,
		&e.Body,
		&e.Sender,
		&e.Recipient,
		&e.Priority,
		&e.Category,
		&labels,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Labels = []string(labels)
	if e.Labels == nil {
		e.Labels = []string{}
	}
	return &e, nil
}
