package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mailtriage/mailtriage/internal/model"
)

// ErrTenantNotFound is returned when a tenant does not exist.
var ErrTenantNotFound = errors.New("tenant not found")

// CreateTenant inserts a new tenant.
func (r *Repository) CreateTenant(ctx context.Context, tenant *model.Tenant) error {
	query := `
		INSERT INTO tenants (id, name, plan, created_at)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := r.db.Exec(ctx, query, tenant.ID, tenant.Name, tenant.Plan, tenant.CreatedAt); err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	return nil
}

// GetTenantByID retrieves a tenant by its ID.
func (r *Repository) GetTenantByID(ctx context.Context, id string) (*model.Tenant, error) {
	query := `
		SELECT id, name, plan, created_at
		FROM tenants
		WHERE id = $1
	`

	var t model.Tenant
	err := r.db.QueryRow(ctx, query, id).Scan(&t.ID, &t.Name, &t.Plan, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to get tenant by ID: %w", err)
	}

	return &t, nil
}

// CreateTenantWithUser creates a tenant and its first user atomically.
func (r *Repository) CreateTenantWithUser(ctx context.Context, tenant *model.Tenant, user *model.User) error {
	return r.WithTx(ctx, func(tx *Repository) error {
		if err := tx.CreateTenant(ctx, tenant); err != nil {
			return err
		}
		return tx.CreateUser(ctx, user)
	})
}
