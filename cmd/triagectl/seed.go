package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mailtriage/mailtriage/internal/model"
	"github.com/mailtriage/mailtriage/internal/repository"
	"github.com/mailtriage/mailtriage/internal/service"
)

// Development defaults created by seed.
const (
	seedTenantID = "a0eebc99-9c0b-4ef8-bb6d-6bb9bd380a11"
	seedTenant   = "Default Tenant"
	seedEmail    = "admin@example.com"
	seedPassword = "admin123"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	in := seedInput{
		TenantID: seedTenantID,
		Tenant:   seedTenant,
		Email:    seedEmail,
		Password: seedPassword,
	}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the default tenant and admin user if missing",
		Long: `seed creates a tenant and an admin user for local development.
It is idempotent: existing rows are left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRepository(cmd, func(ctx context.Context, repo *repository.Repository) error {
				res, err := seed(ctx, repo, in, time.Now())
				if err != nil {
					return err
				}
				plain := fmt.Sprintf("tenant %s (created=%t), user %s (created=%t)",
					res.TenantID, res.TenantCreated, res.Email, res.UserCreated)
				return printResult(cmd.OutOrStdout(), opts.format, plain, res)
			})
		},
	}
	cmd.Flags().StringVar(&in.TenantID, "tenant-id", in.TenantID, "Tenant ID")
	cmd.Flags().StringVar(&in.Tenant, "tenant-name", in.Tenant, "Tenant name")
	cmd.Flags().StringVar(&in.Email, "email", in.Email, "Admin email")
	cmd.Flags().StringVar(&in.Password, "password", in.Password, "Admin password")

	return cmd
}

type seedInput struct {
	TenantID string
	Tenant   string
	Email    string
	Password string
}

type seedResult struct {
	TenantID      string `json:"tenant_id"`
	TenantCreated bool   `json:"tenant_created"`
	Email         string `json:"email"`
	UserCreated   bool   `json:"user_created"`
}

// seedStore is the persistence seed needs.
type seedStore interface {
	service.UserStore
	CreateTenant(ctx context.Context, tenant *model.Tenant) error
}

func seed(ctx context.Context, store seedStore, in seedInput, now time.Time) (*seedResult, error) {
	res := &seedResult{TenantID: in.TenantID, Email: in.Email}

	_, err := store.GetTenantByID(ctx, in.TenantID)
	switch {
	case errors.Is(err, repository.ErrTenantNotFound):
		tenant, err := tenantInput{ID: in.TenantID, Name: in.Tenant, Plan: model.PlanFree}.build(now)
		if err != nil {
			return nil, err
		}
		if err := store.CreateTenant(ctx, tenant); err != nil {
			return nil, err
		}
		res.TenantCreated = true
	case err != nil:
		return nil, fmt.Errorf("look up tenant: %w", err)
	}

	existing, err := store.GetUserByEmail(ctx, in.Email)
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		if _, err := service.NewUserService(store).CreateUser(ctx, service.CreateUserInput{
			TenantID: in.TenantID,
			Email:    in.Email,
			Name:     "Admin",
			Password: in.Password,
			Role:     model.RoleAdmin,
		}); err != nil {
			return nil, err
		}
		res.UserCreated = true
	case err != nil:
		return nil, fmt.Errorf("look up user: %w", err)
	case existing.TenantID != in.TenantID:
		return nil, fmt.Errorf("user %s already belongs to tenant %s", in.Email, existing.TenantID)
	}

	return res, nil
}
