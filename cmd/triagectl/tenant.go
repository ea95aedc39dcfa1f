package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mailtriage/mailtriage/internal/model"
	"github.com/mailtriage/mailtriage/internal/repository"
	"github.com/mailtriage/mailtriage/internal/validate"
)

func newTenantCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage tenants",
	}

	var in tenantInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tenant, err := in.build(time.Now())
			if err != nil {
				return err
			}
			return opts.withRepository(cmd, func(ctx context.Context, repo *repository.Repository) error {
				if err := repo.CreateTenant(ctx, tenant); err != nil {
					return err
				}
				return printResult(cmd.OutOrStdout(), opts.format, tenant.ID, tenant)
			})
		},
	}
	create.Flags().StringVar(&in.ID, "id", "", "Tenant ID (UUID); generated when empty")
	create.Flags().StringVar(&in.Name, "name", "", "Tenant name")
	create.Flags().StringVar(&in.Plan, "plan", model.PlanFree, "Plan: "+strings.Join(model.ValidPlans, ", "))
	_ = create.MarkFlagRequired("name")
	cmd.AddCommand(create)

	return cmd
}

type tenantInput struct {
	ID   string
	Name string
	Plan string
}

func (in tenantInput) build(now time.Time) (*model.Tenant, error) {
	var errs validate.Errors
	errs.Add("name", validate.Text(in.Name, validate.MaxNameLength, true))
	if !model.IsValidPlan(in.Plan) {
		errs.Add("plan", fmt.Errorf("must be one of %s", strings.Join(model.ValidPlans, ", ")))
	}
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	} else if _, err := uuid.Parse(id); err != nil {
		errs.Add("id", fmt.Errorf("must be a UUID"))
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	return &model.Tenant{
		ID:        id,
		Name:      strings.TrimSpace(in.Name),
		Plan:      in.Plan,
		CreatedAt: now.UTC(),
	}, nil
}
