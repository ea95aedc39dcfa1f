package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mailtriage/mailtriage/internal/model"
	"github.com/mailtriage/mailtriage/internal/repository"
	"github.com/mailtriage/mailtriage/internal/service"
)

func newUserCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var in service.CreateUserInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Add a user to an existing tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRepository(cmd, func(ctx context.Context, repo *repository.Repository) error {
				user, err := createUser(ctx, repo, in)
				if err != nil {
					return err
				}
				return printResult(cmd.OutOrStdout(), opts.format, user.ID, user)
			})
		},
	}
	create.Flags().StringVar(&in.TenantID, "tenant", "", "Tenant ID")
	create.Flags().StringVar(&in.Email, "email", "", "Login email")
	create.Flags().StringVar(&in.Name, "name", "", "Display name")
	create.Flags().StringVar(&in.Password, "password", "", "Initial password")
	create.Flags().StringVar(&in.Role, "role", model.RoleUser, "Role: "+strings.Join(model.ValidRoles, ", "))
	for _, f := range []string{"tenant", "email", "name", "password"} {
		_ = create.MarkFlagRequired(f)
	}
	cmd.AddCommand(create)

	return cmd
}

// createUser checks the tenant exists, then applies the same validation
// and hashing as the API.
func createUser(ctx context.Context, repo *repository.Repository, in service.CreateUserInput) (*model.User, error) {
	if _, err := repo.GetTenantByID(ctx, in.TenantID); err != nil {
		return nil, fmt.Errorf("tenant %s: %w", in.TenantID, err)
	}
	return service.NewUserService(repo).CreateUser(ctx, in)
}
