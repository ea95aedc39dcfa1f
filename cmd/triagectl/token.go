package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mailtriage/mailtriage/internal/auth"
	"github.com/mailtriage/mailtriage/internal/repository"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue access tokens",
	}

	var email string
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Issue a bearer token for a user without a password (development)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.cfg.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET is required")
			}
			tokens := auth.NewTokenManager(opts.cfg.JWTSecret, opts.cfg.JWTTTL, opts.cfg.JWTIssuer)

			return opts.withRepository(cmd, func(ctx context.Context, repo *repository.Repository) error {
				user, err := repo.GetUserByEmail(ctx, email)
				if err != nil {
					return fmt.Errorf("user %s: %w", email, err)
				}
				token, expiresAt, err := tokens.Issue(user)
				if err != nil {
					return err
				}
				return printResult(cmd.OutOrStdout(), opts.format, token, map[string]string{
					"token":     token,
					"user_id":   user.ID,
					"tenant_id": user.TenantID,
					"expiresAt": expiresAt.Format(time.RFC3339),
				})
			})
		},
	}
	issue.Flags().StringVar(&email, "email", "", "Email of the user to issue for")
	_ = issue.MarkFlagRequired("email")
	cmd.AddCommand(issue)

	return cmd
}
