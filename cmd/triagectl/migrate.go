package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mailtriage/mailtriage/internal/repository"
	"github.com/mailtriage/mailtriage/migrations"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd, opts, func(ctx context.Context, repo *repository.Repository, migs []repository.Migration) ([]string, error) {
				return repo.MigrateUp(ctx, migs)
			}, "applied")
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps <= 0 {
				return fmt.Errorf("--steps must be positive")
			}
			return runMigration(cmd, opts, func(ctx context.Context, repo *repository.Repository, migs []repository.Migration) ([]string, error) {
				return repo.MigrateDown(ctx, migs, steps)
			}, "rolled back")
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")
	cmd.AddCommand(down)

	return cmd
}

type migrateFunc func(ctx context.Context, repo *repository.Repository, migs []repository.Migration) ([]string, error)

func runMigration(cmd *cobra.Command, opts *rootOptions, fn migrateFunc, verb string) error {
	migs, err := repository.LoadMigrations(migrations.FS)
	if err != nil {
		return err
	}

	return opts.withRepository(cmd, func(ctx context.Context, repo *repository.Repository) error {
		versions, err := fn(ctx, repo, migs)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}

		plain := "nothing to do"
		if len(versions) > 0 {
			plain = verb + ": " + strings.Join(versions, ", ")
		}
		if versions == nil {
			versions = []string{}
		}
		return printResult(cmd.OutOrStdout(), opts.format, plain, map[string]any{"versions": versions})
	})
}
