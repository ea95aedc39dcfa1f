package main

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/spf13/cobra"

	"github.com/mailtriage/mailtriage/internal/repository"
)

// cliConfig is the subset of server configuration the CLI needs.
type cliConfig struct {
	DatabaseURL string        `env:"DATABASE_URL"`
	JWTSecret   string        `env:"JWT_SECRET"`
	JWTTTL      time.Duration `env:"JWT_TTL" envDefault:"24h"`
	JWTIssuer   string        `env:"JWT_ISSUER" envDefault:"mailtriage"`
	Timeout     time.Duration `env:"TRIAGECTL_TIMEOUT" envDefault:"30s"`
}

type rootOptions struct {
	cfg    cliConfig
	format string
}

func newRootCmd(version string) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "triagectl",
		Short: "Administer a mailtriage deployment",
		Long: `triagectl manages the mailtriage database: it applies schema migrations,
creates tenants and users, and issues access tokens for development.

Connection settings come from the same environment variables the API server
reads (DATABASE_URL, JWT_SECRET, JWT_TTL, JWT_ISSUER). Flags override them.`,
		SilenceUsage: true,
		Version:      version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Flags were already bound to opts.cfg; env only fills the blanks.
			fromEnv := cliConfig{}
			if err := env.Parse(&fromEnv); err != nil {
				return fmt.Errorf("parse environment: %w", err)
			}
			mergeConfig(&opts.cfg, fromEnv, cmd)
			return validateFormat(opts.format)
		},
	}
	cmd.SetVersionTemplate(`{{printf "triagectl version %s\n" .Version}}`)

	cmd.PersistentFlags().StringVar(&opts.cfg.DatabaseURL, "database-url", "", "PostgreSQL connection string (env DATABASE_URL)")
	cmd.PersistentFlags().DurationVar(&opts.cfg.Timeout, "timeout", 0, "Overall command timeout (env TRIAGECTL_TIMEOUT)")
	cmd.PersistentFlags().StringVarP(&opts.format, "output", "o", "plain", "Output format: plain or json")

	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newTenantCmd(opts))
	cmd.AddCommand(newUserCmd(opts))
	cmd.AddCommand(newTokenCmd(opts))
	cmd.AddCommand(newSeedCmd(opts))

	return cmd
}

// mergeConfig fills every field not set by a flag from the environment.
func mergeConfig(dst *cliConfig, fromEnv cliConfig, cmd *cobra.Command) {
	if !cmd.Flags().Changed("database-url") {
		dst.DatabaseURL = fromEnv.DatabaseURL
	}
	if !cmd.Flags().Changed("timeout") {
		dst.Timeout = fromEnv.Timeout
	}
	dst.JWTSecret = fromEnv.JWTSecret
	dst.JWTTTL = fromEnv.JWTTTL
	dst.JWTIssuer = fromEnv.JWTIssuer
}

func validateFormat(format string) error {
	switch format {
	case "plain", "json":
		return nil
	default:
		return fmt.Errorf("invalid output format %q; use plain or json", format)
	}
}

// withRepository opens the database for the duration of fn.
func (o *rootOptions) withRepository(cmd *cobra.Command, fn func(ctx context.Context, repo *repository.Repository) error) error {
	if o.cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL or --database-url is required")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if o.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()
	}

	repo, err := repository.New(ctx, o.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer repo.Close()

	return fn(ctx, repo)
}
