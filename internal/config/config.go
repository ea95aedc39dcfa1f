// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// minSecretLen is the shortest JWT secret accepted outside development.
const minSecretLen = 32

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Cache (Redis): rate limiting and token revocation
	RedisURL string `env:"REDIS_URL,required"`

	// Token signing
	JWTSecret string        `env:"JWT_SECRET,required"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`
	JWTIssuer string        `env:"JWT_ISSUER" envDefault:"mailtriage"`

	// Classifier service
	ClassifierURL     string        `env:"CLASSIFIER_URL,required"`
	ClassifierTimeout time.Duration `env:"CLASSIFIER_TIMEOUT" envDefault:"10s"`
	ClassifierRPS     float64       `env:"CLASSIFIER_RPS" envDefault:"20"`
	ClassifierBurst   int           `env:"CLASSIFIER_BURST" envDefault:"40"`

	// Upper bound for one ingestion transaction, independent of the caller
	IngestTimeout time.Duration `env:"INGEST_TIMEOUT" envDefault:"15s"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting
	RateLimitEnabled        bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitPerMinute      int  `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120"`
	RateLimitBurst          int  `env:"RATE_LIMIT_BURST" envDefault:"30"`
	LoginRateLimitPerMinute int  `env:"LOGIN_RATE_LIMIT_PER_MINUTE" envDefault:"10"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`

	// Mailbox poller
	IMAP IMAPConfig
}

// IMAPConfig configures the optional mailbox poller.
type IMAPConfig struct {
	Enabled      bool          `env:"IMAP_ENABLED" envDefault:"false"`
	Addr         string        `env:"IMAP_ADDR"`
	Username     string        `env:"IMAP_USERNAME"`
	Password     string        `env:"IMAP_PASSWORD"`
	Folder       string        `env:"IMAP_FOLDER" envDefault:"INBOX"`
	TenantID     string        `env:"IMAP_TENANT_ID"`
	PollInterval time.Duration `env:"IMAP_POLL_INTERVAL" envDefault:"1m"`
	TLS          bool          `env:"IMAP_TLS" envDefault:"true"`
	BatchSize    int           `env:"IMAP_BATCH_SIZE" envDefault:"25"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Validate checks cross-field rules that struct tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	if !c.IsDevelopment() && len(c.JWTSecret) < minSecretLen {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes outside development", minSecretLen))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.ClassifierTimeout <= 0 {
		errs = append(errs, errors.New("CLASSIFIER_TIMEOUT must be positive"))
	}
	if c.IngestTimeout <= 0 {
		errs = append(errs, errors.New("INGEST_TIMEOUT must be positive"))
	}
	if c.RateLimitEnabled && (c.RateLimitPerMinute <= 0 || c.RateLimitBurst <= 0) {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE and RATE_LIMIT_BURST must be positive"))
	}
	if c.IMAP.Enabled {
		if c.IMAP.Addr == "" || c.IMAP.Username == "" {
			errs = append(errs, errors.New("IMAP_ADDR and IMAP_USERNAME are required when IMAP_ENABLED"))
		}
		if c.IMAP.TenantID == "" {
			errs = append(errs, errors.New("IMAP_TENANT_ID is required when IMAP_ENABLED"))
		}
		if c.IMAP.PollInterval <= 0 {
			errs = append(errs, errors.New("IMAP_POLL_INTERVAL must be positive"))
		}
	}

	return errors.Join(errs...)
}

// Load parses environment variables and returns a validated Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
