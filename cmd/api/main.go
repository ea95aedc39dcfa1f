// Package main is the entrypoint for the mailtriage API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"github.com/mailtriage/mailtriage/internal/auth"
	"github.com/mailtriage/mailtriage/internal/cache"
	"github.com/mailtriage/mailtriage/internal/classifier"
	"github.com/mailtriage/mailtriage/internal/config"
	"github.com/mailtriage/mailtriage/internal/handler"
	"github.com/mailtriage/mailtriage/internal/mailbox"
	"github.com/mailtriage/mailtriage/internal/metrics"
	"github.com/mailtriage/mailtriage/internal/repository"
	"github.com/mailtriage/mailtriage/internal/server"
	"github.com/mailtriage/mailtriage/internal/service"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		return err
	}
	defer repo.Close()
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		return err
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	recorder := metrics.NewPrometheus()
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL, cfg.JWTIssuer)

	classifierClient, err := classifier.New(classifier.Config{
		BaseURL: cfg.ClassifierURL,
		Timeout: cfg.ClassifierTimeout,
		RPS:     cfg.ClassifierRPS,
		Burst:   cfg.ClassifierBurst,
	}, classifier.NewHTTPClient(), recorder, logger)
	if err != nil {
		return err
	}

	// Services
	authService := service.NewAuthService(repo, tokens, cacheClient, logger)
	userService := service.NewUserService(repo)
	emailService := service.NewEmailService(repo, classifierClient, recorder, logger, cfg.IngestTimeout)
	taskService := service.NewTaskService(repo, recorder)

	r := handler.NewRouter(handler.RouterConfig{
		Logger:                  logger,
		Metrics:                 recorder,
		MetricsHandler:          recorder.Handler(),
		Auth:                    handler.NewAuthHandler(authService, logger),
		Emails:                  handler.NewEmailHandler(emailService, logger),
		Tasks:                   handler.NewTaskHandler(taskService, logger),
		Users:                   handler.NewUserHandler(userService, logger),
		Health:                  handler.NewHealthHandler(repo, cacheClient, logger),
		Root:                    handler.New(version),
		Verifier:                tokens,
		Revocations:             cacheClient,
		Limiter:                 cacheClient,
		RateLimitEnabled:        cfg.RateLimitEnabled,
		RateLimitPerMinute:      cfg.RateLimitPerMinute,
		RateLimitBurst:          cfg.RateLimitBurst,
		LoginRateLimitPerMinute: cfg.LoginRateLimitPerMinute,
		IsDevelopment:           cfg.IsDevelopment(),
		CORSAllowedOrigins:      cfg.GetCORSAllowedOrigins(),
		MaxRequestBodySize:      cfg.MaxRequestBodySize,
	})

	srv := server.New(r, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	if cfg.IMAP.Enabled {
		poller := mailbox.NewPoller(mailbox.Config{
			TenantID:     cfg.IMAP.TenantID,
			PollInterval: cfg.IMAP.PollInterval,
			BatchSize:    cfg.IMAP.BatchSize,
		}, &mailbox.IMAPDialer{
			Addr:     cfg.IMAP.Addr,
			Username: cfg.IMAP.Username,
			Password: cfg.IMAP.Password,
			Folder:   cfg.IMAP.Folder,
			TLS:      cfg.IMAP.TLS,
			Timeout:  cfg.ClassifierTimeout,
		}, emailService, recorder, logger)

		// The poller outlives the request context so shutdown can drain it.
		if err := poller.Start(context.WithoutCancel(ctx)); err != nil {
			return err
		}
		srv.OnShutdown("mailbox-poller", poller.Stop)
		logger.Info("mailbox poller enabled",
			"imap_addr", cfg.IMAP.Addr,
			"folder", cfg.IMAP.Folder,
			"tenant_id", cfg.IMAP.TenantID,
		)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"version", version,
		"classifier_url", redactURL(cfg.ClassifierURL),
	)

	return srv.Run(ctx)
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h).With("service", "mailtriage")
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
