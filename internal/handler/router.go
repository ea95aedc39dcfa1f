package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/mailtriage/mailtriage/internal/metrics"
	"github.com/mailtriage/mailtriage/internal/middleware"
	"github.com/mailtriage/mailtriage/internal/model"
)

// RouterConfig carries everything the router wires together.
type RouterConfig struct {
	Logger  *slog.Logger
	Metrics metrics.Recorder
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler

	Auth   *AuthHandler
	Emails *EmailHandler
	Tasks  *TaskHandler
	Users  *UserHandler
	Health *HealthHandler
	Root   *Handler

	Verifier    middleware.TokenVerifier
	Revocations middleware.RevocationChecker
	Limiter     middleware.RateLimiter

	RateLimitEnabled        bool
	RateLimitPerMinute      int
	RateLimitBurst          int
	LoginRateLimitPerMinute int

	IsDevelopment      bool
	CORSAllowedOrigins []string
	MaxRequestBodySize int64
}

// NewRouter configures the chi router with all routes and middleware.
//
// Protected routes run Authenticate then RequireTenant before any
// handler, so a rejected request never reaches a store.
func NewRouter(cfg RouterConfig) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment}))
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	r.Use(middleware.CORS(corsCfg))
	if cfg.MaxRequestBodySize > 0 {
		r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))
	}
	r.Use(middleware.Metrics(cfg.Metrics))

	r.Get("/healthz", cfg.Health.Healthz)
	r.Get("/readyz", cfg.Health.Readyz)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}
	r.Get("/", cfg.Root.Index)

	authenticate := middleware.Authenticate(middleware.AuthConfig{
		Logger:      logger,
		Verifier:    cfg.Verifier,
		Revocations: cfg.Revocations,
		Metrics:     cfg.Metrics,
	})
	userLimit := middleware.RateLimitUser(middleware.RateLimitConfig{
		Logger:    logger,
		Limiter:   cfg.Limiter,
		Metrics:   cfg.Metrics,
		Enabled:   cfg.RateLimitEnabled && cfg.Limiter != nil,
		PerMinute: cfg.RateLimitPerMinute,
		Burst:     cfg.RateLimitBurst,
	})
	loginLimit := middleware.RateLimitIP(middleware.RateLimitConfig{
		Logger:    logger,
		Limiter:   cfg.Limiter,
		Metrics:   cfg.Metrics,
		Enabled:   cfg.RateLimitEnabled && cfg.Limiter != nil,
		PerMinute: cfg.LoginRateLimitPerMinute,
		Burst:     cfg.LoginRateLimitPerMinute,
	})
	tenant := middleware.RequireTenant(logger, cfg.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(loginLimit).Post("/login", cfg.Auth.Login)
			r.With(loginLimit).Post("/register", cfg.Auth.Register)
			r.With(authenticate).Post("/logout", cfg.Auth.Logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(tenant)
			r.Use(userLimit)

			r.Route("/emails", func(r chi.Router) {
				r.Get("/", cfg.Emails.List)
				r.Post("/", cfg.Emails.Create)
				r.Get("/{id}", cfg.Emails.Get)
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", cfg.Tasks.List)
				r.Put("/", cfg.Tasks.Update)
				r.Delete("/", cfg.Tasks.Delete)
			})

			r.With(middleware.RequireRole(model.RoleAdmin)).Post("/users", cfg.Users.Create)
		})
	})

	r.NotFound(cfg.Root.NotFound)
	r.MethodNotAllowed(cfg.Root.MethodNotAllowed)

	return r
}
