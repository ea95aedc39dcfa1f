package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mailtriage/mailtriage/internal/apperr"
	"github.com/mailtriage/mailtriage/internal/auth"
	"github.com/mailtriage/mailtriage/internal/cache"
	"github.com/mailtriage/mailtriage/internal/metrics"
)

// RateLimiter consumes tokens from per-user and per-IP buckets.
type RateLimiter interface {
	CheckUserRateLimit(ctx context.Context, userID string, perMinute, burst int) (*cache.RateLimitResult, error)
	CheckIPRateLimit(ctx context.Context, ip string, perMinute, burst int) (*cache.RateLimitResult, error)
}

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	Logger  *slog.Logger
	Limiter RateLimiter
	Metrics metrics.Recorder
	Enabled bool
	// PerMinute and Burst size the bucket. PerMinute <= 0 disables the limit.
	PerMinute int
	Burst     int
}

func (cfg RateLimitConfig) withDefaults() RateLimitConfig {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}
	return cfg
}

// RateLimitUser returns middleware that rate limits requests per
// authenticated user. Must be applied after Authenticate.
func RateLimitUser(cfg RateLimitConfig) func(http.Handler) http.Handler {
	cfg = cfg.withDefaults()
	return rateLimit(cfg, "user", func(r *http.Request) (string, bool) {
		userID := auth.UserIDFromContext(r.Context())
		return userID, userID != ""
	}, func(ctx context.Context, key string, perMinute, burst int) (*cache.RateLimitResult, error) {
		return cfg.Limiter.CheckUserRateLimit(ctx, key, perMinute, burst)
	})
}

// RateLimitIP returns middleware that rate limits requests per client IP.
// Used on the unauthenticated login and register endpoints.
func RateLimitIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	cfg = cfg.withDefaults()
	return rateLimit(cfg, "ip", func(r *http.Request) (string, bool) {
		return clientIP(r), true
	}, func(ctx context.Context, key string, perMinute, burst int) (*cache.RateLimitResult, error) {
		return cfg.Limiter.CheckIPRateLimit(ctx, key, perMinute, burst)
	})
}

type checkFunc func(ctx context.Context, key string, perMinute, burst int) (*cache.RateLimitResult, error)

func rateLimit(cfg RateLimitConfig, scope string, keyOf func(*http.Request) (string, bool), check checkFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || cfg.Limiter == nil || cfg.PerMinute <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			key, ok := keyOf(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			result, err := check(r.Context(), key, cfg.PerMinute, cfg.Burst)
			if err != nil {
				cfg.Logger.Error("rate limit check failed",
					slog.String("scope", scope),
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				// Fail open
				next.ServeHTTP(w, r)
				return
			}

			setRateLimitHeaders(w, cfg.PerMinute, result.Remaining, result.ResetAt)

			if !result.Allowed {
				cfg.Metrics.IncRateLimited(scope)
				retryAfter := int(result.RetryAfter.Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				cfg.Logger.Warn("rate limit exceeded",
					slog.String("scope", scope),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.Int("retry_after_seconds", retryAfter),
					slog.String("request_id", GetRequestID(r.Context())),
				)

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				WriteError(w, apperr.New(apperr.RateLimited,
					"Rate limit exceeded. Retry after "+strconv.Itoa(retryAfter)+" seconds."))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// setRateLimitHeaders sets standard rate limit response headers.
func setRateLimitHeaders(w http.ResponseWriter, limit int, remaining int64, resetAt time.Time) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
	if !resetAt.IsZero() {
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
	}
}

// clientIP returns the request's client address without port.
// chi's RealIP middleware has already applied X-Forwarded-For and
// X-Real-IP to RemoteAddr when it is in the chain.
func clientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
