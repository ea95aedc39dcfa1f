package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mailtriage/mailtriage/internal/apperr"
	"github.com/mailtriage/mailtriage/internal/auth"
	"github.com/mailtriage/mailtriage/internal/metrics"
	"github.com/mailtriage/mailtriage/internal/model"
)

// TokenVerifier validates a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*model.AuthClaims, error)
}

// RevocationChecker reports whether a token was revoked by logout.
type RevocationChecker interface {
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Verifier TokenVerifier
	// Revocations is optional. Lookup errors let the request through.
	Revocations RevocationChecker
	Metrics     metrics.Recorder
}

// Authenticate returns a middleware that verifies the bearer token and
// injects its claims into the request context.
//
// A missing credential is Unauthenticated. Anything wrong with a presented
// credential is InvalidCredential.
func Authenticate(cfg AuthConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	fail := func(w http.ResponseWriter, r *http.Request, reason string, err error) {
		recorder.IncAuthFailure(reason)
		logger.Warn("authentication failed",
			slog.String("reason", reason),
			slog.String("ip", r.RemoteAddr),
			slog.String("endpoint", r.Method+" "+r.URL.Path),
			slog.String("request_id", GetRequestID(r.Context())),
		)
		WriteError(w, err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ExtractBearer(r.Header.Get("Authorization"))
			if token == "" {
				fail(w, r, "missing_token", apperr.ErrUnauthenticated)
				return
			}

			claims, err := cfg.Verifier.Verify(token)
			if err != nil {
				reason := "invalid_token"
				if errors.Is(err, auth.ErrTokenExpired) {
					reason = "expired_token"
				}
				fail(w, r, reason, apperr.ErrInvalidCredential)
				return
			}

			if cfg.Revocations != nil && claims.TokenID != "" {
				revoked, err := cfg.Revocations.IsTokenRevoked(r.Context(), claims.TokenID)
				if err != nil {
					logger.Error("revocation check failed",
						slog.String("error", err.Error()),
						slog.String("request_id", GetRequestID(r.Context())),
					)
				} else if revoked {
					fail(w, r, "revoked_token", apperr.ErrInvalidCredential)
					return
				}
			}

			ctx := auth.ContextWithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole returns middleware that admits callers holding any of roles.
// Admins hold every role. Must be applied after Authenticate.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := auth.ClaimsFromContext(r.Context())
			if claims == nil {
				WriteError(w, apperr.ErrUnauthenticated)
				return
			}

			for _, role := range roles {
				if claims.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}

			WriteError(w, apperr.New(apperr.Forbidden, "Insufficient permissions"))
		})
	}
}
