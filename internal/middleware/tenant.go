package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/mailtriage/mailtriage/internal/apperr"
	"github.com/mailtriage/mailtriage/internal/auth"
	"github.com/mailtriage/mailtriage/internal/metrics"
)

// TenantHeader carries the tenant a request acts on.
const TenantHeader = "X-Tenant-ID"

// RequireTenant returns middleware that checks the declared tenant header
// against the authenticated claims. Must be applied after Authenticate.
//
// On success the declared tenant id is stored in the context; handlers read
// it with auth.TenantFromContext.
func RequireTenant(logger *slog.Logger, recorder metrics.Recorder) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID := strings.TrimSpace(r.Header.Get(TenantHeader))
			if tenantID == "" {
				recorder.IncAuthFailure("missing_tenant")
				WriteError(w, apperr.ErrTenantHeaderMissing)
				return
			}

			claims := auth.ClaimsFromContext(r.Context())
			if claims == nil {
				WriteError(w, apperr.ErrUnauthenticated)
				return
			}

			if claims.TenantID != tenantID {
				recorder.IncAuthFailure("tenant_mismatch")
				logger.Warn("tenant mismatch",
					slog.String("user_id", claims.UserID),
					slog.String("declared_tenant", tenantID),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				WriteError(w, apperr.ErrTenantMismatch)
				return
			}

			ctx := auth.ContextWithTenant(r.Context(), tenantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
