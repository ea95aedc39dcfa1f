package auth

import (
	"context"

	"github.com/mailtriage/mailtriage/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	claimsContextKey contextKey = "auth_claims"
	tenantContextKey contextKey = "tenant_id"
)

// ContextWithClaims adds verified claims to the context.
func ContextWithClaims(ctx context.Context, claims *model.AuthClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext retrieves claims from the context.
// Returns nil if not present.
func ClaimsFromContext(ctx context.Context) *model.AuthClaims {
	claims, ok := ctx.Value(claimsContextKey).(*model.AuthClaims)
	if !ok {
		return nil
	}
	return claims
}

// ContextWithTenant records the tenant declared by the request and confirmed
// against the claims.
func ContextWithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantContextKey, tenantID)
}

// TenantFromContext returns the confirmed tenant id, or "" outside the tenant guard.
func TenantFromContext(ctx context.Context) string {
	tenantID, _ := ctx.Value(tenantContextKey).(string)
	return tenantID
}

// UserIDFromContext is a convenience function to get user ID from context.
// Returns empty string if not authenticated.
func UserIDFromContext(ctx context.Context) string {
	claims := ClaimsFromContext(ctx)
	if claims == nil {
		return ""
	}
	return claims.UserID
}
