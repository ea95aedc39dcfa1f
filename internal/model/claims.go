package model

// AuthClaims is the verified identity of a request.
// It is placed in the request context by the auth middleware and never mutated.
type AuthClaims struct {
	UserID   string
	TenantID string
	Email    string
	Role     string

	// TokenID identifies the credential for revocation.
	TokenID string
	// ExpiresAtUnix is the credential expiry in Unix seconds.
	ExpiresAtUnix int64
}

// HasRole checks if the caller has a role. Admin implies every role.
func (c *AuthClaims) HasRole(role string) bool {
	if c.Role == RoleAdmin {
		return true
	}
	return c.Role == role
}
