package dto

import (
	"time"

	"github.com/mailtriage/mailtriage/internal/model"
)

// LoginRequest represents the request body for logging in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest represents the request body for creating a tenant with
// its first user.
type RegisterRequest struct {
	Name     string                `json:"name"`
	Email    string                `json:"email"`
	Password string                `json:"password"`
	Tenant   RegisterTenantRequest `json:"tenant"`
}

// RegisterTenantRequest is the tenant part of RegisterRequest.
type RegisterTenantRequest struct {
	Name string `json:"name"`
	Plan string `json:"plan,omitempty"`
}

// AuthResponse is returned by login and registration.
type AuthResponse struct {
	User      *model.User   `json:"user"`
	Tenant    *model.Tenant `json:"tenant"`
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
}

// CreateUserRequest represents the request body for adding a user to the
// caller's tenant.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}
