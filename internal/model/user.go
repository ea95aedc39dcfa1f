package model

import (
	"slices"
	"time"
)

// Role constants for user authorization.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{RoleAdmin, RoleUser}

// IsValidRole reports whether role is a known user role.
func IsValidRole(role string) bool {
	return slices.Contains(ValidRoles, role)
}

// User is an account that belongs to exactly one tenant.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // Never serialize
	Role         string    `json:"role"`
	TenantID     string    `json:"tenantId"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsAdmin returns true if the user administers its tenant.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
