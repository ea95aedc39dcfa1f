// Package model defines domain entities for the application.
package model

import (
	"slices"
	"time"
)

// Plan constants for tenant subscriptions.
const (
	PlanFree       = "free"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

// ValidPlans contains all valid plan values.
var ValidPlans = []string{PlanFree, PlanPro, PlanEnterprise}

// IsValidPlan reports whether plan is a known subscription plan.
func IsValidPlan(plan string) bool {
	return slices.Contains(ValidPlans, plan)
}

// Tenant is an isolation boundary. Every email and task belongs to exactly one tenant.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Plan      string    `json:"plan"`
	CreatedAt time.Time `json:"createdAt"`
}
