// Package service provides business logic for the application.
//
// Services depend on narrow store interfaces satisfied by
// *repository.Repository, translate store errors into apperr kinds and
// never see HTTP types.
package service

import (
	"context"
	"time"

	"github.com/mailtriage/mailtriage/internal/model"
)

// UserStore is the persistence needed for accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdatePasswordHash(ctx context.Context, userID, hash string) error
	GetTenantByID(ctx context.Context, id string) (*model.Tenant, error)
	CreateTenantWithUser(ctx context.Context, tenant *model.Tenant, user *model.User) error
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(user *model.User) (string, time.Time, error)
}

// TokenRevoker invalidates access tokens before their expiry.
type TokenRevoker interface {
	RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error
}

// EmailStore is the persistence needed for emails.
type EmailStore interface {
	CreateEmailWithTasks(ctx context.Context, in model.NewEmail, c model.Classification) (*model.Email, error)
	GetEmail(ctx context.Context, tenantID, id string) (*model.Email, error)
	ListEmails(ctx context.Context, filter model.EmailFilter) ([]*model.Email, error)
}

// Classifier assigns priority, category and suggested tasks to an email.
type Classifier interface {
	Classify(ctx context.Context, email model.NewEmail) (*model.Classification, error)
}

// TaskStore is the persistence needed for tasks.
type TaskStore interface {
	ListTasks(ctx context.Context, filter model.TaskFilter) ([]model.Task, int, error)
	UpdateTask(ctx context.Context, tenantID, id string, upd model.TaskUpdate) (*model.Task, error)
	DeleteTask(ctx context.Context, tenantID, id string) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}
