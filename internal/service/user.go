package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mailtriage/mailtriage/internal/apperr"
	"github.com/mailtriage/mailtriage/internal/auth"
	"github.com/mailtriage/mailtriage/internal/model"
	"github.com/mailtriage/mailtriage/internal/repository"
	"github.com/mailtriage/mailtriage/internal/validate"
)

// UserService manages the users of a tenant.
type UserService struct {
	users UserStore
	now   func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(users UserStore) *UserService {
	return &UserService{users: users, now: time.Now}
}

// CreateUserInput defines input for adding a user to a tenant.
type CreateUserInput struct {
	TenantID string
	Email    string
	Name     string
	Password string
	Role     string
}

// CreateUser adds a user to the tenant. Role defaults to user.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*model.User, error) {
	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = model.RoleUser
	}

	var errs validate.Errors
	errs.Add("name", validate.Text(in.Name, validate.MaxNameLength, true))
	email, err := validate.Address(in.Email)
	errs.Add("email", err)
	errs.Add("password", validate.Password(in.Password, auth.MinPasswordLen))
	if !model.IsValidRole(role) {
		errs.Add("role", errors.New("must be one of "+strings.Join(model.ValidRoles, ", ")))
	}
	if err := errs.Err(); err != nil {
		return nil, apperr.Wrapf(apperr.ValidationFailed, err, err.Error())
	}
	if in.TenantID == "" {
		return nil, apperr.ErrTenantHeaderMissing
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Wrap(apperr.InternalError, err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		Role:         role,
		TenantID:     in.TenantID,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, apperr.Wrapf(apperr.Conflict, err, "Email already registered")
		}
		return nil, apperr.Wrap(apperr.InternalError, err)
	}
	return user, nil
}
