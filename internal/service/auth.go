package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mailtriage/mailtriage/internal/apperr"
	"github.com/mailtriage/mailtriage/internal/auth"
	"github.com/mailtriage/mailtriage/internal/model"
	"github.com/mailtriage/mailtriage/internal/repository"
	"github.com/mailtriage/mailtriage/internal/validate"
)

const msgInvalidLogin = "Invalid email or password"

// dummyHash is verified against when the user does not exist so that
// unknown and known emails take comparable time.
var dummyHash = sync.OnceValue(func() string {
	h, _ := auth.HashPassword(uuid.NewString())
	return h
})

// AuthService handles login, registration and logout.
type AuthService struct {
	users   UserStore
	tokens  TokenIssuer
	revoker TokenRevoker
	logger  *slog.Logger
	now     func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, tokens TokenIssuer, revoker TokenRevoker, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:   users,
		tokens:  tokens,
		revoker: revoker,
		logger:  logger.With("component", "auth"),
		now:     time.Now,
	}
}

// Session is the result of a successful login or registration.
type Session struct {
	User      *model.User
	Tenant    *model.Tenant
	Token     string
	ExpiresAt time.Time
}

// Login verifies an email and password and issues a token.
// Legacy password hashes are upgraded after a successful login.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperr.New(apperr.ValidationFailed, "email and password are required")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_, _ = auth.VerifyPassword(password, dummyHash())
			return nil, apperr.New(apperr.InvalidCredential, msgInvalidLogin)
		}
		return nil, apperr.Wrap(apperr.InternalError, err)
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		s.logger.Error("stored password hash unreadable", "user_id", user.ID, "error", err)
		return nil, apperr.New(apperr.InvalidCredential, msgInvalidLogin)
	}
	if !ok {
		return nil, apperr.New(apperr.InvalidCredential, msgInvalidLogin)
	}

	if auth.NeedsRehash(user.PasswordHash) {
		s.upgradeHash(ctx, user, password)
	}

	tenant, err := s.users.GetTenantByID(ctx, user.TenantID)
	if err != nil {
		return nil, apperr.Wrap(apperr.InternalError, err)
	}

	return s.session(user, tenant)
}

func (s *AuthService) upgradeHash(ctx context.Context, user *model.User, password string) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		s.logger.Warn("password rehash failed", "user_id", user.ID, "error", err)
		return
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		s.logger.Warn("password rehash not stored", "user_id", user.ID, "error", err)
		return
	}
	user.PasswordHash = hash
}

// RegisterInput defines input for creating a tenant and its first user.
type RegisterInput struct {
	Name       string
	Email      string
	Password   string
	TenantName string
	Plan       string
}

// Register creates a tenant with an admin user and logs that user in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	plan := strings.TrimSpace(in.Plan)
	if plan == "" {
		plan = model.PlanFree
	}

	var errs validate.Errors
	errs.Add("name", validate.Text(in.Name, validate.MaxNameLength, true))
	email, err := validate.Address(in.Email)
	errs.Add("email", err)
	errs.Add("password", validate.Password(in.Password, auth.MinPasswordLen))
	errs.Add("tenant.name", validate.Text(in.TenantName, validate.MaxNameLength, true))
	if !model.IsValidPlan(plan) {
		errs.Add("tenant.plan", errors.New("must be one of "+strings.Join(model.ValidPlans, ", ")))
	}
	if err := errs.Err(); err != nil {
		return nil, apperr.Wrapf(apperr.ValidationFailed, err, err.Error())
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Wrap(apperr.InternalError, err)
	}

	now := s.now().UTC()
	tenant := &model.Tenant{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.TenantName),
		Plan:      plan,
		CreatedAt: now,
	}
	user := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		TenantID:     tenant.ID,
		CreatedAt:    now,
	}

	if err := s.users.CreateTenantWithUser(ctx, tenant, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, apperr.Wrapf(apperr.Conflict, err, "Email already registered")
		}
		return nil, apperr.Wrap(apperr.InternalError, err)
	}

	s.logger.Info("tenant registered", "tenant_id", tenant.ID, "user_id", user.ID)
	return s.session(user, tenant)
}

// Logout revokes the caller's token until it expires.
func (s *AuthService) Logout(ctx context.Context, claims *model.AuthClaims) error {
	if claims == nil {
		return apperr.ErrUnauthenticated
	}
	if claims.TokenID == "" {
		return apperr.New(apperr.InvalidCredential, "Token cannot be revoked")
	}
	exp := time.Unix(claims.ExpiresAtUnix, 0)
	if err := s.revoker.RevokeToken(ctx, claims.TokenID, exp); err != nil {
		return apperr.Wrap(apperr.InternalError, err)
	}
	return nil
}

func (s *AuthService) session(user *model.User, tenant *model.Tenant) (*Session, error) {
	token, exp, err := s.tokens.Issue(user)
	if err != nil {
		return nil, apperr.Wrap(apperr.InternalError, err)
	}
	return &Session{User: user, Tenant: tenant, Token: token, ExpiresAt: exp}, nil
}
