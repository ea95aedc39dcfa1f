package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mailtriage/mailtriage/internal/apperr"
	"github.com/mailtriage/mailtriage/internal/auth"
	"github.com/mailtriage/mailtriage/internal/model"
)

const testTenantID = "a0eebc99-9c0b-4ef8-bb6d-6bb9bd380a11"

func seedUser(t *testing.T, store *fakeUserStore, email, password, hash string) *model.User {
	t.Helper()
	if hash == "" {
		var err error
		hash, err = auth.HashPassword(password)
		require.NoError(t, err)
	}
	store.addTenant(&model.Tenant{ID: testTenantID, Name: "Default Tenant", Plan: model.PlanFree})
	user := &model.User{
		ID:           "6f1d4a9e-0000-4000-8000-000000000001",
		Email:        email,
		Name:         "Admin",
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		TenantID:     testTenantID,
	}
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}

func TestAuthService_Login(t *testing.T) {
	store := newFakeUserStore()
	user := seedUser(t, store, "admin@example.com", "admin123", "")
	tokens := &fakeTokens{}
	svc := NewAuthService(store, tokens, &fakeRevoker{}, nil)

	session, err := svc.Login(context.Background(), "ADMIN@example.com", "admin123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.User.ID)
	assert.Equal(t, testTenantID, session.Tenant.ID)
	assert.Equal(t, "token-"+user.ID, session.Token)
	assert.Equal(t, 0, store.rehash)
}

func TestAuthService_Login_Failures(t *testing.T) {
	store := newFakeUserStore()
	seedUser(t, store, "admin@example.com", "admin123", "")
	svc := NewAuthService(store, &fakeTokens{}, &fakeRevoker{}, nil)

	tests := []struct {
		name     string
		email    string
		password string
		want     apperr.Kind
	}{
		{"wrong password", "admin@example.com", "nope", apperr.InvalidCredential},
		{"unknown user", "ghost@example.com", "admin123", apperr.InvalidCredential},
		{"missing email", "", "admin123", apperr.ValidationFailed},
		{"missing password", "admin@example.com", "", apperr.ValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tt.email, tt.password)
			require.Error(t, err)
			assert.Equal(t, tt.want, apperr.KindOf(err))
		})
	}
}

func TestAuthService_Login_StoreError(t *testing.T) {
	store := newFakeUserStore()
	store.err = errors.New("connection refused")
	svc := NewAuthService(store, &fakeTokens{}, &fakeRevoker{}, nil)

	_, err := svc.Login(context.Background(), "admin@example.com", "admin123")
	assert.Equal(t, apperr.InternalError, apperr.KindOf(err))
}

func TestAuthService_Login_UpgradesBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.MinCost)
	require.NoError(t, err)

	store := newFakeUserStore()
	user := seedUser(t, store, "admin@example.com", "admin123", string(legacy))
	svc := NewAuthService(store, &fakeTokens{}, &fakeRevoker{}, nil)

	_, err = svc.Login(context.Background(), "admin@example.com", "admin123")
	require.NoError(t, err)
	assert.Equal(t, 1, store.rehash)

	stored, err := store.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.False(t, auth.NeedsRehash(stored.PasswordHash))

	// the upgraded hash still verifies
	_, err = svc.Login(context.Background(), "admin@example.com", "admin123")
	require.NoError(t, err)
	assert.Equal(t, 1, store.rehash)
}

func TestAuthService_Register(t *testing.T) {
	store := newFakeUserStore()
	tokens := &fakeTokens{}
	svc := NewAuthService(store, tokens, &fakeRevoker{}, nil)

	session, err := svc.Register(context.Background(), RegisterInput{
		Name:       "Ana",
		Email:      "Ana <ana@example.com>",
		Password:   "correct horse",
		TenantName: "Acme",
	})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", session.User.Email)
	assert.Equal(t, model.RoleAdmin, session.User.Role)
	assert.Equal(t, model.PlanFree, session.Tenant.Plan)
	assert.Equal(t, session.Tenant.ID, session.User.TenantID)
	assert.NotEmpty(t, session.Token)

	_, err = svc.Register(context.Background(), RegisterInput{
		Name:       "Other",
		Email:      "ANA@example.com",
		Password:   "correct horse",
		TenantName: "Other",
	})
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc := NewAuthService(newFakeUserStore(), &fakeTokens{}, &fakeRevoker{}, nil)
	valid := RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "long enough", TenantName: "Acme"}

	tests := []struct {
		name   string
		mutate func(*RegisterInput)
		field  string
	}{
		{"missing name", func(in *RegisterInput) { in.Name = "" }, "name"},
		{"bad email", func(in *RegisterInput) { in.Email = "nope" }, "email"},
		{"short password", func(in *RegisterInput) { in.Password = "short" }, "password"},
		{"missing tenant", func(in *RegisterInput) { in.TenantName = " " }, "tenant.name"},
		{"unknown plan", func(in *RegisterInput) { in.Plan = "platinum" }, "tenant.plan"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := svc.Register(context.Background(), in)
			require.Error(t, err)
			assert.Equal(t, apperr.ValidationFailed, apperr.KindOf(err))
			assert.Contains(t, apperr.As(err).PublicMessage(), tt.field)
		})
	}
}

func TestAuthService_Logout(t *testing.T) {
	revoker := &fakeRevoker{}
	svc := NewAuthService(newFakeUserStore(), &fakeTokens{}, revoker, nil)
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	err := svc.Logout(context.Background(), &model.AuthClaims{TokenID: "jti-1", ExpiresAtUnix: exp.Unix()})
	require.NoError(t, err)
	assert.True(t, revoker.revoked["jti-1"].Equal(exp))

	err = svc.Logout(context.Background(), nil)
	assert.Equal(t, apperr.Unauthenticated, apperr.KindOf(err))

	err = svc.Logout(context.Background(), &model.AuthClaims{})
	assert.Equal(t, apperr.InvalidCredential, apperr.KindOf(err))

	revoker.err = errors.New("redis down")
	err = svc.Logout(context.Background(), &model.AuthClaims{TokenID: "jti-2", ExpiresAtUnix: exp.Unix()})
	assert.Equal(t, apperr.InternalError, apperr.KindOf(err))
}

func TestUserService_CreateUser(t *testing.T) {
	store := newFakeUserStore()
	svc := NewUserService(store)

	user, err := svc.CreateUser(context.Background(), CreateUserInput{
		TenantID: testTenantID,
		Email:    "bob@example.com",
		Name:     "Bob",
		Password: "long enough",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.Equal(t, testTenantID, user.TenantID)
	assert.NotEmpty(t, user.PasswordHash)

	_, err = svc.CreateUser(context.Background(), CreateUserInput{
		TenantID: testTenantID, Email: "bob@example.com", Name: "Bob", Password: "long enough",
	})
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))

	_, err = svc.CreateUser(context.Background(), CreateUserInput{
		TenantID: testTenantID, Email: "eve@example.com", Name: "Eve", Password: "long enough", Role: "root",
	})
	assert.Equal(t, apperr.ValidationFailed, apperr.KindOf(err))
}
