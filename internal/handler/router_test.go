package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailtriage/mailtriage/internal/apperr"
	"github.com/mailtriage/mailtriage/internal/auth"
	"github.com/mailtriage/mailtriage/internal/metrics"
	"github.com/mailtriage/mailtriage/internal/middleware"
	"github.com/mailtriage/mailtriage/internal/model"
	"github.com/mailtriage/mailtriage/internal/service"
)

const (
	routerSecret   = "router-test-secret-0123456789abcdef"
	routerTenantID = "a0eebc99-9c0b-4ef8-bb6d-6bb9bd380a11"
	routerUserID   = "b1ffcd00-0d1c-4ef8-bb6d-6bb9bd380a22"
)

type fakeAuthService struct {
	session     *service.Session
	err         error
	logoutCalls []*model.AuthClaims
	registered  []service.RegisterInput
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (*service.Session, error) {
	return f.session, f.err
}

func (f *fakeAuthService) Register(ctx context.Context, in service.RegisterInput) (*service.Session, error) {
	f.registered = append(f.registered, in)
	return f.session, f.err
}

func (f *fakeAuthService) Logout(ctx context.Context, claims *model.AuthClaims) error {
	f.logoutCalls = append(f.logoutCalls, claims)
	return f.err
}

type fakeUserService struct {
	inputs []service.CreateUserInput
}

func (f *fakeUserService) CreateUser(ctx context.Context, in service.CreateUserInput) (*model.User, error) {
	f.inputs = append(f.inputs, in)
	return &model.User{ID: "new-user", TenantID: in.TenantID, Email: in.Email, Role: model.RoleUser}, nil
}

type fakeEmailService struct {
	calls    int
	ingested []model.NewEmail
	sources  []string
	filters  []model.EmailFilter
	ingestFn func(model.NewEmail) (*model.Email, error)
	getErr   error
}

func (f *fakeEmailService) Ingest(ctx context.Context, source string, in model.NewEmail) (*model.Email, error) {
	f.calls++
	f.sources = append(f.sources, source)
	f.ingested = append(f.ingested, in)
	if f.ingestFn != nil {
		return f.ingestFn(in)
	}
	return &model.Email{ID: "email-1", TenantID: in.TenantID, Subject: in.Subject}, nil
}

func (f *fakeEmailService) ListEmails(ctx context.Context, filter model.EmailFilter) ([]*model.Email, error) {
	f.calls++
	f.filters = append(f.filters, filter)
	return []*model.Email{}, nil
}

func (f *fakeEmailService) GetEmail(ctx context.Context, tenantID, id string) (*model.Email, error) {
	f.calls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &model.Email{ID: id, TenantID: tenantID}, nil
}

type fakeTaskService struct {
	calls   int
	filters []model.TaskFilter
	updates []model.TaskUpdate
	ids     []string
	err     error
}

func (f *fakeTaskService) ListTasks(ctx context.Context, filter model.TaskFilter) (*model.TaskPage, error) {
	f.calls++
	f.filters = append(f.filters, filter)
	return &model.TaskPage{Data: []model.Task{}, Pagination: model.NewPagination(0, 1, 10)}, nil
}

func (f *fakeTaskService) UpdateTask(ctx context.Context, tenantID, id string, upd model.TaskUpdate) (*model.Task, error) {
	f.calls++
	f.ids = append(f.ids, id)
	f.updates = append(f.updates, upd)
	if f.err != nil {
		return nil, f.err
	}
	return &model.Task{ID: id, TenantID: tenantID, Status: model.TaskStatusPending}, nil
}

func (f *fakeTaskService) DeleteTask(ctx context.Context, tenantID, id string) error {
	f.calls++
	f.ids = append(f.ids, id)
	return f.err
}

type routerFixture struct {
	handler http.Handler
	tokens  *auth.TokenManager
	auth    *fakeAuthService
	users   *fakeUserService
	emails  *fakeEmailService
	tasks   *fakeTaskService
	metrics *metrics.InMemoryRecorder
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &routerFixture{
		tokens:  auth.NewTokenManager(routerSecret, time.Hour, "mailtriage-test"),
		auth:    &fakeAuthService{},
		users:   &fakeUserService{},
		emails:  &fakeEmailService{},
		tasks:   &fakeTaskService{},
		metrics: metrics.NewInMemory(),
	}
	f.handler = NewRouter(RouterConfig{
		Logger:             logger,
		Metrics:            f.metrics,
		Auth:               NewAuthHandler(f.auth, logger),
		Emails:             NewEmailHandler(f.emails, logger),
		Tasks:              NewTaskHandler(f.tasks, logger),
		Users:              NewUserHandler(f.users, logger),
		Health:             NewHealthHandler(nil, nil, logger),
		Root:               New("test"),
		Verifier:           f.tokens,
		MaxRequestBodySize: 1 << 20,
	})
	return f
}

func (f *routerFixture) token(t *testing.T, role string) string {
	t.Helper()
	tok, _, err := f.tokens.Issue(&model.User{
		ID:       routerUserID,
		TenantID: routerTenantID,
		Email:    "user@example.com",
		Role:     role,
	})
	require.NoError(t, err)
	return tok
}

func (f *routerFixture) do(t *testing.T, method, target, token, tenant string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, rdr)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if tenant != "" {
		req.Header.Set(middleware.TenantHeader, tenant)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["code"]
}

func TestRouter_ProtectedRoutesRejectBeforeService(t *testing.T) {
	f := newRouterFixture(t)
	valid := f.token(t, model.RoleUser)

	tests := []struct {
		name       string
		method     string
		target     string
		token      string
		tenant     string
		wantStatus int
		wantCode   string
	}{
		{"missing bearer", http.MethodGet, "/api/v1/emails", "", routerTenantID, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"garbage bearer", http.MethodGet, "/api/v1/tasks", "not-a-jwt", routerTenantID, http.StatusUnauthorized, "INVALID_CREDENTIAL"},
		{"missing tenant header", http.MethodGet, "/api/v1/emails", valid, "", http.StatusBadRequest, "TENANT_HEADER_MISSING"},
		{"tenant mismatch on list", http.MethodGet, "/api/v1/tasks", valid, "00000000-0000-0000-0000-000000000000", http.StatusForbidden, "TENANT_MISMATCH"},
		{"tenant mismatch on ingest", http.MethodPost, "/api/v1/emails", valid, "00000000-0000-0000-0000-000000000000", http.StatusForbidden, "TENANT_MISMATCH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body any
			if tt.method == http.MethodPost {
				body = map[string]string{"subject": "s", "sender": "a@example.com"}
			}
			rec := f.do(t, tt.method, tt.target, tt.token, tt.tenant, body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, rec))
		})
	}

	assert.Zero(t, f.emails.calls, "email service must not be reached")
	assert.Zero(t, f.tasks.calls, "task service must not be reached")
}

func TestRouter_IngestEmail(t *testing.T) {
	f := newRouterFixture(t)
	tok := f.token(t, model.RoleUser)

	rec := f.do(t, http.MethodPost, "/api/v1/emails", tok, routerTenantID, map[string]string{
		"subject":   "Invoice overdue",
		"body":      "Please pay",
		"sender":    "billing@example.com",
		"recipient": "ops@example.com",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, f.emails.ingested, 1)
	assert.Equal(t, routerTenantID, f.emails.ingested[0].TenantID)
	assert.Equal(t, "Invoice overdue", f.emails.ingested[0].Subject)
	assert.Equal(t, service.SourceAPI, f.emails.sources[0])
}

func TestRouter_IngestEmail_ClassifierDown(t *testing.T) {
	f := newRouterFixture(t)
	f.emails.ingestFn = func(model.NewEmail) (*model.Email, error) {
		return nil, apperr.New(apperr.ClassificationUnavailable, "Failed to classify email")
	}

	rec := f.do(t, http.MethodPost, "/api/v1/emails", f.token(t, model.RoleUser), routerTenantID,
		map[string]string{"subject": "s", "sender": "a@example.com"})

	assert.Equal(t, apperr.ClassificationUnavailable.HTTPStatus(), rec.Code)
	assert.Equal(t, apperr.ClassificationUnavailable.Code(), errorCode(t, rec))
}

func TestRouter_IngestEmail_InvalidJSON(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/emails", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer "+f.token(t, model.RoleUser))
	req.Header.Set(middleware.TenantHeader, routerTenantID)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, rec))
	assert.Zero(t, f.emails.calls)
}

func TestRouter_ListEmails_Filters(t *testing.T) {
	f := newRouterFixture(t)
	tok := f.token(t, model.RoleUser)

	rec := f.do(t, http.MethodGet,
		"/api/v1/emails?category=billing&priority=high&start_date=2024-01-01&end_date=2024-01-31",
		tok, routerTenantID, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
	require.Len(t, f.emails.filters, 1)
	got := f.emails.filters[0]
	assert.Equal(t, routerTenantID, got.TenantID)
	assert.Equal(t, "billing", got.Category)
	assert.Equal(t, "high", got.Priority)
	require.NotNil(t, got.StartDate)
	require.NotNil(t, got.EndDate)
	assert.True(t, got.StartDate.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, got.EndDate.After(time.Date(2024, 1, 31, 23, 59, 0, 0, time.UTC)))
}

func TestRouter_ListEmails_BadDate(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/emails?start_date=last-week", f.token(t, model.RoleUser), routerTenantID, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, rec))
	assert.Zero(t, f.emails.calls)
}

func TestRouter_GetEmail_NotFound(t *testing.T) {
	f := newRouterFixture(t)
	f.emails.getErr = apperr.New(apperr.NotFound, "Email not found")

	rec := f.do(t, http.MethodGet, "/api/v1/emails/missing", f.token(t, model.RoleUser), routerTenantID, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, rec))
}

func TestRouter_ListTasks_Paging(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/tasks?page=2&page_size=5&status=pending&user_id="+routerUserID,
		f.token(t, model.RoleUser), routerTenantID, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.tasks.filters, 1)
	got := f.tasks.filters[0]
	assert.Equal(t, 2, got.Page)
	assert.Equal(t, 5, got.PageSize)
	assert.Equal(t, "pending", got.Status)
	assert.Equal(t, routerUserID, got.UserID)

	var page model.TaskPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.NotNil(t, page.Data)
}

type countingTaskStore struct {
	lists int
}

func (s *countingTaskStore) ListTasks(context.Context, model.TaskFilter) ([]model.Task, int, error) {
	s.lists++
	return nil, 0, nil
}

func (s *countingTaskStore) UpdateTask(context.Context, string, string, model.TaskUpdate) (*model.Task, error) {
	return nil, errors.New("not implemented")
}

func (s *countingTaskStore) DeleteTask(context.Context, string, string) error {
	return errors.New("not implemented")
}

func (s *countingTaskStore) GetUserByID(context.Context, string) (*model.User, error) {
	return nil, errors.New("not implemented")
}

func TestRouter_ListTasks_MalformedUserID(t *testing.T) {
	f := newRouterFixture(t)
	store := &countingTaskStore{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewRouter(RouterConfig{
		Logger:             logger,
		Metrics:            metrics.NewInMemory(),
		Auth:               NewAuthHandler(f.auth, logger),
		Emails:             NewEmailHandler(f.emails, logger),
		Tasks:              NewTaskHandler(service.NewTaskService(store, nil), logger),
		Users:              NewUserHandler(f.users, logger),
		Health:             NewHealthHandler(nil, nil, logger),
		Root:               New("test"),
		Verifier:           f.tokens,
		MaxRequestBodySize: 1 << 20,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks?user_id=bob", nil)
	req.Header.Set("Authorization", "Bearer "+f.token(t, model.RoleUser))
	req.Header.Set("X-Tenant-ID", routerTenantID)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, rec))
	assert.Zero(t, store.lists)
}

func TestRouter_UpdateTask(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPut, "/api/v1/tasks", f.token(t, model.RoleUser), routerTenantID, map[string]any{
		"id":          "task-1",
		"status":      "completed",
		"assigned_to": nil,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.tasks.updates, 1)
	assert.Equal(t, "task-1", f.tasks.ids[0])
	upd := f.tasks.updates[0]
	require.NotNil(t, upd.Status)
	assert.Equal(t, "completed", *upd.Status)
	require.NotNil(t, upd.AssignedTo, "explicit null unassigns")
	assert.Empty(t, *upd.AssignedTo)
	assert.Nil(t, upd.Title)
}

func TestRouter_UpdateTask_NotFound(t *testing.T) {
	f := newRouterFixture(t)
	f.tasks.err = apperr.New(apperr.NotFound, "Task not found")

	rec := f.do(t, http.MethodPut, "/api/v1/tasks", f.token(t, model.RoleUser), routerTenantID,
		map[string]any{"id": "missing", "status": "completed"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_DeleteTask(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodDelete, "/api/v1/tasks", f.token(t, model.RoleUser), routerTenantID,
		map[string]string{"id": "task-1"})

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, []string{"task-1"}, f.tasks.ids)
}

func TestRouter_CreateUser_RequiresAdmin(t *testing.T) {
	f := newRouterFixture(t)
	body := map[string]string{"email": "new@example.com", "name": "New", "password": "password123"}

	rec := f.do(t, http.MethodPost, "/api/v1/users", f.token(t, model.RoleUser), routerTenantID, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, f.users.inputs)

	rec = f.do(t, http.MethodPost, "/api/v1/users", f.token(t, model.RoleAdmin), routerTenantID, body)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, f.users.inputs, 1)
	assert.Equal(t, routerTenantID, f.users.inputs[0].TenantID)
}

func TestRouter_AuthEndpoints(t *testing.T) {
	f := newRouterFixture(t)
	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	f.auth.session = &service.Session{
		User:      &model.User{ID: routerUserID, TenantID: routerTenantID, Email: "user@example.com"},
		Tenant:    &model.Tenant{ID: routerTenantID, Name: "Acme", Plan: model.PlanFree},
		Token:     "issued-token",
		ExpiresAt: expires,
	}

	rec := f.do(t, http.MethodPost, "/api/v1/auth/login", "", "", map[string]string{
		"email": "user@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expiresAt"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "issued-token", resp.Token)
	assert.True(t, resp.ExpiresAt.Equal(expires))

	rec = f.do(t, http.MethodPost, "/api/v1/auth/register", "", "", map[string]any{
		"name": "Owner", "email": "owner@example.com", "password": "password123",
		"tenant": map[string]string{"name": "Acme", "plan": "pro"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, f.auth.registered, 1)
	assert.Equal(t, "Acme", f.auth.registered[0].TenantName)
	assert.Equal(t, "pro", f.auth.registered[0].Plan)

	rec = f.do(t, http.MethodPost, "/api/v1/auth/logout", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, f.auth.logoutCalls)

	rec = f.do(t, http.MethodPost, "/api/v1/auth/logout", f.token(t, model.RoleUser), "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, f.auth.logoutCalls, 1)
	assert.Equal(t, routerUserID, f.auth.logoutCalls[0].UserID)
}

func TestRouter_LoginInvalidCredential(t *testing.T) {
	f := newRouterFixture(t)
	f.auth.err = apperr.New(apperr.InvalidCredential, "Invalid email or password")

	rec := f.do(t, http.MethodPost, "/api/v1/auth/login", "", "", map[string]string{
		"email": "user@example.com", "password": "wrong",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIAL", errorCode(t, rec))
}

func TestRouter_UnknownRouteAndMethod(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/unknown", "", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPatch, "/healthz", "", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_RecordsRouteMetrics(t *testing.T) {
	f := newRouterFixture(t)

	f.do(t, http.MethodGet, "/healthz", "", "", nil)

	snap := f.metrics.Snapshot()
	assert.NotZero(t, snap.HTTPRequests)
}
