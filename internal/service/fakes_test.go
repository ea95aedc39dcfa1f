package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mailtriage/mailtriage/internal/model"
	"github.com/mailtriage/mailtriage/internal/repository"
)

type fakeUserStore struct {
	mu      sync.Mutex
	users   map[string]*model.User
	tenants map[string]*model.Tenant
	err     error
	rehash  int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:   make(map[string]*model.User),
		tenants: make(map[string]*model.Tenant),
	}
}

func (f *fakeUserStore) addTenant(t *model.Tenant) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tenants[t.ID] = t
}

func (f *fakeUserStore) CreateUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrEmailExists
		}
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUserStore) UpdatePasswordHash(_ context.Context, userID, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = hash
	f.rehash++
	return nil
}

func (f *fakeUserStore) GetTenantByID(_ context.Context, id string) (*model.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tenants[id]; ok {
		return t, nil
	}
	return nil, repository.ErrTenantNotFound
}

func (f *fakeUserStore) CreateTenantWithUser(ctx context.Context, tenant *model.Tenant, user *model.User) error {
	if err := f.CreateUser(ctx, user); err != nil {
		return err
	}
	f.addTenant(tenant)
	return nil
}

type fakeTokens struct {
	issued []string
}

func (f *fakeTokens) Issue(user *model.User) (string, time.Time, error) {
	f.issued = append(f.issued, user.ID)
	return "token-" + user.ID, time.Now().Add(time.Hour), nil
}

type fakeRevoker struct {
	revoked map[string]time.Time
	err     error
}

func (f *fakeRevoker) RevokeToken(_ context.Context, tokenID string, expiresAt time.Time) error {
	if f.err != nil {
		return f.err
	}
	if f.revoked == nil {
		f.revoked = make(map[string]time.Time)
	}
	f.revoked[tokenID] = expiresAt
	return nil
}

type fakeClassifier struct {
	result *model.Classification
	err    error
	calls  int
	got    model.NewEmail
}

func (f *fakeClassifier) Classify(_ context.Context, email model.NewEmail) (*model.Classification, error) {
	f.calls++
	f.got = email
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeEmailStore struct {
	created     []model.NewEmail
	classified  []model.Classification
	createErr   error
	ctxErr      error
	hadDeadline bool
	emails      map[string]*model.Email
	listFilter  model.EmailFilter
	listErr     error
}

func (f *fakeEmailStore) CreateEmailWithTasks(ctx context.Context, in model.NewEmail, c model.Classification) (*model.Email, error) {
	f.ctxErr = ctx.Err()
	_, f.hadDeadline = ctx.Deadline()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, in)
	f.classified = append(f.classified, c)

	email := &model.Email{
		ID:        "email-1",
		TenantID:  in.TenantID,
		Subject:   in.Subject,
		Body:      in.Body,
		Sender:    in.Sender,
		Recipient: in.Recipient,
		Priority:  c.Priority,
		Category:  c.Category,
		Labels:    c.Labels,
		Tasks:     []model.TaskSummary{},
	}
	for _, t := range c.SuggestedTasks {
		email.Tasks = append(email.Tasks, model.TaskSummary{
			Title:       t.Title,
			Description: t.Description,
			Priority:    t.Priority,
			Status:      model.TaskStatusPending,
		})
	}
	return email, nil
}

func (f *fakeEmailStore) GetEmail(_ context.Context, tenantID, id string) (*model.Email, error) {
	if e, ok := f.emails[id]; ok && e.TenantID == tenantID {
		return e, nil
	}
	return nil, repository.ErrEmailNotFound
}

func (f *fakeEmailStore) ListEmails(_ context.Context, filter model.EmailFilter) ([]*model.Email, error) {
	f.listFilter = filter
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*model.Email
	for _, e := range f.emails {
		if e.TenantID == filter.TenantID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeTaskStore struct {
	*fakeUserStore
	tasks      map[string]*model.Task
	listFilter model.TaskFilter
	total      int
	updates    int
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{fakeUserStore: newFakeUserStore(), tasks: make(map[string]*model.Task)}
}

func (f *fakeTaskStore) ListTasks(_ context.Context, filter model.TaskFilter) ([]model.Task, int, error) {
	f.listFilter = filter
	var out []model.Task
	for _, t := range f.tasks {
		if t.TenantID == filter.TenantID {
			out = append(out, *t)
		}
	}
	total := f.total
	if total == 0 {
		total = len(out)
	}
	return out, total, nil
}

func (f *fakeTaskStore) UpdateTask(_ context.Context, tenantID, id string, upd model.TaskUpdate) (*model.Task, error) {
	t, ok := f.tasks[id]
	if !ok || t.TenantID != tenantID {
		return nil, repository.ErrTaskNotFound
	}
	f.updates++
	if upd.Title != nil {
		t.Title = *upd.Title
	}
	if upd.Status != nil {
		t.Status = *upd.Status
	}
	if upd.AssignedTo != nil {
		if *upd.AssignedTo == "" {
			t.AssignedTo = nil
		} else {
			a := *upd.AssignedTo
			t.AssignedTo = &a
		}
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTaskStore) DeleteTask(_ context.Context, tenantID, id string) error {
	t, ok := f.tasks[id]
	if !ok || t.TenantID != tenantID {
		return repository.ErrTaskNotFound
	}
	delete(f.tasks, id)
	return nil
}
