// Package testutil holds helpers shared by integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/mailtriage/mailtriage/internal/model"
	"github.com/mailtriage/mailtriage/migrations"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema drops every table and re-applies the embedded migrations.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	downs, ups, err := migrationFiles()
	if err != nil {
		return err
	}

	for i := len(downs) - 1; i >= 0; i-- {
		if _, err := pool.Exec(ctx, downs[i]); err != nil {
			return fmt.Errorf("apply down migration: %w", err)
		}
	}
	if _, err := pool.Exec(ctx, `DROP TABLE IF EXISTS schema_migrations`); err != nil {
		return fmt.Errorf("drop schema_migrations: %w", err)
	}
	for _, up := range ups {
		if _, err := pool.Exec(ctx, up); err != nil {
			return fmt.Errorf("apply up migration: %w", err)
		}
	}

	return nil
}

// migrationFiles returns down and up scripts in version order.
func migrationFiles() (downs, ups []string, err error) {
	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		return nil, nil, fmt.Errorf("read migrations: %w", err)
	}
	// ReadDir returns entries sorted by filename.
	for _, e := range entries {
		data, err := migrations.FS.ReadFile(e.Name())
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		switch {
		case strings.HasSuffix(e.Name(), ".down.sql"):
			downs = append(downs, string(data))
		case strings.HasSuffix(e.Name(), ".up.sql"):
			ups = append(ups, string(data))
		}
	}
	return downs, ups, nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestTenant creates a tenant with sensible defaults.
func NewTestTenant(t testing.TB) *model.Tenant {
	t.Helper()
	return &model.Tenant{
		ID:        uuid.NewString(),
		Name:      UniqueID("tenant"),
		Plan:      model.PlanFree,
		CreatedAt: time.Now().UTC(),
	}
}

// NewTestUser creates a user of tenantID with sensible defaults.
func NewTestUser(t testing.TB, tenantID string) *model.User {
	t.Helper()
	return &model.User{
		ID:           uuid.NewString(),
		Email:        UniqueID("user") + "@example.com",
		Name:         "Test User",
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		Role:         model.RoleUser,
		TenantID:     tenantID,
		CreatedAt:    time.Now().UTC(),
	}
}

// NewTestEmail creates ingestion input for tenantID.
func NewTestEmail(tenantID, subject string) model.NewEmail {
	return model.NewEmail{
		TenantID:  tenantID,
		Subject:   subject,
		Body:      "Please review the attached report.",
		Sender:    "alice@example.com",
		Recipient: "team@example.com",
	}
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
