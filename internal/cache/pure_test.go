package cache

import (
	"context"
	"testing"
	"time"
)

func TestHashIP_Deterministic(t *testing.T) {
	t.Parallel()

	if hashIP("192.168.1.100") != hashIP("192.168.1.100") {
		t.Error("Same IP should produce same hash")
	}
}

func TestHashIP_Length(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ip   string
	}{
		{"IPv4", "192.168.1.1"},
		{"IPv6 localhost", "::1"},
		{"IPv6 full", "2001:0db8:85a3:0000:0000:8a2e:0370:7334"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if hash := hashIP(tt.ip); len(hash) != 16 {
				t.Errorf("hashIP(%q) length = %d, want 16", tt.ip, len(hash))
			}
		})
	}
}

func TestHashIP_Different(t *testing.T) {
	t.Parallel()

	if hashIP("10.0.0.1") == hashIP("10.0.0.2") {
		t.Error("Different IPs should produce different hashes")
	}
}

func TestCheckRateLimit_Unlimited(t *testing.T) {
	t.Parallel()

	// A zero budget never reaches Redis.
	c := &Cache{now: time.Now}
	res, err := c.CheckUserRateLimit(context.Background(), "user-1", 0, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Allowed || res.Remaining != 5 {
		t.Errorf("expected unlimited result, got %+v", res)
	}
}

func TestRevokeToken_EmptyID(t *testing.T) {
	t.Parallel()

	c := &Cache{now: time.Now}
	if err := c.RevokeToken(context.Background(), "", time.Now().Add(time.Hour)); err == nil {
		t.Error("expected error for empty token id")
	}
	revoked, err := c.IsTokenRevoked(context.Background(), "")
	if err != nil || revoked {
		t.Errorf("expected empty id to be not revoked, got %v %v", revoked, err)
	}
}

func TestRevokeToken_AlreadyExpired(t *testing.T) {
	t.Parallel()

	c := &Cache{now: time.Now}
	if err := c.RevokeToken(context.Background(), "jti-1", time.Now().Add(-time.Minute)); err != nil {
		t.Errorf("expected expired token to be skipped, got %v", err)
	}
}
