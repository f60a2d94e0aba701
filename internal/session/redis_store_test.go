package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rs, err := NewRedisStore("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisStore() error = %v", err)
	}
	t.Cleanup(func() { rs.Close() })
	return rs, mr
}

func TestSaveAndLookupRefreshSession(t *testing.T) {
	rs, _ := newTestStore(t)
	ctx := context.Background()

	if err := rs.SaveRefreshSession(ctx, "hash-1", "u1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("SaveRefreshSession() error = %v", err)
	}
	user, err := rs.LookupRefreshSession(ctx, "hash-1")
	if err != nil {
		t.Fatalf("LookupRefreshSession() error = %v", err)
	}
	if user.ID != "u1" {
		t.Fatalf("user id = %q, want u1", user.ID)
	}
	// Only the id survives the round trip; the profile is re-read later.
	if user.DisplayName != "" || user.Email != "" {
		t.Fatalf("unexpected profile fields: %+v", user)
	}
}

func TestLookupExpiredSession(t *testing.T) {
	rs, mr := newTestStore(t)
	ctx := context.Background()

	if err := rs.SaveRefreshSession(ctx, "hash-2", "u2", time.Now().Add(time.Second)); err != nil {
		t.Fatalf("SaveRefreshSession() error = %v", err)
	}
	mr.FastForward(2 * time.Second)

	if _, err := rs.LookupRefreshSession(ctx, "hash-2"); err == nil {
		t.Fatal("expected error after expiry")
	}
}

func TestLookupUnknownSession(t *testing.T) {
	rs, _ := newTestStore(t)
	if _, err := rs.LookupRefreshSession(context.Background(), "never-saved"); err == nil {
		t.Fatal("expected error for unknown hash")
	}
}

func TestRevokeRefreshSession(t *testing.T) {
	rs, _ := newTestStore(t)
	ctx := context.Background()

	if err := rs.SaveRefreshSession(ctx, "hash-3", "u3", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("SaveRefreshSession() error = %v", err)
	}
	if err := rs.RevokeRefreshSession(ctx, "hash-3"); err != nil {
		t.Fatalf("RevokeRefreshSession() error = %v", err)
	}
	if _, err := rs.LookupRefreshSession(ctx, "hash-3"); err == nil {
		t.Fatal("expected error after revoke")
	}

	// Revoking a hash that never existed is not an error.
	if err := rs.RevokeRefreshSession(ctx, "never-saved"); err != nil {
		t.Fatalf("revoke unknown hash: %v", err)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	rs, _ := newTestStore(t)
	ctx := context.Background()
	expires := time.Now().Add(time.Hour)

	if err := rs.SaveRefreshSession(ctx, "hash-a", "ua", expires); err != nil {
		t.Fatalf("save a: %v", err)
	}
	if err := rs.SaveRefreshSession(ctx, "hash-b", "ub", expires); err != nil {
		t.Fatalf("save b: %v", err)
	}
	if err := rs.RevokeRefreshSession(ctx, "hash-a"); err != nil {
		t.Fatalf("revoke a: %v", err)
	}

	if _, err := rs.LookupRefreshSession(ctx, "hash-a"); err == nil {
		t.Fatal("hash-a should be gone")
	}
	user, err := rs.LookupRefreshSession(ctx, "hash-b")
	if err != nil {
		t.Fatalf("hash-b lookup: %v", err)
	}
	if user.ID != "ub" {
		t.Fatalf("hash-b user = %q, want ub", user.ID)
	}
}
