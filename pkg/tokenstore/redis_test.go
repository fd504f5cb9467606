package tokenstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-oauthkit/authflow/pkg/core"
	"github.com/redis/rueidis"
)

// setupRedisStore creates a test Redis store connected to localhost:6379
// Skip tests if Redis is not available
func setupRedisStore(t *testing.T) *RedisStore {
	t.Helper()

	opts := rueidis.ClientOption{
		InitAddress: []string{"localhost:6379"},
	}

	store, err := NewRedisStoreFromClientOption(opts)
	if err != nil {
		t.Skipf("Redis not available, skipping test: %v", err)
	}

	// Test connection
	ctx := context.Background()
	cmd := store.client.B().Ping().Build()
	if err := store.client.Do(ctx, cmd).Error(); err != nil {
		store.Close()
		t.Skipf("Cannot connect to Redis, skipping test: %v", err)
	}

	t.Cleanup(func() {
		cleanupRedisKeys(t, store)
		store.Close()
	})

	return store
}

// cleanupRedisKeys removes all test keys from Redis
func cleanupRedisKeys(t *testing.T, store *RedisStore) {
	t.Helper()
	ctx := context.Background()

	scanCmd := store.client.B().Scan().Cursor(0).Match(tokenPrefix + "*").Count(100).Build()
	scanResult, err := store.client.Do(ctx, scanCmd).AsScanEntry()
	if err == nil {
		for _, key := range scanResult.Elements {
			delCmd := store.client.B().Del().Key(key).Build()
			_ = store.client.Do(ctx, delCmd).Error()
		}
	}
}

func TestRedisStore_RoundTrip(t *testing.T) {
	store := setupRedisStore(t)
	ctx := context.Background()

	token := &core.Token{
		AccessToken: "tok123",
		TokenType:   "Bearer",
		ExpiresAt:   time.Now().Add(time.Hour).Truncate(time.Second),
	}
	if err := store.Add(ctx, "github", token); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	got, err := store.Get(ctx, "github")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.AccessToken != token.AccessToken {
		t.Errorf("Get() access token = %v, want %v", got.AccessToken, token.AccessToken)
	}
	if !got.ExpiresAt.Equal(token.ExpiresAt) {
		t.Errorf("Get() expiry = %v, want %v", got.ExpiresAt, token.ExpiresAt)
	}
}

func TestRedisStore_AddExpiredToken(t *testing.T) {
	store := setupRedisStore(t)
	ctx := context.Background()

	token := &core.Token{
		AccessToken: "tok123",
		ExpiresAt:   time.Now().Add(-time.Minute),
	}
	if err := store.Add(ctx, "github", token); err == nil {
		t.Error("Add() should reject an already-expired token")
	}
}

func TestRedisStore_Remove(t *testing.T) {
	store := setupRedisStore(t)
	ctx := context.Background()

	if err := store.Add(ctx, "github", &core.Token{AccessToken: "tok123"}); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	if err := store.Remove(ctx, "github"); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	if err := store.Remove(ctx, "github"); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("Remove() on missing token error = %v, want ErrTokenNotFound", err)
	}
}

func TestRedisStore_GetMissing(t *testing.T) {
	store := setupRedisStore(t)

	_, err := store.Get(context.Background(), "unknown")
	if !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("Get() error = %v, want ErrTokenNotFound", err)
	}
}
