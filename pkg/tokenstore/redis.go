package tokenstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-oauthkit/authflow/pkg/core"
	"github.com/redis/rueidis"
)

// Key prefix for Redis storage
const tokenPrefix = "oauth_token:"

// RedisStore implements the Store interface using Redis via rueidis.
// It provides persistent storage for tokens shared across processes.
type RedisStore struct {
	client rueidis.Client
}

// NewRedisStore creates a new instance of RedisStore with the provided rueidis client.
func NewRedisStore(client rueidis.Client) *RedisStore {
	return &RedisStore{
		client: client,
	}
}

// RedisOptions contains configuration for Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStoreFromOptions creates a new RedisStore with simplified options.
func NewRedisStoreFromOptions(opts RedisOptions) (*RedisStore, error) {
	clientOpts := rueidis.ClientOption{
		InitAddress: []string{opts.Addr},
		Password:    opts.Password,
		SelectDB:    opts.DB,
	}
	return NewRedisStoreFromClientOption(clientOpts)
}

// NewRedisStoreFromClientOption creates a new RedisStore with full rueidis client options.
func NewRedisStoreFromClientOption(opts rueidis.ClientOption) (*RedisStore, error) {
	client, err := rueidis.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}
	return NewRedisStore(client), nil
}

// Close closes the Redis client connection.
func (r *RedisStore) Close() {
	r.client.Close()
}

// Get retrieves the token stored for a provider.
// It returns ErrTokenNotFound if none is stored or the key has expired.
// Uses client-side caching with 10 second TTL for better performance.
func (r *RedisStore) Get(ctx context.Context, provider string) (*core.Token, error) {
	if provider == "" {
		return nil, ErrEmptyProvider
	}

	key := tokenPrefix + provider
	cmd := r.client.B().Get().Key(key).Cache()
	result, err := r.client.DoCache(ctx, cmd, 10*time.Second).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get token from redis: %w", err)
	}

	var token core.Token
	if err := json.Unmarshal([]byte(result), &token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}
	return &token, nil
}

// Add stores a token under the provider name, replacing any previous one.
// Tokens with an absolute expiry are stored with a matching TTL so Redis
// evicts them once they are useless.
func (r *RedisStore) Add(ctx context.Context, provider string, token *core.Token) error {
	if provider == "" {
		return ErrEmptyProvider
	}
	if token == nil {
		return ErrNilToken
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	key := tokenPrefix + provider
	builder := r.client.B().Set().Key(key).Value(string(data))
	if !token.ExpiresAt.IsZero() {
		ttl := time.Until(token.ExpiresAt)
		if ttl <= 0 {
			return fmt.Errorf("token for provider %q is already expired", provider)
		}
		if err := r.client.Do(ctx, builder.ExSeconds(int64(ttl.Seconds())).Build()).Error(); err != nil {
			return fmt.Errorf("failed to save token to redis: %w", err)
		}
		return nil
	}

	if err := r.client.Do(ctx, builder.Build()).Error(); err != nil {
		return fmt.Errorf("failed to save token to redis: %w", err)
	}
	return nil
}

// Remove deletes the token stored for a provider.
// It returns ErrTokenNotFound if none is stored.
func (r *RedisStore) Remove(ctx context.Context, provider string) error {
	if provider == "" {
		return ErrEmptyProvider
	}

	key := tokenPrefix + provider
	cmd := r.client.B().Del().Key(key).Build()
	result, err := r.client.Do(ctx, cmd).AsInt64()
	if err != nil {
		return fmt.Errorf("failed to delete token from redis: %w", err)
	}
	if result == 0 {
		return ErrTokenNotFound
	}
	return nil
}
