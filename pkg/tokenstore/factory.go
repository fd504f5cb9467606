package tokenstore

import (
	"fmt"
	"strings"
)

// StoreType represents the type of store backend.
type StoreType string

const (
	// StoreTypeMemory represents in-memory storage.
	StoreTypeMemory StoreType = "memory"
	// StoreTypeRedis represents Redis storage.
	StoreTypeRedis StoreType = "redis"
	// StoreTypeKeyring represents OS keychain storage.
	StoreTypeKeyring StoreType = "keyring"
)

// Config contains configuration for creating a store.
type Config struct {
	// Type specifies the store type (memory, redis, or keyring).
	Type StoreType
	// Redis contains Redis-specific configuration.
	Redis RedisOptions
	// KeyringService is the keychain service name (only used when Type is keyring).
	KeyringService string
}

// Factory creates store instances based on configuration.
type Factory struct {
	config Config
}

// NewFactory creates a new store factory with the provided configuration.
func NewFactory(config Config) *Factory {
	return &Factory{
		config: config,
	}
}

// Create creates and returns a new store instance based on the factory configuration.
// Returns an error if the store type is invalid or if store creation fails.
func (f *Factory) Create() (Store, error) {
	switch f.config.Type {
	case StoreTypeMemory:
		return NewMemoryStore(), nil
	case StoreTypeRedis:
		return NewRedisStoreFromOptions(f.config.Redis)
	case StoreTypeKeyring:
		return NewKeyringStore(f.config.KeyringService), nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", f.config.Type)
	}
}

// NewStore is a convenience function that creates a store directly from configuration.
// It's equivalent to NewFactory(config).Create().
func NewStore(config Config) (Store, error) {
	factory := NewFactory(config)
	return factory.Create()
}

// ParseStoreType parses a string into a StoreType.
// Returns StoreTypeMemory for invalid inputs.
func ParseStoreType(s string) StoreType {
	switch strings.ToLower(s) {
	case "memory":
		return StoreTypeMemory
	case "redis":
		return StoreTypeRedis
	case "keyring":
		return StoreTypeKeyring
	default:
		return StoreTypeMemory
	}
}

// String returns the string representation of a StoreType.
func (t StoreType) String() string {
	return string(t)
}

// IsValid returns true if the StoreType is valid.
func (t StoreType) IsValid() bool {
	switch t {
	case StoreTypeMemory, StoreTypeRedis, StoreTypeKeyring:
		return true
	default:
		return false
	}
}

// MustCreate creates a store and panics if creation fails.
// This is useful for initialization where store creation must succeed.
func MustCreate(config Config) Store {
	store, err := NewStore(config)
	if err != nil {
		panic(fmt.Sprintf("failed to create store: %v", err))
	}
	return store
}

// DefaultConfig returns the default store configuration (memory store).
func DefaultConfig() Config {
	return Config{
		Type: StoreTypeMemory,
	}
}
