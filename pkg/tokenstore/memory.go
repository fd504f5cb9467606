package tokenstore

import (
	"context"
	"sync"

	"github.com/go-oauthkit/authflow/pkg/core"
)

// MemoryStore implements the Store interface using an in-memory map.
// It provides thread-safe storage for tokens.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]*core.Token
}

// NewMemoryStore creates a new instance of MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tokens: make(map[string]*core.Token),
	}
}

// Get retrieves the token stored for a provider.
// It returns ErrTokenNotFound if none is stored.
func (m *MemoryStore) Get(ctx context.Context, provider string) (*core.Token, error) {
	if provider == "" {
		return nil, ErrEmptyProvider
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	token, exists := m.tokens[provider]
	if !exists {
		return nil, ErrTokenNotFound
	}
	return token, nil
}

// Add stores a token under the provider name, replacing any previous one.
// It returns an error if the token is nil or the provider name is empty.
func (m *MemoryStore) Add(ctx context.Context, provider string, token *core.Token) error {
	if provider == "" {
		return ErrEmptyProvider
	}
	if token == nil {
		return ErrNilToken
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.tokens[provider] = token
	return nil
}

// Remove deletes the token stored for a provider.
// It returns ErrTokenNotFound if none is stored.
func (m *MemoryStore) Remove(ctx context.Context, provider string) error {
	if provider == "" {
		return ErrEmptyProvider
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.tokens[provider]; !exists {
		return ErrTokenNotFound
	}
	delete(m.tokens, provider)
	return nil
}
