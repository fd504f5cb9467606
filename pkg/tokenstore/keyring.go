package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-oauthkit/authflow/pkg/core"
	"github.com/zalando/go-keyring"
)

// DefaultKeyringService is the service name tokens are stored under when
// none is configured.
const DefaultKeyringService = "authflow"

// KeyringStore implements the Store interface on top of the operating
// system keychain. Tokens survive process restarts without ever touching
// plain files.
type KeyringStore struct {
	service string
}

// NewKeyringStore creates a keyring-backed store. An empty service name
// falls back to DefaultKeyringService.
func NewKeyringStore(service string) *KeyringStore {
	if service == "" {
		service = DefaultKeyringService
	}
	return &KeyringStore{service: service}
}

// Get retrieves the token stored for a provider.
// It returns ErrTokenNotFound if the keychain has no entry.
func (k *KeyringStore) Get(ctx context.Context, provider string) (*core.Token, error) {
	if provider == "" {
		return nil, ErrEmptyProvider
	}

	secret, err := keyring.Get(k.service, provider)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to read token from keyring: %w", err)
	}

	var token core.Token
	if err := json.Unmarshal([]byte(secret), &token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}
	return &token, nil
}

// Add stores a token under the provider name, replacing any previous one.
func (k *KeyringStore) Add(ctx context.Context, provider string, token *core.Token) error {
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
	if err := keyring.Set(k.service, provider, string(data)); err != nil {
		return fmt.Errorf("failed to write token to keyring: %w", err)
	}
	return nil
}

// Remove deletes the token stored for a provider.
// It returns ErrTokenNotFound if the keychain has no entry.
func (k *KeyringStore) Remove(ctx context.Context, provider string) error {
	if provider == "" {
		return ErrEmptyProvider
	}

	if err := keyring.Delete(k.service, provider); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrTokenNotFound
		}
		return fmt.Errorf("failed to delete token from keyring: %w", err)
	}
	return nil
}
