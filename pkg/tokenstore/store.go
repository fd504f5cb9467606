// Package tokenstore persists OAuth tokens keyed by provider name.
package tokenstore

import (
	"context"
	"errors"

	"github.com/go-oauthkit/authflow/pkg/core"
)

var (
	// ErrTokenNotFound is returned when no token is stored for a provider.
	ErrTokenNotFound = errors.New("token not found")
	// ErrNilToken is returned when attempting to store a nil token.
	ErrNilToken = errors.New("token cannot be nil")
	// ErrEmptyProvider is returned when the provider name is empty.
	ErrEmptyProvider = errors.New("provider name cannot be empty")
)

// Store defines the interface for persisting tokens per provider.
type Store interface {
	// Get retrieves the token stored for a provider.
	// It returns ErrTokenNotFound on a miss.
	Get(ctx context.Context, provider string) (*core.Token, error)
	// Add stores a token under the provider name, replacing any previous one.
	Add(ctx context.Context, provider string, token *core.Token) error
	// Remove deletes the token stored for a provider.
	// It returns ErrTokenNotFound if none is stored.
	Remove(ctx context.Context, provider string) error
}
