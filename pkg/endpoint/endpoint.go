// Package endpoint holds the registry of identity providers and builds
// their authorization URLs.
package endpoint

import (
	"errors"
	"fmt"
	"net/url"
	"sync"
)

var (
	// ErrNotFound is returned when no endpoint is registered under a provider name.
	ErrNotFound = errors.New("endpoint not found")
	// ErrEmptyProvider is returned when an endpoint has no provider name.
	ErrEmptyProvider = errors.New("provider name cannot be empty")
	// ErrAlreadyRegistered is returned when re-registering a provider;
	// endpoints are immutable once registered.
	ErrAlreadyRegistered = errors.New("endpoint already registered")
)

// Endpoint describes how to reach one identity provider. Immutable once
// registered, uniquely keyed by Provider.
type Endpoint struct {
	Provider     string            `json:"provider"`
	AuthorizeURL string            `json:"authorize_url"`
	RedirectURL  string            `json:"redirect_url"`
	TokenURL     string            `json:"token_url,omitempty"`
	ClientID     string            `json:"client_id"`
	Scope        string            `json:"scope,omitempty"`
	ResponseType string            `json:"response_type,omitempty"`
	State        string            `json:"state,omitempty"`
	ExtraParams  map[string]string `json:"extra_params,omitempty"`
}

// LoginURL builds the full authorization URL for the endpoint.
func (e Endpoint) LoginURL() (string, error) {
	u, err := url.Parse(e.AuthorizeURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse authorize URL: %w", err)
	}

	values := u.Query()
	values.Set("client_id", e.ClientID)
	values.Set("redirect_uri", e.RedirectURL)

	responseType := e.ResponseType
	if responseType == "" {
		responseType = "token"
	}
	values.Set("response_type", responseType)

	if e.Scope != "" {
		values.Set("scope", e.Scope)
	}
	if e.State != "" {
		values.Set("state", e.State)
	}
	for key, value := range e.ExtraParams {
		values.Set(key, value)
	}

	u.RawQuery = values.Encode()
	return u.String(), nil
}

// Registry maps provider names to their endpoint configuration.
// It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	endpoints map[string]Endpoint
}

// NewRegistry creates an empty endpoint registry.
func NewRegistry() *Registry {
	return &Registry{
		endpoints: make(map[string]Endpoint),
	}
}

// Register adds an endpoint to the registry. Registered endpoints are
// immutable: registering the same provider twice returns ErrAlreadyRegistered.
func (r *Registry) Register(e Endpoint) error {
	if e.Provider == "" {
		return ErrEmptyProvider
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.endpoints[e.Provider]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, e.Provider)
	}
	r.endpoints[e.Provider] = e
	return nil
}

// Get retrieves the endpoint registered under the provider name.
// It returns ErrNotFound if the provider is unknown.
func (r *Registry) Get(provider string) (Endpoint, error) {
	if provider == "" {
		return Endpoint{}, ErrEmptyProvider
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.endpoints[provider]
	if !exists {
		return Endpoint{}, fmt.Errorf("%w: %s", ErrNotFound, provider)
	}
	return e, nil
}

// Providers returns the names of all registered providers.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.endpoints))
	for name := range r.endpoints {
		names = append(names, name)
	}
	return names
}
