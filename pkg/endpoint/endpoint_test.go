package endpoint

import (
	"errors"
	"strings"
	"testing"
)

func TestRegistry_Register(t *testing.T) {
	tests := []struct {
		name     string
		endpoint Endpoint
		wantErr  error
	}{
		{
			name: "valid endpoint",
			endpoint: Endpoint{
				Provider:     "github",
				AuthorizeURL: "https://github.com/login/oauth/authorize",
				RedirectURL:  "https://example.com/callback",
				ClientID:     "client_123",
			},
			wantErr: nil,
		},
		{
			name:     "empty provider",
			endpoint: Endpoint{AuthorizeURL: "https://example.com/authorize"},
			wantErr:  ErrEmptyProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewRegistry()

			err := registry.Register(tt.endpoint)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() error = %v, wantErr %v", err, tt.wantErr)
			}

			if tt.wantErr == nil {
				got, getErr := registry.Get(tt.endpoint.Provider)
				if getErr != nil {
					t.Fatalf("Get() after Register failed: %v", getErr)
				}
				if got.Provider != tt.endpoint.Provider {
					t.Errorf("Get() provider = %v, want %v", got.Provider, tt.endpoint.Provider)
				}
			}
		})
	}
}

func TestRegistry_Register_Immutable(t *testing.T) {
	registry := NewRegistry()
	first := Endpoint{Provider: "github", AuthorizeURL: "https://github.com/login/oauth/authorize"}
	if err := registry.Register(first); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	err := registry.Register(Endpoint{Provider: "github", AuthorizeURL: "https://evil.example.com"})
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("Register() duplicate error = %v, want ErrAlreadyRegistered", err)
	}

	got, err := registry.Get("github")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.AuthorizeURL != first.AuthorizeURL {
		t.Errorf("registered endpoint was mutated: got %v", got.AuthorizeURL)
	}
}

func TestRegistry_Get_NotFound(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Get("unknown")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestEndpoint_LoginURL(t *testing.T) {
	e := Endpoint{
		Provider:     "gitlab",
		AuthorizeURL: "https://gitlab.com/oauth/authorize",
		RedirectURL:  "https://example.com/callback",
		ClientID:     "client_123",
		Scope:        "read_user",
		ResponseType: "code",
		State:        "state_456",
		ExtraParams:  map[string]string{"prompt": "consent"},
	}

	loginURL, err := e.LoginURL()
	if err != nil {
		t.Fatalf("LoginURL() failed: %v", err)
	}

	expectedParts := []string{
		"https://gitlab.com/oauth/authorize",
		"client_id=client_123",
		"response_type=code",
		"scope=read_user",
		"state=state_456",
		"prompt=consent",
	}
	for _, part := range expectedParts {
		if !strings.Contains(loginURL, part) {
			t.Errorf("URL missing expected part %q. Full URL: %s", part, loginURL)
		}
	}
}

func TestEndpoint_LoginURL_DefaultResponseType(t *testing.T) {
	e := Endpoint{
		Provider:     "github",
		AuthorizeURL: "https://github.com/login/oauth/authorize",
		RedirectURL:  "https://example.com/callback",
		ClientID:     "client_123",
	}

	loginURL, err := e.LoginURL()
	if err != nil {
		t.Fatalf("LoginURL() failed: %v", err)
	}
	if !strings.Contains(loginURL, "response_type=token") {
		t.Errorf("URL missing default response_type 'token'. Full URL: %s", loginURL)
	}
}

func TestRegistry_Providers(t *testing.T) {
	registry := NewRegistry()
	for _, name := range []string{"github", "gitlab"} {
		if err := registry.Register(Endpoint{Provider: name, AuthorizeURL: "https://example.com"}); err != nil {
			t.Fatalf("Register(%s) failed: %v", name, err)
		}
	}

	providers := registry.Providers()
	if len(providers) != 2 {
		t.Fatalf("Providers() returned %d names, want 2", len(providers))
	}
}
