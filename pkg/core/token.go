package core

import (
	"strconv"
	"time"

	"golang.org/x/oauth2"
)

// Token represents a generic OAuth token obtained from a provider, either
// directly through an implicit grant or via a code exchange.
type Token struct {
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"` // Optional, may not be present in all responses
	TokenType    string    `json:"token_type,omitempty"`    // e.g., "Bearer"
	ExpiresIn    int64     `json:"expires_in,omitempty"`    // Duration in seconds
	Scope        string    `json:"scope,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`

	// Extra carries provider-defined fields that do not map onto the
	// standard token shape, such as the code of a provider whose code
	// step already returns usable token data.
	Extra map[string]string `json:"extra,omitempty"`
}

// TokenFromParams builds a Token from a flat parameter set, typically the
// merged query and fragment parameters of a redirect URL. A relative
// expires_in is normalized into an absolute expires_at against now.
// Unrecognized parameters are kept in Extra.
func TokenFromParams(params map[string]string, now time.Time) *Token {
	t := &Token{}
	for key, value := range params {
		switch key {
		case "access_token":
			t.AccessToken = value
		case "refresh_token":
			t.RefreshToken = value
		case "token_type":
			t.TokenType = value
		case "scope":
			t.Scope = value
		case "expires_in":
			if seconds, err := strconv.ParseInt(value, 10, 64); err == nil {
				t.ExpiresIn = seconds
			}
		default:
			if t.Extra == nil {
				t.Extra = make(map[string]string)
			}
			t.Extra[key] = value
		}
	}
	t.Normalize(now)
	return t
}

// Normalize fills ExpiresAt from a relative ExpiresIn when no absolute
// expiry is set yet. Calling it again is a no-op.
func (t *Token) Normalize(now time.Time) {
	if t.ExpiresAt.IsZero() && t.ExpiresIn > 0 {
		t.ExpiresAt = now.Add(time.Duration(t.ExpiresIn) * time.Second)
	}
}

// Expired reports whether the token's expiry has passed. Tokens without an
// absolute expiry never expire.
func (t *Token) Expired(now time.Time) bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(t.ExpiresAt)
}

// Valid reports whether the token carries an access token that has not expired.
func (t *Token) Valid(now time.Time) bool {
	return t != nil && t.AccessToken != "" && !t.Expired(now)
}

// OAuth2 converts the token into an *oauth2.Token so callers can plug it
// into oauth2.NewClient and friends.
func (t *Token) OAuth2() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		Expiry:       t.ExpiresAt,
	}
}
