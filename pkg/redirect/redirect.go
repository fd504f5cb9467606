// Package redirect extracts authentication results from redirect URLs.
//
// Providers deliver their outcome by navigating the interactive surface to
// the registered redirect URI with the payload encoded in the URL's query
// or fragment. Parse flattens both into one parameter set and classifies
// it into a tagged Result.
package redirect

import (
	"fmt"
	"net/url"
	"time"

	"github.com/go-oauthkit/authflow/pkg/core"
)

// Kind discriminates the variants of a parsed redirect result.
type Kind int

const (
	// KindNone means the URL carried no recognizable payload, e.g. a popup
	// that has not reached the redirect target yet.
	KindNone Kind = iota
	// KindToken means the URL carried an access token (implicit grant).
	KindToken
	// KindCode means the URL carried an authorization code to be exchanged.
	KindCode
	// KindError means the provider returned an explicit error payload.
	KindError
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	switch k {
	case KindToken:
		return "token"
	case KindCode:
		return "code"
	case KindError:
		return "error"
	default:
		return "none"
	}
}

// Result is the outcome extracted from a redirect URL. Exactly one variant
// is populated, selected by Kind.
type Result struct {
	Kind Kind
	// Token is set when Kind is KindToken.
	Token *core.Token
	// Code is set when Kind is KindCode and holds the full parameter set,
	// ready to be posted to the token endpoint.
	Code map[string]string
	// Error is set when Kind is KindError.
	Error string
	// Params holds the merged query and fragment parameters for all kinds.
	Params map[string]string
}

// Parse extracts the authentication result carried by a URL. Query and
// fragment parameters are merged into a single flat mapping; on duplicate
// keys the fragment wins, matching the precedence providers use for
// implicit grants.
func Parse(rawURL string) (Result, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Result{}, fmt.Errorf("failed to parse redirect URL: %w", err)
	}

	params := make(map[string]string)
	for key, values := range u.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	if u.Fragment != "" {
		fragment, err := url.ParseQuery(u.Fragment)
		if err == nil {
			for key, values := range fragment {
				if len(values) > 0 {
					params[key] = values[0]
				}
			}
		}
	}

	return Classify(params), nil
}

// Classify turns a flat parameter set into a tagged Result. It is used by
// Parse for URLs and by the dialog message path, where the payload arrives
// already flattened.
func Classify(params map[string]string) Result {
	switch {
	case params["access_token"] != "":
		return Result{
			Kind:   KindToken,
			Token:  core.TokenFromParams(params, time.Now()),
			Params: params,
		}
	case params["code"] != "":
		return Result{
			Kind:   KindCode,
			Code:   params,
			Params: params,
		}
	case params["error"] != "":
		return Result{
			Kind:   KindError,
			Error:  params["error"],
			Params: params,
		}
	default:
		return Result{Kind: KindNone, Params: params}
	}
}
