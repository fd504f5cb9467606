package flow

import (
	"context"

	"golang.org/x/oauth2"
)

// tokenSource adapts a Controller to oauth2.TokenSource for one provider.
type tokenSource struct {
	ctx        context.Context
	controller *Controller
	provider   string
}

// TokenSource returns an oauth2.TokenSource backed by the controller, so
// callers can build an authenticated *http.Client:
//
//	client := oauth2.NewClient(ctx, controller.TokenSource(ctx, "github"))
//
// Token acquisition goes through Authenticate, so cached tokens are reused
// and the interactive surface opens only when needed.
func (c *Controller) TokenSource(ctx context.Context, provider string) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, controller: c, provider: provider}
}

// Token implements oauth2.TokenSource.
func (ts *tokenSource) Token() (*oauth2.Token, error) {
	token, err := ts.controller.Authenticate(ts.ctx, ts.provider, false)
	if err != nil {
		return nil, err
	}
	return token.OAuth2(), nil
}
