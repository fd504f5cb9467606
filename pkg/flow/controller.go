// Package flow implements the authentication flow controller: it decides
// whether a cached token is still usable, opens the configured interactive
// surface, extracts the result the provider delivered to the redirect URI,
// exchanges authorization codes for tokens, and persists the outcome.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-oauthkit/authflow/pkg/core"
	"github.com/go-oauthkit/authflow/pkg/endpoint"
	"github.com/go-oauthkit/authflow/pkg/redirect"
	"github.com/go-oauthkit/authflow/pkg/tokenstore"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Mode selects the interactive surface strategy of a controller.
type Mode int

const (
	// ModeDialog opens an interactive surface through the configured
	// Opener and waits for it to deliver a result.
	ModeDialog Mode = iota
	// ModeRedirect replaces the current page location with the login URL
	// and abandons the current execution.
	ModeRedirect
)

const (
	defaultPollInterval = 400 * time.Millisecond
	defaultTimeout      = 2 * time.Minute
	defaultHTTPTimeout  = 30 * time.Second
)

// Controller orchestrates authentication attempts: cache check, surface
// selection, surface lifecycle, result parsing, code exchange, and token
// persistence. Construct it with New; the zero value is not usable.
type Controller struct {
	registry     *endpoint.Registry
	store        tokenstore.Store
	mode         Mode
	opener       Opener
	navigator    Navigator
	httpClient   *http.Client
	logger       *slog.Logger
	pollInterval time.Duration
	timeout      time.Duration
	now          func() time.Time
	tracer       trace.Tracer

	mu       sync.Mutex
	inflight map[string]*attempt
}

// attempt is an in-flight authentication for one provider. Concurrent
// Authenticate calls for the same provider join it and share its outcome.
type attempt struct {
	done  chan struct{}
	token *core.Token
	err   error
}

// Option configures a Controller.
type Option func(*Controller)

// WithMode selects the surface strategy. The default is ModeDialog.
func WithMode(mode Mode) Option {
	return func(c *Controller) {
		c.mode = mode
	}
}

// WithOpener sets the surface opener used in dialog mode. The execution
// context (host add-in dialog vs. browser popup) is decided here, once,
// at construction time.
func WithOpener(opener Opener) Option {
	return func(c *Controller) {
		c.opener = opener
	}
}

// WithNavigator sets the navigator used in redirect mode.
func WithNavigator(navigator Navigator) Option {
	return func(c *Controller) {
		c.navigator = navigator
	}
}

// WithHTTPClient sets the HTTP client used for code exchange.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Controller) {
		c.httpClient = client
	}
}

// WithLogger sets the structured logger the controller reports through.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithPollInterval sets how often a polling surface is inspected.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Controller) {
		c.pollInterval = interval
	}
}

// WithTimeout bounds how long an attempt waits for the surface to deliver
// a result. Zero disables the bound; expiry rejects with KindTimeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Controller) {
		c.timeout = timeout
	}
}

// New creates a Controller over the given endpoint registry and token store.
func New(registry *endpoint.Registry, store tokenstore.Store, opts ...Option) *Controller {
	c := &Controller{
		registry:     registry,
		store:        store,
		mode:         ModeDialog,
		httpClient:   &http.Client{Timeout: defaultHTTPTimeout},
		logger:       slog.Default(),
		pollInterval: defaultPollInterval,
		timeout:      defaultTimeout,
		now:          time.Now,
		tracer:       otel.Tracer("github.com/go-oauthkit/authflow/pkg/flow"),
		inflight:     make(map[string]*attempt),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Authenticate returns a token for the provider. A cached, non-expired
// token is returned without opening a surface unless force is set; an
// expired cached token is logged and treated as forced re-authentication.
// At most one attempt per provider is in flight at a time: concurrent
// calls for the same provider join the running attempt and share its
// outcome.
func (c *Controller) Authenticate(ctx context.Context, provider string, force bool) (*core.Token, error) {
	c.mu.Lock()
	if running, ok := c.inflight[provider]; ok {
		c.mu.Unlock()
		select {
		case <-running.done:
			return running.token, running.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	a := &attempt{done: make(chan struct{})}
	c.inflight[provider] = a
	c.mu.Unlock()

	token, err := c.authenticate(ctx, provider, force)

	a.token, a.err = token, err
	c.mu.Lock()
	delete(c.inflight, provider)
	c.mu.Unlock()
	close(a.done)

	return token, err
}

func (c *Controller) authenticate(ctx context.Context, provider string, force bool) (*core.Token, error) {
	ctx, span := c.tracer.Start(ctx, "flow.Authenticate", trace.WithAttributes(
		attribute.String("oauth.provider", provider),
		attribute.Bool("oauth.force", force),
	))
	defer span.End()

	ep, err := c.registry.Get(provider)
	if err != nil {
		span.RecordError(err)
		return nil, newError(KindEndpointNotFound, "no endpoint registered for provider "+provider, err)
	}

	if cached, err := c.store.Get(ctx, provider); err == nil && cached != nil {
		switch {
		case cached.Valid(c.now()) && !force:
			span.SetAttributes(attribute.String("oauth.source", "cache"))
			return cached, nil
		case cached.Expired(c.now()):
			c.logger.Info("cached token expired, re-authenticating", "provider", provider)
		}
	}

	loginURL, err := ep.LoginURL()
	if err != nil {
		span.RecordError(err)
		return nil, newError(KindSurfaceFailure, "failed to build login URL for provider "+provider, err)
	}

	if c.mode == ModeRedirect {
		if c.navigator == nil {
			return nil, newError(KindSurfaceFailure, "redirect mode requires a navigator", nil)
		}
		if err := c.navigator.Navigate(loginURL); err != nil {
			span.RecordError(err)
			return nil, newError(KindSurfaceFailure, "failed to navigate to login URL", err)
		}
		span.SetAttributes(attribute.String("oauth.source", "redirect"))
		return nil, newError(KindRedirectInProgress,
			"page is navigating to the login URL for provider "+provider, nil)
	}

	token, err := c.runSurface(ctx, ep, loginURL)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("oauth.source", "surface"))
	return token, nil
}

// runSurface opens the interactive surface and waits for its result. The
// surface is closed before the function returns, on every path.
func (c *Controller) runSurface(ctx context.Context, ep endpoint.Endpoint, loginURL string) (*core.Token, error) {
	if c.opener == nil {
		return nil, newError(KindSurfaceFailure, "dialog mode requires a surface opener", nil)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	surface, err := c.opener.Open(ctx, strings.ToUpper(ep.Provider), loginURL)
	if err != nil {
		return nil, newError(KindSurfaceFailure, "failed to open surface for provider "+ep.Provider, err)
	}
	defer func() {
		if err := surface.Close(); err != nil {
			c.logger.Warn("failed to close surface", "provider", ep.Provider, "error", err)
		}
	}()

	var result redirect.Result
	switch s := surface.(type) {
	case MessageSurface:
		result, err = c.awaitMessage(ctx, s)
	case PollingSurface:
		result, err = c.pollLocation(ctx, s, ep.RedirectURL)
	default:
		return nil, newError(KindSurfaceFailure, "surface supports neither messages nor polling", nil)
	}
	if err != nil {
		return nil, err
	}

	return c.handleResult(ctx, ep, result)
}

// awaitMessage waits for the single message a dialog surface delivers.
// The subscription ends on the first message; closing happens in the
// caller's deferred cleanup.
func (c *Controller) awaitMessage(ctx context.Context, s MessageSurface) (redirect.Result, error) {
	select {
	case message, ok := <-s.Messages():
		if !ok {
			return redirect.Result{}, newError(KindSurfaceFailure,
				"dialog closed before delivering a result", nil)
		}
		params, err := decodeMessage(message)
		if err != nil {
			return redirect.Result{}, newError(KindNoTokenParsed,
				"failed to decode dialog message", err)
		}
		return redirect.Classify(params), nil
	case <-ctx.Done():
		return redirect.Result{}, c.waitError(ctx)
	}
}

// pollLocation inspects a popup-style surface at the configured interval
// until it reaches the redirect URI. Location errors are expected while
// the surface is on the provider's domain and are tolerated as long as
// the surface stays alive.
func (c *Controller) pollLocation(ctx context.Context, s PollingSurface, redirectURL string) (redirect.Result, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			location, err := s.Location()
			if err != nil {
				if !s.Alive() {
					return redirect.Result{}, newError(KindSurfaceFailure,
						"surface was closed before reaching the redirect URI", err)
				}
				continue
			}
			if location == "" || !strings.HasPrefix(location, redirectURL) {
				continue
			}
			result, err := redirect.Parse(location)
			if err != nil {
				return redirect.Result{}, newError(KindNoTokenParsed,
					"failed to parse redirect URL", err)
			}
			return result, nil
		case <-ctx.Done():
			return redirect.Result{}, c.waitError(ctx)
		}
	}
}

// waitError converts context expiry into the flow error taxonomy.
func (c *Controller) waitError(ctx context.Context) error {
	if ctx.Err() == context.DeadlineExceeded {
		return newError(KindTimeout, "no authentication result arrived in time", ctx.Err())
	}
	return newError(KindSurfaceFailure, "authentication cancelled", ctx.Err())
}

// handleResult is the shared result-handling step: tokens are persisted,
// codes are exchanged, provider errors and empty payloads are rejected.
func (c *Controller) handleResult(ctx context.Context, ep endpoint.Endpoint, result redirect.Result) (*core.Token, error) {
	switch result.Kind {
	case redirect.KindToken:
		if err := c.store.Add(ctx, ep.Provider, result.Token); err != nil {
			return nil, fmt.Errorf("failed to persist token for provider %s: %w", ep.Provider, err)
		}
		c.logger.Info("token obtained", "provider", ep.Provider, "grant", "implicit")
		return result.Token, nil
	case redirect.KindCode:
		data := make(map[string]any, len(result.Code))
		for key, value := range result.Code {
			data[key] = value
		}
		return c.exchange(ctx, ep, data, nil)
	case redirect.KindError:
		return nil, newError(KindProviderError, result.Error, nil)
	default:
		return nil, newError(KindNoTokenParsed, "redirect payload carried no token, code, or error", nil)
	}
}
