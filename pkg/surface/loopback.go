// Package surface provides interactive surface implementations for the
// flow controller. The loopback surface is the native-process analog of a
// browser popup: it opens the system browser at the login URL and captures
// the provider's redirect on a local HTTP listener.
//
// Fragment payloads never reach an HTTP server, so the loopback surface
// suits the authorization-code flow; implicit grants need a surface that
// can observe the document URL directly.
package surface

import (
	"context"
	"fmt"
	"html"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/go-oauthkit/authflow/pkg/flow"

	"github.com/gin-gonic/gin"
)

const completionPage = `<!DOCTYPE html>
<html>
<head><title>%s</title></head>
<body><p>Authentication complete. You may close this window.</p></body>
</html>
`

// Loopback opens system-browser surfaces that capture the redirect on a
// local listener. One Loopback serves one redirect URL; construct one per
// endpoint whose redirect URI points at the loopback address.
type Loopback struct {
	redirectURL string
	openBrowser func(url string) error
}

var _ flow.Opener = (*Loopback)(nil)

// NewLoopback creates a Loopback opener for the given redirect URL, e.g.
// "http://127.0.0.1:8734/callback".
func NewLoopback(redirectURL string) *Loopback {
	return &Loopback{
		redirectURL: redirectURL,
		openBrowser: openBrowser,
	}
}

// Open starts the local listener, opens the system browser at the login
// URL, and returns a polling surface that reports the captured redirect.
func (l *Loopback) Open(ctx context.Context, name, loginURL string) (flow.Surface, error) {
	u, err := url.Parse(l.redirectURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redirect URL: %w", err)
	}

	listener, err := net.Listen("tcp", u.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", u.Host, err)
	}

	s := &loopbackSurface{
		name:    name,
		baseURL: u.Scheme + "://" + u.Host,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.NoRoute(s.capture)

	s.server = &http.Server{
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		err := s.server.Serve(listener)
		if err != nil && err != http.ErrServerClosed {
			s.fail(err)
		}
	}()

	if err := l.openBrowser(loginURL); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to open browser: %w", err)
	}
	return s, nil
}

// loopbackSurface is the live surface returned by Loopback.Open.
type loopbackSurface struct {
	name    string
	baseURL string
	server  *http.Server

	mu       sync.Mutex
	location string
	serveErr error
	closed   bool
}

var _ flow.PollingSurface = (*loopbackSurface)(nil)

// capture records the first request the browser lands on and serves the
// completion page. Later requests (favicon probes, reloads) keep the first
// captured location.
func (s *loopbackSurface) capture(c *gin.Context) {
	s.mu.Lock()
	if s.location == "" {
		s.location = s.baseURL + c.Request.URL.RequestURI()
	}
	s.mu.Unlock()

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, fmt.Sprintf(completionPage, html.EscapeString(s.name)))
}

// Location returns the captured redirect URL, or an empty string while the
// browser is still on the provider's pages.
func (s *loopbackSurface) Location() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.serveErr != nil {
		return "", s.serveErr
	}
	return s.location, nil
}

// Alive reports whether the listener is still serving.
func (s *loopbackSurface) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.serveErr == nil
}

// Close shuts the local listener down. Closing twice is a no-op.
func (s *loopbackSurface) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *loopbackSurface) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.serveErr == nil {
		s.serveErr = err
	}
}

// openBrowser launches the default system browser at the given URL.
func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
