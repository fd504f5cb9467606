// Package main runs a small local service that drives interactive OAuth
// authentication: it registers a provider endpoint, exposes routes to
// trigger the flow and inspect cached tokens, and opens the system browser
// through the loopback surface.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-oauthkit/authflow/pkg/core"
	"github.com/go-oauthkit/authflow/pkg/endpoint"
	"github.com/go-oauthkit/authflow/pkg/flow"
	"github.com/go-oauthkit/authflow/pkg/logger"
	"github.com/go-oauthkit/authflow/pkg/surface"
	"github.com/go-oauthkit/authflow/pkg/tokenstore"

	"github.com/appleboy/graceful"
	sloggin "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	githubAuthorizeURL  = "https://github.com/login/oauth/authorize"
	githubTokenURL      = "https://github.com/login/oauth/access_token"
	gitlabAuthorizePath = "/oauth/authorize"
	gitlabTokenPath     = "/oauth/token"
)

func main() {
	var addr string
	var providerName string
	var clientID string
	var gitlabHost string
	var authorizeURL string
	var tokenURL string
	var redirectURL string
	var scope string
	var logLevel string
	var storeType string
	var keyringService string
	var redisAddr string
	var redisPassword string
	var redisDB int
	var authTimeout time.Duration
	flag.StringVar(&addr, "addr", ":8095", "address to listen on")
	flag.StringVar(&providerName, "provider", "github", "OAuth provider: github, gitlab, or custom")
	flag.StringVar(&clientID, "client_id", "", "OAuth 2.0 Client ID")
	flag.StringVar(&gitlabHost, "gitlab-host", "https://gitlab.com", "GitLab host")
	flag.StringVar(&authorizeURL, "authorize-url", "", "Authorize URL (only used when provider=custom)")
	flag.StringVar(&tokenURL, "token-url", "", "Token URL (only used when provider=custom)")
	flag.StringVar(&redirectURL, "redirect-url", "http://127.0.0.1:8734/callback", "Redirect URL captured by the loopback surface")
	flag.StringVar(&scope, "scope", "", "OAuth scopes, space separated")
	flag.StringVar(&logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR). Defaults to DEBUG in development, INFO in production")
	flag.StringVar(&storeType, "store", "memory", "Store type: memory, redis, or keyring")
	flag.StringVar(&keyringService, "keyring-service", tokenstore.DefaultKeyringService, "Keychain service name (only used when store=keyring)")
	flag.StringVar(&redisAddr, "redis-addr", "localhost:6379", "Redis address (only used when store=redis)")
	flag.StringVar(&redisPassword, "redis-password", "", "Redis password (only used when store=redis)")
	flag.IntVar(&redisDB, "redis-db", 0, "Redis database (only used when store=redis)")
	flag.DurationVar(&authTimeout, "auth-timeout", 2*time.Minute, "How long to wait for the browser to deliver a result")
	flag.Parse()

	// Initialize logger with the specified log level
	logger.NewWithLevel(logLevel)

	if clientID == "" {
		slog.Error("Client ID must be provided")
		os.Exit(1)
	}

	registry := endpoint.NewRegistry()
	ep := endpoint.Endpoint{
		Provider:     providerName,
		RedirectURL:  redirectURL,
		ClientID:     clientID,
		Scope:        scope,
		ResponseType: "code",
		State:        uuid.NewString(),
	}
	switch providerName {
	case "github":
		ep.AuthorizeURL = githubAuthorizeURL
		ep.TokenURL = githubTokenURL
		slog.Info("Using GitHub OAuth provider")
	case "gitlab":
		ep.AuthorizeURL = gitlabHost + gitlabAuthorizePath
		ep.TokenURL = gitlabHost + gitlabTokenPath
		slog.Info("Using GitLab OAuth provider", "host", gitlabHost)
	case "custom":
		ep.AuthorizeURL = authorizeURL
		ep.TokenURL = tokenURL
		if ep.AuthorizeURL == "" {
			slog.Error("authorize-url must be provided for a custom provider")
			os.Exit(1)
		}
	default:
		slog.Error("Invalid provider specified. Use 'github', 'gitlab', or 'custom'.")
		os.Exit(1)
	}
	if err := registry.Register(ep); err != nil {
		slog.Error("Failed to register endpoint", "provider", providerName, "error", err)
		os.Exit(1)
	}

	// Initialize store using factory pattern
	storeConfig := tokenstore.Config{
		Type:           tokenstore.ParseStoreType(storeType),
		KeyringService: keyringService,
		Redis: tokenstore.RedisOptions{
			Addr:     redisAddr,
			Password: redisPassword,
			DB:       redisDB,
		},
	}
	store, err := tokenstore.NewStore(storeConfig)
	if err != nil {
		slog.Error("Failed to create store", "type", storeType, "error", err)
		os.Exit(1)
	}
	switch storeConfig.Type {
	case tokenstore.StoreTypeMemory:
		slog.Info("Using in-memory store")
	case tokenstore.StoreTypeRedis:
		slog.Info("Using Redis store", "addr", redisAddr, "db", redisDB)
		if redisStore, ok := store.(*tokenstore.RedisStore); ok {
			defer redisStore.Close()
		}
	case tokenstore.StoreTypeKeyring:
		slog.Info("Using keyring store", "service", keyringService)
	}

	controller := flow.New(registry, store,
		flow.WithOpener(surface.NewLoopback(redirectURL)),
		flow.WithTimeout(authTimeout),
	)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(sloggin.SetLogger())
	router.Use(gin.Recovery())

	router.GET("/providers", func(c *gin.Context) {
		type status struct {
			Provider string `json:"provider"`
			Cached   bool   `json:"cached"`
			Expired  bool   `json:"expired"`
		}
		var out []status
		for _, name := range registry.Providers() {
			s := status{Provider: name}
			if token, err := store.Get(c.Request.Context(), name); err == nil {
				s.Cached = true
				s.Expired = token.Expired(time.Now())
			}
			out = append(out, s)
		}
		c.JSON(http.StatusOK, out)
	})

	router.POST("/auth/:provider", func(c *gin.Context) {
		ctx := core.WithRequestID(c.Request.Context())
		force := c.Query("force") == "1"
		token, err := controller.Authenticate(ctx, c.Param("provider"), force)
		if err != nil {
			kind, _ := flow.ErrKind(err)
			code := http.StatusBadGateway
			if kind == flow.KindEndpointNotFound {
				code = http.StatusNotFound
			}
			c.JSON(code, gin.H{"error": err.Error(), "kind": string(kind)})
			return
		}
		c.JSON(http.StatusOK, token)
	})

	router.DELETE("/auth/:provider", func(c *gin.Context) {
		err := store.Remove(c.Request.Context(), c.Param("provider"))
		if err != nil {
			if errors.Is(err, tokenstore.ErrTokenNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		// The auth route blocks until the browser delivers a result, so the
		// write timeout must outlast the authentication timeout.
		WriteTimeout: authTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	m := graceful.NewManager()
	m.AddRunningJob(func(ctx context.Context) error {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	m.AddShutdownJob(func() error {
		slog.Info("Shutdown signal received, shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	})

	<-m.Done()
	slog.Info("Server shutdown gracefully")
}
