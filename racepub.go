// Package racepub publishes race reports to a GitHub repository.
// An admin posts an HTML report plus its metadata; racepub commits
// public/gare/<slug>.html and gare-sorgenti/<slug>.json through the GitHub
// Contents API and serves an index of the published races.
//
// The static site built from those files and the admin form that produces
// the payload live elsewhere.
package racepub

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/eringen/racepub/github"
)

// App is the racepub HTTP service. It wires together the content store,
// publisher, index cache, handlers and middleware.
type App struct {
	Config    Config
	Echo      *echo.Echo
	Publisher *Publisher
	Index     *IndexCache
	Logger    *slog.Logger

	store      ContentStore
	httpClient *http.Client
	limiter    *AuthLimiter
}

// New creates an App with the given configuration. Missing GitHub
// credentials are not fatal here: the publish and index endpoints report
// them per request.
func New(cfg Config, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.Logger == nil {
		a.Logger = NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	}
	if a.httpClient == nil {
		a.httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	if a.store == nil {
		a.store = github.NewClient(cfg.GitHubOwner, cfg.GitHubRepo, cfg.GitHubToken,
			github.WithBaseURL(cfg.GitHubAPIURL),
			github.WithHTTPClient(a.httpClient),
		)
	}
	if a.Config.SessionSecret == "" {
		a.Logger.Warn("SESSION_SECRET not set, admin sessions will not survive a restart")
		a.Config.SessionSecret = uuid.NewString() + uuid.NewString()
	}

	a.Publisher = NewPublisher(a.Config, a.store, a.Logger)
	a.Index = NewIndexCache(a.loadIndex, a.Config.IndexCacheTTL)
	a.limiter = NewAuthLimiter(5, time.Minute)

	a.Echo.HideBanner = true
	a.Echo.HidePort = true
	a.setupMiddleware()
	a.setupRoutes()
	return a
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Any("/api/pubblica", a.handlePublish)
	e.GET("/api/gare", a.handleIndex)
	e.POST("/api/login", a.handleLogin)
	e.POST("/api/logout", a.handleLogout)
	e.GET("/healthz", handleHealth)
}

func (a *App) loadIndex(ctx context.Context) ([]IndexEntry, error) {
	if !a.Config.HasGitHub() {
		return nil, errConfigMissing("GitHub")
	}
	entries, err := BuildIndex(ctx, a.store, a.Logger)
	if err != nil {
		return nil, wrapStoreError(err)
	}
	return entries, nil
}

// Handler returns the app as an http.Handler, for serverless adapters and tests.
func (a *App) Handler() http.Handler {
	return a.Echo
}

// Start listens on Config.Addr and blocks until the server stops.
func (a *App) Start() error {
	a.Logger.Info("racepub listening", "addr", a.Config.Addr,
		"repo", a.Config.GitHubOwner+"/"+a.Config.GitHubRepo, "branch", PublishBranch)
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

// Close releases background resources. Call this when the app is shutting down.
func (a *App) Close() error {
	a.limiter.Stop()
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
