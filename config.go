package racepub

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for a racepub service.
type Config struct {
	Addr string `yaml:"addr"` // Listen address (default ":8788")

	GitHubOwner  string `yaml:"github_owner"`   // Repository owner, e.g. "mariorossi"
	GitHubRepo   string `yaml:"github_repo"`    // Repository name, e.g. "gare-archivio"
	GitHubToken  string `yaml:"github_token"`   // Token with contents:write on the repository
	GitHubAPIURL string `yaml:"github_api_url"` // API root (default https://api.github.com)

	AdminPassword string `yaml:"admin_password"` // Required to publish
	SessionSecret string `yaml:"session_secret"` // Cookie session key (random when empty)
	CookieSecure  bool   `yaml:"cookie_secure"`  // Set true behind HTTPS

	MaxBodySize   string        `yaml:"max_body_size"`   // Echo body limit (default "10M")
	HTTPTimeout   time.Duration `yaml:"http_timeout"`    // Outbound GitHub timeout (default 30s)
	IndexCacheTTL time.Duration `yaml:"index_cache_ttl"` // Race index TTL (default 5min)

	LogLevel  string `yaml:"log_level"`  // debug, info, warn, error (default info)
	LogFormat string `yaml:"log_format"` // text or json (default text)
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = ":8788"
	}
	if c.GitHubAPIURL == "" {
		c.GitHubAPIURL = "https://api.github.com"
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "10M"
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = 30 * time.Second
	}
	if c.IndexCacheTTL == 0 {
		c.IndexCacheTTL = 5 * time.Minute
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
}

// HasGitHub reports whether owner, repository and token are all set.
func (c Config) HasGitHub() bool {
	return c.GitHubOwner != "" && c.GitHubRepo != "" && c.GitHubToken != ""
}

// LoadConfig reads the YAML file at path (skipped when path is empty) and
// then applies environment overrides.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("racepub: read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("racepub: parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	cfg.setDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Addr, "RACEPUB_ADDR")
	setString(&c.GitHubOwner, "GITHUB_OWNER")
	setString(&c.GitHubRepo, "GITHUB_REPO")
	setString(&c.GitHubToken, "GITHUB_TOKEN")
	setString(&c.GitHubAPIURL, "GITHUB_API_URL")
	setString(&c.AdminPassword, "ADMIN_PASSWORD")
	setString(&c.SessionSecret, "SESSION_SECRET")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("racepub: COOKIE_SECURE: %w", err)
		}
		c.CookieSecure = b
	}
	return nil
}

func setString(dst *string, key string) {
	*dst = EnvOr(key, *dst)
}

// Option configures additional App behavior.
type Option func(*App)

// WithStore replaces the GitHub contents client, e.g. with a fake in tests.
func WithStore(s ContentStore) Option {
	return func(a *App) {
		a.store = s
	}
}

// WithLogger sets the logger used by the app and its request logging.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// WithHTTPClient sets the http.Client used to reach GitHub.
func WithHTTPClient(hc *http.Client) Option {
	return func(a *App) {
		a.httpClient = hc
	}
}
