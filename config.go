package sanitypress

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/labstack/gommon/log"

	"github.com/eringen/sanitypress/content"
	"github.com/eringen/sanitypress/sanity"
)

// SiteConfig holds all configuration for a sanitypress site. LoadConfig fills
// it from the environment.
type SiteConfig struct {
	Name        string `env:"SITE_NAME"`        // Site name (default "Blog")
	URL         string `env:"SITE_URL"`         // Canonical URL (default "http://localhost:3000")
	Description string `env:"SITE_DESCRIPTION"` // Site description for RSS and meta tags

	Addr     string `env:"ADDR"`      // Listen address (default ":3000")
	Env      string `env:"ENV"`       // "production" turns on CDN reads by default
	LogLevel string `env:"LOG_LEVEL"` // debug, info, warn, error, off (default "info")
	Timezone string `env:"TIMEZONE"`  // IANA zone for displayed timestamps (default "UTC")

	SessionSecret string `env:"SESSION_SECRET"` // Required: session encryption secret
	CookieSecure  bool   `env:"COOKIE_SECURE"`  // Set true for HTTPS

	// CacheDBPath enables the SQLite page snapshot when set.
	CacheDBPath string `env:"CACHE_DB_PATH"`

	SanityProjectID  string `env:"SANITY_PROJECT_ID"` // Required
	SanityDataset    string `env:"SANITY_DATASET"`    // default "production"
	SanityAPIVersion string `env:"SANITY_API_VERSION"`
	SanityUseCDN     string `env:"SANITY_USE_CDN"` // empty means Env == "production"
	SanityToken      string `env:"SANITY_TOKEN"`   // write token, needed for comments
	SanityAPIHost    string `env:"SANITY_API_HOST"`

	CommentsPerMinute int // per-IP comment submissions (default 5)
}

// LoadConfig reads SiteConfig from the process environment and applies
// defaults.
func LoadConfig() (SiteConfig, error) {
	var cfg SiteConfig
	if err := env.Parse(&cfg); err != nil {
		return SiteConfig{}, fmt.Errorf("sanitypress: parse env: %w", err)
	}
	cfg.setDefaults()
	return cfg, nil
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.Env == "" {
		c.Env = "development"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.SanityDataset == "" {
		c.SanityDataset = "production"
	}
	if c.SanityAPIVersion == "" {
		c.SanityAPIVersion = sanity.DefaultAPIVersion
	}
	if c.CommentsPerMinute == 0 {
		c.CommentsPerMinute = 5
	}
}

// Production reports whether ENV is "production".
func (c SiteConfig) Production() bool {
	return strings.EqualFold(c.Env, "production")
}

// Sanity builds the CMS client configuration.
func (c SiteConfig) Sanity() (sanity.Config, error) {
	useCDN := c.Production()
	if c.SanityUseCDN != "" {
		v, err := strconv.ParseBool(c.SanityUseCDN)
		if err != nil {
			return sanity.Config{}, fmt.Errorf("SANITY_USE_CDN: %w", err)
		}
		useCDN = v
	}
	cfg := sanity.Config{
		ProjectID:  c.SanityProjectID,
		Dataset:    c.SanityDataset,
		APIVersion: c.SanityAPIVersion,
		UseCDN:     useCDN,
		Token:      c.SanityToken,
		APIHost:    c.SanityAPIHost,
	}
	if err := cfg.Validate(); err != nil {
		return sanity.Config{}, err
	}
	return cfg, nil
}

// Location resolves Timezone.
func (c SiteConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}
	return loc, nil
}

// Level maps LogLevel onto the echo logger levels.
func (c SiteConfig) Level() log.Lvl {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithContentSource replaces the CMS source built from SiteConfig.
func WithContentSource(src *content.Source) Option {
	return func(a *App) {
		a.Content = src
	}
}

// WithDetailPage overrides the caching declaration of /post/{slug}.
func WithDetailPage(p DetailPage) Option {
	return func(a *App) {
		a.detail = p
	}
}

// WithClock sets the time source of the page cache.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}
