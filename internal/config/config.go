// Package config provides configuration loading and management for cartsync.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stacklok/cartsync/internal/sites"
	"github.com/stacklok/cartsync/internal/telemetry"
)

const (
	// BackendHTTP stores carts on the remote shopping cart API
	BackendHTTP = "http"

	// BackendMemory keeps carts in process
	BackendMemory = "memory"
)

const (
	// DefaultPollInterval is how often the bound cart is fetched
	DefaultPollInterval = 30 * time.Second

	// DefaultTimeout is the per-request timeout for the cart API
	DefaultTimeout = 10 * time.Second

	// DefaultMaxTries is how many attempts a cart API request gets
	DefaultMaxTries = 3
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks; this also cleans the path.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// CartAPI selects and configures the cart backend
	CartAPI CartAPIConfig `yaml:"cartApi"`

	// Sync configures how often the bound cart is polled
	Sync *SyncConfig `yaml:"sync,omitempty"`

	// Catalog points at the product catalog used to fill in cart items
	Catalog *CatalogConfig `yaml:"catalog,omitempty"`

	// Sites is the list of sites a cart can be bound to
	Sites []sites.Site `yaml:"sites,omitempty"`

	// SelectedSite is the ID of the site selected at startup; 0 means none
	SelectedSite int64 `yaml:"selectedSite,omitempty"`

	// Telemetry configures OpenTelemetry tracing and metrics
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// CartAPIConfig defines the cart backend
type CartAPIConfig struct {
	// Backend is "http" or "memory". Defaults to "http" when an endpoint is
	// set and "memory" otherwise.
	Backend string `yaml:"backend,omitempty"`

	// Endpoint is the base API URL; carts live under {endpoint}/me/shopping-cart
	// Example: "https://public-api.example.com/rest/v1.1"
	Endpoint string `yaml:"endpoint,omitempty"`

	// Timeout is the per-request timeout (e.g., "10s")
	Timeout string `yaml:"timeout,omitempty"`

	// MaxTries bounds the attempts for a single request, including the first
	MaxTries int `yaml:"maxTries,omitempty"`
}

// SyncConfig defines synchronization settings
type SyncConfig struct {
	PollInterval string `yaml:"pollInterval"`
}

// CatalogConfig defines the product catalog location
type CatalogConfig struct {
	// Path is the path to the catalog YAML file
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is given: an in-memory
// cart backend, no sites and the default poll interval.
func Default() *Config {
	return &Config{
		CartAPI: CartAPIConfig{Backend: BackendMemory},
		Sites:   []sites.Site{},
	}
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes and validates a YAML configuration document
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetBackend returns the cart backend, inferring it from the endpoint when unset
func (c *CartAPIConfig) GetBackend() string {
	if c.Backend != "" {
		return c.Backend
	}
	if c.Endpoint != "" {
		return BackendHTTP
	}
	return BackendMemory
}

// GetTimeout returns the request timeout, using the default if unset or invalid
func (c *CartAPIConfig) GetTimeout() time.Duration {
	if d, err := time.ParseDuration(c.Timeout); err == nil && d > 0 {
		return d
	}
	return DefaultTimeout
}

// GetMaxTries returns the attempt limit, using the default if unset
func (c *CartAPIConfig) GetMaxTries() uint {
	if c.MaxTries <= 0 {
		return DefaultMaxTries
	}
	return uint(c.MaxTries)
}

// GetPollInterval returns the poll interval, using the default if unset
func (c *Config) GetPollInterval() time.Duration {
	if c.Sync == nil {
		return DefaultPollInterval
	}
	if d, err := time.ParseDuration(c.Sync.PollInterval); err == nil && d > 0 {
		return d
	}
	return DefaultPollInterval
}

// GetCatalogPath returns the catalog path, or "" when no catalog is configured
func (c *Config) GetCatalogPath() string {
	if c.Catalog == nil {
		return ""
	}
	return c.Catalog.Path
}

// Validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateCartAPI(&c.CartAPI); err != nil {
		return err
	}

	if c.Sync != nil {
		d, err := time.ParseDuration(c.Sync.PollInterval)
		if err != nil {
			return fmt.Errorf("sync.pollInterval must be a valid duration (e.g., '30s', '1m'): %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("sync.pollInterval must be positive, got %s", c.Sync.PollInterval)
		}
	}

	if c.Catalog != nil && c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path is required when catalog is set")
	}

	if err := c.validateSites(); err != nil {
		return err
	}

	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	return nil
}

// validateCartAPI validates the cart backend configuration
func validateCartAPI(api *CartAPIConfig) error {
	switch api.GetBackend() {
	case BackendMemory:
	case BackendHTTP:
		if api.Endpoint == "" {
			return fmt.Errorf("cartApi.endpoint is required when backend is %s", BackendHTTP)
		}
		u, err := url.Parse(api.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("cartApi.endpoint must be an absolute http(s) URL, got %q", api.Endpoint)
		}
	default:
		return fmt.Errorf("cartApi.backend must be %s or %s, got %s", BackendHTTP, BackendMemory, api.Backend)
	}

	if api.Timeout != "" {
		if _, err := time.ParseDuration(api.Timeout); err != nil {
			return fmt.Errorf("cartApi.timeout must be a valid duration (e.g., '10s'): %w", err)
		}
	}

	if api.MaxTries < 0 {
		return fmt.Errorf("cartApi.maxTries must not be negative, got %d", api.MaxTries)
	}

	return nil
}

// validateSites checks site IDs and the startup selection
func (c *Config) validateSites() error {
	ids := make(map[int64]bool, len(c.Sites))
	for i, site := range c.Sites {
		if site.ID <= 0 {
			return fmt.Errorf("sites[%d]: id must be positive", i)
		}
		if ids[site.ID] {
			return fmt.Errorf("sites[%d]: duplicate site id %d", i, site.ID)
		}
		ids[site.ID] = true
	}

	if c.SelectedSite != 0 && !ids[c.SelectedSite] {
		return fmt.Errorf("selectedSite %d is not in sites", c.SelectedSite)
	}

	return nil
}
