package engine

import (
	"net/http"
	"time"
)

// Config holds the shared fetch and cache knobs, injected from main.
type Config struct {
	FetchTimeout         time.Duration
	NavigationTimeout    time.Duration
	MaxContentChars      int
	CacheTTL             time.Duration
	CacheMaxEntries      int
	CacheCleanupInterval time.Duration
	HTTPClient           *http.Client
}

var cfg = Config{
	FetchTimeout:      30 * time.Second,
	NavigationTimeout: 30 * time.Second,
	MaxContentChars:   20000,
	HTTPClient:        &http.Client{Timeout: 30 * time.Second},
}

// Cfg exposes the engine configuration for sub-packages.
var Cfg = &cfg

// Init installs c as the engine configuration. Zero fields keep their defaults.
func Init(c Config) {
	if c.FetchTimeout > 0 {
		cfg.FetchTimeout = c.FetchTimeout
	}
	if c.NavigationTimeout > 0 {
		cfg.NavigationTimeout = c.NavigationTimeout
	}
	if c.MaxContentChars > 0 {
		cfg.MaxContentChars = c.MaxContentChars
	}
	if c.HTTPClient != nil {
		cfg.HTTPClient = c.HTTPClient
	}
	cfg.CacheTTL = c.CacheTTL
	cfg.CacheMaxEntries = c.CacheMaxEntries
	cfg.CacheCleanupInterval = c.CacheCleanupInterval
}
