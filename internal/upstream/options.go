package upstream

import (
	"net/http"
	"time"
)

// Options configures the upstream client.
//
// Defaults:
// - HTTPClient:   a dedicated *http.Client
// - Timeout:      10s per upstream call (0 disables it)
// - Cache:        disabled
// - MaxCacheCost: 64 MiB of response bodies
//
// Only GET requests are cached and coalesced.
type Options struct {
	HTTPClient *http.Client
	Timeout    time.Duration

	CacheEnabled    bool
	CacheTTL        time.Duration
	CacheKeyHeaders []string
	MaxCacheCost    int64
}

// Option mutates Options
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		HTTPClient:   &http.Client{},
		Timeout:      10 * time.Second,
		MaxCacheCost: 64 << 20,
	}
}

func WithHTTPClient(c *http.Client) Option { return func(o *Options) { o.HTTPClient = c } }
func WithTimeout(d time.Duration) Option   { return func(o *Options) { o.Timeout = d } }
func WithMaxCacheCost(n int64) Option      { return func(o *Options) { o.MaxCacheCost = n } }

// WithCache enables response caching. A ttl of 0 keeps entries until they
// are evicted.
func WithCache(enabled bool, ttl time.Duration) Option {
	return func(o *Options) {
		o.CacheEnabled = enabled
		o.CacheTTL = ttl
	}
}

// WithCacheKeyHeaders makes the listed request headers part of the cache and
// coalescing key.
func WithCacheKeyHeaders(names ...string) Option {
	return func(o *Options) { o.CacheKeyHeaders = names }
}
