// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load layers file and env on top.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"fmt"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// MongoURI and MongoDatabase locate the collection, catalog and price stores.
	MongoURI      string `koanf:"mongo_uri"`
	MongoDatabase string `koanf:"mongo_database"`

	// RedisURL enables the shared response cache. Empty means in-process cache.
	RedisURL string `koanf:"redis_url"`

	// S3 compatible object storage for rendered images.
	S3Endpoint      string `koanf:"s3_endpoint"`
	S3AccessKey     string `koanf:"s3_access_key"`
	S3SecretKey     string `koanf:"s3_secret_key"`
	S3Bucket        string `koanf:"s3_bucket"`
	S3UseSSL        bool   `koanf:"s3_use_ssl"`
	S3PublicBaseURL string `koanf:"s3_public_base_url"`

	// CacheSchemaVersion is embedded in every cache key; bump it to invalidate.
	CacheSchemaVersion string `koanf:"cache_schema_version"`

	PageTTLSeconds      int `koanf:"page_ttl_seconds"`
	AggregateTTLSeconds int `koanf:"aggregate_ttl_seconds"`

	DefaultPageLimit int `koanf:"default_page_limit"`
	MaxPageLimit     int `koanf:"max_page_limit"`

	// ArtifactTopN is the number of rows drawn on a leaderboard image.
	ArtifactTopN int `koanf:"artifact_top_n"`

	// UpstreamTimeoutMS bounds each catalog and price lookup.
	UpstreamTimeoutMS int `koanf:"upstream_timeout_ms"`

	CacheWriteQueueSize int `koanf:"cache_write_queue_size"`
	CacheWriteWorkers   int `koanf:"cache_write_workers"`

	RenderRatePerSecond float64 `koanf:"render_rate_per_second"`
	RenderBurst         int     `koanf:"render_burst"`
	RenderWidth         int     `koanf:"render_width"`
	RenderRowHeight     int     `koanf:"render_row_height"`
	RenderFontPath      string  `koanf:"render_font_path"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		MongoURI:            "mongodb://localhost:27017",
		MongoDatabase:       "weekboard",
		S3Bucket:            "weekboard-renders",
		CacheSchemaVersion:  "v1",
		PageTTLSeconds:      3600,
		AggregateTTLSeconds: 86400,
		DefaultPageLimit:    20,
		MaxPageLimit:        50,
		ArtifactTopN:        10,
		UpstreamTimeoutMS:   2000,
		CacheWriteQueueSize: 1024,
		CacheWriteWorkers:   4,
		RenderRatePerSecond: 2,
		RenderBurst:         4,
		RenderWidth:         1080,
		RenderRowHeight:     72,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.CacheSchemaVersion == "":
		return fmt.Errorf("%w: cache_schema_version must not be empty", ErrInvalidConfig)
	case c.PageTTLSeconds <= 0 || c.AggregateTTLSeconds <= 0:
		return fmt.Errorf("%w: cache ttls must be positive", ErrInvalidConfig)
	case c.DefaultPageLimit <= 0 || c.MaxPageLimit <= 0:
		return fmt.Errorf("%w: page limits must be positive", ErrInvalidConfig)
	case c.DefaultPageLimit > c.MaxPageLimit:
		return fmt.Errorf("%w: default_page_limit %d exceeds max_page_limit %d",
			ErrInvalidConfig, c.DefaultPageLimit, c.MaxPageLimit)
	case c.ArtifactTopN <= 0:
		return fmt.Errorf("%w: artifact_top_n must be positive", ErrInvalidConfig)
	case c.UpstreamTimeoutMS <= 0:
		return fmt.Errorf("%w: upstream_timeout_ms must be positive", ErrInvalidConfig)
	case c.CacheWriteQueueSize <= 0 || c.CacheWriteWorkers <= 0:
		return fmt.Errorf("%w: cache write queue and workers must be positive", ErrInvalidConfig)
	case c.RenderRatePerSecond <= 0 || c.RenderBurst <= 0:
		return fmt.Errorf("%w: render rate and burst must be positive", ErrInvalidConfig)
	case c.RenderWidth <= 0 || c.RenderRowHeight <= 0:
		return fmt.Errorf("%w: render dimensions must be positive", ErrInvalidConfig)
	}
	return nil
}

// PageTTL is the cache lifetime of pages and artifacts.
func (c *Config) PageTTL() time.Duration { return time.Duration(c.PageTTLSeconds) * time.Second }

// AggregateTTL is the cache lifetime of collection-wide aggregates.
func (c *Config) AggregateTTL() time.Duration {
	return time.Duration(c.AggregateTTLSeconds) * time.Second
}

// UpstreamTimeout bounds a single upstream lookup.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutMS) * time.Millisecond
}
