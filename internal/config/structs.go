// Package config defines the application configuration and loads it
// from files, environment variables, and defaults.
package config

import (
	"fmt"
	"runtime"
	"time"
)

// Config is the root configuration.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Engine EngineConfig `mapstructure:"engine" yaml:"engine" json:"engine"`
	Parser ParserConfig `mapstructure:"parser" yaml:"parser" json:"parser"`
	Cache  CacheConfig  `mapstructure:"cache" yaml:"cache" json:"cache"`
	Store  StoreConfig  `mapstructure:"store" yaml:"store" json:"store"`
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
	Batch  BatchConfig  `mapstructure:"batch" yaml:"batch" json:"batch"`
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`
}

// EngineConfig selects and tunes the recognition engine.
type EngineConfig struct {
	// ID of the preferred engine; empty picks the first available.
	ID string `mapstructure:"id" yaml:"id" json:"id"`

	// Languages in priority order ("en", "zh-Hant", ...).
	Languages []string `mapstructure:"languages" yaml:"languages" json:"languages"`

	// Accuracy is "fast" or "accurate".
	Accuracy string `mapstructure:"accuracy" yaml:"accuracy" json:"accuracy"`

	// Preprocess toggles image preparation before recognition.
	Preprocess bool `mapstructure:"preprocess" yaml:"preprocess" json:"preprocess"`
}

// ParserConfig selects the structured field parser.
type ParserConfig struct {
	// Backend is "heuristic", "openai", or "none".
	Backend string `mapstructure:"backend" yaml:"backend" json:"backend"`

	// Model used by the openai backend.
	Model string `mapstructure:"model" yaml:"model" json:"model"`

	// APIKey for the openai backend; falls back to OPENAI_API_KEY.
	APIKey string `mapstructure:"api_key" yaml:"api_key" json:"-"`
}

// CacheConfig tunes the content-hash result cache.
type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Capacity int           `mapstructure:"capacity" yaml:"capacity" json:"capacity"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl" json:"ttl"`
}

// StoreConfig selects card persistence.
type StoreConfig struct {
	// Backend is "memory" or "postgres".
	Backend string `mapstructure:"backend" yaml:"backend" json:"backend"`

	// DSN for the postgres backend.
	DSN string `mapstructure:"dsn" yaml:"dsn" json:"-"`
}

// ServerConfig tunes the HTTP server.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	RateLimitPerMin int    `mapstructure:"rate_limit_per_min" yaml:"rate_limit_per_min" json:"rate_limit_per_min"`
}

// BatchConfig tunes batch scanning.
type BatchConfig struct {
	Workers   int  `mapstructure:"workers" yaml:"workers" json:"workers"`
	Recursive bool `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
}

// OutputConfig tunes CLI output.
type OutputConfig struct {
	// Format is "text", "json", "csv", or "yaml".
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Engine: EngineConfig{
			Languages:  []string{"en"},
			Accuracy:   "accurate",
			Preprocess: true,
		},
		Parser: ParserConfig{
			Backend: "heuristic",
			Model:   "gpt-4o-mini",
		},
		Cache: CacheConfig{
			Enabled:  true,
			Capacity: 512,
			TTL:      7 * 24 * time.Hour,
		},
		Store: StoreConfig{
			Backend: "memory",
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     20,
			TimeoutSec:      60,
			ShutdownTimeout: 10,
			RateLimitPerMin: 120,
		},
		Batch: BatchConfig{
			Workers: runtime.NumCPU(),
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}

// Validate checks the configuration for inconsistent values.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}

	switch c.Engine.Accuracy {
	case "fast", "accurate":
	default:
		return fmt.Errorf("invalid engine.accuracy %q", c.Engine.Accuracy)
	}

	switch c.Parser.Backend {
	case "heuristic", "openai", "none":
	default:
		return fmt.Errorf("invalid parser.backend %q", c.Parser.Backend)
	}

	if c.Cache.Capacity < 1 {
		return fmt.Errorf("cache.capacity must be positive, got %d", c.Cache.Capacity)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %v", c.Cache.TTL)
	}

	switch c.Store.Backend {
	case "memory":
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("invalid store.backend %q", c.Store.Backend)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d outside [1,65535]", c.Server.Port)
	}
	if c.Server.MaxUploadMB < 1 {
		return fmt.Errorf("server.max_upload_mb must be positive, got %d", c.Server.MaxUploadMB)
	}

	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be positive, got %d", c.Batch.Workers)
	}

	switch c.Output.Format {
	case "text", "json", "csv", "yaml":
	default:
		return fmt.Errorf("invalid output.format %q", c.Output.Format)
	}

	return nil
}
