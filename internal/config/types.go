package config

import (
	"time"

	"github.com/matzehuels/stagegraph/pkg/layout"
)

// Session store backends.
const (
	SessionStoreMemory = "memory"
	SessionStoreFile   = "file"
	SessionStoreRedis  = "redis"
)

// Config is the top-level stagegraph configuration, corresponding to
// config.yaml.
type Config struct {
	Layout layout.Overrides `yaml:"layout,omitempty" koanf:"layout"`
	Cache  CacheConfig      `yaml:"cache" koanf:"cache"`
	Server ServerConfig     `yaml:"server" koanf:"server"`
}

// CacheConfig selects and tunes the artifact cache.
type CacheConfig struct {
	Disabled    bool          `yaml:"disabled" koanf:"disabled"`
	Dir         string        `yaml:"dir,omitempty" koanf:"dir"`
	RedisURL    string        `yaml:"redis_url,omitempty" koanf:"redis_url"`
	Prefix      string        `yaml:"prefix,omitempty" koanf:"prefix"`
	LayoutTTL   time.Duration `yaml:"layout_ttl" koanf:"layout_ttl"`
	ArtifactTTL time.Duration `yaml:"artifact_ttl" koanf:"artifact_ttl"`
}

// ServerConfig holds settings for the serve command.
type ServerConfig struct {
	Addr           string        `yaml:"addr" koanf:"addr"`
	SessionStore   string        `yaml:"session_store" koanf:"session_store"`
	SessionDir     string        `yaml:"session_dir,omitempty" koanf:"session_dir"`
	SessionTTL     time.Duration `yaml:"session_ttl" koanf:"session_ttl"`
	RequestTimeout time.Duration `yaml:"request_timeout" koanf:"request_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins,omitempty" koanf:"allowed_origins"`
}

// DefaultConfig returns the configuration used when no file or environment
// variable says otherwise.
func DefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			LayoutTTL:   7 * 24 * time.Hour,
			ArtifactTTL: 24 * time.Hour,
		},
		Server: ServerConfig{
			Addr:           "127.0.0.1:8080",
			SessionStore:   SessionStoreMemory,
			SessionTTL:     24 * time.Hour,
			RequestTimeout: 30 * time.Second,
		},
	}
}

// LayoutConstants returns the default layout constants with the configured
// overrides applied.
func (c *Config) LayoutConstants() layout.Constants {
	return layout.Defaults().Merge(c.Layout)
}
