// Package config loads stagegraph settings from a YAML file and
// STAGEGRAPH_* environment variables, in that order, on top of
// [DefaultConfig].
//
// Environment variables name a section and a key:
//
//	STAGEGRAPH_CACHE_REDIS_URL=redis://localhost:6379/0  -> cache.redis_url
//	STAGEGRAPH_SERVER_ADDR=:9000                         -> server.addr
//	STAGEGRAPH_LAYOUT_NODE_SPACING_H=160                 -> layout.node_spacing_h
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/matzehuels/stagegraph/pkg/errors"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "STAGEGRAPH_"

var sections = []string{"layout", "cache", "server"}

// DefaultPath returns ~/.config/stagegraph/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "locate config dir")
	}
	return filepath.Join(dir, "stagegraph", "config.yaml"), nil
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "reading config %s", path)
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "accessing config %s", path)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "loading env overrides")
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "unmarshalling config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps STAGEGRAPH_CACHE_REDIS_URL to cache.redis_url. Variables
// outside a known section are dropped.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, sec := range sections {
		if rest, ok := strings.CutPrefix(s, sec+"_"); ok {
			return sec + "." + rest
		}
	}
	return ""
}

// Save writes the configuration to the given YAML file path, creating the
// parent directory.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "marshalling config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "creating config dir")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "writing config to %s", path)
	}
	return nil
}

var validSessionStores = map[string]bool{
	SessionStoreMemory: true,
	SessionStoreFile:   true,
	SessionStoreRedis:  true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if err := c.LayoutConstants().Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "layout")
	}
	if c.Cache.LayoutTTL < 0 || c.Cache.ArtifactTTL < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache ttl must be non-negative")
	}
	if c.Server.Addr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "server.addr is required")
	}
	if !validSessionStores[c.Server.SessionStore] {
		return errors.New(errors.ErrCodeInvalidConfig,
			"invalid server.session_store %q: must be one of memory, file, redis", c.Server.SessionStore)
	}
	if c.Server.SessionStore == SessionStoreRedis && c.Cache.RedisURL == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "server.session_store redis requires cache.redis_url")
	}
	if c.Server.SessionTTL <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "server.session_ttl must be positive")
	}
	return nil
}
