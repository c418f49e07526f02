// Package config loads the espalier.yaml configuration file and carries
// the defaults for every tunable. Flags override file values; the file
// overrides the built-in defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend names accepted under cache.backend.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config is the full espalier.yaml schema. Every field is optional;
// absent fields keep their defaults.
type Config struct {
	Classifier ClassifierConfig `yaml:"classifier"`
	Resolver   ResolverConfig   `yaml:"resolver"`
	Cache      CacheConfig      `yaml:"cache"`
	Log        LogConfig        `yaml:"log"`
}

// ClassifierConfig points at the remote classification service.
type ClassifierConfig struct {
	Endpoint       string `yaml:"endpoint"`
	Token          string `yaml:"token"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the per-request classification timeout.
func (c ClassifierConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ResolverConfig tunes retry and fan-out behavior.
type ResolverConfig struct {
	Attempts    int `yaml:"attempts"`
	Concurrency int `yaml:"concurrency"`
}

// CacheConfig selects and configures the intent store. EncryptionKey,
// EncryptionFallbackKeys, and PIIPatterns feed the persistence middleware
// wrapped around whichever backend is chosen. Fallback keys let an old
// snapshot stay readable while a rotated key seals new saves.
type CacheConfig struct {
	Backend                string      `yaml:"backend"`
	Redis                  RedisConfig `yaml:"redis"`
	EncryptionKey          string      `yaml:"encryption_key"`
	EncryptionFallbackKeys []string    `yaml:"encryption_fallback_keys"`
	PIIPatterns            []string    `yaml:"pii_patterns"`
}

// RedisConfig configures the redis intent store.
type RedisConfig struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	Prefix     string `yaml:"prefix"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// TTL returns the expiry applied to stored intents, zero for none.
func (r RedisConfig) TTL() time.Duration {
	return time.Duration(r.TTLSeconds) * time.Second
}

// LogConfig sets the application log level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Classifier: ClassifierConfig{
			TimeoutSeconds: 10,
		},
		Resolver: ResolverConfig{
			Attempts: 5,
		},
		Cache: CacheConfig{
			Backend: BackendMemory,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "espalier:",
			},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads a config file and overlays it on the defaults. Unlike the
// defaults path, an explicitly requested file must exist and parse.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values no command could run with.
func (c Config) Validate() error {
	if c.Resolver.Attempts < 1 {
		return fmt.Errorf("resolver.attempts must be at least 1, got %d", c.Resolver.Attempts)
	}
	if c.Resolver.Concurrency < 0 {
		return fmt.Errorf("resolver.concurrency cannot be negative, got %d", c.Resolver.Concurrency)
	}
	if c.Classifier.TimeoutSeconds < 1 {
		return fmt.Errorf("classifier.timeout_seconds must be at least 1, got %d", c.Classifier.TimeoutSeconds)
	}
	switch c.Cache.Backend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("cache.backend must be %q or %q, got %q", BackendMemory, BackendRedis, c.Cache.Backend)
	}
	return nil
}
