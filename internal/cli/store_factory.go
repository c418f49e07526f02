package cli

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/aretw0/espalier/internal/config"
	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/adapters/redis"
	"github.com/aretw0/espalier/pkg/persistence/middleware"
	"github.com/aretw0/espalier/pkg/ports"
)

// createStore initializes the intent cache backend with standard CLI conventions.
// The returned cleanup releases backend connections and is safe to call once.
func createStore(cfg config.Config, logger *slog.Logger) (ports.IntentStore, func(), error) {
	var store ports.IntentStore
	cleanup := func() {}

	switch cfg.Cache.Backend {
	case config.BackendRedis:
		rs := redis.New(cfg.Cache.Redis.Addr, cfg.Cache.Redis.Password, cfg.Cache.Redis.DB,
			redis.WithPrefix(cfg.Cache.Redis.Prefix),
			redis.WithTTL(cfg.Cache.Redis.TTL()),
		)
		store = rs
		cleanup = func() {
			if err := rs.Close(); err != nil {
				logger.Warn("failed to close redis client", "error", err)
			}
		}
	default:
		store = memory.NewStore()
	}

	mws, err := createStoreMiddleware(cfg.Cache)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	for _, mw := range mws {
		store = mw(store)
	}

	return store, cleanup, nil
}

// createStoreMiddleware validates the hardening options up front so a typo
// in the config surfaces as a friendly error instead of a panic mid-run.
// Order matters: encryption wraps the backend first and the PII filter runs
// outermost, so the filter sees plaintext phrases.
func createStoreMiddleware(cfg config.CacheConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware

	if cfg.EncryptionKey != "" {
		encCfg, err := decodeEncryptionConfig(cfg)
		if err != nil {
			return nil, err
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(encCfg))
	}

	if len(cfg.PIIPatterns) > 0 {
		for _, p := range cfg.PIIPatterns {
			if _, err := regexp.Compile(p); err != nil {
				return nil, fmt.Errorf("invalid pii pattern %q: %w", p, err)
			}
		}
		mws = append(mws, middleware.NewPIIMiddleware(cfg.PIIPatterns))
	}

	return mws, nil
}

func decodeEncryptionConfig(cfg config.CacheConfig) (middleware.EncryptionConfig, error) {
	active, err := decodeKey(cfg.EncryptionKey)
	if err != nil {
		return middleware.EncryptionConfig{}, fmt.Errorf("invalid encryption_key: %w", err)
	}
	encCfg := middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range cfg.EncryptionFallbackKeys {
		fallback, err := decodeKey(k)
		if err != nil {
			return middleware.EncryptionConfig{}, fmt.Errorf("invalid encryption_fallback_keys[%d]: %w", i, err)
		}
		encCfg.FallbackKeys = append(encCfg.FallbackKeys, fallback)
	}
	return encCfg, nil
}

func decodeKey(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("decoded key is %d bytes, want 32 (AES-256)", len(key))
	}
	return key, nil
}
