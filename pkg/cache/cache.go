// Package cache keeps registry responses for a short time so repeated lookups
// of the same package skip the network.
package cache

import (
	"context"
	"fmt"
	"time"

	"pkgbot/pkg/logger"
)

// Store is a byte cache with per-entry expiry.
type Store interface {
	// Get returns the value for key if present and not expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value for ttl. A non-positive ttl stores nothing.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key.
	Delete(ctx context.Context, key string) error

	// Close releases the store, persisting it where the backend supports that.
	Close() error
}

// BackendType represents the cache backend.
type BackendType string

const (
	BackendMemory BackendType = "memory"
	BackendRedis  BackendType = "redis"
)

// Config configures the cache.
type Config struct {
	Backend BackendType

	// Memory backend
	MaxEntries int
	FilePath   string // optional snapshot restored on start and written on close

	// Redis backend
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// New creates a store for cfg.
func New(log *logger.Logger, cfg *Config) (Store, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemoryStore(log, &MemoryStoreConfig{
			MaxEntries: cfg.MaxEntries,
			FilePath:   cfg.FilePath,
		})

	case BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis address is required")
		}
		return NewRedisStore(log, &RedisStoreConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})

	default:
		return nil, fmt.Errorf("unknown cache backend: %s", cfg.Backend)
	}
}

// Nop is a Store that never holds anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Nop) Delete(context.Context, string) error                     { return nil }
func (Nop) Close() error                                             { return nil }
