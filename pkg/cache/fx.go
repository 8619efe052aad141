package cache

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"pkgbot/pkg/config"
	"pkgbot/pkg/logger"
)

// Module is the fx module for the response cache.
var Module = fx.Module("cache",
	fx.Provide(NewStore),
)

// NewStore creates the configured cache for fx and closes it on shutdown.
func NewStore(lc fx.Lifecycle, log *logger.Logger, cfg *config.Config) (Store, error) {
	store, err := FromConfig(log, cfg)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return store.Close()
		},
	})
	return store, nil
}

// FromConfig creates the cache described by cfg. A disabled cache is a Nop.
func FromConfig(log *logger.Logger, cfg *config.Config) (Store, error) {
	if !cfg.Cache.Enabled {
		log.Info("Response cache disabled")
		return Nop{}, nil
	}

	store, err := New(log, &Config{
		Backend:       BackendType(cfg.Cache.Backend),
		MaxEntries:    cfg.Cache.MaxEntries,
		FilePath:      cfg.CacheFilePath(),
		RedisAddr:     cfg.Redis.Addr,
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.DB,
		RedisPrefix:   cfg.Cache.Prefix,
	})
	if err != nil {
		return nil, err
	}

	log.Info("Response cache enabled",
		zap.String("backend", cfg.Cache.Backend),
		zap.Duration("ttl", cfg.CacheTTL()))
	return store, nil
}
