package bus

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"pkgbot/pkg/config"
	"pkgbot/pkg/logger"
)

// Module is the fx module for the signal bus.
var Module = fx.Module("bus",
	fx.Provide(NewSignalBus),
)

// FromConfig builds the signal bus named by cfg.Bus.Type. Gateways sharing one
// bot token need the redis backend: a reaction reaches only one of them, while
// the lookup waiting for it may run on another.
func FromConfig(log *logger.Logger, cfg *config.Config) (Bus, error) {
	switch cfg.Bus.Type {
	case "", "local":
		return NewLocalBus(log, cfg.Bus.BufferSize), nil
	case "redis":
		if cfg.Redis.Addr == "" {
			return nil, fmt.Errorf("redis bus needs redis.addr")
		}
		return NewRedisBus(log, &RedisBusConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Bus.Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown bus type: %s", cfg.Bus.Type)
	}
}

// NewSignalBus creates the configured signal bus and ties it to the app lifecycle.
func NewSignalBus(lc fx.Lifecycle, log *logger.Logger, cfg *config.Config) (Bus, error) {
	signals, err := FromConfig(log, cfg)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := signals.Start(); err != nil {
				return err
			}
			log.Info("Signal bus started", zap.String("type", busType(cfg)))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Signal bus stopping", zap.Any("metrics", signals.GetMetrics()))
			return signals.Stop()
		},
	})

	return signals, nil
}

func busType(cfg *config.Config) string {
	if cfg.Bus.Type == "" {
		return "local"
	}
	return cfg.Bus.Type
}
