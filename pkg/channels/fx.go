package channels

import (
	"context"
	"reflect"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"pkgbot/pkg/bus"
	"pkgbot/pkg/commands"
	"pkgbot/pkg/config"
	"pkgbot/pkg/logger"
)

// Module is the fx module for channels.
var Module = fx.Module("channels",
	fx.Provide(NewChannelManager),
	fx.Invoke(RegisterChannels),
)

// NewChannelManager creates a new channel manager for fx.
func NewChannelManager(lc fx.Lifecycle, log *logger.Logger) *Manager {
	manager := NewManager(log)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return manager.Start()
		},
		OnStop: func(ctx context.Context) error {
			return manager.Stop()
		},
	})

	return manager
}

// RegisterChannels registers the configured channels and rebuilds them when
// their section of the config file changes.
func RegisterChannels(
	manager *Manager,
	log *logger.Logger,
	signals bus.Bus,
	cmdRegistry *commands.Registry,
	cfg *config.Config,
	watcher *config.Watcher,
) error {
	if cfg.Discord.Enabled {
		ch, err := BuildChannel("discord", log, signals, cmdRegistry, cfg)
		if err != nil {
			log.Warn("Failed to create Discord channel, skipping", zap.Error(err))
		} else if err := manager.Register(ch); err != nil {
			return err
		}
	}

	current := cfg.Discord
	watcher.AddHandler(func(next *config.Config) error {
		if reflect.DeepEqual(current, next.Discord) {
			return nil
		}
		current = next.Discord

		if !next.Discord.Enabled {
			return manager.Remove("discord")
		}
		ch, err := BuildChannel("discord", log, signals, cmdRegistry, next)
		if err != nil {
			return err
		}
		return manager.Replace(ch)
	})

	return nil
}
