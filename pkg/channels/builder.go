package channels

import (
	"fmt"
	"strings"

	"pkgbot/pkg/bus"
	"pkgbot/pkg/channels/discord"
	"pkgbot/pkg/commands"
	"pkgbot/pkg/config"
	"pkgbot/pkg/logger"
)

// BuildChannel creates a channel instance from the current config.
func BuildChannel(
	name string,
	log *logger.Logger,
	signals bus.Bus,
	cmdRegistry *commands.Registry,
	cfg *config.Config,
) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "discord":
		return discord.NewChannel(log.Named("discord"), cfg.Discord, signals, cmdRegistry)
	default:
		return nil, fmt.Errorf("unknown channel: %s", name)
	}
}

// IsChannelEnabled checks whether a channel is enabled in config.
func IsChannelEnabled(name string, cfg *config.Config) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "discord":
		return cfg.Discord.Enabled, nil
	default:
		return false, fmt.Errorf("unknown channel: %s", name)
	}
}
