package commands

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"pkgbot/pkg/config"
	"pkgbot/pkg/logger"
)

// Module provides the commands system.
var Module = fx.Module("commands",
	fx.Provide(ProvideRegistry),
	fx.Invoke(registerBuiltins),
)

// ProvideRegistry creates the registry with the configured prefix.
func ProvideRegistry(cfg *config.Config) *Registry {
	return NewRegistry(cfg.Commands.Prefix)
}

// registerBuiltins registers built-in commands on startup.
func registerBuiltins(registry *Registry, log *logger.Logger) error {
	if err := RegisterBuiltinCommands(registry); err != nil {
		log.Error("Failed to register builtin commands", zap.Error(err))
		return err
	}

	log.Info("Registered builtin commands",
		zap.String("prefix", registry.Prefix()),
		zap.Int("count", len(registry.List())))
	return nil
}
