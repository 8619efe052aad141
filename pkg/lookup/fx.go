package lookup

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"pkgbot/pkg/commands"
	"pkgbot/pkg/config"
	"pkgbot/pkg/logger"
	"pkgbot/pkg/registry"
)

// Module wires the lookup pipeline and registers its commands.
var Module = fx.Module("lookup",
	fx.Provide(
		fx.Annotate(
			NewBusAwaiter,
			fx.As(new(Awaiter)),
		),
		ProvidePipeline,
	),
	fx.Invoke(registerCommands),
)

// ProvidePipeline creates the pipeline reading settings from the config watcher.
func ProvidePipeline(awaiter Awaiter, log *logger.Logger, watcher *config.Watcher) *Pipeline {
	return NewPipeline(awaiter, log.Named("lookup"), SettingsFromWatcher(watcher))
}

func registerCommands(cmds *commands.Registry, providers *registry.Set, pipeline *Pipeline, log *logger.Logger) error {
	if err := RegisterCommands(cmds, providers, pipeline); err != nil {
		log.Error("Failed to register lookup commands", zap.Error(err))
		return err
	}

	log.Info("Registered lookup commands", zap.Int("providers", len(providers.List())))
	return nil
}
