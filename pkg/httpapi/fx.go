package httpapi

import (
	"context"
	"time"

	"go.uber.org/fx"

	"pkgbot/pkg/config"
	"pkgbot/pkg/logger"
)

// Module provides the status API for fx.
var Module = fx.Module("httpapi",
	fx.Provide(NewServer),
	fx.Invoke(registerLifecycle),
)

func registerLifecycle(lc fx.Lifecycle, s *Server, cfg *config.Config, log *logger.Logger) {
	if !cfg.HTTP.Enabled {
		log.Info("Status API disabled in config")
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return s.Start()
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return s.Stop(shutdownCtx)
		},
	})
}
