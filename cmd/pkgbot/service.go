package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kardianos/service"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"pkgbot/pkg/bus"
	"pkgbot/pkg/cache"
	"pkgbot/pkg/channels"
	"pkgbot/pkg/commands"
	"pkgbot/pkg/config"
	"pkgbot/pkg/httpapi"
	"pkgbot/pkg/logger"
	"pkgbot/pkg/lookup"
	"pkgbot/pkg/registry"
)

// GatewayService implements the service.Interface for the gateway.
type GatewayService struct {
	app    *fx.App
	logger service.Logger
}

// NewGatewayService creates a new gateway service.
func NewGatewayService() *GatewayService {
	return &GatewayService{}
}

// Start implements service.Interface.Start
func (s *GatewayService) Start(svc service.Service) error {
	if s.logger != nil {
		s.logger.Info("Starting pkgbot gateway service")
	}

	go s.run()

	return nil
}

// Stop implements service.Interface.Stop
func (s *GatewayService) Stop(svc service.Service) error {
	if s.logger != nil {
		s.logger.Info("Stopping pkgbot gateway service")
	}

	if s.app != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.app.Stop(ctx); err != nil {
			if s.logger != nil {
				s.logger.Errorf("Error stopping service: %v", err)
			}
			return err
		}
	}

	return nil
}

func (s *GatewayService) run() {
	s.app = fx.New(
		gatewayModules(),
		fx.Invoke(func(lc fx.Lifecycle, log *logger.Logger) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					log.Info("Gateway service started", zap.String("mode", "daemon"))
					return nil
				},
				OnStop: func(ctx context.Context) error {
					log.Info("Gateway service stopped")
					return nil
				},
			})
		}),
		fx.NopLogger,
	)

	s.app.Run()
}

// gatewayModules is the module graph of a running gateway.
func gatewayModules() fx.Option {
	return fx.Options(
		config.Module,
		logger.Module,
		bus.Module,
		cache.Module,
		registry.Module,
		commands.Module,
		lookup.Module,
		channels.Module,
		httpapi.Module,
	)
}

// ServiceConfig returns the service configuration. The config file in effect
// for the installing command is passed on to the service.
func ServiceConfig() *service.Config {
	args := []string{"gateway", "run"}

	path := strings.TrimSpace(configPath)
	if path == "" {
		path = strings.TrimSpace(os.Getenv(config.ConfigPathEnv))
	}
	if path != "" {
		args = append([]string{"-c", path}, args...)
	}

	return &service.Config{
		Name:        "pkgbot-gateway",
		DisplayName: "pkgbot Gateway",
		Description: "Package registry lookup bot for Discord",
		Arguments:   args,
	}
}

func newService() (service.Service, *GatewayService, error) {
	prg := NewGatewayService()
	s, err := service.New(prg, ServiceConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("creating service: %w", err)
	}
	return s, prg, nil
}

func statusText(status service.Status) string {
	switch status {
	case service.StatusRunning:
		return "Running"
	case service.StatusStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// RunService runs the gateway service (called by service manager).
func RunService() error {
	s, prg, err := newService()
	if err != nil {
		return err
	}

	logger, err := s.Logger(nil)
	if err != nil {
		return fmt.Errorf("creating service logger: %w", err)
	}
	prg.logger = logger

	if err := s.Run(); err != nil {
		logger.Error(err)
		return err
	}

	return nil
}

// runGatewayForeground runs the gateway until interrupted.
func runGatewayForeground() {
	app := fx.New(
		gatewayModules(),
		fx.Invoke(func(lc fx.Lifecycle, log *logger.Logger, cm *channels.Manager, providers *registry.Set, cmds *commands.Registry) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					names := make([]string, 0)
					for _, p := range providers.List() {
						names = append(names, cmds.Prefix()+p.Name())
					}
					log.Info("Gateway started",
						zap.String("mode", "foreground"),
						zap.Strings("commands", names))

					var channelNames []string
					for _, st := range cm.Snapshot() {
						if st.Enabled {
							channelNames = append(channelNames, st.Name)
						}
					}
					if len(channelNames) > 0 {
						log.Info("Active channels", zap.Strings("channels", channelNames))
					} else {
						log.Warn("No channels enabled, set discord.enabled and discord.token")
					}

					log.Info("Press Ctrl+C to stop")
					return nil
				},
			})
		}),
		fx.NopLogger,
	)

	// Run blocks until SIGINT or SIGTERM and stops the app.
	app.Run()
}
