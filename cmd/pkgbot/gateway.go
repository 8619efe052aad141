package main

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"

	"pkgbot/pkg/config"
	"pkgbot/pkg/logger"
	"pkgbot/pkg/registry"
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Connect the bot to Discord",
	Long: `Connect pkgbot to Discord and answer lookup commands until interrupted.

Without a subcommand the gateway runs in the foreground. The remaining
subcommands manage it as a system service (systemd, launchd or the Windows
service manager) and need root or Administrator rights.

Examples:
  pkgbot gateway
  pkgbot gateway check
  sudo pkgbot -c /etc/pkgbot/config.json gateway install
  sudo pkgbot gateway status`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "Starting pkgbot gateway in the foreground, see 'pkgbot gateway install' to run it as a service.")
		runGatewayForeground()
	},
}

var gatewayRunCmd = &cobra.Command{
	Use:    "run",
	Short:  "Entry point used by the installed service",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if service.Interactive() {
			runGatewayForeground()
			return nil
		}
		return RunService()
	},
}

var gatewayCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the config and show what the gateway would serve",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, cfg, err := loadGatewayConfig()
		if err != nil {
			return err
		}
		if err := config.ValidateConfig(cfg); err != nil {
			return err
		}
		printSummary(cmd.OutOrStdout(), path, cfg)
		fmt.Fprintln(cmd.OutOrStdout(), "Config OK")
		return nil
	},
}

var gatewayStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the service state and its configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := newService()
		if err != nil {
			return err
		}
		status, err := s.Status()
		switch {
		case errors.Is(err, service.ErrNotInstalled):
			fmt.Fprintln(cmd.OutOrStdout(), "Service:    not installed")
		case err != nil:
			return fmt.Errorf("getting service status: %w", err)
		default:
			fmt.Fprintf(cmd.OutOrStdout(), "Service:    %s\n", statusText(status))
		}

		path, cfg, err := loadGatewayConfig()
		if err != nil {
			return err
		}
		printSummary(cmd.OutOrStdout(), path, cfg)
		return nil
	},
}

// serviceAction is a service-manager operation exposed as a gateway subcommand.
type serviceAction struct {
	name    string
	short   string
	run     func(service.Service) error
	done    string
	summary bool
}

var serviceActions = []serviceAction{
	{
		name:    "install",
		short:   "Install the gateway as a system service started at boot",
		run:     service.Service.Install,
		done:    "Service installed, start it with 'pkgbot gateway start'.",
		summary: true,
	},
	{name: "uninstall", short: "Remove the gateway service", run: service.Service.Uninstall, done: "Service uninstalled."},
	{name: "start", short: "Start the gateway service", run: service.Service.Start, done: "Service started."},
	{name: "stop", short: "Stop the gateway service", run: service.Service.Stop, done: "Service stopped."},
	{name: "restart", short: "Restart the gateway service, picking up a new binary", run: service.Service.Restart, done: "Service restarted."},
}

func (a serviceAction) command() *cobra.Command {
	return &cobra.Command{
		Use:   a.name,
		Short: a.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := newService()
			if err != nil {
				return err
			}
			if err := a.run(s); err != nil {
				return fmt.Errorf("%s service: %w (system services need root or Administrator)", a.name, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.done)

			if a.summary {
				path, cfg, err := loadGatewayConfig()
				if err != nil {
					return err
				}
				printSummary(cmd.OutOrStdout(), path, cfg)
			}
			return nil
		},
	}
}

func init() {
	gatewayCmd.AddCommand(gatewayRunCmd, gatewayCheckCmd, gatewayStatusCmd)
	for _, a := range serviceActions {
		gatewayCmd.AddCommand(a.command())
	}
}

// loadGatewayConfig loads the config file the service would be started with.
func loadGatewayConfig() (string, *config.Config, error) {
	loader := config.NewLoader()
	cfg, err := loader.Load(configPath)
	if err != nil {
		return "", nil, err
	}
	return loader.GetConfigPath(), cfg, nil
}

func printSummary(w io.Writer, path string, cfg *config.Config) {
	for _, line := range deploymentSummary(path, cfg) {
		fmt.Fprintln(w, line)
	}
}

// deploymentSummary describes what a gateway started from cfg serves, without
// connecting to anything.
func deploymentSummary(path string, cfg *config.Config) []string {
	lines := []string{"Config:     " + path}

	var cmds []string
	if providers, err := registry.ProvideSet(cfg, registry.NewClient(0, ""), logger.Nop()); err == nil {
		for _, p := range providers.List() {
			cmds = append(cmds, fmt.Sprintf("%s%s (%s)", cfg.Commands.Prefix, p.Name(), p.Title()))
		}
	}
	if len(cmds) == 0 {
		cmds = []string{"none"}
	}
	lines = append(lines, "Commands:   "+strings.Join(cmds, ", "))

	discord := "disabled"
	switch {
	case cfg.Discord.Enabled && cfg.Discord.Token == "":
		discord = "enabled, token missing"
	case cfg.Discord.Enabled && len(cfg.Discord.AllowFrom) > 0:
		discord = fmt.Sprintf("enabled, %d allowed users", len(cfg.Discord.AllowFrom))
	case cfg.Discord.Enabled:
		discord = "enabled, all users"
	}
	lines = append(lines, "Discord:    "+discord)

	signals := "local"
	if cfg.Bus.Type == "redis" {
		signals = "redis " + cfg.Redis.Addr
	}
	lines = append(lines, "Signals:    "+signals)

	cache := "disabled"
	if cfg.Cache.Enabled {
		backend := cfg.Cache.Backend
		if backend == "" {
			backend = "memory"
		}
		cache = fmt.Sprintf("%s, ttl %s", backend, cfg.CacheTTL())
		if backend == "memory" && cfg.CacheFilePath() != "" {
			cache += ", snapshot " + cfg.CacheFilePath()
		}
	}
	lines = append(lines, "Cache:      "+cache)

	statusAPI := "disabled"
	if cfg.HTTP.Enabled {
		statusAPI = "http://" + net.JoinHostPort(cfg.HTTP.Host, strconv.Itoa(cfg.HTTP.Port))
	}
	lines = append(lines, "Status API: "+statusAPI)

	return lines
}
