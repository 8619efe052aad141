package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"pkgbot/pkg/bus"
	"pkgbot/pkg/cache"
	"pkgbot/pkg/channels/console"
	"pkgbot/pkg/config"
	"pkgbot/pkg/logger"
	"pkgbot/pkg/lookup"
	"pkgbot/pkg/registry"
)

var lookupVerbose bool

var lookupCmd = &cobra.Command{
	Use:   "lookup <provider> <search term>",
	Short: "Run a lookup in the terminal",
	Long: `Run the same search, pick and detail flow the bot runs on Discord, with
the cards printed to stdout and the pick read from stdin.

Examples:
  pkgbot lookup composer monolog
  pkgbot lookup npm left pad`,
	Args: cobra.MinimumNArgs(2),
	RunE: runLookup,
}

func init() {
	lookupCmd.Flags().BoolVarP(&lookupVerbose, "verbose", "v", false, "log pipeline activity to stderr")
}

func runLookup(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewLoader().Load("")
	if err != nil {
		return err
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}

	level := logger.LevelError
	if lookupVerbose {
		level = logger.LevelDebug
	}
	log, err := logger.NewConsole(cmd.ErrOrStderr(), level)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	store, err := cache.FromConfig(log, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	providers, err := registry.ProvideSet(cfg, registry.ProvideClient(cfg, store), log)
	if err != nil {
		return err
	}
	provider, err := providers.Get(strings.ToLower(args[0]))
	if err != nil {
		return err
	}

	signals := bus.NewLocalBus(log, 8)
	if err := signals.Start(); err != nil {
		return err
	}
	defer func() { _ = signals.Stop() }()

	surface := console.New(log, cmd.OutOrStdout(), os.Stdin, signals)
	pipeline := lookup.NewPipeline(
		lookup.NewBusAwaiter(signals, log),
		log,
		lookup.StaticSettings(lookup.SettingsFromConfig(cfg)),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outcome, err := pipeline.Run(ctx, lookup.Request{
		Provider:  provider,
		Surface:   surface,
		Term:      strings.Join(args[1:], " "),
		ChannelID: console.ChannelID,
		UserID:    console.UserID,
	})
	if err != nil {
		return err
	}
	if outcome == lookup.OutcomeTimedOut {
		fmt.Fprintln(cmd.OutOrStdout(), "\nNo package picked.")
	}
	return nil
}
