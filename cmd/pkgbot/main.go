// Package main is the entry point for the pkgbot CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pkgbot/pkg/config"
	"pkgbot/pkg/version"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "pkgbot",
	Short: "pkgbot - package registry lookups for Discord",
	Long: `pkgbot answers !composer and !npm commands on Discord with a list of
matching packages and, once a result is picked, a card describing its latest release.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath == "" {
			return nil
		}
		return os.Setenv(config.ConfigPathEnv, configPath)
	},
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.GetFullVersion())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")

	rootCmd.AddCommand(gatewayCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
