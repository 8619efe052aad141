package lookup

import (
	"context"
	"fmt"
	"strings"

	"pkgbot/pkg/commands"
	"pkgbot/pkg/config"
	"pkgbot/pkg/registry"
)

// RegisterCommands adds one lookup command per provider, named after its keyword.
func RegisterCommands(cmds *commands.Registry, providers *registry.Set, pipeline *Pipeline) error {
	for _, p := range providers.List() {
		if err := cmds.Register(&commands.Command{
			Name:        p.Name(),
			Description: fmt.Sprintf("Search %s and pick a package to inspect", p.Title()),
			Usage:       "<search term>",
			Handler:     commandHandler(cmds, p, pipeline),
		}); err != nil {
			return fmt.Errorf("register %s lookup: %w", p.Name(), err)
		}
	}
	return nil
}

func commandHandler(cmds *commands.Registry, p registry.Provider, pipeline *Pipeline) commands.CommandHandler {
	return func(ctx context.Context, req commands.CommandRequest) (commands.CommandResponse, error) {
		term := strings.TrimSpace(req.Args)
		if term == "" {
			cmd, _ := cmds.Get(p.Name())
			return commands.CommandResponse{Content: fmt.Sprintf("Usage: `%s`", cmds.Usage(cmd))}, nil
		}
		if req.Surface == nil {
			return commands.CommandResponse{}, fmt.Errorf("%s lookup needs a chat surface", p.Name())
		}

		// Failures are reported to the user by the pipeline itself.
		_, _ = pipeline.Run(ctx, Request{
			Provider:  p,
			Surface:   req.Surface,
			Term:      term,
			ChannelID: req.ChannelID,
			MessageID: req.MessageID,
			UserID:    req.UserID,
		})
		return commands.CommandResponse{}, nil
	}
}

// SettingsFromWatcher reads the lookup settings from the live configuration.
func SettingsFromWatcher(w *config.Watcher) SettingsFunc {
	return func() Settings {
		return SettingsFromConfig(w.GetConfig())
	}
}

// SettingsFromConfig maps the lookup section of cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		SelectionTimeout: cfg.SelectionTimeout(),
		MaxResults:       cfg.Lookup.MaxResults,
		List: ListOptions{
			MaxLength:      cfg.Lookup.ListMaxLength,
			MinDescription: cfg.Lookup.MinDescription,
		},
	}
}
