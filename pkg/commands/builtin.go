package commands

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"pkgbot/pkg/version"
)

var processStartTime = time.Now()

// RegisterBuiltinCommands registers built-in commands.
func RegisterBuiltinCommands(registry *Registry) error {
	builtins := []*Command{
		{
			Name:        "help",
			Description: "Show available commands",
			Usage:       "[command]",
			Handler:     helpHandler(registry),
		},
		{
			Name:        "status",
			Description: "Show bot status",
			Handler:     statusHandler,
		},
	}

	for _, cmd := range builtins {
		if err := registry.Register(cmd); err != nil {
			return fmt.Errorf("failed to register %s: %w", cmd.Name, err)
		}
	}

	return nil
}

// Help renders the command overview, or the details of one command.
func Help(registry *Registry, name string) string {
	if name != "" {
		if cmd, exists := registry.Get(name); exists {
			return fmt.Sprintf("**%s%s**\n\n%s\n\n**Usage:** `%s`",
				registry.Prefix(), cmd.Name, cmd.Description, registry.Usage(cmd))
		}
	}

	cmds := registry.List()
	if len(cmds) == 0 {
		return "No commands available."
	}

	var sb strings.Builder
	sb.WriteString("**Available Commands**\n\n")
	for _, cmd := range cmds {
		fmt.Fprintf(&sb, "`%s` - %s\n", registry.Usage(cmd), compactDescription(cmd.Description, 72))
	}
	fmt.Fprintf(&sb, "\nUse `%shelp [command]` for detailed information.", registry.Prefix())

	return sb.String()
}

// helpHandler creates a handler for the help command.
func helpHandler(registry *Registry) CommandHandler {
	return func(ctx context.Context, req CommandRequest) (CommandResponse, error) {
		name := ""
		if parts := strings.Fields(req.Args); len(parts) > 0 {
			name = parts[0]
		}
		return CommandResponse{Content: Help(registry, name)}, nil
	}
}

func compactDescription(desc string, limit int) string {
	desc = strings.Join(strings.Fields(strings.TrimSpace(desc)), " ")
	if limit <= 0 {
		limit = 72
	}
	runes := []rune(desc)
	if len(runes) <= limit {
		return desc
	}
	if limit <= 1 {
		return "…"
	}
	return string(runes[:limit-1]) + "…"
}

// statusHandler handles the status command.
func statusHandler(ctx context.Context, req CommandRequest) (CommandResponse, error) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	content := fmt.Sprintf(`**pkgbot status**

Channel: %s
Version: %s
OS: %s/%s
Go: %s
Uptime: %s
Memory: %.2f MB`,
		req.Channel,
		version.GetVersion(),
		runtime.GOOS,
		runtime.GOARCH,
		runtime.Version(),
		time.Since(processStartTime).Round(time.Second),
		float64(mem.Alloc)/1024.0/1024.0,
	)

	return CommandResponse{Content: content}, nil
}
