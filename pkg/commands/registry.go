package commands

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// DefaultPrefix marks a message as a command.
const DefaultPrefix = "!"

// Registry manages command registration and lookup.
type Registry struct {
	prefix   string
	commands map[string]*Command
	mu       sync.RWMutex
}

// NewRegistry creates a new command registry for prefix.
func NewRegistry(prefix string) *Registry {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Registry{
		prefix:   prefix,
		commands: make(map[string]*Command),
	}
}

// Prefix returns the command prefix.
func (r *Registry) Prefix() string {
	return r.prefix
}

// Register registers a new command.
func (r *Registry) Register(cmd *Command) error {
	if cmd == nil {
		return fmt.Errorf("command cannot be nil")
	}

	if cmd.Name == "" {
		return fmt.Errorf("command name cannot be empty")
	}
	if cmd.Handler == nil {
		return fmt.Errorf("command %s has no handler", cmd.Name)
	}

	// Normalize command name (lowercase, no prefix)
	cmd.Name = strings.ToLower(strings.TrimPrefix(cmd.Name, r.prefix))

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[cmd.Name]; exists {
		return fmt.Errorf("command %s already registered", cmd.Name)
	}

	r.commands[cmd.Name] = cmd
	return nil
}

// Get retrieves a command by name.
func (r *Registry) Get(name string) (*Command, bool) {
	name = strings.ToLower(strings.TrimPrefix(name, r.prefix))

	r.mu.RLock()
	defer r.mu.RUnlock()

	cmd, exists := r.commands[name]
	return cmd, exists
}

// List returns all registered commands sorted by name.
func (r *Registry) List() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool {
		return cmds[i].Name < cmds[j].Name
	})

	return cmds
}

// IsCommand checks if a text starts with a registered command.
func (r *Registry) IsCommand(text string) bool {
	name, _ := r.Parse(text)
	if name == "" {
		return false
	}
	_, exists := r.Get(name)
	return exists
}

// Parse parses a command from text.
// Returns command name and arguments.
func (r *Registry) Parse(text string) (string, string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, r.prefix) {
		return "", ""
	}

	text = strings.TrimPrefix(text, r.prefix)

	// Split command and args on the first run of whitespace
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", ""
	}
	cmdName := strings.ToLower(fields[0])
	args := strings.TrimSpace(strings.TrimPrefix(text, fields[0]))

	return cmdName, args
}

// Usage renders how to invoke cmd.
func (r *Registry) Usage(cmd *Command) string {
	if cmd.Usage == "" {
		return r.prefix + cmd.Name
	}
	return r.prefix + cmd.Name + " " + cmd.Usage
}
