// Package channels provides the channel interface and lifecycle management
// for the chat platforms lookup commands are served on.
package channels

import (
	"context"
)

// Channel represents a chat platform connection.
type Channel interface {
	// ID returns the unique channel identifier.
	ID() string

	// Name returns the human-readable channel name.
	Name() string

	// Start connects the channel and begins listening for commands.
	Start(ctx context.Context) error

	// Stop stops the channel gracefully.
	Stop(ctx context.Context) error

	// IsEnabled returns whether the channel is enabled in configuration.
	IsEnabled() bool
}
