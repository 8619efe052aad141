// Package commands provides keyword command routing for chat channels.
package commands

import (
	"context"

	"pkgbot/pkg/chat"
)

// Command represents a keyword command that can be executed.
type Command struct {
	// Name is the command keyword (without prefix)
	Name string
	// Description is a short description of what the command does
	Description string
	// Usage shows the arguments, e.g. "<search term>"
	Usage string
	// Handler is the function that executes the command
	Handler CommandHandler
}

// CommandHandler is a function that handles a command.
type CommandHandler func(ctx context.Context, req CommandRequest) (CommandResponse, error)

// CommandRequest contains information about a command invocation.
type CommandRequest struct {
	// Channel is the channel name (discord, console)
	Channel string
	// ChannelID identifies the conversation
	ChannelID string
	// MessageID identifies the message that triggered the command
	MessageID string
	// UserID identifies the user who invoked the command
	UserID string
	// Username is the display name of the user
	Username string
	// Command is the command name
	Command string
	// Args are the command arguments (text after the command)
	Args string
	// Surface posts and edits messages on the originating channel
	Surface chat.Surface
}

// CommandResponse contains the command execution result.
type CommandResponse struct {
	// Content is the reply text. Empty means the handler answered through the surface itself.
	Content string
}
