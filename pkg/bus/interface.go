// Package bus routes selection signals from chat surfaces to the lookups awaiting them.
package bus

import (
	"context"
	"time"
)

// Signal is a user's choice on a posted candidate list.
type Signal struct {
	ID        string    `json:"id"`         // Unique signal ID
	MessageID string    `json:"message_id"` // List message the signal refers to
	ChannelID string    `json:"channel_id"` // Channel holding the list message
	UserID    string    `json:"user_id"`    // User who produced the signal
	Index     int       `json:"index"`      // Zero-based candidate index
	Timestamp time.Time `json:"timestamp"`  // When the signal was observed
}

// Handler processes a signal for a subscribed message.
type Handler func(ctx context.Context, sig *Signal) error

// Bus is the interface for signal routing.
type Bus interface {
	// Start starts the bus.
	Start() error

	// Stop stops the bus.
	Stop() error

	// Subscribe registers a handler for signals on a message.
	Subscribe(messageID string, handler Handler)

	// Unsubscribe removes all handlers for a message.
	Unsubscribe(messageID string)

	// Publish routes a signal to the handlers of its message.
	Publish(sig *Signal) error

	// GetMetrics returns current bus metrics.
	GetMetrics() map[string]uint64
}
