// Package chat defines the platform-neutral message surface used by lookup commands.
//
// A Card is the render document posted to (and edited on) a chat platform. Channel
// implementations translate it to their native format, e.g. Discord embeds.
package chat

import "context"

// ZeroWidthSpace renders as an empty cell in field grids.
const ZeroWidthSpace = "\u200B"

// SpacerField is a blank field used to force a row break in inline field grids.
var SpacerField = Field{Name: ZeroWidthSpace, Value: ZeroWidthSpace}

// Field is one name/value cell of a card. Inline fields share a row (up to three on Discord).
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// IsSpacer reports whether f is a layout-only spacer.
func (f Field) IsSpacer() bool {
	return f.Name == ZeroWidthSpace && f.Value == ZeroWidthSpace
}

// Author is the attribution block shown above a card title.
type Author struct {
	Name    string
	IconURL string
	URL     string
}

// Card is a structured message.
type Card struct {
	Title       string
	URL         string
	Description string
	Author      *Author
	Footer      string
	Fields      []Field
	Color       int
}

// MessageRef identifies a posted message.
type MessageRef struct {
	ChannelID string
	MessageID string
}

// Surface is the subset of a chat platform a lookup run talks to.
type Surface interface {
	// Send posts a card to a channel.
	Send(ctx context.Context, channelID string, card Card) (MessageRef, error)
	// Edit replaces the card of a previously posted message in place.
	Edit(ctx context.Context, ref MessageRef, card Card) error
	// Reply posts a plain text reply to a user message.
	Reply(ctx context.Context, channelID, replyToID, text string) error
	// OfferChoices attaches n selection affordances (reactions, buttons) to a message.
	OfferChoices(ctx context.Context, ref MessageRef, n int) error
}
