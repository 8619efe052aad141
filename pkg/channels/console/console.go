// Package console renders lookup cards on a terminal and reads the selection
// from standard input. It backs the lookup subcommand of the CLI.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pkgbot/pkg/bus"
	"pkgbot/pkg/chat"
	"pkgbot/pkg/logger"
)

// ChannelID is the channel every console message is posted to.
const ChannelID = "console"

// UserID identifies the person at the terminal.
const UserID = "console-user"

// Surface is a chat.Surface over a pair of streams.
type Surface struct {
	log *logger.Logger
	out io.Writer
	in  *bufio.Reader
	bus bus.Bus

	mu   sync.Mutex
	next int
}

var _ chat.Surface = (*Surface)(nil)

// New creates a console surface. Selections typed on in are published to b.
func New(log *logger.Logger, out io.Writer, in io.Reader, b bus.Bus) *Surface {
	return &Surface{
		log: log,
		out: out,
		in:  bufio.NewReader(in),
		bus: b,
	}
}

// Send prints a card and returns a reference to it.
func (s *Surface) Send(ctx context.Context, channelID string, card chat.Card) (chat.MessageRef, error) {
	s.mu.Lock()
	s.next++
	ref := chat.MessageRef{ChannelID: channelID, MessageID: "msg-" + strconv.Itoa(s.next)}
	s.mu.Unlock()

	if err := s.print(card); err != nil {
		return chat.MessageRef{}, err
	}
	return ref, nil
}

// Edit reprints the card. A terminal cannot rewrite earlier output.
func (s *Surface) Edit(ctx context.Context, ref chat.MessageRef, card chat.Card) error {
	return s.print(card)
}

// Reply prints a plain text answer.
func (s *Surface) Reply(ctx context.Context, channelID, replyToID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintln(s.out, text)
	return err
}

// OfferChoices prompts for a number and publishes it as a selection signal.
// Input that is not a number in range is ignored, so the run times out.
func (s *Surface) OfferChoices(ctx context.Context, ref chat.MessageRef, n int) error {
	s.mu.Lock()
	_, err := fmt.Fprintf(s.out, "Pick a package (1-%d): ", n)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	go s.readChoice(ref, n)
	return nil
}

func (s *Surface) readChoice(ref chat.MessageRef, n int) {
	line, err := s.in.ReadString('\n')
	if err != nil && line == "" {
		s.log.Debug("No selection read", zap.Error(err))
		return
	}

	choice, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || choice < 1 || choice > n {
		s.log.Debug("Ignoring selection", zap.String("input", strings.TrimSpace(line)))
		return
	}

	sig := &bus.Signal{
		ID:        uuid.NewString(),
		MessageID: ref.MessageID,
		ChannelID: ref.ChannelID,
		UserID:    UserID,
		Index:     choice - 1,
		Timestamp: time.Now(),
	}
	if err := s.bus.Publish(sig); err != nil {
		s.log.Warn("Failed to publish selection", zap.Error(err))
	}
}

func (s *Surface) print(card chat.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := io.WriteString(s.out, Render(card))
	return err
}

// Render formats a card as plain text.
func Render(card chat.Card) string {
	var sb strings.Builder

	sb.WriteString("\n")
	if card.Author != nil && card.Author.Name != "" {
		fmt.Fprintf(&sb, "by %s\n", card.Author.Name)
	}
	sb.WriteString(card.Title)
	sb.WriteString("\n")
	if card.URL != "" {
		fmt.Fprintf(&sb, "<%s>\n", card.URL)
	}
	if card.Description != "" {
		sb.WriteString("\n")
		sb.WriteString(card.Description)
		sb.WriteString("\n")
	}

	if len(card.Fields) > 0 {
		sb.WriteString("\n")
	}
	for _, f := range card.Fields {
		if f.IsSpacer() {
			continue
		}
		value := strings.ReplaceAll(f.Value, "\n", "\n    ")
		fmt.Fprintf(&sb, "  %s: %s\n", f.Name, value)
	}

	if card.Footer != "" {
		sb.WriteString("\n")
		sb.WriteString(card.Footer)
		sb.WriteString("\n")
	}
	return sb.String()
}
