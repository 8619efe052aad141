// Package discord provides the Discord channel: command routing from messages,
// embed rendering for lookup cards and number reactions as selection signals.
package discord

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"pkgbot/pkg/bus"
	"pkgbot/pkg/chat"
	"pkgbot/pkg/commands"
	"pkgbot/pkg/config"
	"pkgbot/pkg/logger"
)

// commandTimeout bounds one command run, including the wait for a selection.
const commandTimeout = 5 * time.Minute

// choiceEmojis are the reactions offered for candidates 1 to 10.
var choiceEmojis = []string{"1️⃣", "2️⃣", "3️⃣", "4️⃣", "5️⃣", "6️⃣", "7️⃣", "8️⃣", "9️⃣", "🔟"}

// session is the subset of *discordgo.Session the channel uses.
type session interface {
	AddHandler(handler interface{}) func()
	Open() error
	Close() error
	User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendReply(channelID string, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
}

// Channel implements Discord channel.
type Channel struct {
	log      *logger.Logger
	config   config.DiscordConfig
	bus      bus.Bus
	commands *commands.Registry
	session  session

	ctx    context.Context
	cancel context.CancelFunc
}

var _ chat.Surface = (*Channel)(nil)

// NewChannel creates a new Discord channel.
func NewChannel(
	log *logger.Logger,
	cfg config.DiscordConfig,
	b bus.Bus,
	cmdRegistry *commands.Registry,
) (*Channel, error) {
	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsDirectMessageReactions

	return newChannel(log, cfg, b, cmdRegistry, s), nil
}

func newChannel(log *logger.Logger, cfg config.DiscordConfig, b bus.Bus, cmdRegistry *commands.Registry, s session) *Channel {
	ctx, cancel := context.WithCancel(context.Background())
	return &Channel{
		log:      log,
		config:   cfg,
		bus:      b,
		commands: cmdRegistry,
		session:  s,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// ID returns the channel identifier.
func (c *Channel) ID() string {
	return "discord"
}

// Name returns the channel name.
func (c *Channel) Name() string {
	return "Discord"
}

// IsEnabled returns whether the channel is enabled.
func (c *Channel) IsEnabled() bool {
	return c.config.Enabled
}

// Start connects the bot.
func (c *Channel) Start(ctx context.Context) error {
	c.log.Info("Starting Discord channel")

	c.session.AddHandler(c.handleMessage)
	c.session.AddHandler(c.handleReaction)

	if err := c.session.Open(); err != nil {
		return fmt.Errorf("opening discord connection: %w", err)
	}

	botUser, err := c.session.User("@me")
	if err != nil {
		c.log.Warn("Failed to get bot user", zap.Error(err))
	} else {
		c.log.Info("Discord bot connected",
			zap.String("username", botUser.Username),
			zap.String("user_id", botUser.ID))
	}

	return nil
}

// Stop cancels running commands and disconnects.
func (c *Channel) Stop(ctx context.Context) error {
	c.log.Info("Stopping Discord channel")
	c.cancel()

	if err := c.session.Close(); err != nil {
		return fmt.Errorf("closing discord session: %w", err)
	}
	return nil
}

func (c *Channel) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	c.processMessage(m.Message, s.State.User.ID)
}

func (c *Channel) handleReaction(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	c.processReaction(r.MessageReaction, s.State.User.ID)
}

// processMessage routes commands and answers "@bot --help".
func (c *Channel) processMessage(m *discordgo.Message, botID string) {
	if m.Author == nil || m.Author.ID == botID || m.Author.Bot {
		return
	}

	if !c.isAllowed(m.Author.ID) {
		c.log.Warn("Unauthorized user",
			zap.String("user_id", m.Author.ID),
			zap.String("username", m.Author.Username))
		return
	}

	content := strings.TrimSpace(m.Content)

	if mentions(m, botID) && strings.Contains(content, "--help") {
		if err := c.Reply(c.ctx, m.ChannelID, m.ID, commands.Help(c.commands, "")); err != nil {
			c.log.Error("Failed to send help", zap.Error(err))
		}
		return
	}

	if c.commands.IsCommand(content) {
		c.handleCommand(m, content)
	}
}

// handleCommand runs a command. discordgo dispatches each event on its own
// goroutine, so blocking here only holds this command.
func (c *Channel) handleCommand(m *discordgo.Message, content string) {
	cmdName, args := c.commands.Parse(content)

	cmd, exists := c.commands.Get(cmdName)
	if !exists {
		c.log.Debug("Unknown command", zap.String("command", cmdName))
		return
	}

	c.log.Info("Executing command",
		zap.String("command", cmdName),
		zap.String("user", m.Author.Username))

	req := commands.CommandRequest{
		Channel:   c.ID(),
		ChannelID: m.ChannelID,
		MessageID: m.ID,
		UserID:    m.Author.ID,
		Username:  m.Author.Username,
		Command:   cmdName,
		Args:      args,
		Surface:   c,
	}

	ctx, cancel := context.WithTimeout(c.ctx, commandTimeout)
	defer cancel()

	resp, err := cmd.Handler(ctx, req)
	if err != nil {
		c.log.Error("Command execution failed",
			zap.String("command", cmdName),
			zap.Error(err))
		_ = c.Reply(ctx, m.ChannelID, m.ID, "❌ Command failed: "+err.Error())
		return
	}

	if resp.Content == "" {
		return
	}
	if err := c.Reply(ctx, m.ChannelID, m.ID, resp.Content); err != nil {
		c.log.Error("Failed to send command response", zap.Error(err))
	}
}

// processReaction turns a number reaction into a selection signal.
func (c *Channel) processReaction(r *discordgo.MessageReaction, botID string) {
	if r == nil || r.UserID == botID {
		return
	}
	index := choiceIndex(r.Emoji.Name)
	if index < 0 {
		return
	}

	sig := &bus.Signal{
		ID:        uuid.NewString(),
		MessageID: r.MessageID,
		ChannelID: r.ChannelID,
		UserID:    r.UserID,
		Index:     index,
		Timestamp: time.Now(),
	}
	if err := c.bus.Publish(sig); err != nil {
		c.log.Error("Failed to publish selection", zap.String("message_id", r.MessageID), zap.Error(err))
	}
}

// Send posts a card as an embed.
func (c *Channel) Send(ctx context.Context, channelID string, card chat.Card) (chat.MessageRef, error) {
	msg, err := c.session.ChannelMessageSendEmbed(channelID, toEmbed(card), discordgo.WithContext(ctx))
	if err != nil {
		return chat.MessageRef{}, fmt.Errorf("sending discord embed: %w", err)
	}
	return chat.MessageRef{ChannelID: channelID, MessageID: msg.ID}, nil
}

// Edit replaces the embed of a posted message.
func (c *Channel) Edit(ctx context.Context, ref chat.MessageRef, card chat.Card) error {
	if _, err := c.session.ChannelMessageEditEmbed(ref.ChannelID, ref.MessageID, toEmbed(card), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("editing discord embed: %w", err)
	}
	return nil
}

// Reply answers a message with plain text.
func (c *Channel) Reply(ctx context.Context, channelID, replyToID, text string) error {
	ref := &discordgo.MessageReference{MessageID: replyToID, ChannelID: channelID}
	if _, err := c.session.ChannelMessageSendReply(channelID, text, ref, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("sending discord reply: %w", err)
	}

	c.log.Debug("Sent Discord reply",
		zap.String("channel_id", channelID),
		zap.Int("length", len(text)))
	return nil
}

// OfferChoices adds one number reaction per candidate.
func (c *Channel) OfferChoices(ctx context.Context, ref chat.MessageRef, n int) error {
	if n > len(choiceEmojis) {
		return fmt.Errorf("cannot offer %d choices, at most %d", n, len(choiceEmojis))
	}
	for i := 0; i < n; i++ {
		if err := c.session.MessageReactionAdd(ref.ChannelID, ref.MessageID, choiceEmojis[i], discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("adding reaction %d: %w", i+1, err)
		}
	}
	return nil
}

// isAllowed checks if a user is allowed to use the bot.
func (c *Channel) isAllowed(userID string) bool {
	if len(c.config.AllowFrom) == 0 {
		return true
	}

	for _, allowed := range c.config.AllowFrom {
		if allowed == userID || allowed == "*" {
			return true
		}
	}

	return false
}

func mentions(m *discordgo.Message, userID string) bool {
	for _, u := range m.Mentions {
		if u != nil && u.ID == userID {
			return true
		}
	}
	return false
}

func choiceIndex(emoji string) int {
	for i, e := range choiceEmojis {
		if e == emoji {
			return i
		}
	}
	return -1
}

// Embed limits enforced by the Discord API.
const (
	maxEmbedTitle       = 256
	maxEmbedDescription = 4096
	maxEmbedFields      = 25
	maxFieldName        = 256
	maxFieldValue       = 1024
	maxEmbedFooter      = 2048
	maxEmbedAuthor      = 256
)

func toEmbed(card chat.Card) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       clamp(card.Title, maxEmbedTitle),
		URL:         card.URL,
		Description: clamp(card.Description, maxEmbedDescription),
		Color:       card.Color,
	}
	if card.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: clamp(card.Footer, maxEmbedFooter)}
	}
	if card.Author != nil {
		embed.Author = &discordgo.MessageEmbedAuthor{
			Name:    clamp(card.Author.Name, maxEmbedAuthor),
			IconURL: card.Author.IconURL,
			URL:     card.Author.URL,
		}
	}
	for _, f := range card.Fields {
		if len(embed.Fields) == maxEmbedFields {
			break
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   clamp(f.Name, maxFieldName),
			Value:  clamp(f.Value, maxFieldValue),
			Inline: f.Inline,
		})
	}
	return embed
}

// clamp cuts s to at most limit runes, marking the cut with an ellipsis.
func clamp(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}
