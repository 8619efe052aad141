package discord

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkgbot/pkg/bus"
	"pkgbot/pkg/chat"
	"pkgbot/pkg/commands"
	"pkgbot/pkg/config"
	"pkgbot/pkg/logger"
)

const botID = "bot"

type sentReply struct {
	channelID, content, replyTo string
}

type fakeSession struct {
	mu        sync.Mutex
	embeds    []*discordgo.MessageEmbed
	edits     map[string]*discordgo.MessageEmbed
	replies   []sentReply
	reactions []string
	reactErr  error
}

func newFakeSession() *fakeSession {
	return &fakeSession{edits: map[string]*discordgo.MessageEmbed{}}
}

func (f *fakeSession) AddHandler(handler interface{}) func() { return func() {} }
func (f *fakeSession) Open() error                           { return nil }
func (f *fakeSession) Close() error                          { return nil }

func (f *fakeSession) User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error) {
	return &discordgo.User{ID: botID, Username: "pkgbot"}, nil
}

func (f *fakeSession) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embeds = append(f.embeds, embed)
	return &discordgo.Message{ID: "list-msg", ChannelID: channelID}, nil
}

func (f *fakeSession) ChannelMessageEditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits[messageID] = embed
	return &discordgo.Message{ID: messageID, ChannelID: channelID}, nil
}

func (f *fakeSession) ChannelMessageSendReply(channelID string, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, sentReply{channelID, content, reference.MessageID})
	return &discordgo.Message{ID: "reply"}, nil
}

func (f *fakeSession) MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reactErr != nil {
		return f.reactErr
	}
	f.reactions = append(f.reactions, emojiID)
	return nil
}

type recordingBus struct {
	bus.Bus
	mu      sync.Mutex
	signals []*bus.Signal
}

func (r *recordingBus) Publish(sig *bus.Signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, sig)
	return nil
}

func newTestChannel(t *testing.T, cfg config.DiscordConfig) (*Channel, *fakeSession, *recordingBus, *commands.Registry) {
	t.Helper()
	cmds := commands.NewRegistry("!")
	require.NoError(t, commands.RegisterBuiltinCommands(cmds))

	sess := newFakeSession()
	b := &recordingBus{}
	return newChannel(logger.Nop(), cfg, b, cmds, sess), sess, b, cmds
}

func message(content string, mentions ...*discordgo.User) *discordgo.Message {
	return &discordgo.Message{
		ID:        "trigger",
		ChannelID: "chan",
		Content:   content,
		Author:    &discordgo.User{ID: "user-1", Username: "alice"},
		Mentions:  mentions,
	}
}

func TestCommandReplies(t *testing.T) {
	c, sess, _, _ := newTestChannel(t, config.DiscordConfig{Enabled: true})

	c.processMessage(message("!status"), botID)

	require.Len(t, sess.replies, 1)
	assert.Equal(t, "chan", sess.replies[0].channelID)
	assert.Equal(t, "trigger", sess.replies[0].replyTo)
	assert.Contains(t, sess.replies[0].content, "Channel: discord")
}

func TestCommandReceivesSurface(t *testing.T) {
	c, _, _, cmds := newTestChannel(t, config.DiscordConfig{Enabled: true})

	var got commands.CommandRequest
	require.NoError(t, cmds.Register(&commands.Command{
		Name: "composer",
		Handler: func(ctx context.Context, req commands.CommandRequest) (commands.CommandResponse, error) {
			got = req
			return commands.CommandResponse{}, nil
		},
	}))

	c.processMessage(message("!composer  monolog logger"), botID)

	assert.Equal(t, "monolog logger", got.Args)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "trigger", got.MessageID)
	assert.Same(t, c, got.Surface)
}

func TestMentionHelp(t *testing.T) {
	c, sess, _, _ := newTestChannel(t, config.DiscordConfig{Enabled: true})

	c.processMessage(message("<@bot> --help", &discordgo.User{ID: botID}), botID)
	c.processMessage(message("--help"), botID)

	require.Len(t, sess.replies, 1)
	assert.Contains(t, sess.replies[0].content, "Available Commands")
}

func TestIgnoredMessages(t *testing.T) {
	c, sess, _, _ := newTestChannel(t, config.DiscordConfig{Enabled: true, AllowFrom: []string{"user-2"}})

	c.processMessage(message("!status"), botID)

	own := message("!status")
	own.Author = &discordgo.User{ID: botID}
	c.processMessage(own, botID)

	other := message("!status")
	other.Author = &discordgo.User{ID: "user-2", Bot: true}
	c.processMessage(other, botID)

	assert.Empty(t, sess.replies)
}

func TestReactionPublishesSignal(t *testing.T) {
	c, _, b, _ := newTestChannel(t, config.DiscordConfig{Enabled: true})

	c.processReaction(&discordgo.MessageReaction{
		UserID: "user-1", MessageID: "list-msg", ChannelID: "chan",
		Emoji: discordgo.Emoji{Name: "3️⃣"},
	}, botID)
	c.processReaction(&discordgo.MessageReaction{
		UserID: botID, MessageID: "list-msg", Emoji: discordgo.Emoji{Name: "1️⃣"},
	}, botID)
	c.processReaction(&discordgo.MessageReaction{
		UserID: "user-1", MessageID: "list-msg", Emoji: discordgo.Emoji{Name: "👍"},
	}, botID)

	require.Len(t, b.signals, 1)
	sig := b.signals[0]
	assert.Equal(t, "list-msg", sig.MessageID)
	assert.Equal(t, "user-1", sig.UserID)
	assert.Equal(t, 2, sig.Index)
	assert.NotEmpty(t, sig.ID)
	assert.WithinDuration(t, time.Now(), sig.Timestamp, time.Minute)
}

func TestSurface(t *testing.T) {
	c, sess, _, _ := newTestChannel(t, config.DiscordConfig{Enabled: true})
	ctx := context.Background()

	card := chat.Card{
		Title:  "monolog/monolog *(2.1.0)*",
		URL:    "https://packagist.org/packages/monolog/monolog",
		Footer: "Downloads: 1 daily",
		Author: &chat.Author{Name: "seldaek", IconURL: "https://a/s.png"},
		Fields: []chat.Field{{Name: "dependencies", Value: "1", Inline: true}, chat.SpacerField},
		Color:  0xF28D1A,
	}

	ref, err := c.Send(ctx, "chan", card)
	require.NoError(t, err)
	assert.Equal(t, chat.MessageRef{ChannelID: "chan", MessageID: "list-msg"}, ref)

	embed := sess.embeds[0]
	assert.Equal(t, card.Title, embed.Title)
	assert.Equal(t, "Downloads: 1 daily", embed.Footer.Text)
	assert.Equal(t, "seldaek", embed.Author.Name)
	require.Len(t, embed.Fields, 2)
	assert.True(t, embed.Fields[0].Inline)
	assert.Equal(t, chat.ZeroWidthSpace, embed.Fields[1].Value)

	require.NoError(t, c.OfferChoices(ctx, ref, 3))
	assert.Equal(t, []string{"1️⃣", "2️⃣", "3️⃣"}, sess.reactions)
	assert.Error(t, c.OfferChoices(ctx, ref, 11))

	require.NoError(t, c.Edit(ctx, ref, chat.Card{Title: "edited"}))
	assert.Equal(t, "edited", sess.edits["list-msg"].Title)
	assert.Nil(t, sess.edits["list-msg"].Footer)
	assert.Nil(t, sess.edits["list-msg"].Author)

	sess.reactErr = errors.New("missing permissions")
	assert.Error(t, c.OfferChoices(ctx, ref, 1))
}

func TestSurfaceClampsEmbedToDiscordLimits(t *testing.T) {
	c, sess, _, _ := newTestChannel(t, config.DiscordConfig{Enabled: true})

	keywords := strings.TrimSuffix(strings.Repeat("keyword, ", 200), ", ")
	card := chat.Card{
		Title:       strings.Repeat("t", 300),
		Description: strings.Repeat("d", 5000),
		Fields:      []chat.Field{{Name: "keywords", Value: keywords, Inline: true}},
	}
	for i := 0; i < 30; i++ {
		card.Fields = append(card.Fields, chat.SpacerField)
	}

	_, err := c.Send(context.Background(), "chan", card)
	require.NoError(t, err)

	embed := sess.embeds[0]
	assert.Equal(t, maxEmbedTitle, utf8.RuneCountInString(embed.Title))
	assert.Equal(t, maxEmbedDescription, utf8.RuneCountInString(embed.Description))
	require.Len(t, embed.Fields, maxEmbedFields)
	assert.Equal(t, maxFieldValue, utf8.RuneCountInString(embed.Fields[0].Value))
	assert.True(t, strings.HasSuffix(embed.Fields[0].Value, "…"))
	assert.True(t, strings.HasPrefix(embed.Fields[0].Value, "keyword, keyword"))
	assert.Equal(t, "keywords", embed.Fields[0].Name)
}

func TestChoiceIndex(t *testing.T) {
	for i, e := range choiceEmojis {
		assert.Equal(t, i, choiceIndex(e))
	}
	assert.Equal(t, -1, choiceIndex("0️⃣"))
}
