package lookup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkgbot/pkg/commands"
	"pkgbot/pkg/config"
	"pkgbot/pkg/logger"
	"pkgbot/pkg/registry"
)

func TestRegisterCommands(t *testing.T) {
	client := registry.NewClient(0, "")
	set, err := registry.NewSet(
		registry.NewComposerProvider(client, registry.ComposerOptions{}),
		registry.NewNPMProvider(client, registry.NPMOptions{}),
	)
	require.NoError(t, err)

	cmds := commands.NewRegistry("!")
	pipeline := NewPipeline(&fakeAwaiter{}, logger.Nop(), nil)
	require.NoError(t, RegisterCommands(cmds, set, pipeline))

	assert.True(t, cmds.IsCommand("!composer monolog"))
	assert.True(t, cmds.IsCommand("!npm left-pad"))

	cmd, _ := cmds.Get("composer")
	resp, err := cmd.Handler(context.Background(), commands.CommandRequest{Args: "  "})
	require.NoError(t, err)
	assert.Equal(t, "Usage: `!composer <search term>`", resp.Content)

	_, err = cmd.Handler(context.Background(), commands.CommandRequest{Args: "monolog"})
	assert.Error(t, err)

	assert.Error(t, RegisterCommands(cmds, set, pipeline))
}

func TestCommandRunsPipeline(t *testing.T) {
	provider := &fakeProvider{searchResp: searchResponse(2), detail: sampleDetail()}
	set, err := registry.NewSet(provider)
	require.NoError(t, err)

	cmds := commands.NewRegistry("!")
	require.NoError(t, RegisterCommands(cmds, set, newTestPipeline(&fakeAwaiter{index: 1}, Settings{})))

	surface := newFakeSurface()
	name, args := cmds.Parse("!composer   pkg ")
	cmd, ok := cmds.Get(name)
	require.True(t, ok)

	resp, err := cmd.Handler(context.Background(), commands.CommandRequest{
		ChannelID: "chan",
		MessageID: "trigger",
		UserID:    "requester",
		Args:      args,
		Surface:   surface,
	})

	require.NoError(t, err)
	assert.Empty(t, resp.Content)
	assert.Len(t, surface.edits, 1)
}

func TestSettingsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Lookup.SelectionTimeout = "90s"
	cfg.Lookup.MaxResults = 5

	s := SettingsFromConfig(cfg)
	assert.Equal(t, 5, s.MaxResults)
	assert.Equal(t, "1m30s", s.SelectionTimeout.String())
	assert.Equal(t, 2048, s.List.MaxLength)
	assert.Equal(t, 24, s.List.MinDescription)
}
