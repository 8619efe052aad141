package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkgbot/pkg/bus"
	"pkgbot/pkg/channels"
	"pkgbot/pkg/commands"
	"pkgbot/pkg/config"
	"pkgbot/pkg/logger"
	"pkgbot/pkg/registry"
)

type idleChannel struct{}

func (idleChannel) ID() string                      { return "discord" }
func (idleChannel) Name() string                    { return "Discord" }
func (idleChannel) IsEnabled() bool                 { return false }
func (idleChannel) Start(ctx context.Context) error { return nil }
func (idleChannel) Stop(ctx context.Context) error  { return nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()

	providers, err := registry.NewSet(registry.NewComposerProvider(
		registry.NewClient(time.Second, "pkgbot-test"),
		registry.ComposerOptions{},
	))
	require.NoError(t, err)

	cmds := commands.NewRegistry("!")
	require.NoError(t, commands.RegisterBuiltinCommands(cmds))

	cm := channels.NewManager(logger.Nop())
	require.NoError(t, cm.Register(idleChannel{}))

	return NewServer(
		logger.Nop(),
		config.DefaultConfig(),
		bus.NewLocalBus(logger.Nop(), 1),
		providers,
		cm,
		cmds,
	)
}

func get(t *testing.T, s *Server, path string, out any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

func TestHealth(t *testing.T) {
	var body map[string]string
	assert.Equal(t, http.StatusOK, get(t, newTestServer(t), "/healthz", &body))
	assert.Equal(t, "ok", body["status"])
}

func TestStatus(t *testing.T) {
	var body map[string]interface{}
	require.Equal(t, http.StatusOK, get(t, newTestServer(t), "/api/status", &body))

	for _, key := range []string{"version", "go_version", "uptime", "memory_alloc_bytes"} {
		assert.Contains(t, body, key)
	}
	chans, ok := body["channels"].([]interface{})
	require.True(t, ok)
	require.Len(t, chans, 1)
	ch := chans[0].(map[string]interface{})
	assert.Equal(t, "discord", ch["id"])
	assert.Equal(t, "idle", ch["state"])
	assert.Equal(t, false, ch["enabled"])

	signals, ok := body["signals"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, signals, "signals_published")
}

func TestProvidersAndCommands(t *testing.T) {
	s := newTestServer(t)

	var providers []providerView
	require.Equal(t, http.StatusOK, get(t, s, "/api/providers", &providers))
	require.Len(t, providers, 1)
	assert.Equal(t, providerView{Name: "composer", Title: "Packagist", Command: "!composer", PlatformKey: "php"}, providers[0])

	var cmds []commandView
	require.Equal(t, http.StatusOK, get(t, s, "/api/commands", &cmds))
	require.Len(t, cmds, 2)
	assert.Equal(t, "help", cmds[0].Name)
	assert.Equal(t, "!help [command]", cmds[0].Usage)
}

func TestUnknownRoute(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, get(t, newTestServer(t), "/api/missing", nil))
}
