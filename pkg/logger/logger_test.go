package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	logPath := filepath.Join(t.TempDir(), "logs", "pkgbot.log")

	log, err := New(&Config{
		Level:      LevelInfo,
		OutputPath: logPath,
		MaxSize:    1,
		Console:    &console,
	})
	require.NoError(t, err)

	log.WithFields(zap.String("run_id", "r-1")).Info("lookup finished")
	log.Debug("hidden at info level")
	_ = log.Sync()

	assert.Contains(t, console.String(), `"msg":"lookup finished"`)
	assert.Contains(t, console.String(), `"run_id":"r-1"`)
	assert.NotContains(t, console.String(), "hidden at info level")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "lookup finished")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud"})
	require.Error(t, err)
}

func TestNewConsoleIsHumanReadable(t *testing.T) {
	var out bytes.Buffer
	log, err := NewConsole(&out, LevelDebug)
	require.NoError(t, err)

	log.Named("lookup").Debug("selected", zap.Int("index", 2))
	_ = log.Sync()

	assert.Contains(t, out.String(), "lookup")
	assert.Contains(t, out.String(), "selected")
	assert.NotContains(t, out.String(), `"msg"`)
}

func TestNopDiscards(t *testing.T) {
	log := Nop()
	log.Error("nothing to see")
	assert.NotNil(t, log.Sugar())
}
