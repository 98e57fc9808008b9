package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWithoutPathIsNop(t *testing.T) {
	t.Parallel()

	logger, err := New(Config{Level: "debug"})
	require.NoError(t, err)
	require.NotNil(t, logger)
	logger.Info("dropped")
}

func TestNewWritesJSONToFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state", "echoes.log")
	logger, err := New(Config{Path: path, Level: "info"})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("session started", zap.String("scene", "INTRO"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	require.Equal(t, "INFO", entry["level"])
	require.Equal(t, "session started", entry["msg"])
	require.Equal(t, "INTRO", entry["scene"])
	require.Contains(t, entry, "timestamp")
	require.NotContains(t, entry, "caller")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	_, err := New(Config{Path: filepath.Join(t.TempDir(), "x.log"), Level: "chatty"})
	require.ErrorContains(t, err, "chatty")
}
