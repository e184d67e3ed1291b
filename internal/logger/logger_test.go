package logger_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dezeto/expo-push-dispatch/internal/logger"
)

func TestFromConfig(t *testing.T) {
	assert.Equal(t, logger.Config{Level: slog.LevelDebug, Format: "text"}, logger.FromConfig("debug", ""))
	assert.Equal(t, logger.Config{Level: slog.LevelWarn, Format: "json"}, logger.FromConfig("WARN", "JSON"))
	assert.Equal(t, logger.Config{Level: slog.LevelInfo, Format: "text"}, logger.FromConfig("loud", "yaml"))
}

func TestNew_JSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, logger.Config{Level: slog.LevelWarn, Format: "json"})

	log.Info("hidden")
	log.Warn("shown", "chunk", 3)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["msg"])
	assert.EqualValues(t, 3, line["chunk"])
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, logger.FromConfig("info", "text"))
	log.Info("dispatch complete")
	assert.Contains(t, buf.String(), "dispatch complete")
}
