package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workflow-builder/nodeq-mindmap/internal/config"
)

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer

	logger, err := NewLogger(config.LogConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Info("pipeline.create", "id", "p1")
	logger.Warn("predict.backend_unavailable", "backend", "http")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "predict.backend_unavailable", entry["msg"])
	assert.Equal(t, "http", entry["backend"])
}

func TestNewLoggerText(t *testing.T) {
	var buf bytes.Buffer

	logger, err := NewLogger(config.LogConfig{Level: "debug"}, &buf)
	require.NoError(t, err)

	logger.Debug("plan.mapping", "output", "fullName")
	assert.Contains(t, buf.String(), "msg=plan.mapping output=fullName")
}

func TestNewLoggerErrors(t *testing.T) {
	_, err := NewLogger(config.LogConfig{Level: "loud"}, nil)
	assert.Error(t, err)

	_, err = NewLogger(config.LogConfig{Level: "info", Format: "xml"}, nil)
	assert.Error(t, err)

	level, err := ParseLevel("error")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelError, level)
}
