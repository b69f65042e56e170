package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer

	log := Init(Options{AppName: "spacenews", Output: &buf})
	log.Info("page built", "uid", "hello-world")
	log.Debug("hidden")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "page built", entry["msg"])
	assert.Equal(t, "spacenews", entry["app"])
	assert.Equal(t, "hello-world", entry["uid"])
	assert.Same(t, Log, slog.Default())
}

func TestInitDevelopmentWritesText(t *testing.T) {
	var buf bytes.Buffer

	log := Init(Options{Development: true, Output: &buf})
	log.Debug("cursor loaded", "count", 2)

	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "msg=\"cursor loaded\"")
	assert.Contains(t, buf.String(), "count=2")
}
