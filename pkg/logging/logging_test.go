package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogrusLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("debug", &buf)

	log.Info("session created", map[string]interface{}{"session_id": "abc"})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "session created", entry["msg"])
	assert.Equal(t, "abc", entry["session_id"])
	assert.Equal(t, "info", entry["level"])
}

func TestLogrusLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("warn", &buf)

	log.Debug("hidden", nil)
	log.Info("also hidden", nil)
	assert.Empty(t, buf.String())

	log.Warn("shown", nil)
	assert.Contains(t, buf.String(), "shown")
}

func TestLogrusLogger_WithField(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("info", &buf).WithField("component", "pool")

	log.Info("ready", nil)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "pool", entry["component"])
}

func TestTestLogger_Capture(t *testing.T) {
	log := NewTestLogger()

	log.Warn("sweep failed", map[string]interface{}{"error": "boom"})
	child := log.WithField("scenario", "login")
	child.Info("started", nil)

	require.Len(t, log.Entries(), 2)
	assert.True(t, log.HasMessage("sweep failed"))
	assert.False(t, log.HasMessage("never logged"))
	assert.Equal(t, "login", log.Entries()[1].Fields["scenario"])
}
