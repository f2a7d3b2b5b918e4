package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Pool.MaxSessions)
	assert.Equal(t, 300*time.Second, cfg.Pool.SessionTimeout)
	assert.Equal(t, 25, cfg.Agent.MaxSteps)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.True(t, cfg.Run.Headless)
	assert.Equal(t, 2*time.Second, cfg.Run.InterTestPause)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
pool:
  max_sessions: 2
  session_timeout: 60s
llm:
  provider: ollama
  model: llama3.1
run:
  headless: false
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2, cfg.Pool.MaxSessions)
	assert.Equal(t, time.Minute, cfg.Pool.SessionTimeout)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "llama3.1", cfg.LLM.Model)
	assert.False(t, cfg.Run.Headless)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Untouched settings keep their defaults.
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 25, cfg.Agent.MaxSteps)
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	t.Setenv("VERITY_POOL_MAX_SESSIONS", "9")
	t.Setenv("VERITY_LLM_PROVIDER", "mistral")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.Pool.MaxSessions)
	assert.Equal(t, "mistral", cfg.LLM.Provider)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
