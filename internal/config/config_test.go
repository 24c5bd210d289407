package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "survey_runner", cfg.Mongo.Database)
	assert.False(t, cfg.Relay.Enabled)
	assert.Equal(t, time.Second, cfg.StepDelay())
	assert.Equal(t, 256, cfg.Hub.SendBuffer)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
engine:
  step_delay_ms: 250
log:
  level: debug
`), 0o644))

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.StepDelay())
	assert.Equal(t, "debug", cfg.Log.Level)

	t.Setenv("PORT", "9100")
	cfg, err = LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port, "env beats file")

	cfg, err = LoadConfig(path, []string{"-port", "9200", "-step-delay-ms", "0", "-relay"})
	require.NoError(t, err)
	assert.Equal(t, 9200, cfg.Server.Port, "flags beat env")
	assert.Equal(t, time.Duration(0), cfg.StepDelay())
	assert.True(t, cfg.Relay.Enabled)
}

func TestLoadConfigValidation(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	t.Setenv("HUB_SEND_BUFFER", "0")
	_, err := LoadConfig(missing, nil)
	assert.Error(t, err)

	t.Setenv("HUB_SEND_BUFFER", "16")
	t.Setenv("HUB_READ_TIMEOUT_SECONDS", "5")
	_, err = LoadConfig(missing, nil)
	assert.Error(t, err)
}

func TestLoadConfigRejectsUnknownFlags(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), []string{"-nope"})
	assert.Error(t, err)
}
