package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BeatGlow/flipdot/internal/config"
)

func TestNewLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flipdotd.log")
	logger := newLogger(config.Log{Level: "warn", File: path, MaxSizeMB: 1})
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())

	logger.Info().Msg("hidden")
	logger.Warn().Str("display", "28x16").Msg("visible")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"message":"visible"`)
	assert.NotContains(t, string(b), "hidden")
}

func TestNewLoggerLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, newLogger(config.Log{}).GetLevel())
	assert.Equal(t, zerolog.DebugLevel, newLogger(config.Log{Level: "debug"}).GetLevel())
}

func TestExampleConfig(t *testing.T) {
	c, err := config.Load("flipdotd.yaml")
	require.NoError(t, err)
	assert.Equal(t, config.TransportCounter, c.Transport)
	assert.Equal(t, 28, c.Display.Width)
}
