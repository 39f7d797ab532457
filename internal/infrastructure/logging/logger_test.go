package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewHonorsConfiguredLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "error"

	logger, err := New(cfg)
	require.NoError(t, err)
	defer logger.Sync()

	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.ErrorLevel))
}

func TestNewDevelopmentMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "debug"
	cfg.Development = true

	logger, err := New(cfg)
	require.NoError(t, err)
	defer logger.Sync()

	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "shout"

	_, err := New(cfg)
	assert.Error(t, err)
}
