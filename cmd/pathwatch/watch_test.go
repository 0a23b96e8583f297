package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcortelli/pathwatch/internal/domain/entities"
)

func TestRunWatchArgValidation(t *testing.T) {
	t.Run("missing directory is an error", func(t *testing.T) {
		cmd := watchCmd
		cmd.SetContext(context.Background())
		err := runWatch(cmd, []string{filepath.Join(t.TempDir(), "nope")})
		assert.Error(t, err)
	})
}

func TestLoadConfigAppliesFlags(t *testing.T) {
	root := t.TempDir()

	port = 9321
	usePolling = true
	filters = []string{"**/*.md"}
	t.Cleanup(func() {
		port = 0
		usePolling = false
		filters = nil
	})

	cfg, err := loadConfig(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 9321, cfg.Server.Port)
	assert.True(t, cfg.Watch.UsePolling)
	assert.Equal(t, []string{"**/*.md"}, cfg.Watch.Filters)
	assert.Equal(t, root, cfg.Watch.Root)
}

func TestBuildProviderPolling(t *testing.T) {
	root := t.TempDir()
	cfg := &entities.Config{}
	cfg.Watch.UsePolling = true
	cfg.Watch.PollIntervalMs = 1000

	provider, cleanup, err := buildProvider(root, cfg, slog.Default())
	require.NoError(t, err)
	defer cleanup()

	tok := provider.Watch("**/*")
	assert.True(t, tok.ActiveChangeCallbacks())
}

func TestNewLoggerLevels(t *testing.T) {
	for _, level := range []string{"", "debug", "info", "warn", "error"} {
		logger := newLogger(entities.LoggingConfig{Level: level})
		require.NotNil(t, logger, "level %q", level)
	}
	require.NotNil(t, newLogger(entities.LoggingConfig{JSONFormat: true}))
}
