package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTOMLLoader(t *testing.T) {
	t.Run("local config loads and validates", func(t *testing.T) {
		dir := t.TempDir()
		content := `
[server]
host = "localhost"
port = 9000

[watch]
filters = ["**/*.go", "docs/"]
use_polling = true
poll_interval_ms = 1000

[logging]
level = "debug"
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "pathwatch.toml"), []byte(content), 0o644))

		loader := NewTOMLLoader()
		cfg, err := loader.LoadLocal(context.Background(), dir)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, 9000, cfg.Server.Port)
		assert.Equal(t, []string{"**/*.go", "docs/"}, cfg.Watch.Filters)
		assert.True(t, cfg.Watch.UsePolling)
		assert.Equal(t, 1000, cfg.Watch.PollIntervalMs)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("missing local config is nil without error", func(t *testing.T) {
		loader := NewTOMLLoader()
		cfg, err := loader.LoadLocal(context.Background(), t.TempDir())
		require.NoError(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("invalid TOML is an error", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "pathwatch.toml"), []byte("not = [toml"), 0o644))

		loader := NewTOMLLoader()
		_, err := loader.LoadLocal(context.Background(), dir)
		assert.Error(t, err)
	})

	t.Run("invalid values are an error", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "pathwatch.toml"), []byte("[server]\nport = 99999\n"), 0o644))

		loader := NewTOMLLoader()
		_, err := loader.LoadLocal(context.Background(), dir)
		assert.Error(t, err)
	})

	t.Run("paths are exposed", func(t *testing.T) {
		loader := NewTOMLLoader()
		assert.NotEmpty(t, loader.GetGlobalPath())
		assert.Equal(t, filepath.Join("some", "dir", "pathwatch.toml"), loader.GetLocalPath(filepath.Join("some", "dir")))
	})
}
