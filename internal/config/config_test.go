package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaultsAndCreatesIt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timecard", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Empty(t, cfg.Log.File)
	assert.Equal(t, time.Second, cfg.Clock.TickInterval)
	assert.False(t, cfg.Backup.Disabled)
	assert.Equal(t, time.Second, cfg.Backup.QueryDelay)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "level: info")
	assert.Contains(t, string(data), "tick_interval: 1s")

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoad_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
  format: json
  file: /tmp/timecard.log
clock:
  tick_interval: 500ms
backup:
  disabled: true
  dir: /tmp/timecard-cache
  query_delay: 2s
settings:
  path: /tmp/settings.conf
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "/tmp/timecard.log", cfg.Log.File)
	assert.Equal(t, 500*time.Millisecond, cfg.Clock.TickInterval)
	assert.True(t, cfg.Backup.Disabled)
	assert.Equal(t, "/tmp/timecard-cache", cfg.Backup.Dir)
	assert.Equal(t, 2*time.Second, cfg.Backup.QueryDelay)
	assert.Equal(t, "/tmp/settings.conf", cfg.Settings.Path)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: info\n"), 0o644))
	t.Setenv("TIMECARD_LOG_LEVEL", "warn")
	t.Setenv("TIMECARD_BACKUP_DISABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Backup.Disabled)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: loud\n"), 0o644))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLoad_RejectsUnparsableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log: [unclosed\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_ReadsEnvFileBesideConfig(t *testing.T) {
	for _, key := range []string{"TIMECARD_CLOCK_TICK_INTERVAL", "TIMECARD_LOG_LEVEL"} {
		key := key
		require.NoError(t, os.Unsetenv(key))
		t.Cleanup(func() { _ = os.Unsetenv(key) })
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: info\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, EnvFileName), []byte(
		"TIMECARD_CLOCK_TICK_INTERVAL=250ms\nTIMECARD_LOG_LEVEL=debug\n"), 0o644))
	require.NoError(t, os.Setenv("TIMECARD_LOG_LEVEL", "error"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.Clock.TickInterval)
	assert.Equal(t, "error", cfg.Log.Level, "the process environment wins over the env file")
}

func TestWrite_ReplacesFileWithoutLeftovers(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	path := filepath.Join(dir, "config.yaml")
	cfg := &Config{Log: LogConfig{Level: "warn", Format: "json"}}

	require.NoError(t, Write(path, cfg))
	cfg.Log.Level = "error"
	require.NoError(t, Write(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "level: error")

	names, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, names, 1)
	assert.Equal(t, "config.yaml", names[0].Name())
}
