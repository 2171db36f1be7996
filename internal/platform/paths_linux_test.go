//go:build linux

package platform

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirs_FollowXDG(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "cfg"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(home, "cache"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, "data"))

	dirs := NewDirs("timecard")

	configDir, err := dirs.ConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "cfg", "timecard"), configDir)

	cacheDir, err := dirs.CacheDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "cache", "timecard"), cacheDir)

	dataDir, err := dirs.DataDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "data", "timecard"), dataDir)

	assert.Equal(t, []string{filepath.Join(home, ".timecardrc")}, dirs.LegacySettingsPaths())
}

func TestDirs_DefaultsUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("XDG_DATA_HOME", "relative/is/ignored")

	dirs := NewDirs("timecard")

	configDir, err := dirs.ConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "timecard"), configDir)

	cacheDir, err := dirs.CacheDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".cache", "timecard"), cacheDir)

	dataDir, err := dirs.DataDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".local", "share", "timecard"), dataDir)
}
