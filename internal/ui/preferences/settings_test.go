package preferences

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"timecard/internal/storage/settings"
)

func newStore(t *testing.T) *settings.Store {
	t.Helper()
	dir := t.TempDir()
	return settings.New(settings.Options{
		Path:          filepath.Join(dir, "settings.conf"),
		DefaultLogDir: filepath.Join(dir, "logs"),
	}, zap.NewNop())
}

func TestFromStore_ReadsDefaults(t *testing.T) {
	store := newStore(t)

	prefs := FromStore(store)
	assert.Equal(t, store.LogDir(), prefs.LogDir)
	assert.Equal(t, "time.log", prefs.LogName)
	assert.True(t, prefs.Persist)
	assert.False(t, prefs.DecimalDuration)
	assert.Zero(t, prefs.FocusInterval)
}

func TestApply_UnchangedSettingsReportNothing(t *testing.T) {
	store := newStore(t)

	result, err := FromStore(store).Apply(store)
	require.NoError(t, err)
	assert.False(t, result.LogPathChanged)
	assert.False(t, result.FocusChanged)
}

func TestApply_ReportsLogPathAndFocusChanges(t *testing.T) {
	store := newStore(t)
	prefs := FromStore(store)
	prefs.LogName = "work.log"
	prefs.FocusInterval = 30
	prefs.DecimalDuration = true

	result, err := prefs.Apply(store)
	require.NoError(t, err)
	assert.True(t, result.LogPathChanged)
	assert.True(t, result.FocusChanged)

	assert.Equal(t, "work.log", store.LogName())
	assert.True(t, store.DecimalDuration())
	interval, _ := store.Focus()
	assert.Equal(t, 30, interval)
}

func TestApply_LogDirComparedAfterCleaning(t *testing.T) {
	store := newStore(t)
	prefs := FromStore(store)
	prefs.LogDir = prefs.LogDir + string(os.PathSeparator)

	result, err := prefs.Apply(store)
	require.NoError(t, err)
	assert.False(t, result.LogPathChanged)
}

func TestApply_RejectsInvalidValues(t *testing.T) {
	store := newStore(t)

	tests := map[string]func(*Settings){
		"empty log name":     func(s *Settings) { s.LogName = "" },
		"log name with dirs": func(s *Settings) { s.LogName = filepath.Join("sub", "time.log") },
		"negative focus":     func(s *Settings) { s.FocusInterval = -5 },
		"empty date format":  func(s *Settings) { s.DateFormat = "" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			prefs := FromStore(store)
			mutate(&prefs)
			_, err := prefs.Apply(store)
			assert.Error(t, err)
			assert.Equal(t, "time.log", store.LogName())
		})
	}
}
