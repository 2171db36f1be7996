package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_Levels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		log, err := New(level, "json", "")
		require.NoError(t, err, level)
		want, _ := zapcore.ParseLevel(level)
		assert.True(t, log.Core().Enabled(want))
		assert.False(t, log.Core().Enabled(want-1))
	}
}

func TestNew_RejectsUnknownValues(t *testing.T) {
	_, err := New("loud", "json", "")
	assert.Error(t, err)

	_, err = New("info", "xml", "")
	assert.Error(t, err)
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timecard.log")

	log, err := New("info", "json", path)
	require.NoError(t, err)
	log.Info("session saved", zap.String("notes", "Drafted report"))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"session saved"`)
	assert.Contains(t, string(data), `"notes":"Drafted report"`)
	assert.Contains(t, string(data), `"logger":"timecard"`)
}
