package tray

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"timecard/internal/core/controller"
	"timecard/internal/core/model"
)

func TestStatusLine(t *testing.T) {
	elapsed := model.Duration{Hours: 1, Minutes: 2, Seconds: 3}

	assert.Equal(t, "Idle", statusLine(controller.StateStopped, elapsed))
	assert.Equal(t, "Running: 01:02:03", statusLine(controller.StateRunning, elapsed))
	assert.Equal(t, "Paused: 01:02:03", statusLine(controller.StatePaused, elapsed))
	assert.Equal(t, "Paused: 01:02:03", statusLine(controller.StatePromptingStop, elapsed))
	assert.Equal(t, "Stopped: 01:02:03 (unsaved)", statusLine(controller.StateAwaitingSaveOrReset, elapsed))
}

func TestToggleLabel(t *testing.T) {
	tests := []struct {
		state   controller.State
		label   string
		enabled bool
	}{
		{controller.StateStopped, "Start", true},
		{controller.StateRunning, "Pause", true},
		{controller.StatePaused, "Resume", true},
		{controller.StatePromptingStop, "Start", false},
		{controller.StateAwaitingSaveOrReset, "Start", false},
		{controller.StatePromptingReset, "Start", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			label, enabled := toggleLabel(tt.state)
			assert.Equal(t, tt.label, label)
			assert.Equal(t, tt.enabled, enabled)
		})
	}
}

func TestManager_TracksStateWithoutApp(t *testing.T) {
	toggled := 0
	manager := New(nil, Callbacks{OnToggle: func() { toggled++ }})
	assert.Equal(t, "Idle", manager.statusItem.Label)
	assert.Equal(t, "Start", manager.toggleItem.Label)

	manager.SetState(controller.StateRunning)
	manager.SetElapsed(model.Duration{Seconds: 5})
	assert.Equal(t, "Running: 00:00:05", manager.statusItem.Label)
	assert.Equal(t, "Pause", manager.toggleItem.Label)

	manager.toggleItem.Action()
	assert.Equal(t, 1, toggled)
}
