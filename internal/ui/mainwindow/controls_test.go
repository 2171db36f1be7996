package mainwindow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"timecard/internal/core/controller"
)

func TestControlsFor(t *testing.T) {
	tests := []struct {
		state     controller.State
		primary   control
		secondary control
	}{
		{controller.StateStopped, control{"Start", controller.ActionStart, true}, control{"Stop", controller.ActionRequestStop, false}},
		{controller.StateRunning, control{"Pause", controller.ActionPause, true}, control{"Stop", controller.ActionRequestStop, true}},
		{controller.StatePaused, control{"Resume", controller.ActionResume, true}, control{"Stop", controller.ActionRequestStop, true}},
		{controller.StatePromptingStop, control{"Resume", controller.ActionResume, false}, control{"Stop", controller.ActionRequestStop, false}},
		{controller.StateAwaitingSaveOrReset, control{"Save", controller.ActionSave, true}, control{"Reset", controller.ActionRequestReset, true}},
		{controller.StatePromptingReset, control{"Save", controller.ActionSave, false}, control{"Reset", controller.ActionRequestReset, false}},
	}
	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			primary, secondary := controlsFor(tt.state)
			assert.Equal(t, tt.primary, primary)
			assert.Equal(t, tt.secondary, secondary)
		})
	}
}
