package mainwindow

import "timecard/internal/core/controller"

type control struct {
	label   string
	action  controller.Action
	enabled bool
}

// controlsFor maps a controller state to the primary and secondary buttons.
func controlsFor(state controller.State) (primary, secondary control) {
	switch state {
	case controller.StateStopped:
		return control{"Start", controller.ActionStart, true},
			control{"Stop", controller.ActionRequestStop, false}
	case controller.StateRunning:
		return control{"Pause", controller.ActionPause, true},
			control{"Stop", controller.ActionRequestStop, true}
	case controller.StatePaused:
		return control{"Resume", controller.ActionResume, true},
			control{"Stop", controller.ActionRequestStop, true}
	case controller.StatePromptingStop:
		return control{"Resume", controller.ActionResume, false},
			control{"Stop", controller.ActionRequestStop, false}
	case controller.StateAwaitingSaveOrReset:
		return control{"Save", controller.ActionSave, true},
			control{"Reset", controller.ActionRequestReset, true}
	case controller.StatePromptingReset:
		return control{"Save", controller.ActionSave, false},
			control{"Reset", controller.ActionRequestReset, false}
	default:
		return control{"Start", controller.ActionStart, false},
			control{"Stop", controller.ActionRequestStop, false}
	}
}
