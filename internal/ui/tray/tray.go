package tray

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"timecard/internal/core/controller"
	"timecard/internal/core/model"
)

const menuTitle = "Timecard"

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnShowHide    func()
	OnToggle      func()
	OnPreferences func()
	OnQuit        func()
}

// Manager handles system tray state.
type Manager struct {
	app        desktop.App
	statusItem *fyne.MenuItem
	showItem   *fyne.MenuItem
	toggleItem *fyne.MenuItem
	prefsItem  *fyne.MenuItem
	quitItem   *fyne.MenuItem
	callbacks  Callbacks
	state      controller.State
	elapsed    model.Duration
}

// New creates a tray manager with the provided callbacks.
func New(app desktop.App, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:       app,
		callbacks: callbacks,
		state:     controller.StateStopped,
	}

	manager.statusItem = fyne.NewMenuItem("", nil)
	manager.statusItem.Disabled = true

	manager.showItem = fyne.NewMenuItem("Show/Hide", func() {
		if manager.callbacks.OnShowHide != nil {
			manager.callbacks.OnShowHide()
		}
	})

	manager.toggleItem = fyne.NewMenuItem("", func() {
		if manager.callbacks.OnToggle != nil {
			manager.callbacks.OnToggle()
		}
	})

	manager.prefsItem = fyne.NewMenuItem("Preferences", func() {
		if manager.callbacks.OnPreferences != nil {
			manager.callbacks.OnPreferences()
		}
	})

	manager.quitItem = fyne.NewMenuItem("Quit", func() {
		if manager.callbacks.OnQuit != nil {
			manager.callbacks.OnQuit()
		}
	})
	manager.quitItem.IsQuit = true

	manager.refresh()
	return manager
}

// SetState updates the toggle item for a controller state.
func (manager *Manager) SetState(state controller.State) {
	manager.state = state
	manager.refresh()
}

// SetElapsed updates the elapsed time shown in the status line.
func (manager *Manager) SetElapsed(elapsed model.Duration) {
	manager.elapsed = elapsed
	manager.statusItem.Label = statusLine(manager.state, manager.elapsed)
	manager.refreshMenu()
}

func (manager *Manager) refresh() {
	manager.statusItem.Label = statusLine(manager.state, manager.elapsed)
	label, enabled := toggleLabel(manager.state)
	manager.toggleItem.Label = label
	manager.toggleItem.Disabled = !enabled
	manager.refreshMenu()
}

func (manager *Manager) refreshMenu() {
	if manager.app != nil {
		manager.app.SetSystemTrayMenu(fyne.NewMenu(menuTitle,
			manager.statusItem,
			fyne.NewMenuItemSeparator(),
			manager.showItem,
			manager.toggleItem,
			manager.prefsItem,
			fyne.NewMenuItemSeparator(),
			manager.quitItem,
		))
	}
}

func statusLine(state controller.State, elapsed model.Duration) string {
	switch state {
	case controller.StateRunning:
		return fmt.Sprintf("Running: %s", elapsed)
	case controller.StatePaused, controller.StatePromptingStop:
		return fmt.Sprintf("Paused: %s", elapsed)
	case controller.StateAwaitingSaveOrReset, controller.StatePromptingReset:
		return fmt.Sprintf("Stopped: %s (unsaved)", elapsed)
	default:
		return "Idle"
	}
}

func toggleLabel(state controller.State) (string, bool) {
	switch state {
	case controller.StateStopped:
		return "Start", true
	case controller.StateRunning:
		return "Pause", true
	case controller.StatePaused:
		return "Resume", true
	default:
		return "Start", false
	}
}
