// Package mainwindow is the primary timer window: elapsed time, the session
// note, the timer controls and the editable time log.
package mainwindow

import (
	"errors"
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"timecard/internal/core/controller"
	"timecard/internal/core/event"
	"timecard/internal/core/model"
	"timecard/internal/storage/timelog"
)

// Session is the controller the window drives.
type Session interface {
	State() controller.State
	Note() string
	SetNote(note string)
	Snapshot() model.Snapshot
	Can(action controller.Action) bool

	Start() error
	Pause() error
	Resume() error
	RequestStop() error
	ConfirmStop() error
	Cancel() error
	RequestReset() error
	ConfirmReset() error
	Save() (time.Time, error)
}

// LogStore is the time log as seen by the entry list.
type LogStore interface {
	RetrieveAll() ([]model.LogEntry, error)
	EditEntry(old, timestamp time.Time, duration model.Duration, notes string) (time.Time, bool, error)
	RemoveEntry(timestamp time.Time) (bool, error)
	Save() error
}

// Display supplies the presentation settings.
type Display interface {
	DateFormat() string
	DecimalDuration() bool
	Persist() bool
}

// Subscriber is the subscription half of the event bus.
type Subscriber interface {
	Subscribe(eventType event.Type, handler event.Handler) string
}

// Options contains optional hooks.
type Options struct {
	// OnQuit runs instead of app.Quit when the window is closed without
	// persisting.
	OnQuit func()
}

// Window manages the main timer UI.
type Window struct {
	app       fyne.App
	window    fyne.Window
	session   Session
	log       LogStore
	display   Display
	logger    *zap.Logger
	options   Options
	visible   bool
	timeLabel *canvas.Text
	notes     *widget.Entry
	primary   *widget.Button
	secondary *widget.Button
	actions   [2]controller.Action
	list      *widget.List
	entries   []model.LogEntry
	selected  int
	edit      *widget.Button
	remove    *widget.Button
}

// New creates the main window. It is not shown until Show is called.
func New(app fyne.App, session Session, log LogStore, display Display, logger *zap.Logger, options Options) *Window {
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &Window{
		app:      app,
		window:   app.NewWindow("Timecard"),
		session:  session,
		log:      log,
		display:  display,
		logger:   logger,
		options:  options,
		selected: -1,
	}
	if app.Icon() != nil {
		w.window.SetIcon(app.Icon())
	}

	w.timeLabel = canvas.NewText(model.Duration{}.String(), theme.Color(theme.ColorNameForeground))
	w.timeLabel.TextSize = 48
	w.timeLabel.TextStyle = fyne.TextStyle{Monospace: true, Bold: true}
	w.timeLabel.Alignment = fyne.TextAlignCenter

	w.notes = widget.NewEntry()
	w.notes.SetPlaceHolder("What are you working on?")
	w.notes.OnChanged = session.SetNote

	w.primary = widget.NewButton("", func() { w.perform(w.actions[0]) })
	w.primary.Importance = widget.HighImportance
	w.secondary = widget.NewButton("", func() { w.perform(w.actions[1]) })

	w.list = widget.NewList(
		func() int { return len(w.entries) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, item fyne.CanvasObject) {
			if id < len(w.entries) {
				item.(*widget.Label).SetText(formatEntry(w.entries[id], w.display.DateFormat(), w.display.DecimalDuration()))
			}
		},
	)
	w.list.OnSelected = func(id widget.ListItemID) {
		w.selected = id
		w.edit.Enable()
		w.remove.Enable()
	}
	w.list.OnUnselected = func(widget.ListItemID) {
		w.clearSelection()
	}

	w.edit = widget.NewButtonWithIcon("Edit", theme.DocumentCreateIcon(), w.editSelected)
	w.remove = widget.NewButtonWithIcon("Delete", theme.DeleteIcon(), w.removeSelected)
	w.edit.Disable()
	w.remove.Disable()

	header := container.NewVBox(
		container.NewPadded(w.timeLabel),
		w.notes,
		container.NewGridWithColumns(2, w.primary, w.secondary),
		widget.NewSeparator(),
	)
	footer := container.NewHBox(layout.NewSpacer(), w.edit, w.remove)
	w.window.SetContent(container.NewBorder(header, footer, nil, nil, w.list))
	w.window.Resize(fyne.NewSize(520, 480))
	w.window.SetCloseIntercept(w.handleClose)

	w.refreshControls()
	w.Reload()
	return w
}

// Window exposes the underlying fyne window, e.g. as dialog parent.
func (w *Window) Window() fyne.Window { return w.window }

// Attach keeps the window in sync with timer events.
func (w *Window) Attach(bus Subscriber) {
	bus.Subscribe(event.TypeTick, func(e event.Event) {
		if tick, ok := e.(event.TickEvent); ok {
			w.setElapsed(tick.Elapsed)
		}
	})
	bus.Subscribe(event.TypeStateChanged, func(event.Event) {
		w.refreshControls()
		w.setElapsed(model.DurationFromMillis(w.session.Snapshot().ElapsedMs))
		if note := w.session.Note(); note != w.notes.Text {
			w.notes.SetText(note)
		}
	})
	bus.Subscribe(event.TypeSave, func(event.Event) {
		w.Reload()
	})
}

// Show displays the window.
func (w *Window) Show() {
	w.visible = true
	w.window.Show()
	w.window.RequestFocus()
}

// Hide hides the window without stopping the timer.
func (w *Window) Hide() {
	w.visible = false
	w.window.Hide()
}

// ToggleVisible shows a hidden window and hides a visible one.
func (w *Window) ToggleVisible() {
	if w.visible {
		w.Hide()
		return
	}
	w.Show()
}

// Reload refreshes the log list from the time log.
func (w *Window) Reload() {
	entries, err := w.log.RetrieveAll()
	if err != nil {
		w.logger.Warn("failed to read time log", zap.Error(err))
		dialog.ShowError(err, w.window)
		return
	}
	w.entries = newestFirst(entries)
	w.list.UnselectAll()
	w.clearSelection()
	w.list.Refresh()
}

func (w *Window) setElapsed(elapsed model.Duration) {
	w.timeLabel.Text = elapsed.String()
	w.timeLabel.Refresh()
}

func (w *Window) refreshControls() {
	primary, secondary := controlsFor(w.session.State())
	w.actions = [2]controller.Action{primary.action, secondary.action}
	for _, pair := range []struct {
		button  *widget.Button
		control control
	}{{w.primary, primary}, {w.secondary, secondary}} {
		pair.button.SetText(pair.control.label)
		if pair.control.enabled && w.session.Can(pair.control.action) {
			pair.button.Enable()
		} else {
			pair.button.Disable()
		}
	}
}

func (w *Window) perform(action controller.Action) {
	var err error
	switch action {
	case controller.ActionStart:
		err = w.session.Start()
	case controller.ActionPause:
		err = w.session.Pause()
	case controller.ActionResume:
		err = w.session.Resume()
	case controller.ActionRequestStop:
		if err = w.session.RequestStop(); err == nil {
			w.confirm("Stop timer", "Stop the current session?", w.session.ConfirmStop)
		}
	case controller.ActionRequestReset:
		if err = w.session.RequestReset(); err == nil {
			w.confirm("Reset timer", "Discard the current session without saving it?", w.session.ConfirmReset)
		}
	case controller.ActionSave:
		w.save()
		return
	}
	if err != nil {
		w.logger.Debug("timer action ignored", zap.String("action", string(action)), zap.Error(err))
		w.refreshControls()
	}
}

func (w *Window) confirm(title, message string, onConfirm func() error) {
	dialog.ShowConfirm(title, message, func(ok bool) {
		var err error
		if ok {
			err = onConfirm()
		} else {
			err = w.session.Cancel()
		}
		if err != nil {
			w.logger.Warn("prompt answer rejected", zap.String("prompt", title), zap.Error(err))
		}
	}, w.window)
}

func (w *Window) save() {
	_, err := w.session.Save()
	switch {
	case err == nil:
	case errors.Is(err, timelog.ErrPersist):
		w.offerRetry(err)
	default:
		dialog.ShowError(err, w.window)
	}
}

func (w *Window) offerRetry(err error) {
	message := widget.NewLabel(err.Error() + "\nThe entry is kept in memory until the log can be written.")
	message.Wrapping = fyne.TextWrapWord
	dialog.ShowCustomConfirm("Time log not saved", "Retry", "Dismiss", message, func(retry bool) {
		if !retry {
			return
		}
		if err := w.log.Save(); err != nil {
			w.offerRetry(err)
		}
	}, w.window)
}

func (w *Window) clearSelection() {
	w.selected = -1
	w.edit.Disable()
	w.remove.Disable()
}

func (w *Window) selectedEntry() (model.LogEntry, bool) {
	if w.selected < 0 || w.selected >= len(w.entries) {
		return model.LogEntry{}, false
	}
	return w.entries[w.selected], true
}

func (w *Window) editSelected() {
	entry, ok := w.selectedEntry()
	if !ok {
		return
	}

	timestamp := widget.NewEntry()
	timestamp.SetText(entry.TimestampString())
	duration := widget.NewEntry()
	duration.SetText(entry.Duration.String())
	notes := widget.NewEntry()
	notes.SetText(entry.Notes)

	items := []*widget.FormItem{
		widget.NewFormItem("Started", timestamp),
		widget.NewFormItem("Duration", duration),
		widget.NewFormItem("Notes", notes),
	}
	items[0].HintText = "year-month-day-hour-minute-second"
	items[1].HintText = "HH:MM:SS"

	form := dialog.NewForm("Edit entry", "Save", "Cancel", items, func(confirmed bool) {
		if !confirmed {
			return
		}
		edited, err := parseEdit(timestamp.Text, duration.Text, notes.Text)
		if err != nil {
			dialog.ShowError(err, w.window)
			return
		}
		_, found, err := w.log.EditEntry(entry.Timestamp, edited.Timestamp, edited.Duration, edited.Notes)
		switch {
		case err != nil:
			dialog.ShowError(err, w.window)
		case !found:
			dialog.ShowError(fmt.Errorf("no entry at %s", entry.TimestampString()), w.window)
		}
		w.Reload()
	}, w.window)
	form.Resize(fyne.NewSize(420, 240))
	form.Show()
}

func (w *Window) removeSelected() {
	entry, ok := w.selectedEntry()
	if !ok {
		return
	}
	message := fmt.Sprintf("Delete the entry from %s?", entry.FormatTimestamp(w.display.DateFormat()))
	dialog.ShowConfirm("Delete entry", message, func(confirmed bool) {
		if !confirmed {
			return
		}
		if _, err := w.log.RemoveEntry(entry.Timestamp); err != nil {
			dialog.ShowError(err, w.window)
		}
		w.Reload()
	}, w.window)
}

func (w *Window) handleClose() {
	if w.display.Persist() {
		w.Hide()
		w.app.SendNotification(fyne.NewNotification("Timecard", "Timecard keeps running in the system tray."))
		return
	}
	if w.options.OnQuit != nil {
		w.options.OnQuit()
		return
	}
	w.app.Quit()
}
