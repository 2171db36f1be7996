package preferences

import (
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

// Window handles the preferences UI.
type Window struct {
	window     fyne.Window
	settings   Settings
	onSave     func(Settings) error
	logDir     *widget.Entry
	logName    *widget.Entry
	persist    *widget.Check
	dateFormat *widget.Entry
	decimal    *widget.Check
	focus      *widget.Entry
	randomize  *widget.Check
}

// New creates a preferences window. onSave returning an error keeps the window open.
func New(app fyne.App, settings Settings, onSave func(Settings) error) *Window {
	window := app.NewWindow("Timecard Preferences")

	prefs := &Window{
		window:     window,
		onSave:     onSave,
		logDir:     widget.NewEntry(),
		logName:    widget.NewEntry(),
		persist:    widget.NewCheck("Keep running in the tray when the window is closed", nil),
		dateFormat: widget.NewEntry(),
		decimal:    widget.NewCheck("Show durations as decimal hours", nil),
		focus:      widget.NewEntry(),
		randomize:  widget.NewCheck("Randomize reminder interval", nil),
	}
	prefs.dateFormat.SetPlaceHolder("%Y-%m-%d %H:%M:%S")
	prefs.focus.SetPlaceHolder("0 disables reminders")

	browse := widget.NewButton("Browse...", func() {
		dialog.ShowFolderOpen(func(dir fyne.ListableURI, err error) {
			if err != nil {
				dialog.ShowError(err, window)
				return
			}
			if dir != nil {
				prefs.logDir.SetText(dir.Path())
			}
		}, window)
	})

	form := container.NewVBox(
		widget.NewLabelWithStyle("Time log", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewBorder(nil, nil, widget.NewLabel("Directory"), browse, prefs.logDir),
		container.NewBorder(nil, nil, widget.NewLabel("File name"), nil, prefs.logName),
		widget.NewLabelWithStyle("Display", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewBorder(nil, nil, widget.NewLabel("Date format"), nil, prefs.dateFormat),
		prefs.decimal,
		prefs.persist,
		widget.NewLabelWithStyle("Focus reminders", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewBorder(nil, nil, widget.NewLabel("Every"), widget.NewLabel("min"), prefs.focus),
		prefs.randomize,
	)

	saveButton := widget.NewButton("Save", prefs.handleSave)
	cancelButton := widget.NewButton("Cancel", window.Hide)
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	window.SetContent(container.NewBorder(nil, buttons, nil, nil, form))
	window.SetCloseIntercept(window.Hide)
	window.Resize(fyne.NewSize(480, 380))

	prefs.UpdateSettings(settings)
	return prefs
}

// Show displays the preferences window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// UpdateSettings replaces window values.
func (prefs *Window) UpdateSettings(settings Settings) {
	prefs.settings = settings
	prefs.logDir.SetText(settings.LogDir)
	prefs.logName.SetText(settings.LogName)
	prefs.persist.SetChecked(settings.Persist)
	prefs.dateFormat.SetText(settings.DateFormat)
	prefs.decimal.SetChecked(settings.DecimalDuration)
	prefs.focus.SetText(strconv.Itoa(settings.FocusInterval))
	prefs.randomize.SetChecked(settings.FocusRandomize)
}

func (prefs *Window) handleSave() {
	settings := prefs.settings
	settings.LogDir = strings.TrimSpace(prefs.logDir.Text)
	settings.LogName = strings.TrimSpace(prefs.logName.Text)
	settings.Persist = prefs.persist.Checked
	settings.DateFormat = prefs.dateFormat.Text
	settings.DecimalDuration = prefs.decimal.Checked
	settings.FocusInterval = parseMinutes(prefs.focus.Text)
	settings.FocusRandomize = prefs.randomize.Checked

	if prefs.onSave != nil {
		if err := prefs.onSave(settings); err != nil {
			dialog.ShowError(err, prefs.window)
			return
		}
	}
	prefs.settings = settings
	prefs.window.Hide()
}

func parseMinutes(value string) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed < 0 {
		return 0
	}
	return parsed
}
