package mainwindow

import (
	"path/filepath"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"timecard/internal/core/controller"
	"timecard/internal/core/event"
	"timecard/internal/core/session"
	"timecard/internal/storage/timelog"
)

type nopTicker struct{}

func (nopTicker) Connect(string, func(time.Time)) bool { return true }

func (nopTicker) Disconnect(string) bool { return true }

type logPaths struct {
	dir string
}

func (p logPaths) LogDir() string { return p.dir }

func (p logPaths) LogPath() string { return filepath.Join(p.dir, "time.log") }

type display struct {
	persist bool
}

func (display) DateFormat() string { return "" }

func (display) DecimalDuration() bool { return false }

func (d display) Persist() bool { return d.persist }

type fixture struct {
	window     *Window
	controller *controller.Controller
	log        *timelog.TimeLog
}

func newFixture(t *testing.T, persist bool, options Options) fixture {
	t.Helper()
	app := test.NewTempApp(t)
	bus := event.NewBus(nil)
	sess := session.New(nopTicker{}, bus, session.Config{})
	log := timelog.New(logPaths{dir: t.TempDir()}, zap.NewNop())
	ctrl := controller.New(sess, log, bus, nil, controller.Config{})

	w := New(app, ctrl, log, display{persist: persist}, nil, options)
	w.Attach(bus)
	return fixture{window: w, controller: ctrl, log: log}
}

func TestWindow_ControlsFollowController(t *testing.T) {
	f := newFixture(t, true, Options{})
	w := f.window

	assert.Equal(t, "Start", w.primary.Text)
	assert.True(t, w.secondary.Disabled())

	test.Tap(w.primary)
	assert.Equal(t, controller.StateRunning, f.controller.State())
	assert.Equal(t, "Pause", w.primary.Text)
	assert.False(t, w.secondary.Disabled())

	test.Tap(w.primary)
	assert.Equal(t, controller.StatePaused, f.controller.State())
	assert.Equal(t, "Resume", w.primary.Text)
}

func TestWindow_NotesBindToController(t *testing.T) {
	f := newFixture(t, true, Options{})

	f.window.notes.SetText("Reviewing")
	assert.Equal(t, "Reviewing", f.controller.Note())
}

func TestWindow_SaveClearsNotesAndListsEntry(t *testing.T) {
	f := newFixture(t, true, Options{})
	w := f.window

	test.Tap(w.primary)
	w.notes.SetText("Drafted report")
	require.NoError(t, f.controller.RequestStop())
	require.NoError(t, f.controller.ConfirmStop())
	assert.Equal(t, "Save", w.primary.Text)
	assert.Equal(t, "Reset", w.secondary.Text)

	test.Tap(w.primary)
	assert.Equal(t, controller.StateStopped, f.controller.State())
	assert.Empty(t, w.notes.Text)
	require.Len(t, w.entries, 1)
	assert.Equal(t, "Drafted report", w.entries[0].Notes)
	assert.Equal(t, "00:00:00", w.timeLabel.Text)
}

func TestWindow_CloseHidesWhenPersisting(t *testing.T) {
	f := newFixture(t, true, Options{})
	f.window.Show()

	f.window.handleClose()
	assert.False(t, f.window.visible)

	f.window.ToggleVisible()
	assert.True(t, f.window.visible)
}

func TestWindow_CloseQuitsWithoutPersist(t *testing.T) {
	quit := 0
	f := newFixture(t, false, Options{OnQuit: func() { quit++ }})

	f.window.handleClose()
	assert.Equal(t, 1, quit)
}

type lockedSession struct {
	*controller.Controller
	locked controller.Action
}

func (s lockedSession) Can(action controller.Action) bool {
	return action != s.locked && s.Controller.Can(action)
}

func TestWindow_ControlsRespectControllerTransitions(t *testing.T) {
	app := test.NewTempApp(t)
	bus := event.NewBus(nil)
	sess := session.New(nopTicker{}, bus, session.Config{})
	log := timelog.New(logPaths{dir: t.TempDir()}, zap.NewNop())
	ctrl := controller.New(sess, log, bus, nil, controller.Config{})

	w := New(app, lockedSession{Controller: ctrl, locked: controller.ActionPause}, log, display{persist: true}, nil, Options{})
	w.Attach(bus)
	assert.False(t, w.primary.Disabled())

	test.Tap(w.primary)
	assert.Equal(t, controller.StateRunning, ctrl.State())
	assert.Equal(t, "Pause", w.primary.Text)
	assert.True(t, w.primary.Disabled())
	assert.False(t, w.secondary.Disabled())
}
