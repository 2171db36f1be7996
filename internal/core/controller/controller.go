// Package controller gates which timer actions are legal and commits finished
// sessions to the time log.
package controller

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"timecard/internal/core/event"
	"timecard/internal/core/model"
)

var (
	// ErrInvalidTransition indicates an action that is not legal in the current state.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrRecoverRejected indicates a backup too short to be worth restoring.
	ErrRecoverRejected = errors.New("backup rejected by session")
)

// State represents the current controller mode.
type State string

const (
	StateStopped             State = "stopped"
	StateRunning             State = "running"
	StatePaused              State = "paused"
	StatePromptingStop       State = "prompting_stop"
	StateAwaitingSaveOrReset State = "awaiting_save_or_reset"
	StatePromptingReset      State = "prompting_reset"
)

// Action names a user-driven transition.
type Action string

const (
	ActionStart        Action = "start"
	ActionPause        Action = "pause"
	ActionResume       Action = "resume"
	ActionRequestStop  Action = "request_stop"
	ActionConfirmStop  Action = "confirm_stop"
	ActionCancel       Action = "cancel"
	ActionSave         Action = "save"
	ActionRequestReset Action = "request_reset"
	ActionConfirmReset Action = "confirm_reset"
	ActionRecover      Action = "recover"
)

var transitions = map[State]map[Action]State{
	StateStopped: {
		ActionStart:   StateRunning,
		ActionRecover: StateAwaitingSaveOrReset,
	},
	StateRunning: {
		ActionPause:       StatePaused,
		ActionRequestStop: StatePromptingStop,
	},
	StatePaused: {
		ActionResume:      StateRunning,
		ActionRequestStop: StatePromptingStop,
	},
	StatePromptingStop: {
		ActionConfirmStop: StateAwaitingSaveOrReset,
		ActionCancel:      StateRunning,
	},
	StateAwaitingSaveOrReset: {
		ActionSave:         StateStopped,
		ActionRequestReset: StatePromptingReset,
	},
	StatePromptingReset: {
		ActionConfirmReset: StateStopped,
		ActionCancel:       StateAwaitingSaveOrReset,
		ActionSave:         StateStopped,
	},
}

// Timer is the session the controller drives.
type Timer interface {
	Start()
	Stop()
	Reset(erase bool)
	Time() model.Duration
	Timestamp() time.Time
	ElapsedMs() int64
	RestoreFromBackup(timestamp time.Time, elapsedMs int64) bool
}

// Recorder stores committed sessions.
type Recorder interface {
	AddEntry(timestamp time.Time, duration model.Duration, notes string) (time.Time, error)
}

// Config contains runtime options for Controller.
type Config struct {
	Now func() time.Time
}

// Controller is the session state machine. Transitions are serialized; events
// are published once the transition has been applied.
type Controller struct {
	ops       sync.Mutex
	mu        sync.RWMutex
	state     State
	note      string
	timer     Timer
	log       Recorder
	publisher event.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a Controller in the stopped state.
func New(timer Timer, log Recorder, publisher event.Publisher, logger *zap.Logger, options Config) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	return &Controller{
		state:     StateStopped,
		timer:     timer,
		log:       log,
		publisher: publisher,
		logger:    logger,
		now:       options.Now,
	}
}

// State returns the current mode.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Can reports whether action is legal in the current state.
func (c *Controller) Can(action Action) bool {
	_, ok := transitions[c.State()][action]
	return ok
}

// Note returns the note attached to the current session.
func (c *Controller) Note() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.note
}

// SetNote replaces the note. Validation happens at save time.
func (c *Controller) SetNote(note string) {
	c.mu.Lock()
	c.note = note
	c.mu.Unlock()
}

// Snapshot captures the in-progress session for crash backups.
func (c *Controller) Snapshot() model.Snapshot {
	return model.Snapshot{
		Timestamp: c.timer.Timestamp(),
		ElapsedMs: c.timer.ElapsedMs(),
		Notes:     c.Note(),
	}
}

// Start begins a new session.
func (c *Controller) Start() error {
	return c.transition(ActionStart, func() (event.Event, error) {
		c.timer.Start()
		return event.NewActionEvent(event.TypeStart, c.now()), nil
	})
}

// Pause freezes the running session.
func (c *Controller) Pause() error {
	return c.transition(ActionPause, func() (event.Event, error) {
		c.timer.Stop()
		return event.NewActionEvent(event.TypePause, c.now()), nil
	})
}

// Resume continues a paused session.
func (c *Controller) Resume() error {
	return c.transition(ActionResume, func() (event.Event, error) {
		c.timer.Start()
		return event.NewActionEvent(event.TypeResume, c.now()), nil
	})
}

// Toggle starts, pauses or resumes depending on the current state.
func (c *Controller) Toggle() error {
	switch state := c.State(); state {
	case StateStopped:
		return c.Start()
	case StateRunning:
		return c.Pause()
	case StatePaused:
		return c.Resume()
	default:
		return fmt.Errorf("%w: toggle while %s", ErrInvalidTransition, state)
	}
}

// RequestStop pauses the session and waits for confirmation.
func (c *Controller) RequestStop() error {
	return c.transition(ActionRequestStop, func() (event.Event, error) {
		c.timer.Stop()
		return event.NewActionEvent(event.TypePause, c.now()), nil
	})
}

// ConfirmStop freezes the session until it is saved or reset.
func (c *Controller) ConfirmStop() error {
	return c.transition(ActionConfirmStop, func() (event.Event, error) {
		c.timer.Reset(false)
		return event.NewActionEvent(event.TypeStop, c.now()), nil
	})
}

// Cancel backs out of a stop or reset prompt.
func (c *Controller) Cancel() error {
	return c.transition(ActionCancel, func() (event.Event, error) {
		if c.State() == StatePromptingStop {
			c.timer.Start()
			return event.NewActionEvent(event.TypeResume, c.now()), nil
		}
		return nil, nil
	})
}

// RequestReset asks for confirmation before discarding the session.
func (c *Controller) RequestReset() error {
	return c.transition(ActionRequestReset, func() (event.Event, error) {
		return nil, nil
	})
}

// ConfirmReset discards the session without touching the time log.
func (c *Controller) ConfirmReset() error {
	return c.transition(ActionConfirmReset, func() (event.Event, error) {
		c.SetNote("")
		c.timer.Reset(true)
		return event.NewActionEvent(event.TypeReset, c.now()), nil
	})
}

// Save commits the session to the time log and returns the timestamp it was
// stored under. Invalid notes leave the controller untouched. A persistence
// failure still completes the transition; the entry stays in the log's memory
// and the error is returned for the caller to retry.
func (c *Controller) Save() (time.Time, error) {
	var (
		stored     time.Time
		persistErr error
	)
	err := c.transition(ActionSave, func() (event.Event, error) {
		note := c.Note()
		if err := model.ValidateNotes(note); err != nil {
			return nil, err
		}
		entry := model.LogEntry{
			Timestamp: c.timer.Timestamp(),
			Duration:  c.timer.Time(),
			Notes:     note,
		}
		timestamp, err := c.log.AddEntry(entry.Timestamp, entry.Duration, entry.Notes)
		if timestamp.IsZero() {
			if err == nil {
				err = errors.New("time log returned no timestamp")
			}
			return nil, err
		}
		stored, persistErr = timestamp, err
		entry.Timestamp = timestamp

		c.SetNote("")
		c.timer.Reset(true)
		return event.NewSaveEvent(entry, c.now()), nil
	})
	if err != nil {
		return time.Time{}, err
	}
	if persistErr != nil {
		c.logger.Warn("session saved in memory only", zap.Time("timestamp", stored), zap.Error(persistErr))
	}
	return stored, persistErr
}

// Recover loads a crash backup into the session and waits for it to be saved
// or reset.
func (c *Controller) Recover(timestamp time.Time, elapsedMs int64, notes string) error {
	return c.transition(ActionRecover, func() (event.Event, error) {
		if !c.timer.RestoreFromBackup(timestamp, elapsedMs) {
			return nil, fmt.Errorf("%w: %d ms", ErrRecoverRejected, elapsedMs)
		}
		c.SetNote(notes)
		return nil, nil
	})
}

// transition applies apply when action is legal, then moves to the target
// state and publishes the action and state change events.
func (c *Controller) transition(action Action, apply func() (event.Event, error)) error {
	c.ops.Lock()
	from := c.State()
	to, ok := transitions[from][action]
	if !ok {
		c.ops.Unlock()
		return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, action, from)
	}

	actionEvent, err := apply()
	if err != nil {
		c.ops.Unlock()
		return err
	}

	c.mu.Lock()
	c.state = to
	c.mu.Unlock()
	c.ops.Unlock()

	c.logger.Debug("timer transition",
		zap.String("action", string(action)),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)

	if actionEvent != nil {
		c.publish(actionEvent)
	}
	c.publish(event.NewStateChangedEvent(string(from), string(to), c.now()))
	return nil
}

func (c *Controller) publish(e event.Event) {
	if c.publisher != nil {
		c.publisher.Publish(e)
	}
}
