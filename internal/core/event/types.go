// Package event carries timer notifications between the session core and
// its observers (display, crash backup, focus reminders, tray).
package event

import (
	"time"

	"timecard/internal/core/model"
)

// Type identifies an event kind.
type Type string

const (
	TypeTick         Type = "session.tick"
	TypeMinute       Type = "session.minute"
	TypeSessionReset Type = "session.reset"

	TypeStart        Type = "timer.started"
	TypeResume       Type = "timer.resumed"
	TypePause        Type = "timer.paused"
	TypeStop         Type = "timer.stopped"
	TypeSave         Type = "timer.saved"
	TypeReset        Type = "timer.reset"
	TypeStateChanged Type = "timer.state_changed"
)

// Event is implemented by every published notification.
type Event interface {
	Type() Type
	At() time.Time
}

type baseEvent struct {
	eventType Type
	at        time.Time
}

func (e baseEvent) Type() Type    { return e.eventType }
func (e baseEvent) At() time.Time { return e.at }

func newBase(eventType Type, at time.Time) baseEvent {
	if at.IsZero() {
		at = time.Now()
	}
	return baseEvent{eventType: eventType, at: at}
}

// TickEvent fires once per clock tick while a session is running.
type TickEvent struct {
	baseEvent
	Elapsed model.Duration
}

// NewTickEvent creates a TickEvent.
func NewTickEvent(elapsed model.Duration, at time.Time) TickEvent {
	return TickEvent{baseEvent: newBase(TypeTick, at), Elapsed: elapsed}
}

// MinuteEvent fires on ticks where the seconds component wraps to zero.
type MinuteEvent struct {
	baseEvent
	Elapsed model.Duration
}

// NewMinuteEvent creates a MinuteEvent.
func NewMinuteEvent(elapsed model.Duration, at time.Time) MinuteEvent {
	return MinuteEvent{baseEvent: newBase(TypeMinute, at), Elapsed: elapsed}
}

// SessionResetEvent fires whenever the session detaches from the clock for good.
// Erased reports whether the accumulated time was discarded.
type SessionResetEvent struct {
	baseEvent
	Erased bool
}

// NewSessionResetEvent creates a SessionResetEvent.
func NewSessionResetEvent(erased bool, at time.Time) SessionResetEvent {
	return SessionResetEvent{baseEvent: newBase(TypeSessionReset, at), Erased: erased}
}

// ActionEvent reports a controller action without extra payload
// (start, resume, pause, stop, reset).
type ActionEvent struct {
	baseEvent
}

// NewActionEvent creates an ActionEvent of the given type.
func NewActionEvent(eventType Type, at time.Time) ActionEvent {
	return ActionEvent{baseEvent: newBase(eventType, at)}
}

// SaveEvent fires after a session was committed to the time log.
type SaveEvent struct {
	baseEvent
	Entry model.LogEntry
}

// NewSaveEvent creates a SaveEvent.
func NewSaveEvent(entry model.LogEntry, at time.Time) SaveEvent {
	return SaveEvent{baseEvent: newBase(TypeSave, at), Entry: entry}
}

// StateChangedEvent fires on every controller state transition.
type StateChangedEvent struct {
	baseEvent
	From string
	To   string
}

// NewStateChangedEvent creates a StateChangedEvent.
func NewStateChangedEvent(from, to string, at time.Time) StateChangedEvent {
	return StateChangedEvent{baseEvent: newBase(TypeStateChanged, at), From: from, To: to}
}
