// Package session tracks elapsed time for the current timer run.
package session

import (
	"sync"
	"time"

	"timecard/internal/core/event"
	"timecard/internal/core/model"
)

// State represents the current Session mode.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateStopped State = "stopped"
)

// minimumRestoreMs is the smallest backup worth recovering.
const minimumRestoreMs = 1000

const clockKey = "session"

// Ticker is the subscription half of the clock.
type Ticker interface {
	Connect(key string, onTick func(time.Time)) bool
	Disconnect(key string) bool
}

// Config contains runtime options for Session.
type Config struct {
	// Now defaults to time.Now.
	Now func() time.Time
}

// Session accumulates elapsed milliseconds across run segments.
type Session struct {
	mu             sync.Mutex
	clock          Ticker
	publisher      event.Publisher
	now            func() time.Time
	state          State
	elapsedMs      int64
	segmentStart   time.Time
	startTimestamp time.Time
	fromBackup     bool
	lastMinute     int64
}

// New creates an idle Session.
func New(clock Ticker, publisher event.Publisher, options Config) *Session {
	if options.Now == nil {
		options.Now = time.Now
	}
	return &Session{
		clock:     clock,
		publisher: publisher,
		now:       options.Now,
		state:     StateIdle,
	}
}

// Start begins or resumes accumulation. Starting a running session does nothing.
func (s *Session) Start() {
	s.mu.Lock()
	if s.state == StateRunning {
		s.mu.Unlock()
		return
	}
	now := s.now()
	// Paused, stopped and restored sessions keep their first start timestamp.
	if s.state == StateIdle && !s.fromBackup {
		s.startTimestamp = now
	}
	s.fromBackup = false
	s.segmentStart = now
	s.lastMinute = s.elapsedMs / 60000
	s.state = StateRunning
	s.mu.Unlock()

	s.clock.Connect(clockKey, s.onTick)
}

// Stop pauses accumulation. Stopping a session that is not running does nothing.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return
	}
	s.foldSegmentLocked()
	s.state = StatePaused
	s.mu.Unlock()

	s.clock.Disconnect(clockKey)
}

// Reset detaches from the clock. With erase the accumulated time is discarded
// and the session returns to idle; otherwise the time stays frozen.
func (s *Session) Reset(erase bool) {
	s.mu.Lock()
	if s.state == StateRunning {
		s.foldSegmentLocked()
	}
	if erase {
		s.elapsedMs = 0
		s.startTimestamp = time.Time{}
		s.fromBackup = false
		s.lastMinute = 0
		s.state = StateIdle
	} else {
		s.state = StateStopped
	}
	at := s.now()
	s.mu.Unlock()

	s.clock.Disconnect(clockKey)
	s.publish(event.NewSessionResetEvent(erase, at))
}

// RestoreFromBackup loads a recovered session in the stopped state. Backups
// shorter than one second are ignored and leave the session untouched.
func (s *Session) RestoreFromBackup(timestamp time.Time, elapsedMs int64) bool {
	if elapsedMs < minimumRestoreMs {
		return false
	}

	s.mu.Lock()
	running := s.state == StateRunning
	s.startTimestamp = timestamp
	s.elapsedMs = elapsedMs
	s.segmentStart = time.Time{}
	s.fromBackup = true
	s.lastMinute = elapsedMs / 60000
	s.state = StateStopped
	s.mu.Unlock()

	if running {
		s.clock.Disconnect(clockKey)
	}
	return true
}

// State returns the current mode.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// isRestored reports whether the current time was restored rather than recorded.
func (s *Session) isRestored() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fromBackup
}

// ElapsedMs returns accumulated milliseconds including the in-flight segment.
func (s *Session) ElapsedMs() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsedLocked(s.now())
}

// Time returns the elapsed time as hours, minutes and seconds.
func (s *Session) Time() model.Duration {
	return model.DurationFromMillis(s.ElapsedMs())
}

// Timestamp returns the session start truncated to whole seconds, or the zero
// time when the session never started.
func (s *Session) Timestamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startTimestamp.IsZero() {
		return time.Time{}
	}
	return model.NormalizeTimestamp(s.startTimestamp)
}

func (s *Session) onTick(tickTime time.Time) {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return
	}
	elapsedMs := s.elapsedLocked(s.now())
	minute := elapsedMs / 60000
	announceMinute := minute > s.lastMinute
	if announceMinute {
		s.lastMinute = minute
	}
	s.mu.Unlock()

	elapsed := model.DurationFromMillis(elapsedMs)
	s.publish(event.NewTickEvent(elapsed, tickTime))
	if announceMinute && elapsed.Minutes > 0 {
		s.publish(event.NewMinuteEvent(elapsed, tickTime))
	}
}

func (s *Session) foldSegmentLocked() {
	s.elapsedMs = s.elapsedLocked(s.now())
	s.segmentStart = time.Time{}
}

func (s *Session) elapsedLocked(now time.Time) int64 {
	if s.state != StateRunning || s.segmentStart.IsZero() {
		return s.elapsedMs
	}
	segment := now.Sub(s.segmentStart).Milliseconds()
	if segment < 0 {
		segment = 0
	}
	return s.elapsedMs + segment
}

func (s *Session) publish(e event.Event) {
	if s.publisher != nil {
		s.publisher.Publish(e)
	}
}
