// Package focus nudges the user at a configurable interval while the timer runs.
package focus

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"go.uber.org/zap"

	"timecard/internal/core/event"
	"timecard/internal/core/model"
)

var promptsWithNote = []string{
	"Are you still focusing on %s?",
	"Are you focused on %s?",
	"You are tracking time on %s.",
	"Is %s still your focus?",
	"Hey there! How is %s going?",
}

var promptsWithoutNote = []string{
	"Are you still focusing?",
	"How's your focus right now?",
	"You are still tracking time.",
	"Hi there! Still focusing okay?",
}

// SettingsReader supplies the reminder interval in minutes and the randomize flag.
type SettingsReader interface {
	Focus() (int, bool)
}

// NoteSource supplies the note of the running session.
type NoteSource interface {
	Note() string
}

// Notifier delivers a reminder to the user.
type Notifier interface {
	Notify(message string)
}

// Subscriber is the subscription half of the event bus.
type Subscriber interface {
	Subscribe(eventType event.Type, handler event.Handler) string
}

// Config contains runtime options for Scheduler.
type Config struct {
	// Rand defaults to the shared math/rand/v2 source.
	Rand *rand.Rand
}

// Scheduler decides when the next reminder is due, counted in elapsed session minutes.
type Scheduler struct {
	mu        sync.Mutex
	settings  SettingsReader
	notes     NoteSource
	notifier  Notifier
	logger    *zap.Logger
	random    *rand.Rand
	interval  int
	randomize bool
	lastAt    int
	nextAt    int
}

// New creates a Scheduler and reads the current settings.
func New(settings SettingsReader, notes NoteSource, notifier Notifier, logger *zap.Logger, options Config) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	scheduler := &Scheduler{
		settings: settings,
		notes:    notes,
		notifier: notifier,
		logger:   logger,
		random:   options.Rand,
	}
	scheduler.Reload()
	return scheduler
}

// Attach wires the scheduler to minute and session reset events.
func (s *Scheduler) Attach(bus Subscriber) {
	bus.Subscribe(event.TypeMinute, func(e event.Event) {
		if minute, ok := e.(event.MinuteEvent); ok {
			s.OnMinute(minute.Elapsed)
		}
	})
	bus.Subscribe(event.TypeSessionReset, func(e event.Event) {
		if reset, ok := e.(event.SessionResetEvent); ok && reset.Erased {
			s.Restart()
		}
	})
}

// Reload re-reads the interval settings and reschedules.
func (s *Scheduler) Reload() {
	interval, randomize := s.settings.Focus()

	s.mu.Lock()
	defer s.mu.Unlock()
	if interval < 0 {
		interval = 0
	}
	s.interval = interval
	s.randomize = randomize
	s.scheduleLocked()
}

// Restart forgets the last reminder so the next session counts from zero.
func (s *Scheduler) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAt = 0
	s.scheduleLocked()
}

// NextAt returns the elapsed minute of the next reminder, or 0 when disabled.
func (s *Scheduler) NextAt() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextAt
}

// OnMinute sends a reminder when the elapsed time has reached the next slot.
func (s *Scheduler) OnMinute(elapsed model.Duration) {
	minutes := elapsed.Hours*60 + elapsed.Minutes

	s.mu.Lock()
	if s.interval == 0 || minutes < s.nextAt {
		s.mu.Unlock()
		return
	}
	s.lastAt = minutes
	s.scheduleLocked()
	next := s.nextAt
	message := s.messageLocked(s.notes.Note())
	s.mu.Unlock()

	s.logger.Debug("focus reminder", zap.Int("elapsed_minutes", minutes), zap.Int("next_at", next))
	s.notifier.Notify(message)
}

func (s *Scheduler) scheduleLocked() {
	if s.interval == 0 {
		s.nextAt = 0
		return
	}
	interval := s.interval
	if s.randomize {
		offset := s.interval / 5
		interval += s.intN(2*offset+1) - offset
	}
	s.nextAt = s.lastAt + interval
}

func (s *Scheduler) messageLocked(note string) string {
	if note != "" {
		return fmt.Sprintf(promptsWithNote[s.intN(len(promptsWithNote))], note)
	}
	return promptsWithoutNote[s.intN(len(promptsWithoutNote))]
}

func (s *Scheduler) intN(n int) int {
	if s.random != nil {
		return s.random.IntN(n)
	}
	return rand.IntN(n)
}
