// Package clock provides the single recurring tick source the rest of the
// application hangs off.
package clock

import (
	"sync"
	"time"
)

// Config contains runtime options for Clock.
type Config struct {
	// TickInterval defaults to one second.
	TickInterval time.Duration
	// Dispatch runs tick delivery on the caller's event loop. Nil delivers
	// inline on the ticker goroutine.
	Dispatch func(func())
}

type subscriber struct {
	key    string
	onTick func(time.Time)
}

// Clock emits one tick per interval to every connected subscriber.
type Clock struct {
	mu          sync.Mutex
	options     Config
	subscribers []subscriber
	running     bool
	stopCh      chan struct{}
	done        chan struct{}
}

// New creates a stopped Clock.
func New(options Config) *Clock {
	if options.TickInterval <= 0 {
		options.TickInterval = time.Second
	}
	if options.Dispatch == nil {
		options.Dispatch = func(fn func()) { fn() }
	}
	return &Clock{options: options}
}

// Start launches the ticking loop. Starting a running clock does nothing.
func (clock *Clock) Start() {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	if clock.running {
		return
	}
	clock.running = true
	clock.stopCh = make(chan struct{})
	clock.done = make(chan struct{})
	go clock.run(clock.stopCh, clock.done)
}

// Stop terminates the ticking loop and waits for it to exit.
func (clock *Clock) Stop() {
	clock.mu.Lock()
	if !clock.running {
		clock.mu.Unlock()
		return
	}
	clock.running = false
	close(clock.stopCh)
	done := clock.done
	clock.mu.Unlock()

	<-done
}

// isRunning reports whether the ticking loop is active.
func (clock *Clock) isRunning() bool {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.running
}

// Connect registers onTick under key. Registering an existing key, or a nil
// callback, is a no-op and returns false.
func (clock *Clock) Connect(key string, onTick func(time.Time)) bool {
	if onTick == nil {
		return false
	}
	clock.mu.Lock()
	defer clock.mu.Unlock()
	for _, sub := range clock.subscribers {
		if sub.key == key {
			return false
		}
	}
	clock.subscribers = append(clock.subscribers, subscriber{key: key, onTick: onTick})
	return true
}

// Disconnect removes the subscriber registered under key. Unknown keys are ignored.
func (clock *Clock) Disconnect(key string) bool {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	for i, sub := range clock.subscribers {
		if sub.key != key {
			continue
		}
		remaining := make([]subscriber, 0, len(clock.subscribers)-1)
		remaining = append(remaining, clock.subscribers[:i]...)
		remaining = append(remaining, clock.subscribers[i+1:]...)
		clock.subscribers = remaining
		return true
	}
	return false
}

// connected reports whether key has a live subscription.
func (clock *Clock) connected(key string) bool {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	for _, sub := range clock.subscribers {
		if sub.key == key {
			return true
		}
	}
	return false
}

func (clock *Clock) run(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(clock.options.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case tickTime := <-ticker.C:
			clock.options.Dispatch(func() {
				clock.tick(tickTime)
			})
		}
	}
}

// tick delivers to a snapshot so callbacks may connect or disconnect freely.
func (clock *Clock) tick(tickTime time.Time) {
	clock.mu.Lock()
	subscribers := append([]subscriber(nil), clock.subscribers...)
	clock.mu.Unlock()

	for _, sub := range subscribers {
		sub.onTick(tickTime)
	}
}
