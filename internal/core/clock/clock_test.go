package clock

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClock_ConnectDeduplicatesByKey(t *testing.T) {
	clock := New(Config{})

	first := 0
	second := 0
	assert.True(t, clock.Connect("display", func(time.Time) { first++ }))
	assert.False(t, clock.Connect("display", func(time.Time) { second++ }))
	assert.False(t, clock.Connect("nil", nil))

	clock.tick(time.Now())
	assert.Equal(t, 1, first)
	assert.Zero(t, second)
}

func TestClock_DisconnectIsIdempotent(t *testing.T) {
	clock := New(Config{})

	calls := 0
	clock.Connect("session", func(time.Time) { calls++ })
	assert.True(t, clock.connected("session"))

	assert.True(t, clock.Disconnect("session"))
	assert.False(t, clock.Disconnect("session"))
	assert.False(t, clock.Disconnect("never-registered"))
	assert.False(t, clock.connected("session"))

	clock.tick(time.Now())
	assert.Zero(t, calls)
}

func TestClock_TickAllowsDisconnectInsideCallback(t *testing.T) {
	clock := New(Config{})

	calls := 0
	clock.Connect("once", func(time.Time) {
		calls++
		clock.Disconnect("once")
	})

	clock.tick(time.Now())
	clock.tick(time.Now())
	assert.Equal(t, 1, calls)
}

func TestClock_StartIsIdempotent(t *testing.T) {
	var dispatched atomic.Int32
	clock := New(Config{
		TickInterval: 5 * time.Millisecond,
		Dispatch: func(fn func()) {
			dispatched.Add(1)
			fn()
		},
	})

	var ticks atomic.Int32
	clock.Connect("counter", func(time.Time) { ticks.Add(1) })

	clock.Start()
	clock.Start()
	assert.True(t, clock.isRunning())

	assert.Eventually(t, func() bool { return ticks.Load() >= 3 }, time.Second, time.Millisecond)

	clock.Stop()
	clock.Stop()
	assert.False(t, clock.isRunning())

	// One loop means every delivered tick went through exactly one dispatch.
	assert.Equal(t, dispatched.Load(), ticks.Load())

	stoppedAt := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stoppedAt, ticks.Load())
}

func TestClock_RestartAfterStop(t *testing.T) {
	clock := New(Config{TickInterval: 5 * time.Millisecond})

	var ticks atomic.Int32
	clock.Connect("counter", func(time.Time) { ticks.Add(1) })

	clock.Start()
	clock.Stop()
	clock.Start()
	defer clock.Stop()

	assert.Eventually(t, func() bool { return ticks.Load() >= 1 }, time.Second, time.Millisecond)
}

func TestNew_DefaultsInterval(t *testing.T) {
	clock := New(Config{})
	assert.Equal(t, time.Second, clock.options.TickInterval)
	assert.NotNil(t, clock.options.Dispatch)
}
