package event

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

const wildcard Type = "*"

// Handler receives published events.
type Handler func(Event)

// Publisher is the sending half of the bus.
type Publisher interface {
	Publish(Event)
}

type subscription struct {
	id      string
	handler Handler
}

// Bus is a synchronous pub-sub dispatcher. Handlers run on the publisher's
// goroutine in registration order; a panicking handler is logged and skipped.
type Bus struct {
	mu            sync.RWMutex
	subscriptions map[Type][]subscription
	nextID        atomic.Uint64
	logger        *zap.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		subscriptions: make(map[Type][]subscription),
		logger:        logger,
	}
}

// Subscribe registers a handler for one event type and returns its id.
func (bus *Bus) Subscribe(eventType Type, handler Handler) string {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	id := fmt.Sprintf("sub-%d", bus.nextID.Add(1))
	bus.subscriptions[eventType] = append(bus.subscriptions[eventType], subscription{id: id, handler: handler})
	return id
}

// SubscribeAll registers a handler for every event type.
func (bus *Bus) SubscribeAll(handler Handler) string {
	return bus.Subscribe(wildcard, handler)
}

// Unsubscribe removes a subscription. Unknown ids are ignored.
func (bus *Bus) Unsubscribe(id string) bool {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	for eventType, subs := range bus.subscriptions {
		for i, sub := range subs {
			if sub.id != id {
				continue
			}
			remaining := make([]subscription, 0, len(subs)-1)
			remaining = append(remaining, subs[:i]...)
			remaining = append(remaining, subs[i+1:]...)
			bus.subscriptions[eventType] = remaining
			return true
		}
	}
	return false
}

// Publish delivers the event to type subscribers, then wildcard subscribers.
func (bus *Bus) Publish(e Event) {
	bus.mu.RLock()
	specific := append([]subscription(nil), bus.subscriptions[e.Type()]...)
	all := append([]subscription(nil), bus.subscriptions[wildcard]...)
	bus.mu.RUnlock()

	for _, sub := range specific {
		bus.safeCall(sub, e)
	}
	for _, sub := range all {
		bus.safeCall(sub, e)
	}
}

// SubscriptionCount returns the number of live subscriptions.
func (bus *Bus) SubscriptionCount() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	count := 0
	for _, subs := range bus.subscriptions {
		count += len(subs)
	}
	return count
}

func (bus *Bus) safeCall(sub subscription, e Event) {
	defer func() {
		if r := recover(); r != nil {
			bus.logger.Error("event handler panicked",
				zap.String("event", string(e.Type())),
				zap.String("subscription", sub.id),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
		}
	}()
	sub.handler(e)
}
