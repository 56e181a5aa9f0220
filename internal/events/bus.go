package events

import (
	"slices"
	"sync"
	"time"

	"github.com/kelindar/event"
)

// drainTimeout bounds how long an unsubscribe waits for queued events.
const drainTimeout = 2 * time.Second

// Bus wraps kelindar/event dispatcher for event broadcasting.
// Delivery is asynchronous: Publish returns before subscribers run.
// Unsubscribing waits until the handler has seen every event published
// before the call, so bridges closed at shutdown keep the final events.
type Bus struct {
	dispatcher *event.Dispatcher

	mu   sync.Mutex
	subs map[uint32][]*subscription
}

// subscription counts events queued for one handler but not yet handled.
type subscription struct {
	mu      sync.Mutex
	pending int
	idle    chan struct{}
}

func (s *subscription) add() {
	s.mu.Lock()
	s.pending++
	s.mu.Unlock()
}

func (s *subscription) done() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending--
	if s.pending == 0 && s.idle != nil {
		close(s.idle)
		s.idle = nil
	}
}

// wait blocks until pending reaches zero or timeout elapses.
func (s *subscription) wait(timeout time.Duration) bool {
	s.mu.Lock()
	if s.pending == 0 {
		s.mu.Unlock()
		return true
	}
	if s.idle == nil {
		s.idle = make(chan struct{})
	}
	idle := s.idle
	s.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-idle:
		return true
	case <-timer.C:
		return false
	}
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
		subs:       make(map[uint32][]*subscription),
	}
}

// Publish publishes an event to all subscribers.
// Usage: bus.Publish(StateChangedEvent{...})
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case StateChangedEvent:
		publish(b, e)
	case StepFinishedEvent:
		publish(b, e)
	case SignalSentEvent:
		publish(b, e)
	case CancelRequestedEvent:
		publish(b, e)
	}
}

// Subscribe subscribes to events with a handler function.
// The handler's parameter type selects which events it receives.
// Returns an unsubscribe function; unknown handler types get a no-op.
// Usage: unsub := bus.Subscribe(func(e StateChangedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(StateChangedEvent):
		return subscribe(b, h)
	case func(StepFinishedEvent):
		return subscribe(b, h)
	case func(SignalSentEvent):
		return subscribe(b, h)
	case func(CancelRequestedEvent):
		return subscribe(b, h)
	default:
		return func() {}
	}
}

// SubscribeToChannel bridges a callback subscription to a channel.
// Events are dropped when ch is full, so a slow consumer never blocks the bus.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return subscribe(bus, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}

// publish holds the bus lock across the broadcast so pending counts match
// what kelindar/event enqueued for each consumer.
func publish[T Event](b *Bus, e T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.subs[e.Type()] {
		s.add()
	}
	event.Publish(b.dispatcher, e)
}

func subscribe[T Event](b *Bus, handler func(T)) func() {
	var zero T
	eventType := zero.Type()
	s := &subscription{}

	b.mu.Lock()
	cancel := event.Subscribe(b.dispatcher, func(e T) {
		defer s.done()
		handler(e)
	})
	b.subs[eventType] = append(b.subs[eventType], s)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.wait(drainTimeout)

			b.mu.Lock()
			defer b.mu.Unlock()
			b.subs[eventType] = slices.DeleteFunc(b.subs[eventType], func(other *subscription) bool {
				return other == s
			})
			cancel()
		})
	}
}
