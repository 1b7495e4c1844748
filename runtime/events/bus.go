// Package events provides a lightweight pub/sub event bus for session observability.
package events

import (
	"sync"
	"sync/atomic"
)

// Default bus sizing.
const (
	DefaultWorkerPoolSize  = 4
	DefaultEventBufferSize = 1024
)

// Listener is a function that handles events.
type Listener func(*Event)

type subscription struct {
	id       uint64
	listener Listener
}

// EventBus manages event distribution to listeners. Events are queued and
// delivered by a fixed pool of workers, so Publish never blocks the caller.
type EventBus struct {
	mu              sync.RWMutex
	listeners       map[EventType][]subscription
	globalListeners []subscription
	nextID          atomic.Uint64

	queue   chan *Event
	workers sync.WaitGroup

	closeMu sync.RWMutex
	closed  bool
}

// BusOption configures an EventBus.
type BusOption func(*busOptions)

type busOptions struct {
	workers int
	buffer  int
}

// WithWorkerPoolSize sets the number of delivery workers. Values below 1 are ignored.
func WithWorkerPoolSize(n int) BusOption {
	return func(o *busOptions) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithEventBufferSize sets the queue capacity. Values below 1 are ignored.
func WithEventBufferSize(n int) BusOption {
	return func(o *busOptions) {
		if n > 0 {
			o.buffer = n
		}
	}
}

// NewEventBus creates a new event bus and starts its workers.
func NewEventBus(opts ...BusOption) *EventBus {
	o := busOptions{workers: DefaultWorkerPoolSize, buffer: DefaultEventBufferSize}
	for _, opt := range opts {
		opt(&o)
	}

	eb := &EventBus{
		listeners: make(map[EventType][]subscription),
		queue:     make(chan *Event, o.buffer),
	}
	eb.workers.Add(o.workers)
	for range o.workers {
		go eb.worker()
	}
	return eb
}

// Subscribe registers a listener for a specific event type and returns a
// function that removes it.
func (eb *EventBus) Subscribe(eventType EventType, listener Listener) func() {
	id := eb.nextID.Add(1)
	eb.mu.Lock()
	eb.listeners[eventType] = append(eb.listeners[eventType], subscription{id: id, listener: listener})
	eb.mu.Unlock()

	return func() {
		eb.mu.Lock()
		defer eb.mu.Unlock()
		eb.listeners[eventType] = without(eb.listeners[eventType], id)
	}
}

// SubscribeAll registers a listener for all event types and returns a
// function that removes it.
func (eb *EventBus) SubscribeAll(listener Listener) func() {
	id := eb.nextID.Add(1)
	eb.mu.Lock()
	eb.globalListeners = append(eb.globalListeners, subscription{id: id, listener: listener})
	eb.mu.Unlock()

	return func() {
		eb.mu.Lock()
		defer eb.mu.Unlock()
		eb.globalListeners = without(eb.globalListeners, id)
	}
}

func without(subs []subscription, id uint64) []subscription {
	out := make([]subscription, 0, len(subs))
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}

// Publish queues an event for delivery. It returns false if the bus is
// closed or the queue is full, in which case the event is dropped.
func (eb *EventBus) Publish(event *Event) bool {
	eb.closeMu.RLock()
	defer eb.closeMu.RUnlock()
	if eb.closed {
		return false
	}

	select {
	case eb.queue <- event:
		return true
	default:
		return false
	}
}

// Close stops accepting events and waits until queued events are delivered.
// It is safe to call more than once.
func (eb *EventBus) Close() {
	eb.closeMu.Lock()
	if eb.closed {
		eb.closeMu.Unlock()
		return
	}
	eb.closed = true
	close(eb.queue)
	eb.closeMu.Unlock()

	eb.workers.Wait()
}

// Clear removes all listeners (primarily for tests).
func (eb *EventBus) Clear() {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.listeners = make(map[EventType][]subscription)
	eb.globalListeners = nil
}

func (eb *EventBus) worker() {
	defer eb.workers.Done()
	for event := range eb.queue {
		eb.deliver(event)
	}
}

func (eb *EventBus) deliver(event *Event) {
	eb.mu.RLock()
	specific := append([]subscription(nil), eb.listeners[event.Type]...)
	global := append([]subscription(nil), eb.globalListeners...)
	eb.mu.RUnlock()

	for _, s := range specific {
		safeInvoke(s.listener, event)
	}
	for _, s := range global {
		safeInvoke(s.listener, event)
	}
}

func safeInvoke(listener Listener, event *Event) {
	defer func() { _ = recover() }()
	listener(event)
}
