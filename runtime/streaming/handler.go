package streaming

import "sync"

// Handler receives the lifecycle events of a Conn.
type Handler interface {
	// OnOpen is called once the handshake completes.
	OnOpen()
	// OnMessage is called for every inbound data frame, in arrival order.
	OnMessage(data []byte)
	// OnClose is called exactly once, after every other callback.
	OnClose(code int, reason string)
	// OnError reports a transport failure. It is always followed by OnClose.
	OnError(err error)
}

// HandlerFuncs adapts plain functions to a Handler. Nil fields are skipped.
type HandlerFuncs struct {
	Open    func()
	Message func(data []byte)
	Close   func(code int, reason string)
	Error   func(err error)
}

// OnOpen implements Handler.
func (h HandlerFuncs) OnOpen() {
	if h.Open != nil {
		h.Open()
	}
}

// OnMessage implements Handler.
func (h HandlerFuncs) OnMessage(data []byte) {
	if h.Message != nil {
		h.Message(data)
	}
}

// OnClose implements Handler.
func (h HandlerFuncs) OnClose(code int, reason string) {
	if h.Close != nil {
		h.Close(code, reason)
	}
}

// OnError implements Handler.
func (h HandlerFuncs) OnError(err error) {
	if h.Error != nil {
		h.Error(err)
	}
}

type eventKind int

const (
	eventOpen eventKind = iota
	eventMessage
	eventError
	eventClose
)

type event struct {
	kind   eventKind
	data   []byte
	err    error
	code   int
	reason string
}

// eventQueue is an unbounded FIFO feeding the dispatch goroutine. Producers
// never block, so they may push while holding Conn.mu. Nothing is accepted
// after the close event.
type eventQueue struct {
	mu      sync.Mutex
	pending []event
	closed  bool
	notify  chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{notify: make(chan struct{}, 1)}
}

func (q *eventQueue) push(ev event) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	if ev.kind == eventClose {
		q.closed = true
	}
	q.pending = append(q.pending, ev)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *eventQueue) drain() []event {
	q.mu.Lock()
	defer q.mu.Unlock()
	batch := q.pending
	q.pending = nil
	return batch
}

// dispatch delivers queued events to the handler until the close event.
func (c *Conn) dispatch() {
	defer close(c.done)
	for range c.queue.notify {
		for _, ev := range c.queue.drain() {
			switch ev.kind {
			case eventOpen:
				c.handler.OnOpen()
			case eventMessage:
				c.handler.OnMessage(ev.data)
			case eventError:
				c.handler.OnError(ev.err)
			case eventClose:
				c.handler.OnClose(ev.code, ev.reason)
				return
			}
		}
	}
}
