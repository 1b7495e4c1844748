package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AltairaLabs/codestream/runtime/events"
)

// SessionSpanName is the name of the root span created for every session.
const SessionSpanName = "codestream.session"

// maxEndedSessions bounds how many ended session ids are remembered for
// dropping late events.
const maxEndedSessions = 1024

// spanEvent is a span event recorded before its session span existed.
type spanEvent struct {
	name  string
	opts  []trace.EventOption
	isErr bool
	err   error
}

// pendingSession buffers events that arrived before session.started.
// The EventBus delivers through a worker pool, so a session's events can
// be handled out of order.
type pendingSession struct {
	events []spanEvent
	end    *events.Event
}

// OTelEventListener converts session events into OTel spans in real time:
// one client span per session, with messages and errors as span events.
// It is safe for concurrent use and tolerates out-of-order event delivery.
type OTelEventListener struct {
	tracer trace.Tracer
	parent context.Context //nolint:containedctx // parent of every session span

	mu       sync.Mutex
	sessions map[string]trace.Span
	pending  map[string]*pendingSession

	// ended holds recently finished sessions; endedOrder evicts oldest first.
	ended      map[string]struct{}
	endedOrder []string
}

// ListenerOption configures an OTelEventListener.
type ListenerOption func(*OTelEventListener)

// WithParentContext parents every session span under the span in ctx.
func WithParentContext(ctx context.Context) ListenerOption {
	return func(l *OTelEventListener) {
		if ctx != nil {
			l.parent = ctx
		}
	}
}

// NewOTelEventListener creates a listener that creates OTel spans from session events.
func NewOTelEventListener(tracer trace.Tracer, opts ...ListenerOption) *OTelEventListener {
	l := &OTelEventListener{
		tracer:   tracer,
		parent:   context.Background(),
		sessions: make(map[string]trace.Span),
		pending:  make(map[string]*pendingSession),
		ended:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// OnEvent handles a single session event. It can be passed to
// EventBus.SubscribeAll.
func (l *OTelEventListener) OnEvent(evt *events.Event) {
	//nolint:exhaustive // only span-producing events
	switch evt.Type {
	case events.EventSessionStarted:
		l.startSession(evt)
	case events.EventSessionOpened:
		if data, ok := evt.Data.(events.SessionOpenedData); ok {
			l.addEvent(evt, "connection.opened",
				attribute.Int64("connect.duration_ms", data.ConnectDuration.Milliseconds()))
		}
	case events.EventMessageReceived:
		if data, ok := evt.Data.(events.MessageReceivedData); ok {
			l.addEvent(evt, "message."+data.MessageType,
				attribute.Int("variant.index", data.VariantIndex),
				attribute.Int("message.bytes", data.Bytes))
		}
	case events.EventMessageMalformed:
		if data, ok := evt.Data.(events.MessageMalformedData); ok {
			l.addEvent(evt, "message.malformed",
				attribute.String("error", errString(data.Error)),
				attribute.Int("message.bytes", data.Bytes))
		}
	case events.EventVariantFinalized:
		if data, ok := evt.Data.(events.VariantFinalizedData); ok {
			l.addEvent(evt, "variant.finalized",
				attribute.Int("variant.index", data.VariantIndex),
				attribute.Int("code.bytes", data.Bytes))
		}
	case events.EventServerError:
		if data, ok := evt.Data.(events.ServerErrorData); ok {
			l.addEvent(evt, "server.error",
				attribute.String("error.message", data.Message),
				attribute.Int("variant.index", data.VariantIndex))
		}
	case events.EventTransportError:
		if data, ok := evt.Data.(events.TransportErrorData); ok && data.Error != nil {
			l.record(evt.SessionID, spanEvent{
				isErr: true,
				err:   data.Error,
				opts:  []trace.EventOption{trace.WithTimestamp(evt.Timestamp)},
			})
		}
	case events.EventSessionCompleted, events.EventSessionCancelled, events.EventSessionFailed:
		l.endSession(evt)
	}
}

// ActiveSessions returns how many session spans are still open.
func (l *OTelEventListener) ActiveSessions() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sessions)
}

func (l *OTelEventListener) startSession(evt *events.Event) {
	attrs := []attribute.KeyValue{attribute.String("session.id", evt.SessionID)}
	if data, ok := evt.Data.(events.SessionStartedData); ok {
		attrs = append(attrs,
			attribute.String("server.url", data.URL),
			attribute.String("codegen.generation_type", data.GenerationType),
			attribute.String("codegen.input_mode", data.InputMode),
			attribute.String("gen_ai.request.model", data.Model),
		)
	}

	_, span := l.tracer.Start(l.parent, SessionSpanName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithTimestamp(evt.Timestamp),
		trace.WithAttributes(attrs...),
	)

	l.mu.Lock()
	p := l.pending[evt.SessionID]
	delete(l.pending, evt.SessionID)
	if p == nil || p.end == nil {
		l.sessions[evt.SessionID] = span
	} else {
		l.markEnded(evt.SessionID)
	}
	l.mu.Unlock()

	if p == nil {
		return
	}
	for _, e := range p.events {
		apply(span, e)
	}
	if p.end != nil {
		finish(span, p.end)
	}
}

func (l *OTelEventListener) addEvent(evt *events.Event, name string, attrs ...attribute.KeyValue) {
	l.record(evt.SessionID, spanEvent{
		name: name,
		opts: []trace.EventOption{
			trace.WithTimestamp(evt.Timestamp),
			trace.WithAttributes(attrs...),
		},
	})
}

// record applies e to the session span, or buffers it until the span starts.
// Events for a session whose span already ended are dropped.
func (l *OTelEventListener) record(sessionID string, e spanEvent) {
	l.mu.Lock()
	span, ok := l.sessions[sessionID]
	if !ok {
		if _, done := l.ended[sessionID]; !done {
			p := l.pendingFor(sessionID)
			p.events = append(p.events, e)
		}
	}
	l.mu.Unlock()
	if ok {
		apply(span, e)
	}
}

func (l *OTelEventListener) endSession(evt *events.Event) {
	l.mu.Lock()
	span, ok := l.sessions[evt.SessionID]
	_, done := l.ended[evt.SessionID]
	switch {
	case ok:
		delete(l.sessions, evt.SessionID)
		l.markEnded(evt.SessionID)
	case !done:
		l.pendingFor(evt.SessionID).end = evt
	}
	l.mu.Unlock()
	if ok {
		finish(span, evt)
	}
}

// markEnded must be called with l.mu held.
func (l *OTelEventListener) markEnded(sessionID string) {
	if _, ok := l.ended[sessionID]; ok {
		return
	}
	if len(l.endedOrder) >= maxEndedSessions {
		delete(l.ended, l.endedOrder[0])
		l.endedOrder = l.endedOrder[1:]
	}
	l.ended[sessionID] = struct{}{}
	l.endedOrder = append(l.endedOrder, sessionID)
}

// pendingSessions returns how many sessions have buffered events.
func (l *OTelEventListener) pendingSessions() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// pendingFor must be called with l.mu held.
func (l *OTelEventListener) pendingFor(sessionID string) *pendingSession {
	p, ok := l.pending[sessionID]
	if !ok {
		p = &pendingSession{}
		l.pending[sessionID] = p
	}
	return p
}

func apply(span trace.Span, e spanEvent) {
	if e.isErr {
		span.RecordError(e.err, e.opts...)
		return
	}
	span.AddEvent(e.name, e.opts...)
}

// finish sets the close attributes and status and ends the span.
// A cancelled session is not an error.
func finish(span trace.Span, evt *events.Event) {
	if data, ok := evt.Data.(events.SessionClosedData); ok {
		span.SetAttributes(
			attribute.String("codegen.outcome", data.Outcome),
			attribute.Int("websocket.close_code", data.Code),
			attribute.Int64("session.duration_ms", data.Duration.Milliseconds()),
		)
		if data.Reason != "" {
			span.SetAttributes(attribute.String("websocket.close_reason", data.Reason))
		}
		if data.ErrorType != "" {
			span.SetAttributes(attribute.String("error.type", data.ErrorType))
		}
	}

	if evt.Type == events.EventSessionFailed {
		msg := "session failed"
		if data, ok := evt.Data.(events.SessionClosedData); ok && data.Reason != "" {
			msg = data.Reason
		}
		span.SetStatus(codes.Error, msg)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(evt.Timestamp))
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
