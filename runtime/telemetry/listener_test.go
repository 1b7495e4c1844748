package telemetry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/AltairaLabs/codestream/runtime/events"
)

// newTestListener returns a listener, in-memory exporter, and TracerProvider for tests.
func newTestListener(t *testing.T, opts ...ListenerOption) (*OTelEventListener, *tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	listener := NewOTelEventListener(tp.Tracer(InstrumentationName), opts...)
	return listener, exp, tp
}

// flushAndGetSpans forces span export and returns spans.
// InMemoryExporter.Shutdown resets the buffer, so spans are read first.
func flushAndGetSpans(t *testing.T, tp *sdktrace.TracerProvider, exp *tracetest.InMemoryExporter) tracetest.SpanStubs {
	t.Helper()
	if err := tp.ForceFlush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	spans := exp.GetSpans()
	if err := tp.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	return spans
}

// hasAttr checks if a span has an attribute with the given key and string value.
func hasAttr(attrs []attribute.KeyValue, key, want string) bool {
	for _, a := range attrs {
		if string(a.Key) == key && a.Value.Emit() == want {
			return true
		}
	}
	return false
}

func eventNames(span tracetest.SpanStub) []string {
	names := make([]string, 0, len(span.Events))
	for _, e := range span.Events {
		names = append(names, e.Name)
	}
	return names
}

func sessionEvents(sessionID string, now time.Time) []*events.Event {
	at := func(ms int) time.Time { return now.Add(time.Duration(ms) * time.Millisecond) }
	return []*events.Event{
		{Type: events.EventSessionStarted, Timestamp: at(0), SessionID: sessionID,
			Data: events.SessionStartedData{URL: "ws://127.0.0.1:7001/generate-code", GenerationType: "create", InputMode: "image", Model: "claude"}},
		{Type: events.EventSessionOpened, Timestamp: at(10), SessionID: sessionID,
			Data: events.SessionOpenedData{ConnectDuration: 10 * time.Millisecond}},
		{Type: events.EventMessageReceived, Timestamp: at(20), SessionID: sessionID,
			Data: events.MessageReceivedData{MessageType: "chunk", VariantIndex: 1, Bytes: 5}},
		{Type: events.EventVariantFinalized, Timestamp: at(30), SessionID: sessionID,
			Data: events.VariantFinalizedData{VariantIndex: 1, Bytes: 20}},
		{Type: events.EventSessionCompleted, Timestamp: at(40), SessionID: sessionID,
			Data: events.SessionClosedData{Outcome: "completed", Code: 1000, Duration: 40 * time.Millisecond}},
	}
}

func TestOTelEventListener_CompletedSession(t *testing.T) {
	listener, exp, tp := newTestListener(t)

	for _, evt := range sessionEvents("sess-1", time.Now()) {
		listener.OnEvent(evt)
	}

	spans := flushAndGetSpans(t, tp, exp)
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	s := spans[0]
	if s.Name != SessionSpanName {
		t.Errorf("expected span name %q, got %q", SessionSpanName, s.Name)
	}
	if s.SpanKind != trace.SpanKindClient {
		t.Errorf("expected client span, got %v", s.SpanKind)
	}
	if s.Status.Code != codes.Ok {
		t.Errorf("expected Ok status, got %v", s.Status.Code)
	}
	for key, want := range map[string]string{
		"session.id":              "sess-1",
		"codegen.generation_type": "create",
		"codegen.input_mode":      "image",
		"codegen.outcome":         "completed",
		"websocket.close_code":    "1000",
	} {
		if !hasAttr(s.Attributes, key, want) {
			t.Errorf("expected attribute %s=%s", key, want)
		}
	}

	names := eventNames(s)
	want := []string{"connection.opened", "message.chunk", "variant.finalized"}
	if len(names) != len(want) {
		t.Fatalf("expected events %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("event %d: expected %q, got %q", i, want[i], names[i])
		}
	}
	if listener.ActiveSessions() != 0 {
		t.Errorf("expected no active sessions, got %d", listener.ActiveSessions())
	}
}

func TestOTelEventListener_FailedSession(t *testing.T) {
	listener, exp, tp := newTestListener(t)
	now := time.Now()

	listener.OnEvent(&events.Event{Type: events.EventSessionStarted, Timestamp: now, SessionID: "sess-2",
		Data: events.SessionStartedData{}})
	listener.OnEvent(&events.Event{Type: events.EventTransportError, Timestamp: now, SessionID: "sess-2",
		Data: events.TransportErrorData{Error: errors.New("connection reset")}})
	listener.OnEvent(&events.Event{Type: events.EventSessionFailed, Timestamp: now, SessionID: "sess-2",
		Data: events.SessionClosedData{Outcome: "abnormal", ErrorType: events.ErrorTypeConnection, Code: 1006}})

	spans := flushAndGetSpans(t, tp, exp)
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	s := spans[0]
	if s.Status.Code != codes.Error {
		t.Errorf("expected Error status, got %v", s.Status.Code)
	}
	if !hasAttr(s.Attributes, "error.type", events.ErrorTypeConnection) {
		t.Error("expected error.type attribute")
	}
	if len(s.Events) != 1 || s.Events[0].Name != "exception" {
		t.Errorf("expected one exception event, got %v", eventNames(s))
	}
}

func TestOTelEventListener_CancelledSessionIsNotAnError(t *testing.T) {
	listener, exp, tp := newTestListener(t)

	listener.OnEvent(&events.Event{Type: events.EventSessionStarted, SessionID: "sess-3", Data: events.SessionStartedData{}})
	listener.OnEvent(&events.Event{Type: events.EventSessionCancelled, SessionID: "sess-3",
		Data: events.SessionClosedData{Outcome: "cancelled", Code: 4333, Reason: "user cancelled"}})

	spans := flushAndGetSpans(t, tp, exp)
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status.Code != codes.Ok {
		t.Errorf("expected Ok status, got %v", spans[0].Status.Code)
	}
	if !hasAttr(spans[0].Attributes, "websocket.close_reason", "user cancelled") {
		t.Error("expected close reason attribute")
	}
}

func TestOTelEventListener_OutOfOrderDelivery(t *testing.T) {
	listener, exp, tp := newTestListener(t)

	evts := sessionEvents("sess-4", time.Now())
	// Deliver everything before session.started.
	for i := len(evts) - 1; i >= 0; i-- {
		listener.OnEvent(evts[i])
	}

	spans := flushAndGetSpans(t, tp, exp)
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if len(spans[0].Events) != 3 {
		t.Errorf("expected 3 buffered events, got %v", eventNames(spans[0]))
	}
	if spans[0].Status.Code != codes.Ok {
		t.Errorf("expected Ok status, got %v", spans[0].Status.Code)
	}
	if listener.ActiveSessions() != 0 {
		t.Errorf("expected no active sessions, got %d", listener.ActiveSessions())
	}
}

func TestOTelEventListener_DropsEventsAfterSessionEnd(t *testing.T) {
	listener, exp, tp := newTestListener(t)

	evts := sessionEvents("sess-late", time.Now())
	started, chunk, completed := evts[0], evts[2], evts[4]
	listener.OnEvent(started)
	listener.OnEvent(completed)
	// A worker delivers the chunk after the close event.
	listener.OnEvent(chunk)
	listener.OnEvent(completed)

	if got := listener.pendingSessions(); got != 0 {
		t.Errorf("expected no buffered sessions, got %d", got)
	}
	if listener.ActiveSessions() != 0 {
		t.Errorf("expected no active sessions, got %d", listener.ActiveSessions())
	}

	spans := flushAndGetSpans(t, tp, exp)
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if len(spans[0].Events) != 0 {
		t.Errorf("expected no span events, got %v", eventNames(spans[0]))
	}
}

func TestOTelEventListener_DropsEventsAfterBufferedEnd(t *testing.T) {
	listener, exp, tp := newTestListener(t)

	evts := sessionEvents("sess-buffered", time.Now())
	listener.OnEvent(evts[4])
	listener.OnEvent(evts[0])
	listener.OnEvent(evts[2])

	if got := listener.pendingSessions(); got != 0 {
		t.Errorf("expected no buffered sessions, got %d", got)
	}
	spans := flushAndGetSpans(t, tp, exp)
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
}

func TestOTelEventListener_EndedSessionsAreBounded(t *testing.T) {
	listener, _, tp := newTestListener(t)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	now := time.Now()
	for i := range maxEndedSessions + 10 {
		evts := sessionEvents(fmt.Sprintf("sess-%d", i), now)
		listener.OnEvent(evts[0])
		listener.OnEvent(evts[4])
	}

	listener.mu.Lock()
	ended, order := len(listener.ended), len(listener.endedOrder)
	listener.mu.Unlock()
	if ended != maxEndedSessions || order != maxEndedSessions {
		t.Errorf("expected %d remembered sessions, got map=%d order=%d", maxEndedSessions, ended, order)
	}
}

func TestOTelEventListener_ParentContext(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	tracer := tp.Tracer(InstrumentationName)

	ctx, parent := tracer.Start(context.Background(), "codegen.generate")
	listener := NewOTelEventListener(tracer, WithParentContext(ctx))

	for _, evt := range sessionEvents("sess-5", time.Now()) {
		listener.OnEvent(evt)
	}
	parent.End()

	spans := flushAndGetSpans(t, tp, exp)
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	for _, s := range spans {
		if s.Name == SessionSpanName && s.Parent.SpanID() != parent.SpanContext().SpanID() {
			t.Error("session span should be a child of the parent context span")
		}
	}
}

func TestOTelEventListener_IgnoresNilData(t *testing.T) {
	listener, exp, tp := newTestListener(t)

	listener.OnEvent(&events.Event{Type: events.EventSessionStarted, SessionID: "sess-6"})
	listener.OnEvent(&events.Event{Type: events.EventMessageReceived, SessionID: "sess-6"})
	listener.OnEvent(&events.Event{Type: events.EventTransportError, SessionID: "sess-6"})
	listener.OnEvent(&events.Event{Type: events.EventSessionCompleted, SessionID: "sess-6"})

	spans := flushAndGetSpans(t, tp, exp)
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if len(spans[0].Events) != 0 {
		t.Errorf("expected no events, got %v", eventNames(spans[0]))
	}
}

func TestOTelEventListener_ViaEventBus(t *testing.T) {
	listener, exp, tp := newTestListener(t)

	bus := events.NewEventBus()
	bus.SubscribeAll(listener.OnEvent)

	emitter := events.NewEmitter(bus, "sess-7")
	emitter.SessionStarted("ws://127.0.0.1:7001/generate-code", "update", "image", "")
	emitter.MessageReceived("status", 0, 8)
	emitter.SessionCompleted(1000, time.Second)
	bus.Close()

	spans := flushAndGetSpans(t, tp, exp)
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if !hasAttr(spans[0].Attributes, "codegen.generation_type", "update") {
		t.Error("expected generation type attribute")
	}
}
