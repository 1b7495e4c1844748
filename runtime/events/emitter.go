package events

import "time"

// Emitter provides helpers for publishing session events with shared metadata.
// A nil Emitter, or one without a bus, drops every event.
type Emitter struct {
	bus       *EventBus
	sessionID string
}

// NewEmitter creates a new event emitter.
func NewEmitter(bus *EventBus, sessionID string) *Emitter {
	return &Emitter{
		bus:       bus,
		sessionID: sessionID,
	}
}

// emit publishes an event with shared context fields.
func (e *Emitter) emit(eventType EventType, data EventData) {
	if e == nil || e.bus == nil {
		return
	}

	e.bus.Publish(&Event{
		Type:      eventType,
		Timestamp: time.Now(),
		SessionID: e.sessionID,
		Data:      data,
	})
}

// SessionStarted emits the session.started event.
func (e *Emitter) SessionStarted(url, generationType, inputMode, model string) {
	e.emit(EventSessionStarted, SessionStartedData{
		URL:            url,
		GenerationType: generationType,
		InputMode:      inputMode,
		Model:          model,
	})
}

// SessionOpened emits the session.opened event.
func (e *Emitter) SessionOpened(connectDuration time.Duration) {
	e.emit(EventSessionOpened, SessionOpenedData{ConnectDuration: connectDuration})
}

// MessageReceived emits the message.received event.
func (e *Emitter) MessageReceived(messageType string, variantIndex, size int) {
	e.emit(EventMessageReceived, MessageReceivedData{
		MessageType:  messageType,
		VariantIndex: variantIndex,
		Bytes:        size,
	})
}

// MessageMalformed emits the message.malformed event.
func (e *Emitter) MessageMalformed(err error, size int) {
	e.emit(EventMessageMalformed, MessageMalformedData{Error: err, Bytes: size})
}

// VariantFinalized emits the variant.finalized event.
func (e *Emitter) VariantFinalized(variantIndex, size int) {
	e.emit(EventVariantFinalized, VariantFinalizedData{VariantIndex: variantIndex, Bytes: size})
}

// ServerError emits the session.server_error event.
func (e *Emitter) ServerError(message string, variantIndex int) {
	e.emit(EventServerError, ServerErrorData{Message: message, VariantIndex: variantIndex})
}

// TransportError emits the transport.error event.
func (e *Emitter) TransportError(err error) {
	e.emit(EventTransportError, TransportErrorData{Error: err})
}

// SessionCompleted emits the session.completed event.
func (e *Emitter) SessionCompleted(code int, duration time.Duration) {
	e.emit(EventSessionCompleted, SessionClosedData{
		Outcome:  "completed",
		Code:     code,
		Duration: duration,
	})
}

// SessionCancelled emits the session.cancelled event.
func (e *Emitter) SessionCancelled(code int, reason string, duration time.Duration) {
	e.emit(EventSessionCancelled, SessionClosedData{
		Outcome:  "cancelled",
		Code:     code,
		Reason:   reason,
		Duration: duration,
	})
}

// SessionFailed emits the session.failed event. outcome names the
// classification ("app_error" or "abnormal") and errorType is one of the
// ErrorType constants.
func (e *Emitter) SessionFailed(outcome, errorType string, code int, reason string, duration time.Duration) {
	e.emit(EventSessionFailed, SessionClosedData{
		Outcome:   outcome,
		ErrorType: errorType,
		Code:      code,
		Reason:    reason,
		Duration:  duration,
	})
}
