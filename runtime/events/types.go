package events

import (
	"time"
)

// EventType identifies the type of event emitted during a session.
type EventType string

const (
	// EventSessionStarted marks a session start request, before dialing.
	EventSessionStarted EventType = "session.started"
	// EventSessionOpened marks the transport being established.
	EventSessionOpened EventType = "session.opened"

	// EventMessageReceived marks a well-formed inbound frame.
	EventMessageReceived EventType = "message.received"
	// EventMessageMalformed marks an inbound frame that failed to parse or validate.
	EventMessageMalformed EventType = "message.malformed"
	// EventVariantFinalized marks a final-output frame for one variant.
	EventVariantFinalized EventType = "variant.finalized"
	// EventServerError marks an error frame sent by the server.
	EventServerError EventType = "session.server_error"

	// EventTransportError marks a low-level connection error.
	EventTransportError EventType = "transport.error"

	// EventSessionCompleted marks a normal close.
	EventSessionCompleted EventType = "session.completed"
	// EventSessionCancelled marks a close with the user cancel code.
	EventSessionCancelled EventType = "session.cancelled"
	// EventSessionFailed marks a close with the application error code or any
	// unexpected code.
	EventSessionFailed EventType = "session.failed"
)

// Failure kinds carried by SessionClosedData.ErrorType.
const (
	ErrorTypeServer     = "server_error"
	ErrorTypeConnection = "connection_error"
)

// EventData is a marker interface for event payloads.
type EventData interface {
	eventData()
}

// Event represents a session event delivered to listeners.
type Event struct {
	Type      EventType
	Timestamp time.Time
	SessionID string
	Data      EventData
}

// baseEventData provides a shared marker implementation for all event payloads.
type baseEventData struct{}

func (baseEventData) eventData() {}

// SessionStartedData contains data for session start events.
type SessionStartedData struct {
	baseEventData
	URL            string
	GenerationType string
	InputMode      string
	Model          string
}

// SessionOpenedData contains data for session open events.
type SessionOpenedData struct {
	baseEventData
	ConnectDuration time.Duration
}

// MessageReceivedData contains data for inbound frame events.
type MessageReceivedData struct {
	baseEventData
	MessageType  string
	VariantIndex int
	Bytes        int
}

// MessageMalformedData contains data for rejected inbound frames.
type MessageMalformedData struct {
	baseEventData
	Error error
	Bytes int
}

// VariantFinalizedData contains data for final-output frames.
type VariantFinalizedData struct {
	baseEventData
	VariantIndex int
	Bytes        int
}

// ServerErrorData contains the message of a server error frame.
type ServerErrorData struct {
	baseEventData
	Message      string
	VariantIndex int
}

// TransportErrorData contains data for transport error events.
type TransportErrorData struct {
	baseEventData
	Error error
}

// SessionClosedData is shared by the completed, cancelled and failed events.
type SessionClosedData struct {
	baseEventData
	Outcome   string
	ErrorType string // empty unless the session failed
	Code      int
	Reason    string
	Duration  time.Duration
}
