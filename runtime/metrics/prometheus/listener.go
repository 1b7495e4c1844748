package prometheus

import (
	"strconv"

	"github.com/AltairaLabs/codestream/runtime/events"
)

// MetricsListener records session events as Prometheus metrics.
// It implements the events.Listener signature and should be registered
// with an EventBus using SubscribeAll.
type MetricsListener struct{}

// NewMetricsListener creates a new MetricsListener.
func NewMetricsListener() *MetricsListener {
	return &MetricsListener{}
}

// Handle processes an event and records relevant metrics.
func (l *MetricsListener) Handle(event *events.Event) {
	//exhaustive:ignore
	switch event.Type {
	case events.EventSessionStarted:
		RecordSessionStart()
	case events.EventSessionOpened:
		if data, ok := event.Data.(events.SessionOpenedData); ok {
			RecordConnect(data.ConnectDuration.Seconds())
		}
	case events.EventMessageReceived:
		if data, ok := event.Data.(events.MessageReceivedData); ok {
			RecordMessage(data.MessageType)
		}
	case events.EventMessageMalformed:
		RecordMalformedMessage()
	case events.EventVariantFinalized:
		RecordVariantFinalized()
	case events.EventTransportError:
		RecordTransportError()
	case events.EventSessionCompleted, events.EventSessionCancelled, events.EventSessionFailed:
		if data, ok := event.Data.(events.SessionClosedData); ok {
			RecordSessionEnd(data.Outcome, strconv.Itoa(data.Code), data.Duration.Seconds())
		}
	default:
		// Ignore events that don't have metrics
	}
}

// Listener returns the Handle method as an events.Listener.
func (l *MetricsListener) Listener() events.Listener {
	return l.Handle
}
