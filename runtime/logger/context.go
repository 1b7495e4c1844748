package logger

import (
	"context"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

// Context keys for common logging fields.
// Values stored under these keys are added to every record logged with the context.
const (
	// ContextKeySessionID identifies the code-generation session.
	ContextKeySessionID contextKey = "session_id"

	// ContextKeyRequestID identifies an individual request within a session.
	ContextKeyRequestID contextKey = "request_id"

	// ContextKeyGenerationType is "create" or "update".
	ContextKeyGenerationType contextKey = "generation_type"

	// ContextKeyInputMode is "image" or "video".
	ContextKeyInputMode contextKey = "input_mode"

	// ContextKeyCorrelationID is used for distributed tracing.
	ContextKeyCorrelationID contextKey = "correlation_id"
)

// allContextKeys lists all context keys that should be extracted for logging.
var allContextKeys = []contextKey{
	ContextKeySessionID,
	ContextKeyRequestID,
	ContextKeyGenerationType,
	ContextKeyInputMode,
	ContextKeyCorrelationID,
}

// WithSessionID returns a new context with the session ID set.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ContextKeySessionID, sessionID)
}

// WithRequestID returns a new context with the request ID set.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// WithGenerationType returns a new context with the generation type set.
func WithGenerationType(ctx context.Context, generationType string) context.Context {
	return context.WithValue(ctx, ContextKeyGenerationType, generationType)
}

// WithInputMode returns a new context with the input mode set.
func WithInputMode(ctx context.Context, inputMode string) context.Context {
	return context.WithValue(ctx, ContextKeyInputMode, inputMode)
}

// WithCorrelationID returns a new context with the correlation ID set.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, ContextKeyCorrelationID, correlationID)
}

// LoggingFields holds all standard logging context fields.
type LoggingFields struct {
	SessionID      string
	RequestID      string
	GenerationType string
	InputMode      string
	CorrelationID  string
}

// WithLoggingContext returns a new context with every non-empty field of fields set.
func WithLoggingContext(ctx context.Context, fields *LoggingFields) context.Context {
	if fields == nil {
		return ctx
	}
	if fields.SessionID != "" {
		ctx = WithSessionID(ctx, fields.SessionID)
	}
	if fields.RequestID != "" {
		ctx = WithRequestID(ctx, fields.RequestID)
	}
	if fields.GenerationType != "" {
		ctx = WithGenerationType(ctx, fields.GenerationType)
	}
	if fields.InputMode != "" {
		ctx = WithInputMode(ctx, fields.InputMode)
	}
	if fields.CorrelationID != "" {
		ctx = WithCorrelationID(ctx, fields.CorrelationID)
	}
	return ctx
}

// ExtractLoggingFields extracts all logging fields from a context.
func ExtractLoggingFields(ctx context.Context) LoggingFields {
	return LoggingFields{
		SessionID:      stringValue(ctx, ContextKeySessionID),
		RequestID:      stringValue(ctx, ContextKeyRequestID),
		GenerationType: stringValue(ctx, ContextKeyGenerationType),
		InputMode:      stringValue(ctx, ContextKeyInputMode),
		CorrelationID:  stringValue(ctx, ContextKeyCorrelationID),
	}
}

func stringValue(ctx context.Context, key contextKey) string {
	s, _ := ctx.Value(key).(string)
	return s
}
