package codegen

import (
	"context"

	"github.com/AltairaLabs/codestream/runtime/logger"
)

// connLogger adapts the runtime logger to the streaming.Logger interface,
// keeping the session's logging context.
type connLogger struct {
	ctx context.Context
}

// Debug implements streaming.Logger.
func (a *connLogger) Debug(msg string, keysAndValues ...interface{}) {
	logger.DebugContext(a.ctx, msg, append([]interface{}{"component", "streaming"}, keysAndValues...)...)
}

// Info implements streaming.Logger.
func (a *connLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.InfoContext(a.ctx, msg, append([]interface{}{"component", "streaming"}, keysAndValues...)...)
}

// Warn implements streaming.Logger.
func (a *connLogger) Warn(msg string, keysAndValues ...interface{}) {
	logger.WarnContext(a.ctx, msg, append([]interface{}{"component", "streaming"}, keysAndValues...)...)
}

// Error implements streaming.Logger.
func (a *connLogger) Error(msg string, keysAndValues ...interface{}) {
	logger.ErrorContext(a.ctx, msg, append([]interface{}{"component", "streaming"}, keysAndValues...)...)
}
