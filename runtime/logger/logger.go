// Package logger provides structured logging with automatic secret redaction.
//
// This package wraps Go's standard log/slog with convenience functions for:
//   - Session lifecycle and WebSocket frame logging
//   - Automatic API key redaction in outbound request payloads
//   - Contextual logging with session and request identifiers
//   - Level-based verbosity control
//
// All exported functions use the global DefaultLogger which can be configured
// for different output formats and log levels.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

var (
	// DefaultLogger is the global structured logger instance.
	// It is safe for concurrent use and initialized with slog.LevelInfo by default.
	DefaultLogger *slog.Logger

	// logOutput is where newly built handlers write. Tests swap it for a buffer.
	logOutput io.Writer = os.Stderr
)

func init() {
	level := slog.LevelInfo
	if envLevel := os.Getenv("LOG_LEVEL"); envLevel != "" {
		level = ParseLevel(envLevel)
	}
	initLoggerWithConfig(level, nil, false)
}

// ParseLevel converts a level name into a slog.Level. Unknown names map to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetLevel changes the logging level for all subsequent log operations.
func SetLevel(level slog.Level) {
	initLoggerWithConfig(level, nil, false)
}

// SetVerbose enables debug-level logging when verbose is true, otherwise sets info-level.
// This is a convenience wrapper around SetLevel for command-line verbose flags.
func SetVerbose(verbose bool) {
	if verbose {
		SetLevel(slog.LevelDebug)
	} else {
		SetLevel(slog.LevelInfo)
	}
}

// Info logs an informational message with structured key-value attributes.
func Info(msg string, args ...any) {
	DefaultLogger.Info(msg, args...)
}

// InfoContext logs an informational message, enriched with fields from ctx.
func InfoContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.InfoContext(ctx, msg, args...)
}

// Debug logs a debug-level message with structured attributes.
func Debug(msg string, args ...any) {
	DefaultLogger.Debug(msg, args...)
}

// DebugContext logs a debug message, enriched with fields from ctx.
func DebugContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.DebugContext(ctx, msg, args...)
}

// Warn logs a warning message with structured attributes.
// Use for recoverable errors or unexpected but non-critical situations.
func Warn(msg string, args ...any) {
	DefaultLogger.Warn(msg, args...)
}

// WarnContext logs a warning message, enriched with fields from ctx.
func WarnContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.WarnContext(ctx, msg, args...)
}

// Error logs an error message with structured attributes.
func Error(msg string, args ...any) {
	DefaultLogger.Error(msg, args...)
}

// ErrorContext logs an error message, enriched with fields from ctx.
func ErrorContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.ErrorContext(ctx, msg, args...)
}

// SessionClosed logs the terminal classification of a session.
func SessionClosed(ctx context.Context, outcome string, code int, reason string, attrs ...any) {
	allAttrs := make([]any, 0, 6+len(attrs))
	allAttrs = append(allAttrs,
		"outcome", outcome,
		"code", code,
		"reason", reason,
	)
	allAttrs = append(allAttrs, attrs...)
	InfoContext(ctx, "Connection closed", allAttrs...)
}

var (
	// apiKeyPatterns detect bare secrets in free text.
	apiKeyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`sk-ant-[a-zA-Z0-9_-]{20,}`), // Anthropic API keys
		regexp.MustCompile(`sk-[a-zA-Z0-9]{32,}`),       // OpenAI API keys
		regexp.MustCompile(`AIza[a-zA-Z0-9_-]{35}`),     // Google API keys
		regexp.MustCompile(`Bearer\s+[a-zA-Z0-9_-]+`),   // Bearer tokens
	}

	// apiKeyFieldPattern matches JSON string fields whose name ends in "ApiKey",
	// including values with escaped quotes.
	apiKeyFieldPattern = regexp.MustCompile(`"([A-Za-z]*[Aa]pi[Kk]ey)"\s*:\s*"(?:[^"\\]|\\.)*"`)
)

// RedactSensitiveData removes API keys and other secrets from strings.
//
// JSON fields named like "openAiApiKey" have their whole value replaced.
// Bare keys keep their first four characters for debugging context; bearer
// tokens collapse to "Bearer [REDACTED]".
//
// This function is safe for concurrent use as it only reads from the compiled patterns.
func RedactSensitiveData(input string) string {
	result := apiKeyFieldPattern.ReplaceAllString(input, `"$1":"[REDACTED]"`)

	for _, pattern := range apiKeyPatterns {
		result = pattern.ReplaceAllStringFunc(result, func(match string) string {
			if strings.HasPrefix(match, "Bearer ") {
				return "Bearer [REDACTED]"
			}
			if len(match) > 8 {
				return match[:4] + "...[REDACTED]"
			}
			return "[REDACTED]"
		})
	}

	return result
}

// maxFrameLogBytes caps how much of a frame payload is written to the log.
const maxFrameLogBytes = 512

// Frame logs a WebSocket frame at debug level with secrets redacted.
// It is a no-op when debug logging is disabled, so callers may pass large payloads.
func Frame(ctx context.Context, direction string, payload []byte) {
	if !DefaultLogger.Enabled(ctx, slog.LevelDebug) {
		return
	}

	body := RedactSensitiveData(string(payload))
	truncated := false
	if len(body) > maxFrameLogBytes {
		body = body[:maxFrameLogBytes]
		truncated = true
	}

	DebugContext(ctx, "WebSocket frame",
		"direction", direction,
		"bytes", len(payload),
		"truncated", truncated,
		"payload", body,
	)
}
