package logger

import (
	"fmt"
	"log/slog"
	"sort"
)

// Log format constants
const (
	FormatJSON = "json"
	FormatText = "text"
)

// LoggingConfigSpec defines the logging configuration for the Configure function.
// It mirrors config.LoggingConfig to avoid an import cycle.
type LoggingConfigSpec struct {
	DefaultLevel string
	Format       string // "json" or "text"
	CommonFields map[string]string
}

// Configure applies a LoggingConfigSpec to the global logger.
func Configure(cfg *LoggingConfigSpec) error {
	if cfg == nil {
		return nil
	}

	switch cfg.Format {
	case "", FormatText, FormatJSON:
	default:
		return fmt.Errorf("unsupported log format %q", cfg.Format)
	}

	level := slog.LevelInfo
	if cfg.DefaultLevel != "" {
		level = ParseLevel(cfg.DefaultLevel)
	}

	// Sorted so the attribute order is stable across runs.
	keys := make([]string, 0, len(cfg.CommonFields))
	for k := range cfg.CommonFields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	commonFields := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		commonFields = append(commonFields, slog.String(k, cfg.CommonFields[k]))
	}

	initLoggerWithConfig(level, commonFields, cfg.Format == FormatJSON)
	return nil
}

// initLoggerWithConfig rebuilds DefaultLogger and installs it as the slog default.
func initLoggerWithConfig(level slog.Level, commonFields []slog.Attr, useJSON bool) {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	var baseHandler slog.Handler
	if useJSON {
		baseHandler = slog.NewJSONHandler(logOutput, opts)
	} else {
		baseHandler = slog.NewTextHandler(logOutput, opts)
	}

	DefaultLogger = slog.New(NewContextHandler(baseHandler, commonFields...))
	slog.SetDefault(DefaultLogger)
}
