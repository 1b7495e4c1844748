package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()

	ctx = WithSessionID(ctx, "session-456")
	ctx = WithRequestID(ctx, "request-789")
	ctx = WithGenerationType(ctx, "create")
	ctx = WithInputMode(ctx, "image")
	ctx = WithCorrelationID(ctx, "corr-abc")

	if v := ctx.Value(ContextKeySessionID); v != "session-456" {
		t.Errorf("SessionID: expected session-456, got %v", v)
	}
	if v := ctx.Value(ContextKeyRequestID); v != "request-789" {
		t.Errorf("RequestID: expected request-789, got %v", v)
	}
	if v := ctx.Value(ContextKeyGenerationType); v != "create" {
		t.Errorf("GenerationType: expected create, got %v", v)
	}
	if v := ctx.Value(ContextKeyInputMode); v != "image" {
		t.Errorf("InputMode: expected image, got %v", v)
	}
	if v := ctx.Value(ContextKeyCorrelationID); v != "corr-abc" {
		t.Errorf("CorrelationID: expected corr-abc, got %v", v)
	}
}

func TestWithLoggingContext_PartialFields(t *testing.T) {
	ctx := WithLoggingContext(context.Background(), &LoggingFields{
		SessionID: "s-1",
		InputMode: "video",
	})

	fields := ExtractLoggingFields(ctx)
	if fields.SessionID != "s-1" {
		t.Errorf("SessionID: expected s-1, got %q", fields.SessionID)
	}
	if fields.InputMode != "video" {
		t.Errorf("InputMode: expected video, got %q", fields.InputMode)
	}
	if fields.RequestID != "" || fields.GenerationType != "" || fields.CorrelationID != "" {
		t.Errorf("unset fields should be empty, got %+v", fields)
	}
}

func TestWithLoggingContext_Nil(t *testing.T) {
	ctx := context.Background()
	if got := WithLoggingContext(ctx, nil); got != ctx {
		t.Error("nil fields should return the same context")
	}
}

func TestExtractLoggingFields_EmptyContext(t *testing.T) {
	fields := ExtractLoggingFields(context.Background())
	if fields != (LoggingFields{}) {
		t.Errorf("expected zero fields, got %+v", fields)
	}
}

func TestContextHandler_ExtractsContextFields(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	log := slog.New(NewContextHandler(inner))

	ctx := WithSessionID(context.Background(), "abc")
	ctx = WithGenerationType(ctx, "update")
	log.InfoContext(ctx, "hello", "k", "v")

	out := buf.String()
	for _, want := range []string{"session_id=abc", "generation_type=update", "k=v", "msg=hello"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output: %s", want, out)
		}
	}
	if strings.Contains(out, "request_id") {
		t.Errorf("empty context values should be omitted: %s", out)
	}
}

func TestContextHandler_WithCommonFields(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, nil)
	log := slog.New(NewContextHandler(inner, slog.String("service", "codegen")))

	log.Info("msg")

	if !strings.Contains(buf.String(), "service=codegen") {
		t.Errorf("expected common field, got: %s", buf.String())
	}
}

func TestContextHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, nil)
	h := NewContextHandler(inner)

	log := slog.New(h.WithAttrs([]slog.Attr{slog.String("a", "1")}).WithGroup("g"))
	log.Info("msg", "b", "2")

	out := buf.String()
	if !strings.Contains(out, "a=1") || !strings.Contains(out, "g.b=2") {
		t.Errorf("unexpected output: %s", out)
	}
	if h.Unwrap() != inner {
		t.Error("Unwrap should return inner handler")
	}
}
