package logger

import (
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestRedactSensitiveData(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains string
		absent   string
	}{
		{
			name:     "openai key",
			input:    "key sk-abcdefghijklmnopqrstuvwxyz0123456789",
			contains: "sk-a...[REDACTED]",
			absent:   "abcdefghijklmnopqrstuvwxyz0123456789",
		},
		{
			name:     "anthropic key",
			input:    "sk-ant-REDACTED",
			contains: "...[REDACTED]",
			absent:   "abcdefghijklmnopqrstuv",
		},
		{
			name:     "bearer token",
			input:    "Authorization: Bearer abc123token",
			contains: "Bearer [REDACTED]",
			absent:   "abc123token",
		},
		{
			name:     "json api key field",
			input:    `{"openAiApiKey":"short","image":"data:x"}`,
			contains: `"openAiApiKey":"[REDACTED]"`,
			absent:   "short",
		},
		{
			name:     "anthropic json field",
			input:    `{"anthropicApiKey": "k"}`,
			contains: `"anthropicApiKey":"[REDACTED]"`,
		},
		{
			name:     "escaped quote in key",
			input:    `{"openAiApiKey":"ab\"SECRETTAIL","image":"data:x"}`,
			contains: `"openAiApiKey":"[REDACTED]","image":"data:x"`,
			absent:   "SECRETTAIL",
		},
		{
			name:     "escaped backslash ends value",
			input:    `{"anthropicApiKey":"k\\","type":"create"}`,
			contains: `"anthropicApiKey":"[REDACTED]","type":"create"`,
		},
		{
			name:     "no secrets",
			input:    `{"type":"chunk","value":"<div>"}`,
			contains: `{"type":"chunk","value":"<div>"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RedactSensitiveData(tt.input)
			if !strings.Contains(got, tt.contains) {
				t.Errorf("expected %q in %q", tt.contains, got)
			}
			if tt.absent != "" && strings.Contains(got, tt.absent) {
				t.Errorf("expected %q to be redacted from %q", tt.absent, got)
			}
		})
	}
}

func TestFrame_DebugOnly(t *testing.T) {
	buf := withCapturedOutput(t)

	SetLevel(slog.LevelInfo)
	Frame(context.Background(), "outbound", []byte(`{"x":1}`))
	if buf.Len() != 0 {
		t.Errorf("frame should not log at info level: %s", buf.String())
	}

	SetVerbose(true)
	Frame(context.Background(), "outbound", []byte(`{"openAiApiKey":"secret"}`))
	out := buf.String()
	if !strings.Contains(out, "direction=outbound") {
		t.Errorf("expected direction attr: %s", out)
	}
	if strings.Contains(out, "secret") {
		t.Errorf("payload should be redacted: %s", out)
	}
}

func TestFrame_Truncates(t *testing.T) {
	buf := withCapturedOutput(t)
	SetVerbose(true)

	Frame(context.Background(), "inbound", []byte(strings.Repeat("a", maxFrameLogBytes*2)))

	if !strings.Contains(buf.String(), "truncated=true") {
		t.Errorf("expected truncation: %s", buf.String())
	}
}

func TestSessionClosed(t *testing.T) {
	buf := withCapturedOutput(t)
	SetLevel(slog.LevelInfo)

	ctx := WithSessionID(context.Background(), "s-9")
	SessionClosed(ctx, "completed", 1000, "", "variants", 2)

	out := buf.String()
	for _, want := range []string{"outcome=completed", "code=1000", "variants=2", "session_id=s-9"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %s", want, out)
		}
	}
}
