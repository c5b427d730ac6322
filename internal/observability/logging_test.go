package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name   string
		config LogConfig
		json   bool
	}{
		{
			name:   "json format",
			config: LogConfig{Level: "info", Format: "json"},
			json:   true,
		},
		{
			name:   "text format",
			config: LogConfig{Level: "debug", Format: "text"},
		},
		{
			name:   "defaults",
			config: LogConfig{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.config.Output = &buf
			logger := NewLogger(tt.config)
			if logger == nil {
				t.Fatal("NewLogger() returned nil")
			}
			logger.Info("hello", "root", "town")

			out := buf.String()
			if !strings.Contains(out, "hello") {
				t.Fatalf("output %q missing message", out)
			}
			if tt.json {
				var entry map[string]any
				if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
					t.Fatalf("invalid JSON output: %v", err)
				}
				if entry["root"] != "town" {
					t.Errorf("root = %v, want town", entry["root"])
				}
			} else if !strings.Contains(out, "root=town") {
				t.Errorf("text output %q missing root attr", out)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := ParseLevel(tt.level); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "warn", Output: &buf})

	logger.Info("quiet")
	logger.Warn("loud")

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Errorf("info record should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "loud") {
		t.Errorf("warn record missing: %q", out)
	}
}

func TestLoggerContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Format: "json", Output: &buf})

	ctx := WithInvocationID(context.Background(), "inv-123")
	ctx = WithSender(ctx, "Steve")
	logger.InfoContext(ctx, "dispatched command")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if entry["invocation_id"] != "inv-123" {
		t.Errorf("invocation_id = %v, want inv-123", entry["invocation_id"])
	}
	if entry["sender"] != "Steve" {
		t.Errorf("sender = %v, want Steve", entry["sender"])
	}
}

func TestInvocationID(t *testing.T) {
	if got := InvocationID(context.Background()); got != "" {
		t.Errorf("InvocationID(empty) = %q, want empty", got)
	}
	//nolint:staticcheck // nil context is tolerated
	if got := InvocationID(nil); got != "" {
		t.Errorf("InvocationID(nil) = %q, want empty", got)
	}
	ctx := WithInvocationID(context.Background(), "abc")
	if got := InvocationID(ctx); got != "abc" {
		t.Errorf("InvocationID() = %q, want abc", got)
	}
}

func TestLoggerRedaction(t *testing.T) {
	const token = "MTA5ODc2NTQzMjEwOTg3NjU0Mw.GhIjKl.abcdefghijklmnopqrstuvwxyz0123"

	tests := []struct {
		name   string
		log    func(*slog.Logger)
		secret string
	}{
		{
			name:   "discord token in message",
			log:    func(l *slog.Logger) { l.Info("connecting with " + token) },
			secret: token,
		},
		{
			name:   "discord token in attribute",
			log:    func(l *slog.Logger) { l.Info("connecting", "token", token) },
			secret: token,
		},
		{
			name:   "password pair",
			log:    func(l *slog.Logger) { l.Info("loaded password=hunter2hunter2") },
			secret: "hunter2hunter2",
		},
		{
			name:   "error attribute",
			log:    func(l *slog.Logger) { l.Error("failed", "error", errors.New("bad secret: s3cr3tvalue!")) },
			secret: "s3cr3tvalue!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(LogConfig{Format: "json", Output: &buf})
			tt.log(logger)

			out := buf.String()
			if strings.Contains(out, tt.secret) {
				t.Errorf("secret leaked into log output: %s", out)
			}
			if !strings.Contains(out, "[REDACTED]") {
				t.Errorf("expected [REDACTED] marker in %s", out)
			}
		})
	}
}

func TestLoggerCustomRedactPattern(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{
		Output:         &buf,
		RedactPatterns: []string{`player-\d{4}`},
	})
	logger.With("who", "player-1234").Info("joined")

	out := buf.String()
	if strings.Contains(out, "player-1234") {
		t.Errorf("custom pattern not redacted: %s", out)
	}
}
