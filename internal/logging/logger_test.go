package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriterLoggerFiltersByLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, WARN, "test")

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Fatalf("expected debug/info to be filtered, got: %s", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Fatalf("expected warn/error to be logged, got: %s", out)
	}
}

func TestWriterLoggerIncludesComponent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, DEBUG, "Orchestrator")

	logger.Info("hello %s", "world")

	out := buf.String()
	if !strings.Contains(out, "[Orchestrator]") {
		t.Fatalf("expected component tag in output, got: %s", out)
	}
	if !strings.Contains(out, "hello world") {
		t.Fatalf("expected formatted message, got: %s", out)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	t.Parallel()

	logger := OrNop(nil)
	// Must not panic.
	logger.Debug("x")
	logger.Error("y")
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]LogLevel{
		"debug":   DEBUG,
		"WARN":    WARN,
		"warning": WARN,
		"error":   ERROR,
		"":        INFO,
		"bogus":   INFO,
	}
	for raw, want := range cases {
		if got := parseLevel(raw); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}
