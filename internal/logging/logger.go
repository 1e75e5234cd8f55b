package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

// Logger defines a minimal, printf-style logging contract.
//
// Components depend on this interface so tests can swap in a no-op or
// recording logger without touching the call sites.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards all output.
func Nop() Logger {
	return nopLogger{}
}

// OrNop returns logger when non-nil, otherwise a no-op logger.
func OrNop(logger Logger) Logger {
	if logger == nil {
		return Nop()
	}
	return logger
}

type componentLogger struct {
	mu        sync.Mutex
	out       io.Writer
	level     LogLevel
	component string
}

var (
	defaultLevel     LogLevel
	defaultLevelOnce sync.Once
)

// NewComponentLogger creates a logger scoped to a component. Output goes to
// stderr; the minimum level comes from COPILOT_LOG_LEVEL (debug, info, warn,
// error) and defaults to info.
func NewComponentLogger(component string) Logger {
	defaultLevelOnce.Do(func() {
		defaultLevel = parseLevel(os.Getenv("COPILOT_LOG_LEVEL"))
	})
	return &componentLogger{
		out:       os.Stderr,
		level:     defaultLevel,
		component: component,
	}
}

// NewWriterLogger creates a component logger that writes to the given writer
// at the given level. Used by tests to capture output.
func NewWriterLogger(out io.Writer, level LogLevel, component string) Logger {
	return &componentLogger{out: out, level: level, component: component}
}

func (l *componentLogger) log(level LogLevel, format string, args ...any) {
	if level < l.level {
		return
	}

	_, file, line, ok := runtime.Caller(2)
	if ok {
		file = filepath.Base(file)
	} else {
		file = "???"
		line = 0
	}

	// Format: 2025-09-30 12:34:56 [INFO] [Component] file.go:123 - Message
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	component := l.component
	if component == "" {
		component = "COPILOT"
	}
	message := fmt.Sprintf(format, args...)
	logLine := fmt.Sprintf("%s [%s] [%s] %s:%d - %s\n",
		timestamp, levelToString(level), component, file, line, message)

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprint(l.out, logLine)
}

func (l *componentLogger) Debug(format string, args ...any) {
	l.log(DEBUG, format, args...)
}

func (l *componentLogger) Info(format string, args ...any) {
	l.log(INFO, format, args...)
}

func (l *componentLogger) Warn(format string, args ...any) {
	l.log(WARN, format, args...)
}

func (l *componentLogger) Error(format string, args ...any) {
	l.log(ERROR, format, args...)
}

func levelToString(level LogLevel) string {
	switch level {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func parseLevel(raw string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}
