package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sbaum1994/lightstep-stream-deletion-script/config"
)

// Logger defines the logging interface
type Logger interface {
	// Error logs an error message
	Error(msg string, args ...interface{})
	// Warn logs a warning message
	Warn(msg string, args ...interface{})
	// Info logs an informational message
	Info(msg string, args ...interface{})
	// Debug logs a debug message
	Debug(msg string, args ...interface{})
	// Verbose logs a verbose/trace message
	Verbose(msg string, args ...interface{})

	// With returns a new logger with an additional context field
	With(key string, value interface{}) Logger
}

// levelRank orders levels so a configured level admits everything below it.
var levelRank = map[config.LogLevel]int{
	config.LogLevelSilent:  0,
	config.LogLevelError:   1,
	config.LogLevelInfo:    2,
	config.LogLevelDebug:   3,
	config.LogLevelVerbose: 4,
}

// DefaultLogger is the default logger implementation
type DefaultLogger struct {
	mu     sync.Mutex
	cfg    *config.LoggerConfig
	writer io.Writer
	fields map[string]interface{}
}

// NewLogger creates a new logger with the given configuration
func NewLogger(cfg *config.LoggerConfig) Logger {
	return NewLoggerWithWriter(cfg, os.Stdout)
}

// NewLoggerWithWriter creates a logger with a custom writer (useful for testing)
func NewLoggerWithWriter(cfg *config.LoggerConfig, writer io.Writer) Logger {
	if cfg == nil {
		cfg = &config.LoggerConfig{}
	}
	cfg.ApplyDefaults()

	return &DefaultLogger{
		cfg:    cfg,
		writer: writer,
		fields: make(map[string]interface{}),
	}
}

func (l *DefaultLogger) shouldLog(level config.LogLevel) bool {
	if l.cfg.Level == config.LogLevelSilent {
		return false
	}
	return levelRank[level] <= levelRank[l.cfg.Level]
}

func (l *DefaultLogger) log(level config.LogLevel, msg string, args ...interface{}) {
	if !l.shouldLog(level) {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var b strings.Builder

	if l.cfg.TimeFormat != "" {
		b.WriteString(time.Now().Format(l.cfg.TimeFormat))
		b.WriteByte(' ')
	}

	fmt.Fprintf(&b, "[%s] ", level)

	if len(l.fields) > 0 {
		keys := make([]string, 0, len(l.fields))
		for k := range l.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteByte('[')
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, l.fields[k])
		}
		b.WriteString("] ")
	}

	if len(args) > 0 {
		fmt.Fprintf(&b, msg, args...)
	} else {
		b.WriteString(msg)
	}
	b.WriteByte('\n')

	fmt.Fprint(l.writer, b.String())
}

// Error logs an error message
func (l *DefaultLogger) Error(msg string, args ...interface{}) {
	l.log(config.LogLevelError, msg, args...)
}

// Warn logs a warning message
func (l *DefaultLogger) Warn(msg string, args ...interface{}) {
	l.log(config.LogLevelInfo, msg, args...)
}

// Info logs an informational message
func (l *DefaultLogger) Info(msg string, args ...interface{}) {
	l.log(config.LogLevelInfo, msg, args...)
}

// Debug logs a debug message
func (l *DefaultLogger) Debug(msg string, args ...interface{}) {
	l.log(config.LogLevelDebug, msg, args...)
}

// Verbose logs a verbose/trace message
func (l *DefaultLogger) Verbose(msg string, args ...interface{}) {
	l.log(config.LogLevelVerbose, msg, args...)
}

// With returns a new logger with an additional context field
func (l *DefaultLogger) With(key string, value interface{}) Logger {
	newFields := make(map[string]interface{}, len(l.fields)+1)
	for k, v := range l.fields {
		newFields[k] = v
	}
	newFields[key] = value

	return &DefaultLogger{
		cfg:    l.cfg,
		writer: l.writer,
		fields: newFields,
	}
}

// NoOpLogger is a logger that does nothing (useful for testing or when logging is disabled)
type NoOpLogger struct{}

// NewNoOpLogger creates a no-op logger
func NewNoOpLogger() Logger {
	return &NoOpLogger{}
}

func (n *NoOpLogger) Error(msg string, args ...interface{})     {}
func (n *NoOpLogger) Warn(msg string, args ...interface{})      {}
func (n *NoOpLogger) Info(msg string, args ...interface{})      {}
func (n *NoOpLogger) Debug(msg string, args ...interface{})     {}
func (n *NoOpLogger) Verbose(msg string, args ...interface{})   {}
func (n *NoOpLogger) With(key string, value interface{}) Logger { return n }
