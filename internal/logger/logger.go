package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	mu     sync.RWMutex
	Logger *log.Logger
)

// ParseLevel maps a LOG_LEVEL value to a level; unknown values mean info
func ParseLevel(value string) log.Level {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "warning" {
		value = "warn"
	}
	level, err := log.ParseLevel(value)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// ParseFormat maps a LOG_FORMAT value (text, json, logfmt) to a formatter
func ParseFormat(value string) log.Formatter {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// Initialize replaces the process logger. Component loggers created earlier
// keep the previous settings.
func Initialize(level, format string) {
	initialize(os.Stderr, level, format)
}

func initialize(w io.Writer, level, format string) {
	l := log.NewWithOptions(w, log.Options{
		Level:           ParseLevel(level),
		Formatter:       ParseFormat(format),
		ReportCaller:    true,
		ReportTimestamp: true,
	})

	mu.Lock()
	Logger = l
	mu.Unlock()

	l.Debug("logger initialized", "level", l.GetLevel(), "format", format)
}

// Get returns the process logger, creating an info-level text logger on first use
func Get() *log.Logger {
	mu.RLock()
	l := Logger
	mu.RUnlock()
	if l != nil {
		return l
	}

	Initialize("info", "text")
	return Get()
}

// WithContext creates a new logger with additional context fields
func WithContext(fields ...any) *log.Logger {
	return Get().With(fields...)
}

// Service creates a logger for a specific service
func Service(serviceName string) *log.Logger {
	return WithContext("service", serviceName)
}

func Database() *log.Logger {
	return WithContext("component", "database")
}

func HTTP() *log.Logger {
	return WithContext("component", "http")
}

func Migration() *log.Logger {
	return WithContext("component", "migration")
}

// Archive creates a logger for the finished-poll archive
func Archive() *log.Logger {
	return WithContext("component", "archive")
}

// Repository creates a logger for one storage repository
func Repository(repoName string) *log.Logger {
	return WithContext("component", "repository", "repository", repoName)
}

// Handler creates a logger for HTTP handlers
func Handler(handlerName string) *log.Logger {
	return WithContext("component", "handler", "handler", handlerName)
}
