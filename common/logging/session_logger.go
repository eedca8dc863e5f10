// Package logging provides structured logging setup and correlation-aware loggers
// for the adb monitor components
package logging

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Supported output formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Setup configures the standard logrus logger with the given level and format
func Setup(level, format string) error {
	return Configure(log.StandardLogger(), level, format)
}

// Configure applies level and format to the given logger
func Configure(logger *log.Logger, level, format string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	switch strings.ToLower(format) {
	case "", FormatText:
		logger.SetFormatter(&log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	case FormatJSON:
		logger.SetFormatter(&log.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	default:
		return fmt.Errorf("invalid log format %q", format)
	}

	logger.SetOutput(os.Stderr)
	logger.SetLevel(lvl)
	return nil
}

// SessionLogger attaches a correlation ID and component name to every entry.
// One session spans one monitor run so all poll, root and disconnect lines can be grouped.
type SessionLogger struct {
	correlationID string
	component     string
	baseLogger    *log.Logger
}

// NewSessionLogger creates a session logger on top of the standard logger
func NewSessionLogger(component string) *SessionLogger {
	return NewSessionLoggerWithBase(component, log.StandardLogger())
}

// NewSessionLoggerWithBase creates a session logger on top of a specific logger.
// Tests use this with a logrus test hook.
func NewSessionLoggerWithBase(component string, base *log.Logger) *SessionLogger {
	if base == nil {
		base = log.StandardLogger()
	}
	return &SessionLogger{
		correlationID: uuid.New().String(),
		component:     component,
		baseLogger:    base,
	}
}

// Child returns a logger for another component that shares this session's correlation ID
func (s *SessionLogger) Child(component string) *SessionLogger {
	return &SessionLogger{
		correlationID: s.correlationID,
		component:     component,
		baseLogger:    s.baseLogger,
	}
}

// Entry returns a log entry carrying the session fields
func (s *SessionLogger) Entry() *log.Entry {
	return s.baseLogger.WithFields(log.Fields{
		"correlation_id": s.correlationID,
		"component":      s.component,
	})
}

// Device returns a log entry scoped to one device serial
func (s *SessionLogger) Device(serial string) *log.Entry {
	return s.Entry().WithField("serial", serial)
}

// LogDuration logs how long a step took at debug level
func (s *SessionLogger) LogDuration(step string, start time.Time) {
	duration := time.Since(start)

	s.Entry().WithFields(log.Fields{
		"step":        step,
		"duration_ms": duration.Milliseconds(),
	}).Debug(fmt.Sprintf("⏱️ %s completed in %v", step, duration))
}

// CorrelationID returns the session correlation ID
func (s *SessionLogger) CorrelationID() string {
	return s.correlationID
}

// Component returns the component name
func (s *SessionLogger) Component() string {
	return s.component
}
