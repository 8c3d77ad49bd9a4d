// Package logging provides the structured logger used across the scenario
// engine: one logrus-backed wrapper shared by the loader, the engine, the
// bus handler and the report sink, instead of each component reaching for
// its own ad hoc log calls.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ContextKey is the type for context keys carried by the logger.
type ContextKey string

const (
	// ScenarioIDKey is the context key for the active scenario's name.
	ScenarioIDKey ContextKey = "scenario"
	// ActionIDKey is the context key for the action currently executing.
	ActionIDKey ContextKey = "action"
)

// Logger wraps logrus.Logger with engine-specific context helpers.
type Logger struct {
	*logrus.Logger
	component string
}

// New creates a Logger for the given component ("engine", "loader",
// "report-sink", ...) with the requested level and format ("json" or
// "text").
func New(component, level, format string) *Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if strings.EqualFold(format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	}

	logger.SetOutput(os.Stdout)

	return &Logger{Logger: logger, component: component}
}

// NewFromEnv builds a logger from LOG_LEVEL/LOG_FORMAT, defaulting to
// info/text so a host embedding the engine without configuring logging
// still gets readable output.
func NewFromEnv(component string) *Logger {
	level := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if level == "" {
		level = "info"
	}
	format := strings.TrimSpace(os.Getenv("LOG_FORMAT"))
	if format == "" {
		format = "text"
	}
	return New(component, level, format)
}

// SetLevel reconfigures the logger's level at runtime. Used by the
// set-debug-threshold action; the scenario engine's original per-category
// GST_DEBUG masks collapse onto this single logrus level axis.
func (l *Logger) SetLevel(level string) {
	if lvl, err := logrus.ParseLevel(level); err == nil {
		l.Logger.SetLevel(lvl)
	}
}

// SetOutput redirects the logger's output (used by tests to capture
// output into a buffer).
func (l *Logger) SetOutput(w io.Writer) {
	l.Logger.SetOutput(w)
}

// WithContext attaches the scenario/action names carried on ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	entry := l.Logger.WithField("component", l.component)
	if scenario, ok := ctx.Value(ScenarioIDKey).(string); ok && scenario != "" {
		entry = entry.WithField("scenario", scenario)
	}
	if action, ok := ctx.Value(ActionIDKey).(string); ok && action != "" {
		entry = entry.WithField("action", action)
	}
	return entry
}

// WithFields creates a log entry tagged with the component name plus the
// given fields.
func (l *Logger) WithFields(fields logrus.Fields) *logrus.Entry {
	if fields == nil {
		fields = logrus.Fields{}
	}
	fields["component"] = l.component
	return l.Logger.WithFields(fields)
}

// WithError creates a log entry carrying an error.
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{"component": l.component}).WithError(err)
}

// WithScenario attaches a scenario name to ctx for later WithContext calls.
func WithScenario(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ScenarioIDKey, name)
}

// WithAction attaches an action description to ctx for later WithContext
// calls.
func WithAction(ctx context.Context, action string) context.Context {
	return context.WithValue(ctx, ActionIDKey, action)
}

// Nop returns a logger that discards everything, for tests and hosts that
// don't care about engine logs.
func Nop() *Logger {
	l := New("nop", "panic", "text")
	l.SetOutput(io.Discard)
	return l
}
