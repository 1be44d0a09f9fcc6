// Package logging provides structured logging with trace ID support
package logging

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// TraceIDKey is the context key for the causal trace id shared with the audit log
	TraceIDKey ContextKey = "trace_id"
	// RunIDKey is the context key for the research run id being processed
	RunIDKey ContextKey = "run_id"
	// StageKey is the context key for the orchestrator stage currently executing
	StageKey ContextKey = "stage"
)

// Logger wraps logrus.Logger with additional functionality
type Logger struct {
	*logrus.Logger
	component string
}

// New creates a new Logger instance
func New(component, level, format string) *Logger {
	logger := logrus.New()

	// Set log level
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set formatter
	if format == "json" {
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

// NewFromEnv creates a Logger from LOG_LEVEL/LOG_FORMAT, defaulting to info/json
func NewFromEnv(component string) *Logger {
	level := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if level == "" {
		level = "info"
	}
	format := strings.TrimSpace(os.Getenv("LOG_FORMAT"))
	if format == "" {
		format = "json"
	}
	return New(component, level, format)
}

// WithContext returns a logrus entry carrying the run id, trace id and stage
// found in ctx, alongside the component field.
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	entry := l.Logger.WithField("component", l.component)

	if runID, ok := ctx.Value(RunIDKey).(string); ok && runID != "" {
		entry = entry.WithField("run_id", runID)
	}
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok && traceID != "" {
		entry = entry.WithField("trace_id", traceID)
	}
	if stage, ok := ctx.Value(StageKey).(string); ok && stage != "" {
		entry = entry.WithField("stage", stage)
	}
	return entry
}

// WithFields returns an entry with the component field plus the given fields
func (l *Logger) WithFields(fields map[string]interface{}) *logrus.Entry {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["component"] = l.component
	return l.Logger.WithFields(fields)
}

// WithField returns an entry with a single extra field
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.Logger.WithField("component", l.component).WithField(key, value)
}

// WithError returns an entry carrying the error and component field
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{"component": l.component, "error": err.Error()})
}

// NewTraceID generates a fresh causal trace id for a run
func NewTraceID() string {
	return uuid.New().String()
}

// WithTraceID attaches a trace id to ctx
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace id from ctx, if present
func GetTraceID(ctx context.Context) string {
	if v, ok := ctx.Value(TraceIDKey).(string); ok {
		return v
	}
	return ""
}

// WithRunID attaches a research run id to ctx
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// GetRunID retrieves the research run id from ctx, if present
func GetRunID(ctx context.Context) string {
	if v, ok := ctx.Value(RunIDKey).(string); ok {
		return v
	}
	return ""
}

// WithStage attaches the active orchestrator stage name to ctx
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, StageKey, stage)
}

// GetStage retrieves the active orchestrator stage name from ctx, if present
func GetStage(ctx context.Context) string {
	if v, ok := ctx.Value(StageKey).(string); ok {
		return v
	}
	return ""
}

var defaultLogger *Logger

// Default returns the process-wide fallback logger, lazily initialized from
// the environment. Components should otherwise receive a *Logger via
// constructor injection rather than calling this.
func Default() *Logger {
	if defaultLogger == nil {
		defaultLogger = NewFromEnv("orchestrator")
	}
	return defaultLogger
}

// InitDefault replaces the process-wide fallback logger.
func InitDefault(l *Logger) {
	defaultLogger = l
}
