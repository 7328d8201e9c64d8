// Package logger provides the structured logger shared by every component of the
// gateway. It wraps logrus so call sites can chain WithField/WithError the same way
// across services, middleware and background workers.
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	traceIDKey contextKey = "trace_id"
)

// Config controls logger construction.
type Config struct {
	Level     string
	Format    string // "json" or "text"
	Output    io.Writer
	Component string
}

// Logger is a component-scoped logrus logger.
type Logger struct {
	*logrus.Logger
	component string
}

// New builds a logger from configuration.
func New(cfg Config) *Logger {
	base := logrus.New()
	if cfg.Output != nil {
		base.SetOutput(cfg.Output)
	} else {
		base.SetOutput(os.Stdout)
	}

	level, err := logrus.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	base.SetLevel(level)

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "text":
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	default:
		base.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	}

	return &Logger{Logger: base, component: cfg.Component}
}

// NewDefault returns an info-level JSON logger for the named component.
func NewDefault(component string) *Logger {
	return New(Config{Level: os.Getenv("LOG_LEVEL"), Format: os.Getenv("LOG_FORMAT"), Component: component})
}

// Component returns the component name attached to every entry.
func (l *Logger) Component() string { return l.component }

// Named derives a logger for a sub-component sharing the same output and level.
func (l *Logger) Named(component string) *Logger {
	return &Logger{Logger: l.Logger, component: component}
}

func (l *Logger) entry() *logrus.Entry {
	if l.component == "" {
		return logrus.NewEntry(l.Logger)
	}
	return l.Logger.WithField("component", l.component)
}

// WithField returns an entry carrying the component and the given field.
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.entry().WithField(key, value)
}

// WithFields returns an entry carrying the component and the given fields.
func (l *Logger) WithFields(fields map[string]interface{}) *logrus.Entry {
	return l.entry().WithFields(logrus.Fields(fields))
}

// WithError returns an entry carrying the component and the error.
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.entry().WithError(err)
}

// WithContext returns an entry tagged with the request trace ID, if any.
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	e := l.entry()
	if traceID := GetTraceID(ctx); traceID != "" {
		e = e.WithField("trace_id", traceID)
	}
	return e
}

func (l *Logger) Info(args ...interface{})  { l.entry().Info(args...) }
func (l *Logger) Warn(args ...interface{})  { l.entry().Warn(args...) }
func (l *Logger) Error(args ...interface{}) { l.entry().Error(args...) }
func (l *Logger) Debug(args ...interface{}) { l.entry().Debug(args...) }

func (l *Logger) Infof(format string, args ...interface{})  { l.entry().Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.entry().Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry().Errorf(format, args...) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.entry().Debugf(format, args...) }

// LogRequest records a completed HTTP request.
func (l *Logger) LogRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	e := l.WithContext(ctx).WithFields(logrus.Fields{
		"method":      method,
		"path":        path,
		"status":      status,
		"duration_ms": duration.Milliseconds(),
	})
	switch {
	case status >= 500:
		e.Error("request failed")
	case status >= 400:
		e.Warn("request rejected")
	default:
		e.Info("request completed")
	}
}

// =============================================================================
// Trace IDs
// =============================================================================

// NewTraceID generates a new request trace identifier.
func NewTraceID() string {
	return uuid.NewString()
}

// WithTraceID stores the trace ID in the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// GetTraceID extracts the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(traceIDKey).(string); ok {
		return v
	}
	return ""
}
