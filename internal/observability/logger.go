// Package observability provides structured logging, run context and metrics.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const (
	// LogFieldRunID is the field name for the analysis run ID.
	LogFieldRunID = "run_id"
	// LogFieldMode is the field name for the command mode.
	LogFieldMode = "mode"
	// LogFieldStage is the field name for a pipeline stage.
	LogFieldStage = "stage"
	// LogFieldDuration is the field name for duration in milliseconds.
	LogFieldDuration = "duration_ms"
	// LogFieldErrorCode is the field name for error code.
	LogFieldErrorCode = "error_code"
)

// Log output formats.
const (
	FormatConsole = "console"
	FormatText    = "text"
	FormatJSON    = "json"
)

// NewLogger builds a logger writing to w. Unknown formats fall back to console.
func NewLogger(w io.Writer, level, format string) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	case FormatText:
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = charmlog.NewWithOptions(w, charmlog.Options{
			ReportTimestamp: true,
			Level:           charmLevel(lvl),
		})
	}
	return slog.New(handler)
}

// Setup installs a stderr logger as the slog default and returns it.
func Setup(level, format string) *slog.Logger {
	logger := NewLogger(os.Stderr, level, format)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func charmLevel(l slog.Level) charmlog.Level {
	switch {
	case l <= slog.LevelDebug:
		return charmlog.DebugLevel
	case l <= slog.LevelInfo:
		return charmlog.InfoLevel
	case l <= slog.LevelWarn:
		return charmlog.WarnLevel
	default:
		return charmlog.ErrorLevel
	}
}

// RunContext represents one analysis run with structured logging.
type RunContext struct {
	RunID     string
	Mode      string
	StartTime time.Time
	Logger    *slog.Logger
	Metrics   *Metrics
}

// NewRunContext creates a run context with a generated run ID.
func NewRunContext(logger *slog.Logger, metrics *Metrics, mode string) *RunContext {
	return NewRunContextWithID(logger, metrics, uuid.New().String(), mode)
}

// NewRunContextWithID creates a run context with a specific run ID.
func NewRunContextWithID(logger *slog.Logger, metrics *Metrics, runID, mode string) *RunContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunContext{
		RunID:     runID,
		Mode:      mode,
		StartTime: time.Now(),
		Logger:    logger,
		Metrics:   metrics,
	}
}

// WithFields returns a new logger with additional fields.
func (r *RunContext) WithFields(attrs ...slog.Attr) *slog.Logger {
	args := make([]any, 0, len(attrs)+2)
	for _, attr := range r.baseAttrs(attrs...) {
		args = append(args, attr)
	}
	return r.Logger.With(args...)
}

// Info logs an info message.
func (r *RunContext) Info(msg string, attrs ...slog.Attr) {
	r.Logger.LogAttrs(context.Background(), slog.LevelInfo, msg, r.baseAttrs(attrs...)...)
}

// Debug logs a debug message.
func (r *RunContext) Debug(msg string, attrs ...slog.Attr) {
	r.Logger.LogAttrs(context.Background(), slog.LevelDebug, msg, r.baseAttrs(attrs...)...)
}

// Warn logs a warning message.
func (r *RunContext) Warn(msg string, attrs ...slog.Attr) {
	r.Logger.LogAttrs(context.Background(), slog.LevelWarn, msg, r.baseAttrs(attrs...)...)
}

// Error logs an error message with the error.
func (r *RunContext) Error(msg string, err error, attrs ...slog.Attr) {
	attrs = append(attrs, slog.String("error", err.Error()))
	r.Logger.LogAttrs(context.Background(), slog.LevelError, msg, r.baseAttrs(attrs...)...)
}

// Stage starts timing a pipeline stage. The returned function logs the
// stage duration and records it in the stage histogram.
func (r *RunContext) Stage(name string) func(attrs ...slog.Attr) {
	start := time.Now()
	r.Debug("stage started", slog.String(LogFieldStage, name))
	return func(attrs ...slog.Attr) {
		d := time.Since(start)
		r.Metrics.ObserveStage(name, d)
		attrs = append([]slog.Attr{
			slog.String(LogFieldStage, name),
			slog.Int64(LogFieldDuration, d.Milliseconds()),
		}, attrs...)
		r.Info("stage completed", attrs...)
	}
}

// Duration returns the elapsed time since the run started.
func (r *RunContext) Duration() time.Duration {
	return time.Since(r.StartTime)
}

// DurationMs returns the elapsed time in milliseconds.
func (r *RunContext) DurationMs() int64 {
	return r.Duration().Milliseconds()
}

func (r *RunContext) baseAttrs(attrs ...slog.Attr) []slog.Attr {
	base := []slog.Attr{slog.String(LogFieldRunID, r.RunID)}
	if r.Mode != "" {
		base = append(base, slog.String(LogFieldMode, r.Mode))
	}
	return append(base, attrs...)
}

type ctxKey struct{}

// WithRunContext adds the run context to the context.
func WithRunContext(ctx context.Context, rc *RunContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, rc)
}

// FromContext extracts the run context from the context.
func FromContext(ctx context.Context) (*RunContext, bool) {
	rc, ok := ctx.Value(ctxKey{}).(*RunContext)
	return rc, ok
}
