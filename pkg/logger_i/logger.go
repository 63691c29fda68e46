package logger_i

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/akolanti/docqa/internal/config"
)

type Logger struct {
	inner *slog.Logger
}

// Init installs the process-wide handler. Production gets JSON, everything
// else gets text.
func Init(settings config.Settings) {
	InitWithWriter(os.Stdout, settings)
}

func InitWithWriter(w io.Writer, settings config.Settings) {
	options := &slog.HandlerOptions{
		Level: settings.SlogLevel(),
	}

	var handler slog.Handler
	if settings.IsProd() {
		handler = slog.NewJSONHandler(w, options)
	} else {
		handler = slog.NewTextHandler(w, options)
	}
	slog.SetDefault(slog.New(handler))
}

func NewLogger(section string) *Logger {
	return &Logger{
		inner: slog.Default().With("component", section),
	}
}

func (l *Logger) Info(msg string, args ...any) {
	l.inner.Info(msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.inner.Error(msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.inner.Warn(msg, args...)
}

func (l *Logger) Debug(msg string, args ...any) {
	l.inner.Debug(msg, args...)
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		inner: l.inner.With(args...),
	}
}

// WithContext tags the logger with the trace id carried by ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if trace := TraceID(ctx); trace != "" {
		return l.With("traceId", trace)
	}
	return l
}

func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	trace, _ := ctx.Value(config.TRACE_ID_KEY).(string)
	return trace
}

func WithTraceID(ctx context.Context, trace string) context.Context {
	return context.WithValue(ctx, config.TRACE_ID_KEY, trace)
}
