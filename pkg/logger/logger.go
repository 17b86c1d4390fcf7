package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/foliobooks/bookstore-backend/pkg/env"
)

// Options configures a service logger. Zero values fall back to info-level
// JSON on stdout.
type Options struct {
	ServiceName string
	Level       zerolog.Level
	WarnStack   bool
	Output      io.Writer
}

// Logger wraps zerolog and threads enriched loggers through context, so a
// request's identifiers follow every log line without plumbing them by hand.
type Logger struct {
	root      zerolog.Logger
	warnStack bool
}

type loggerKey struct{}

// New builds a logger tagged with the service name. LOG_FORMAT=console
// switches to human-readable output for local runs.
func New(opts Options) *Logger {
	level := opts.Level
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	root := zerolog.New(sink(opts.Output)).
		Level(level).
		With().
		Timestamp().
		Str("service", opts.ServiceName).
		Logger()

	return &Logger{root: root, warnStack: opts.WarnStack}
}

func sink(out io.Writer) io.Writer {
	if out == nil {
		out = os.Stdout
	}
	if env.Get("LOG_FORMAT", "json") == "console" {
		return zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}
	return out
}

// ParseLevel maps a config string to a zerolog level, defaulting to info on
// anything unrecognized.
func ParseLevel(value string) zerolog.Level {
	parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(value)))
	if err != nil || parsed == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return parsed
}

func (l *Logger) fromCtx(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if enriched, ok := ctx.Value(loggerKey{}).(*zerolog.Logger); ok {
			return enriched
		}
	}
	return &l.root
}

func (l *Logger) store(ctx context.Context, enriched zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, &enriched)
}

// WithField returns a context whose logger carries an extra field.
func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	return l.store(ctx, l.fromCtx(ctx).With().Interface(key, value).Logger())
}

// WithFields returns a context whose logger carries every given field.
func (l *Logger) WithFields(ctx context.Context, fields map[string]any) context.Context {
	builder := l.fromCtx(ctx).With()
	for key, value := range fields {
		builder = builder.Interface(key, value)
	}
	return l.store(ctx, builder.Logger())
}

func (l *Logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	return l.WithField(ctx, "request_id", requestID)
}

func (l *Logger) WithCustomerID(ctx context.Context, customerID string) context.Context {
	return l.WithField(ctx, "customer_id", customerID)
}

func (l *Logger) WithCartID(ctx context.Context, cartID string) context.Context {
	return l.WithField(ctx, "cart_id", cartID)
}

func (l *Logger) WithOrderID(ctx context.Context, orderID string) context.Context {
	return l.WithField(ctx, "order_id", orderID)
}

func (l *Logger) Info(ctx context.Context, msg string) {
	l.fromCtx(ctx).Info().Msg(msg)
}

// Warn logs at warn level; WarnStack additionally attaches the call stack.
func (l *Logger) Warn(ctx context.Context, msg string) {
	event := l.fromCtx(ctx).Warn()
	if l.warnStack {
		event = event.Str("stack", currentStack())
	}
	event.Msg(msg)
}

// Error logs the error with a stack so production failures are traceable.
func (l *Logger) Error(ctx context.Context, msg string, err error) {
	l.fromCtx(ctx).Error().Err(err).Str("stack", currentStack()).Msg(msg)
}

func currentStack() string {
	return strings.TrimSpace(string(debug.Stack()))
}
