package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

var defaultLogger *slog.Logger

// Options selects the handler set up by Configure. An empty File logs to
// stdout; otherwise output goes to a size-rotated file.
type Options struct {
	Level  slog.Level
	Format string // "text" or "json"
	File   string

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func Init(level slog.Level) {
	setHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func InitJSON(level slog.Level) {
	setHandler(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// Configure installs the default logger described by opts. The returned
// closer releases the log file, if any.
func Configure(opts Options) io.Closer {
	var (
		out    io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)
	if opts.File != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 10),
			MaxBackups: orDefault(opts.MaxBackups, 3),
			MaxAge:     orDefault(opts.MaxAgeDays, 28),
			Compress:   true,
		}
		out, closer = lj, lj
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.Level}
	if strings.EqualFold(opts.Format, "json") {
		setHandler(slog.NewJSONHandler(out, handlerOpts))
	} else {
		setHandler(slog.NewTextHandler(out, handlerOpts))
	}
	return closer
}

// ParseLevel maps debug, info, warn and error (any case) to a slog level.
// An empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

func setHandler(h slog.Handler) {
	defaultLogger = slog.New(h)
	slog.SetDefault(defaultLogger)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func Get() *slog.Logger {
	if defaultLogger == nil {
		Init(slog.LevelInfo)
	}
	return defaultLogger
}

func With(args ...any) *slog.Logger {
	return Get().With(args...)
}

func WithGroup(name string) *slog.Logger {
	return Get().WithGroup(name)
}

func Debug(msg string, args ...any) {
	Get().Debug(msg, args...)
}

func DebugContext(ctx context.Context, msg string, args ...any) {
	Get().DebugContext(ctx, msg, args...)
}

func Info(msg string, args ...any) {
	Get().Info(msg, args...)
}

func InfoContext(ctx context.Context, msg string, args ...any) {
	Get().InfoContext(ctx, msg, args...)
}

func Warn(msg string, args ...any) {
	Get().Warn(msg, args...)
}

func WarnContext(ctx context.Context, msg string, args ...any) {
	Get().WarnContext(ctx, msg, args...)
}

func Error(msg string, args ...any) {
	Get().Error(msg, args...)
}

func ErrorContext(ctx context.Context, msg string, args ...any) {
	Get().ErrorContext(ctx, msg, args...)
}
