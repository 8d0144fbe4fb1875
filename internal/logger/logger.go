package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(slog.Default())
}

func Init() {
	InitWith(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
}

// InitWith configures the package logger to write to stdout. format is
// "json" or "text".
func InitWith(level, format string) {
	Configure(os.Stdout, level, format)
}

// Configure replaces the package logger. It is safe to call while other
// goroutines are logging.
func Configure(w io.Writer, level, format string) {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if strings.EqualFold(format, "text") {
		current.Store(New(slog.NewTextHandler(w, opts)))
		return
	}
	current.Store(New(NewJSONHandler(w, opts)))
}

func New(h slog.Handler) *slog.Logger {
	return slog.New(h)
}

func NewJSONHandler(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	return slog.NewJSONHandler(w, opts)
}

func parseLevel(level string) slog.Level {
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

func get() *slog.Logger {
	return current.Load()
}

func Info(msg string, args ...any) {
	get().Info(msg, args...)
}

func Infof(format string, v ...any) {
	get().Info(fmt.Sprintf(format, v...))
}

func Warn(msg string, args ...any) {
	get().Warn(msg, args...)
}

func Warnf(format string, v ...any) {
	get().Warn(fmt.Sprintf(format, v...))
}

func Error(msg string, args ...any) {
	get().Error(msg, args...)
}

func Errorf(format string, v ...any) {
	get().Error(fmt.Sprintf(format, v...))
}

func Debug(msg string, args ...any) {
	get().Debug(msg, args...)
}

func Debugf(format string, v ...any) {
	get().Debug(fmt.Sprintf(format, v...))
}

func Fatalf(format string, v ...any) {
	get().Error(fmt.Sprintf(format, v...))
	os.Exit(1)
}

func WithError(err error) *slog.Logger {
	return get().With("error", err.Error())
}

func WithFields(fields map[string]interface{}) *slog.Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return get().With(args...)
}
