// Package logging is a thin wrapper over log/slog that renders colourised
// output through tint and tags records with a component name.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/lmittmann/tint"
)

var (
	level  = new(slog.LevelVar)
	logger atomic.Pointer[slog.Logger]
)

func init() {
	level.Set(ParseLevel(os.Getenv("LOG_LEVEL")))
	SetOutput(os.Stderr)
}

// ParseLevel maps LOG_LEVEL values to slog levels. Unknown values fall back
// to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// SetLevel changes the minimum level of the default logger.
func SetLevel(l slog.Level) {
	level.Set(l)
}

// SetOutput redirects the logger. Colour is only enabled for terminals.
func SetOutput(w io.Writer) {
	noColor := true
	if f, ok := w.(*os.File); ok {
		if fi, err := f.Stat(); err == nil {
			noColor = fi.Mode()&os.ModeCharDevice == 0
		}
	}
	if os.Getenv("NO_COLOR") != "" {
		noColor = true
	}
	l := slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
		NoColor:    noColor,
	}))
	logger.Store(l)
	slog.SetDefault(l)
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	return logger.Load()
}

func Debug(msg string, args ...any) { Logger().Debug(msg, args...) }
func Info(msg string, args ...any)  { Logger().Info(msg, args...) }
func Warn(msg string, args ...any)  { Logger().Warn(msg, args...) }
func Error(msg string, args ...any) { Logger().Error(msg, args...) }

// WithComponent returns a logger that tags every record with component.
func WithComponent(component string) *slog.Logger {
	return Logger().With("component", component)
}

func DebugWithComponent(component, msg string, args ...any) {
	WithComponent(component).Debug(msg, args...)
}

func InfoWithComponent(component, msg string, args ...any) {
	WithComponent(component).Info(msg, args...)
}

func WarnWithComponent(component, msg string, args ...any) {
	WithComponent(component).Warn(msg, args...)
}

func ErrorWithComponent(component, msg string, args ...any) {
	WithComponent(component).Error(msg, args...)
}
