// Package log provides the shared logger for monorepo-sync.
// It wraps log/slog with a tint handler for readable console output and
// an optional rotating file sink, so every component logs through the
// same package-level helpers.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{
	Level:      slog.LevelInfo,
	TimeFormat: time.TimeOnly,
	NoColor:    noColor(),
}))

var fileWriter *lumberjack.Logger

// Setup reconfigures the package logger. level is one of debug, info,
// warn, error (anything else means info). logFile, when non-empty,
// additionally writes rotated plain-text logs to that path.
func Setup(level, logFile string) error {
	lvl := parseLevel(level)

	handlers := []slog.Handler{
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      lvl,
			TimeFormat: time.TimeOnly,
			NoColor:    noColor(),
		}),
	}

	if logFile != "" {
		if dir := filepath.Dir(logFile); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		fileWriter = &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100, // MB
			MaxBackups: 5,
			MaxAge:     28, // days
		}
		handlers = append(handlers, tint.NewHandler(fileWriter, &tint.Options{
			Level:      lvl,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		}))
	}

	if len(handlers) == 1 {
		logger = slog.New(handlers[0])
	} else {
		logger = slog.New(&multiHandler{handlers: handlers})
	}
	return nil
}

// SetOutput redirects the logger to w with colors disabled. Test hook.
func SetOutput(w io.Writer) {
	logger = slog.New(tint.NewHandler(w, &tint.Options{
		Level:   slog.LevelDebug,
		NoColor: true,
	}))
}

// Close flushes and closes the file sink, if one was configured.
func Close() error {
	if fileWriter != nil {
		return fileWriter.Close()
	}
	return nil
}

func Debug(msg string, args ...any) { logger.Debug(msg, args...) }
func Info(msg string, args ...any)  { logger.Info(msg, args...) }
func Warn(msg string, args ...any)  { logger.Warn(msg, args...) }
func Error(msg string, args ...any) { logger.Error(msg, args...) }

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func noColor() bool {
	return !isatty.IsTerminal(os.Stderr.Fd()) || os.Getenv("NO_COLOR") != ""
}

// multiHandler fans a record out to every configured handler.
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, h := range m.handlers {
		if err := h.Handle(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: next}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: next}
}
