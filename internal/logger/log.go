package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"guardian/internal/config"

	"gopkg.in/lumberjack.v2"
)

// Init installs the process-wide JSON logger and returns it.
func Init(cfg config.LogConfig) *slog.Logger {
	l := New(writers(cfg), cfg.Level)
	slog.SetDefault(l)
	Info("logger initialized", "level", cfg.Level, "file", cfg.File)
	return l
}

// New builds a JSON logger over w without installing it.
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}))
}

func writers(cfg config.LogConfig) io.Writer {
	var ws []io.Writer
	if cfg.Console {
		ws = append(ws, os.Stdout)
	}
	if cfg.File != "" {
		ws = append(ws, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			LocalTime:  true,
		})
	}
	if len(ws) == 0 {
		ws = append(ws, os.Stdout)
	}
	return io.MultiWriter(ws...)
}

// With returns the default logger tagged with a component name.
func With(component string) *slog.Logger { return slog.Default().With("component", component) }

func Info(msg string, args ...any)  { slog.Info(msg, args...) }
func Warn(msg string, args ...any)  { slog.Warn(msg, args...) }
func Error(msg string, args ...any) { slog.Error(msg, args...) }
func Debug(msg string, args ...any) { slog.Debug(msg, args...) }

func Log(ctx context.Context, level slog.Level, msg string, args ...any) {
	slog.Log(ctx, level, msg, args...)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
