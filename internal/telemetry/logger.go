package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// InitLogger configures the default logger with optional file output.
func InitLogger(debug bool, logFile string) {
	slog.SetDefault(NewLogger(debug, logFile, os.Stderr))
}

// NewLogger builds a JSON logger on console, plus logFile when set.
// Warnings and above are logged unless debug is enabled. A nil console is silenced.
func NewLogger(debug bool, logFile string, console io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}

	var handlers []slog.Handler
	if console != nil {
		handlers = append(handlers, slog.NewJSONHandler(console, &slog.HandlerOptions{
			Level: level,
		}))
	}

	// Add file handler if requested
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err == nil {
			handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{
				Level: level,
			}))
		} else {
			slog.Error("Failed to open log file", "path", logFile, "error", err)
		}
	}

	var handler slog.Handler
	switch len(handlers) {
	case 0:
		handler = slog.NewJSONHandler(io.Discard, nil)
	case 1:
		handler = handlers[0]
	default:
		handler = &multiHandler{handlers: handlers}
	}

	return slog.New(handler)
}

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
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: newHandlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: newHandlers}
}
