package logger

import (
	"io"
	"log/slog"
)

// New returns a JSON slog.Logger configured for the given service name.
func New(w io.Writer, service string, level slog.Level) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("service", service)
}

// NewText returns a text slog.Logger writing severity-tagged single-line
// messages, suited for operator-facing CLI output.
func NewText(w io.Writer, level slog.Level) *slog.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}
