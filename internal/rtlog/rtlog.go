// Package rtlog provides the structured logging used across rtarc's CLI
// and read path. Every run is tagged with a request ID (a fresh UUID) so
// that log lines from one invocation can be correlated when output is
// aggregated elsewhere.
package rtlog

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// New builds a text-handler slog.Logger writing to stderr, tagged with a
// fresh request ID and set to Debug level when verbose is true, Info
// otherwise.
func New(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler).With("request_id", uuid.New().String())
	return logger
}

// NopLogger returns a logger that discards everything, for use in tests
// that don't want CLI-style output.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discard{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// contextKey avoids collisions when a logger is threaded through a
// context.Context.
type contextKey struct{}

// WithContext attaches logger to ctx.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext retrieves the logger attached by WithContext, or a disabled
// logger if none was attached.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return logger
	}
	return NopLogger()
}
