package common

import (
	"context"

	"github.com/gradient-bang/server/internal/domain/shared"
)

// Logger is the structured logging sink threaded through request context.
type Logger = shared.Logger

type contextKey int

const (
	loggerKey contextKey = iota
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext extracts the logger from context, or returns a no-op
// logger if none was set.
func LoggerFromContext(ctx context.Context) Logger {
	if logger, ok := ctx.Value(loggerKey).(Logger); ok {
		return logger
	}
	return shared.NoOpLogger{}
}
