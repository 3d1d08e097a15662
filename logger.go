package arbor

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with arbor-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithTree adds a tree name field to the logger.
func (l *Logger) WithTree(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("tree", name),
	}
}

// LogInsert logs an insert operation.
func (l *Logger) LogInsert(ctx context.Context, tree string, dimension int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "insert failed",
			"tree", tree,
			"dimension", dimension,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "insert completed",
			"tree", tree,
			"dimension", dimension,
		)
	}
}

// LogQuery logs a nearest-neighbor query.
func (l *Logger) LogQuery(ctx context.Context, tree string, k, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "query failed",
			"tree", tree,
			"k", k,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "query completed",
			"tree", tree,
			"k", k,
			"results", resultsFound,
		)
	}
}

// LogStatus logs a status operation.
func (l *Logger) LogStatus(ctx context.Context, trees int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "status failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "status completed",
			"trees", trees,
		)
	}
}
