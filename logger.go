package bumparena

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with arena-specific context.
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
// This is the default for every arena.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithArena adds an arena kind field to the logger.
func (l *Logger) WithArena(kind string) *Logger {
	return &Logger{
		Logger: l.Logger.With("arena", kind),
	}
}

// LogReserve logs the reservation of backing memory for an owned arena.
func (l *Logger) LogReserve(capacity int, err error) {
	if err != nil {
		l.Error("reservation failed",
			"capacity", capacity,
			"error", err,
		)
	} else {
		l.Debug("memory reserved",
			"capacity", capacity,
		)
	}
}

// LogGrow logs a growth step of a growable arena.
func (l *Logger) LogGrow(delta int, capacity uintptr, err error) {
	if err != nil {
		l.Warn("growth step failed",
			"delta", delta,
			"capacity", capacity,
			"error", err,
		)
	} else {
		l.Info("arena grown",
			"delta", delta,
			"capacity", capacity,
		)
	}
}

// LogExhausted logs a request that did not fit into the arena.
func (l *Logger) LogExhausted(size, align, offset, capacity uintptr) {
	l.Debug("capacity exhausted",
		"size", size,
		"align", align,
		"offset", offset,
		"capacity", capacity,
	)
}

// LogRelease logs the destruction of an arena.
func (l *Logger) LogRelease(capacity uintptr, owned bool, err error) {
	if err != nil {
		l.Error("release failed",
			"capacity", capacity,
			"owned", owned,
			"error", err,
		)
	} else {
		l.Debug("arena released",
			"capacity", capacity,
			"owned", owned,
		)
	}
}

// LogAlloc logs a single allocation. Observed allocators call this for every
// request, the authority only for the ones it fails.
func (l *Logger) LogAlloc(r Region, size, align uintptr, err error) {
	if err != nil {
		l.Debug("allocate failed",
			"size", size,
			"align", align,
			"error", err,
		)
	} else {
		l.Debug("allocate",
			"size", size,
			"align", align,
			"addr", r.Addr(),
		)
	}
}

// LogDealloc logs a single deallocation. Only observed allocators call this.
func (l *Logger) LogDealloc(r Region, align uintptr) {
	l.Debug("deallocate",
		"size", r.Len(),
		"align", align,
		"addr", r.Addr(),
	)
}
