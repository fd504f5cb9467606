// Package logger configures the process-wide slog logger.
package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
)

// callerHandler injects the logging call site into every record.
type callerHandler struct {
	slog.Handler
}

// trimPathDepth keeps only the last n segments of the given path.
// Example: trimPathDepth("a/b/c/d.go", 3) => "b/c/d.go"
func trimPathDepth(path string, depth int) string {
	parts := strings.Split(path, string(os.PathSeparator))
	if len(parts) <= depth {
		return path
	}
	return strings.Join(parts[len(parts)-depth:], string(os.PathSeparator))
}

func (h *callerHandler) Handle(ctx context.Context, r slog.Record) error {
	// Skip 3 stack frames to get the actual caller of the log function
	_, file, line, ok := runtime.Caller(3)
	caller := "unknown"
	if ok {
		// Always show only the last 3 segments of the file path for readability
		caller = fmt.Sprintf("%s:%d", trimPathDepth(file, 3), line)
	}
	r.AddAttrs(slog.String("caller", caller))
	return h.Handler.Handle(ctx, r)
}

// New initializes the default logger for the application.
// It uses text format and DEBUG level for development, JSON and INFO for production.
func New() *slog.Logger {
	return NewWithLevel("")
}

// NewWithLevel initializes the default logger with an explicit level
// (DEBUG, INFO, WARN, ERROR). An empty level falls back to DEBUG in
// development and INFO in production.
func NewWithLevel(level string) *slog.Logger {
	production := os.Getenv("ENV") == "production"

	logLevel := slog.LevelDebug
	if production {
		logLevel = slog.LevelInfo
	}
	switch strings.ToUpper(level) {
	case "DEBUG":
		logLevel = slog.LevelDebug
	case "INFO":
		logLevel = slog.LevelInfo
	case "WARN":
		logLevel = slog.LevelWarn
	case "ERROR":
		logLevel = slog.LevelError
	}

	var handler slog.Handler
	if production {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		})
	}
	// Wrap with callerHandler to inject caller info
	handler = &callerHandler{
		Handler: handler,
	}
	slog.SetDefault(slog.New(handler))
	return slog.Default()
}
