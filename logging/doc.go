// Package logging provides a minimal logging interface and adapters.
//
// The Logger interface defines the four level methods that agents, flows and
// the engine use. Arguments are slog style key/value pairs. This package
// includes:
//
//   - Logger interface for dependency injection
//   - StructuredLogger, a slog based implementation with contextual helpers
//   - Journal, an append-only plain text lifecycle log
//   - NoOpLogger for silent operation
//
// Usage:
//
//	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelInfo, Format: "json", Output: os.Stderr})
//	eng := engine.New(func(o *engine.Options) { o.Logger = logger })
package logging
