// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/andrewmcadoo/nexus/internal/secret"
)

// Format represents the log output format.
type Format string

const (
	// FormatJSON outputs logs in JSON format for machine parsing.
	FormatJSON Format = "json"
	// FormatText outputs logs in human-readable text format.
	FormatText Format = "text"
)

// Custom log levels extending slog's standard levels.
const (
	// LevelTrace is more verbose than Debug, for detailed tracing output
	// logged through Trace.
	LevelTrace = slog.Level(-8)
)

// Standard field keys for structured logging. These deliberately mirror
// the wire field names eventlog.Record uses (run_id, type, event_seq),
// so a log line and the audit-log entry it describes carry the same
// correlation keys and a human cross-referencing stderr against a run's
// JSONL file doesn't have to remember two different vocabularies.
const (
	// RunIDKey is the field key for a run's identifier.
	RunIDKey = "run_id"
	// ActionIDKey is the field key for a proposed action's identifier.
	ActionIDKey = "action_id"
	// ProviderKey is the field key for the executor's provider name.
	ProviderKey = "provider"
	// DurationKey is the field key for duration in milliseconds.
	DurationKey = "duration_ms"
	// EventKey is the field key for the event-log record type, matching
	// eventlog.Record's "type" wire field (run.started, action.proposed, ...).
	EventKey = "type"
	// EventSeqKey is the field key for an event-log record's sequence
	// number, matching eventlog.Record's "event_seq" wire field.
	EventSeqKey = "event_seq"
)

// Config holds the logging configuration.
type Config struct {
	// Level sets the minimum log level (trace, debug, info, warn, error).
	// Default: info
	Level string

	// Format sets the output format (json, text).
	// Default: json
	Format Format

	// Output is the writer for log output.
	// Default: os.Stderr
	Output io.Writer

	// AddSource adds source file and line information to logs.
	// Default: false
	AddSource bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Level:     "info",
		Format:    FormatJSON,
		Output:    os.Stderr,
		AddSource: false,
	}
}

// FromEnv creates a Config from environment variables.
// Supported environment variables:
//   - NEXUS_DEBUG: true/1 to enable debug level and source logging (takes precedence)
//   - NEXUS_LOG_LEVEL: trace, debug, info, warn, error (takes precedence over LOG_LEVEL)
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - NEXUS_LOG_FORMAT: json, text (default: json)
//   - LOG_SOURCE: 1 to enable source file/line (default: 0)
func FromEnv() *Config {
	cfg := DefaultConfig()

	// NEXUS_DEBUG enables debug logging and source information
	debug := os.Getenv("NEXUS_DEBUG")
	debugOn := debug == "true" || debug == "1"
	if debugOn {
		cfg.Level = "debug"
		cfg.AddSource = true
	}

	// NEXUS_LOG_LEVEL takes precedence over LOG_LEVEL (but not NEXUS_DEBUG)
	if !debugOn {
		if level := os.Getenv("NEXUS_LOG_LEVEL"); level != "" {
			cfg.Level = strings.ToLower(level)
		} else if level := os.Getenv("LOG_LEVEL"); level != "" {
			cfg.Level = strings.ToLower(level)
		}
	}

	if format := os.Getenv("NEXUS_LOG_FORMAT"); format != "" {
		cfg.Format = Format(strings.ToLower(format))
	}

	if os.Getenv("LOG_SOURCE") == "1" {
		cfg.AddSource = true
	}

	return cfg
}

// New creates a new structured logger from the given configuration.
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	// Parse log level
	level := parseLevel(cfg.Level)

	// Create handler options
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}

	// Select handler based on format
	var handler slog.Handler
	switch cfg.Format {
	case FormatText:
		handler = slog.NewTextHandler(cfg.Output, opts)
	case FormatJSON:
		fallthrough
	default:
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}

	return slog.New(handler)
}

// parseLevel converts a string level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithCorrelationID returns a new logger with a correlation ID field.
// Correlation IDs are used for cross-process tracing.
func WithCorrelationID(logger *slog.Logger, correlationID string) *slog.Logger {
	return logger.With("correlation_id", correlationID)
}

// WithComponent returns a new logger with a component name field.
// Component names help identify which part of the system generated the log.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With("component", component)
}

// LogAttrs is a convenience type for structured log attributes.
type LogAttrs []slog.Attr

// Attr creates a new attribute with the given key and value.
func Attr(key string, value any) slog.Attr {
	return slog.Any(key, value)
}

// String creates a string attribute.
func String(key, value string) slog.Attr {
	return slog.String(key, value)
}

// Int creates an int attribute.
func Int(key string, value int) slog.Attr {
	return slog.Int(key, value)
}

// Int64 creates an int64 attribute.
func Int64(key string, value int64) slog.Attr {
	return slog.Int64(key, value)
}

// Bool creates a bool attribute.
func Bool(key string, value bool) slog.Attr {
	return slog.Bool(key, value)
}

// Error creates an error attribute.
func Error(err error) slog.Attr {
	return slog.Any("error", err)
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value int64) slog.Attr {
	return slog.Int64(key+"_ms", value)
}

// WithRunContext returns a new logger with the run_id field set,
// attached to every subsequent log entry.
func WithRunContext(logger *slog.Logger, runID string) *slog.Logger {
	return logger.With(slog.String(RunIDKey, runID))
}

// WithActionContext returns a new logger with run_id and action_id set.
func WithActionContext(logger *slog.Logger, runID, actionID string) *slog.Logger {
	return logger.With(
		slog.String(RunIDKey, runID),
		slog.String(ActionIDKey, actionID),
	)
}

// WithEventContext returns a new logger carrying the same correlation
// keys as one eventlog.Record: run_id, the assigned event_seq, and the
// record's type string. Call it right after a successful writer.Append
// so the log line announcing an event and the JSONL line recording it
// can be joined on (run_id, event_seq) alone.
func WithEventContext(logger *slog.Logger, runID string, eventSeq uint64, eventType string) *slog.Logger {
	return logger.With(
		slog.String(RunIDKey, runID),
		slog.Uint64(EventSeqKey, eventSeq),
		slog.String(EventKey, eventType),
	)
}

// WithProvider returns a new logger with provider context.
// This adds provider name to all subsequent log entries.
func WithProvider(logger *slog.Logger, provider string) *slog.Logger {
	return logger.With(slog.String(ProviderKey, provider))
}

// Secret logs a secret.String under key, relying on the secret's own
// String method to redact it ("***") rather than reimplementing
// masking here. Pass the wrapper itself, never value.Expose() — doing
// so defeats the point of this helper.
func Secret(key string, value secret.String) slog.Attr {
	return slog.String(key, value.String())
}

// LevelFromVerbosity maps a -v flag's repeat count to a Config level
// string: 0 defers to the ambient NEXUS_LOG_LEVEL/LOG_LEVEL default, 1
// forces info, 2 forces debug, and 3 or more forces trace.
func LevelFromVerbosity(verbose int) string {
	switch {
	case verbose >= 3:
		return "trace"
	case verbose == 2:
		return "debug"
	case verbose == 1:
		return "info"
	default:
		return ""
	}
}

// Trace logs a message at trace level with optional attributes. No
// package in this module calls it; the transport does not log raw SSE
// chunks.
func Trace(logger *slog.Logger, msg string, attrs ...slog.Attr) {
	if !logger.Enabled(nil, LevelTrace) {
		return
	}
	logger.LogAttrs(nil, LevelTrace, msg, attrs...)
}
