// Package errs defines the typed error taxonomy the Core returns, and
// the exit-code mapping a CLI entry point derives from it.
package errs

import "fmt"

// UserVisibleError is implemented by errors that carry an end-user
// facing suggestion in addition to their message.
type UserVisibleError interface {
	IsUserVisible() bool
	Suggestion() string
}

// InvalidRunIDError reports a run_id that fails the filesystem-safety
// invariant (I4): empty after trim, contains a path separator or "..",
// or exceeds 255 bytes.
type InvalidRunIDError struct {
	RunID string
}

func (e *InvalidRunIDError) Error() string {
	return fmt.Sprintf("invalid run_id: %q", e.RunID)
}

// EventLogLockedError reports that an exclusive lock could not be
// acquired because another writer already holds it.
type EventLogLockedError struct {
	Path string
}

func (e *EventLogLockedError) Error() string {
	return fmt.Sprintf("event log locked: %s", e.Path)
}

// EventLogNotFoundError reports that a reader was opened against a
// path that does not exist.
type EventLogNotFoundError struct {
	Path string
}

func (e *EventLogNotFoundError) Error() string {
	return fmt.Sprintf("event log not found: %s", e.Path)
}

// EventLogCorruptedError reports a line that failed to decode as a
// RunEvent during a read.
type EventLogCorruptedError struct {
	Line    int
	Message string
}

func (e *EventLogCorruptedError) Error() string {
	return fmt.Sprintf("event log corrupted at line %d: %s", e.Line, e.Message)
}

// SerializationError reports that a value could not be marshaled to
// the JSON object shape the event log requires.
type SerializationError struct {
	Reason string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialization error: %s", e.Reason)
}

// PermissionDeniedError reports a denied action.
type PermissionDeniedError struct {
	Action string
	Reason error
}

func (e *PermissionDeniedError) Error() string {
	if e.Reason != nil {
		return fmt.Sprintf("permission denied: %s: %v", e.Action, e.Reason)
	}
	return fmt.Sprintf("permission denied: %s", e.Action)
}

func (e *PermissionDeniedError) Unwrap() error { return e.Reason }

// PatchFailedError reports a failure applying or validating a patch
// against a path.
type PatchFailedError struct {
	Path   string
	Reason string
	Cause  error
}

func (e *PatchFailedError) Error() string {
	return fmt.Sprintf("patch failed for %s: %s", e.Path, e.Reason)
}

func (e *PatchFailedError) Unwrap() error { return e.Cause }

// ConfigLoadError reports an I/O failure reading the settings file.
type ConfigLoadError struct {
	Path  string
	Cause error
}

func (e *ConfigLoadError) Error() string {
	return fmt.Sprintf("failed to load config from %s: %v", e.Path, e.Cause)
}

func (e *ConfigLoadError) Unwrap() error { return e.Cause }

// ConfigParseError reports malformed settings JSON, including line/column.
type ConfigParseError struct {
	Path    string
	Message string
}

func (e *ConfigParseError) Error() string {
	return fmt.Sprintf("failed to parse config at %s: %s", e.Path, e.Message)
}

// ConfigValidationError reports a settings value failing Validate().
type ConfigValidationError struct {
	Path  string
	Cause error
}

func (e *ConfigValidationError) Error() string {
	return fmt.Sprintf("invalid config at %s: %v", e.Path, e.Cause)
}

func (e *ConfigValidationError) Unwrap() error { return e.Cause }

// APIError reports a non-success HTTP response from the transport.
type APIError struct {
	Message    string
	StatusCode int // 0 when not applicable
	Cause      error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %s", e.Message)
}

func (e *APIError) Unwrap() error { return e.Cause }

// IoError reports an I/O failure with the operation that triggered it.
type IoError struct {
	Operation string
	Path      string
	Cause     error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("I/O error: %s on %s: %v", e.Operation, e.Path, e.Cause)
}

func (e *IoError) Unwrap() error { return e.Cause }

// ValidationError reports a generic field validation failure.
type ValidationError struct {
	Message string
	Field   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// JSONError reports a JSON decode failure with surrounding context.
type JSONError struct {
	Context string
	Cause   error
}

func (e *JSONError) Error() string {
	return fmt.Sprintf("JSON error: %s: %v", e.Context, e.Cause)
}

func (e *JSONError) Unwrap() error { return e.Cause }

// PathRejectedError reports a path pattern failing invariant I5.
type PathRejectedError struct {
	Path   string
	Reason string
}

func (e *PathRejectedError) Error() string {
	return fmt.Sprintf("path rejected: %s - %s", e.Path, e.Reason)
}

// ErrMissingAPIKey reports that OPENAI_API_KEY was unset or empty.
var ErrMissingAPIKey = missingAPIKeyError{}

type missingAPIKeyError struct{}

func (missingAPIKeyError) Error() string {
	return "OPENAI_API_KEY environment variable not set"
}

// RequestTimeoutError reports an HTTP attempt exceeding its timeout.
type RequestTimeoutError struct {
	TimeoutSecs int
}

func (e *RequestTimeoutError) Error() string {
	return fmt.Sprintf("request timed out after %ds", e.TimeoutSecs)
}

// RateLimitedError reports retries exhausted against HTTP 429.
type RateLimitedError struct {
	RetryAfter *int // seconds, nil if the header was absent/unparseable
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter != nil {
		return fmt.Sprintf("rate limited, retry after %ds", *e.RetryAfter)
	}
	return "rate limited"
}

// ModelNotAvailableError reports a requested model the upstream rejects.
type ModelNotAvailableError struct {
	Model string
}

func (e *ModelNotAvailableError) Error() string {
	return fmt.Sprintf("model not available: %s", e.Model)
}

// ResponseParseFailedError carries a parse-failure context and the raw
// response text. parser.Parse does not return it: when no format
// matches, Parse returns an empty action list and a nil error.
type ResponseParseFailedError struct {
	Context      string
	RawResponse  string
}

func (e *ResponseParseFailedError) Error() string {
	return fmt.Sprintf("response parse failed: %s", e.Context)
}

// StreamInterruptedError reports the SSE body ending mid-event or a
// non-timeout read failure on the stream.
type StreamInterruptedError struct {
	Message string
}

func (e *StreamInterruptedError) Error() string {
	return fmt.Sprintf("stream interrupted: %s", e.Message)
}

// SettingsValidationError is the error type methods on NexusSettings
// return; kept distinct from ConfigValidationError (which wraps it with
// a file path) so validation can be unit tested without a file on disk.
type SettingsValidationError struct {
	Kind    string // "schema_version" | "permission_mode" | "path_pattern" | "max_batch_cu" | "max_batch_steps"
	Path    string // populated for Kind == "path_pattern"
	Reason  string
	Details string
}

func (e *SettingsValidationError) Error() string {
	switch e.Kind {
	case "path_pattern":
		return fmt.Sprintf("invalid path pattern %q: %s", e.Path, e.Reason)
	default:
		return fmt.Sprintf("invalid settings (%s): %s", e.Kind, e.Reason)
	}
}
