package errs

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// BSD sysexits-style exit codes (see sysexits.h); the Core's error
// taxonomy maps onto this fixed set.
const (
	ExitOK          = 0
	ExitGeneral     = 1
	ExitUsage       = 64
	ExitDataErr     = 65
	ExitNoInput     = 66
	ExitUnavailable = 69
	ExitSoftware    = 70
	ExitCantCreat   = 73
	ExitIOErr       = 74
	ExitTempFail    = 75
	ExitNoPerm      = 77
	ExitConfig      = 78
)

// ExitError pairs an error with the process exit code a CLI entry
// point should use when reporting it.
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Cause }

// Wrap classifies err against the Core taxonomy and returns an
// ExitError carrying the corresponding sysexits code. Errors not in the
// taxonomy map to ExitGeneral, matching exit_code_from_anyhow's
// fallback in the original source.
func Wrap(err error) *ExitError {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	return &ExitError{Code: ExitCode(err), Message: err.Error(), Cause: err}
}

// ExitCode classifies err against the Core taxonomy without wrapping it.
func ExitCode(err error) int {
	var (
		invalidRunID     *InvalidRunIDError
		locked           *EventLogLockedError
		notFound         *EventLogNotFoundError
		corrupted        *EventLogCorruptedError
		serialization    *SerializationError
		permissionDenied *PermissionDeniedError
		patchFailed      *PatchFailedError
		configLoad       *ConfigLoadError
		configParse      *ConfigParseError
		configValidation *ConfigValidationError
		apiErr           *APIError
		ioErr            *IoError
		validationErr    *ValidationError
		jsonErr          *JSONError
		pathRejected     *PathRejectedError
		reqTimeout       *RequestTimeoutError
		rateLimited      *RateLimitedError
		modelUnavailable *ModelNotAvailableError
		parseFailed      *ResponseParseFailedError
		streamInterrupt  *StreamInterruptedError
	)

	switch {
	case errors.As(err, &invalidRunID):
		return ExitUsage
	case errors.As(err, &locked):
		return ExitTempFail
	case errors.As(err, &notFound):
		return ExitNoInput
	case errors.As(err, &corrupted):
		return ExitDataErr
	case errors.As(err, &serialization):
		return ExitDataErr
	case errors.As(err, &permissionDenied):
		return ExitNoPerm
	case errors.As(err, &patchFailed):
		return ExitDataErr
	case errors.As(err, &configLoad):
		return ExitNoInput
	case errors.As(err, &configParse):
		return ExitConfig
	case errors.As(err, &configValidation):
		return ExitConfig
	case errors.As(err, &apiErr):
		return ExitUnavailable
	case errors.As(err, &ioErr):
		if strings.Contains(ioErr.Operation, "read") {
			return ExitNoInput
		}
		return ExitIOErr
	case errors.As(err, &validationErr):
		return ExitDataErr
	case errors.As(err, &jsonErr):
		return ExitDataErr
	case errors.As(err, &pathRejected):
		return ExitNoPerm
	case errors.Is(err, ErrMissingAPIKey):
		return ExitConfig
	case errors.As(err, &reqTimeout):
		return ExitUnavailable
	case errors.As(err, &rateLimited):
		return ExitUnavailable
	case errors.As(err, &modelUnavailable):
		return ExitUnavailable
	case errors.As(err, &parseFailed):
		return ExitDataErr
	case errors.As(err, &streamInterrupt):
		return ExitIOErr
	default:
		return ExitGeneral
	}
}

// HandleExitError prints err (plus any UserVisibleError suggestion) to
// stderr and terminates the process with its mapped exit code. It never
// returns.
func HandleExitError(err error) {
	if err == nil {
		return
	}

	exitErr := Wrap(err)
	fmt.Fprintln(os.Stderr, "Error:", exitErr.Error())
	printSuggestion(err)
	os.Exit(exitErr.Code)
}

func printSuggestion(err error) {
	for err != nil {
		if uv, ok := err.(UserVisibleError); ok {
			if uv.IsUserVisible() {
				if s := uv.Suggestion(); s != "" {
					fmt.Fprintf(os.Stderr, "\nSuggestion: %s\n", s)
				}
			}
			return
		}
		err = errors.Unwrap(err)
	}
}
