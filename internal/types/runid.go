package types

import (
	"strings"

	"github.com/andrewmcadoo/nexus/internal/errs"
)

// MaxRunIDLength is the filesystem-safety cap on a run_id (I4).
const MaxRunIDLength = 255

// ValidateRunID enforces invariant I4: non-empty after trim, no path
// separator or traversal sequence, at most MaxRunIDLength bytes. Called
// by the response parser before it mints action IDs from a run_id; the
// event log writer does not call it.
func ValidateRunID(runID string) error {
	if strings.TrimSpace(runID) == "" {
		return &errs.InvalidRunIDError{RunID: runID}
	}
	if strings.ContainsAny(runID, "/\\") || strings.Contains(runID, "..") {
		return &errs.InvalidRunIDError{RunID: runID}
	}
	if len(runID) > MaxRunIDLength {
		return &errs.InvalidRunIDError{RunID: runID}
	}
	return nil
}
