package cli

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/andrewmcadoo/nexus/internal/errs"
	"github.com/andrewmcadoo/nexus/internal/eventlog"
)

type eventsFlags struct {
	run       string
	file      string
	eventType string
	trace     bool
}

// newEventsCommand builds "nexus events": replay a run's JSONL log
// through the reader, optionally filtered by run ID or event type, and
// print each surviving record as one JSON line.
func newEventsCommand(global *GlobalFlags) *cobra.Command {
	ef := &eventsFlags{}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print the events recorded for a run",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(global, ef)
		},
	}

	cmd.Flags().StringVar(&ef.run, "run", "", "run ID whose log to read (looked up under .nexus/runs)")
	cmd.Flags().StringVar(&ef.file, "file", "", "explicit event log path, overriding --run")
	cmd.Flags().StringVar(&ef.eventType, "type", "", "only print events of this type")
	cmd.Flags().BoolVar(&ef.trace, "trace", false, "tag this invocation with a fresh correlation ID for cross-process tracing")

	return cmd
}

func runEvents(global *GlobalFlags, ef *eventsFlags) error {
	path, err := eventsLogPath(ef)
	if err != nil {
		return err
	}

	if ef.trace {
		correlationID := uuid.NewString()
		printf(global, "correlation_id: %s", correlationID)
	}

	records, err := eventlog.LoadAll(path)
	if err != nil {
		return err
	}

	if ef.run != "" {
		records = eventlog.FilterByRun(records, ef.run)
	}
	if ef.eventType != "" {
		records = eventlog.FilterByType(records, ef.eventType)
	}

	if len(records) == 0 {
		printf(global, "no events found")
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return &errs.SerializationError{Reason: err.Error()}
		}
	}
	return nil
}

func eventsLogPath(ef *eventsFlags) (string, error) {
	if ef.file != "" {
		return ef.file, nil
	}
	if ef.run == "" {
		return "", &errs.ValidationError{Field: "run", Message: "one of --run or --file is required"}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", &errs.IoError{Operation: "resolve working directory", Cause: err}
	}
	return filepath.Join(cwd, ".nexus", "runs", ef.run+".jsonl"), nil
}
