// Package cli assembles the nexus command tree: "run" drives one
// executor call end to end against a project's event log, "events"
// replays an existing log through the reader/filter combinators. Both
// are thin skins over the Core — the CLI itself is a collaborator, not
// part of the spec's invariants (see spec.md §1 Explicitly out of
// scope), but a Core with no command-line surface would never be
// exercised the way a real user exercises it.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/andrewmcadoo/nexus/internal/errs"
)

// Version is set by main from build-time ldflags.
var Version = "dev"

// GlobalFlags holds the persistent flags every subcommand reads.
type GlobalFlags struct {
	ConfigPath     string
	ConfigExplicit bool
	DryRun         bool
	Verbose        int
	JSON           bool
}

// NewRootCommand builds the "nexus" root command and its subcommands.
func NewRootCommand() *cobra.Command {
	flags := &GlobalFlags{}

	root := &cobra.Command{
		Use:     "nexus",
		Short:   "Nexus proposes code edits from a natural-language task",
		Version: Version,
		Long: `Nexus is a safety-oriented CLI agent that proposes code edits from a
natural-language task, streams them from a remote completion service, and
records every proposal and decision in a durable, per-run audit trail.

Nexus never edits files on disk itself: it only produces proposed actions
and the JSONL audit trail describing them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&flags.ConfigPath, "config", "c", ".nexus/settings.json",
		"path to the settings file (env NEXUS_CONFIG)")
	root.PersistentFlags().BoolVar(&flags.DryRun, "dry-run", false,
		"skip the upstream request and emit no executor.* events (env NEXUS_DRY_RUN)")
	root.PersistentFlags().CountVarP(&flags.Verbose, "verbose", "v",
		"increase log verbosity (-v info, -vv debug, -vvv trace)")
	root.PersistentFlags().BoolVar(&flags.JSON, "json", false,
		"print a machine-readable JSON summary instead of human text")

	root.AddCommand(newRunCommand(flags))
	root.AddCommand(newEventsCommand(flags))

	return root
}

// Main is the process entry point: build the root command, execute it,
// and translate any returned error into the matching sysexits exit
// code. It never returns.
func Main() {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		errs.HandleExitError(err)
	}
	os.Exit(errs.ExitOK)
}

func applyEnvDefaults(flags *GlobalFlags, cmd *cobra.Command) {
	flags.ConfigExplicit = cmd.Flags().Changed("config")
	if !flags.ConfigExplicit {
		if v := os.Getenv("NEXUS_CONFIG"); v != "" {
			flags.ConfigPath = v
			flags.ConfigExplicit = true
		}
	}
	if !cmd.Flags().Changed("dry-run") {
		switch os.Getenv("NEXUS_DRY_RUN") {
		case "1", "true", "TRUE", "True":
			flags.DryRun = true
		}
	}
}

func printf(flags *GlobalFlags, format string, args ...any) {
	if flags.JSON {
		return
	}
	fmt.Printf(format+"\n", args...)
}
