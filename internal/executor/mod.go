// Package executor drives one call to a Codex-compatible chat
// completions endpoint and recovers ProposedActions from its response,
// logging the call's lifecycle to the event log as it goes.
package executor

import (
	"context"

	"github.com/andrewmcadoo/nexus/internal/types"
)

// FileContext is one file of source handed to the executor as context
// for the task it is being asked to perform.
type FileContext struct {
	Path     string
	Content  string
	Language string
}

// ExecuteOptions controls one execution call.
type ExecuteOptions struct {
	DryRun          bool
	MaxTokens       *int
	Temperature     *float32
	PreferredFormat types.PatchFormat
}

// Executor performs a task against a set of files and returns the
// actions it proposes.
type Executor interface {
	Execute(ctx context.Context, task string, files []FileContext, opts ExecuteOptions) ([]types.ProposedAction, error)
	ExecuteStreaming(ctx context.Context, task string, files []FileContext, opts ExecuteOptions, onChunk func(StreamChunk)) ([]types.ProposedAction, error)
}
