package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/andrewmcadoo/nexus/internal/errs"
	"github.com/andrewmcadoo/nexus/internal/eventlog"
	nexuslog "github.com/andrewmcadoo/nexus/internal/log"
	"github.com/andrewmcadoo/nexus/internal/parser"
	"github.com/andrewmcadoo/nexus/internal/secret"
	"github.com/andrewmcadoo/nexus/internal/transport"
	"github.com/andrewmcadoo/nexus/internal/types"
)

const defaultModel = "gpt-5.2-codex"

// Adapter drives one Codex-compatible chat completions call end to
// end: builds the prompt, sends it (streaming or not), and recovers
// ProposedActions from the accumulated response.
type Adapter struct {
	client        *transport.Client
	promptBuilder PromptBuilder
	model         string
}

// NewAdapter builds an Adapter using the module's default model.
func NewAdapter(apiKey secret.String) *Adapter {
	return &Adapter{
		client:        transport.New(apiKey),
		promptBuilder: NewPromptBuilder(),
		model:         defaultModel,
	}
}

// WithModel overrides the model used for chat completions. An empty or
// whitespace-only model resets to the default.
func (a *Adapter) WithModel(model string) *Adapter {
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultModel
	}
	a.model = model
	return a
}

// WithBaseURL overrides the transport client's API base URL.
func (a *Adapter) WithBaseURL(url string) *Adapter {
	a.client.WithBaseURL(url)
	return a
}

func (a *Adapter) buildRequest(task string, files []FileContext, opts ExecuteOptions) transport.ChatCompletionRequest {
	messages := a.promptBuilder.BuildMessages(task, files, opts.PreferredFormat)
	return transport.ChatCompletionRequest{
		Model:       a.model,
		Messages:    messages,
		Stream:      true,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}
}

// Execute runs one non-streaming call under a freshly generated run
// ID, distinct from the run ID ExecuteWithLogging manages itself.
func (a *Adapter) Execute(ctx context.Context, task string, files []FileContext, opts ExecuteOptions) ([]types.ProposedAction, error) {
	return a.executeInternal(ctx, task, files, opts, generateRunID())
}

// ExecuteStreaming is Execute, additionally invoking onChunk for every
// chunk of progress.
func (a *Adapter) ExecuteStreaming(ctx context.Context, task string, files []FileContext, opts ExecuteOptions, onChunk func(StreamChunk)) ([]types.ProposedAction, error) {
	return a.executeStreamingInternal(ctx, task, files, opts, generateRunID(), onChunk)
}

func (a *Adapter) executeInternal(ctx context.Context, task string, files []FileContext, opts ExecuteOptions, runID string) ([]types.ProposedAction, error) {
	if opts.DryRun {
		return nil, nil
	}

	req := a.buildRequest(task, files, opts)
	stream, err := a.client.ChatCompletionStream(ctx, req)
	if err != nil {
		return nil, err
	}

	response, _, err := Accumulate(ctx, stream)
	if err != nil {
		return nil, err
	}

	return parser.Parse(response, runID)
}

func (a *Adapter) executeStreamingInternal(ctx context.Context, task string, files []FileContext, opts ExecuteOptions, runID string, onChunk func(StreamChunk)) ([]types.ProposedAction, error) {
	if opts.DryRun {
		onChunk(StreamChunk{Kind: ChunkDone})
		return nil, nil
	}

	req := a.buildRequest(task, files, opts)
	stream, err := a.client.ChatCompletionStream(ctx, req)
	if err != nil {
		return nil, err
	}

	response, _, err := AccumulateWithCallback(ctx, stream, onChunk)
	if err != nil {
		return nil, err
	}

	return parser.Parse(response, runID)
}

// ExecuteWithLogging is the canonical orchestration: it mints its own
// run ID, records executor.started/action.proposed/
// executor.completed/executor.failed events to writer as it goes, and
// returns the proposed actions. The same run ID is used for execution
// and logging throughout, so every event and every action it describes
// share one correlation key. Callers that need the run ID before the
// call starts (to name the log file it writes to, for instance) should
// use GenerateRunID and ExecuteWithLoggingID instead.
func (a *Adapter) ExecuteWithLogging(ctx context.Context, task string, files []FileContext, opts ExecuteOptions, writer *eventlog.Writer) ([]types.ProposedAction, error) {
	return a.ExecuteWithLoggingID(ctx, generateRunID(), task, files, opts, writer)
}

// ExecuteWithLoggingID is ExecuteWithLogging against a run ID the
// caller already minted, for orchestration layers (the CLI's "run"
// command) that must open the event log at a path derived from the
// run ID before the executor call begins.
func (a *Adapter) ExecuteWithLoggingID(ctx context.Context, runID string, task string, files []FileContext, opts ExecuteOptions, writer *eventlog.Writer) ([]types.ProposedAction, error) {
	started := time.Now()

	if err := writer.Append(eventlog.ExecutorStarted(runID, task, len(files), a.model)); err != nil {
		return nil, err
	}

	actions, execErr := a.executeInternal(ctx, task, files, opts, runID)
	if execErr != nil {
		// The upstream failure is what the caller and the CLI's exit-code
		// mapping need to see; a disk error while recording executor.failed
		// must never eclipse it, so cleanup failures here are logged and
		// swallowed rather than returned.
		statusCode := statusCodeOf(execErr)
		if err := writer.Append(eventlog.ExecutorFailed(runID, execErr.Error(), statusCode)); err != nil {
			slog.Default().Warn("failed to record executor.failed event",
				nexuslog.String(nexuslog.RunIDKey, runID), nexuslog.Error(err))
		} else if err := writer.Sync(); err != nil {
			slog.Default().Warn("failed to sync event log after executor.failed",
				nexuslog.String(nexuslog.RunIDKey, runID), nexuslog.Error(err))
		}
		return nil, execErr
	}

	for _, action := range actions {
		if err := writer.Append(eventlog.ActionProposed(runID, action.ID, actionKindLabel(action.Kind), action.Summary, nil)); err != nil {
			return nil, err
		}
	}

	durationMs := time.Since(started).Milliseconds()
	if err := writer.Append(eventlog.ExecutorCompleted(runID, len(actions), durationMs)); err != nil {
		return nil, err
	}

	if err := writer.Sync(); err != nil {
		return nil, err
	}

	return actions, nil
}

func statusCodeOf(err error) *int {
	var apiErr *errs.APIError
	if !errors.As(err, &apiErr) {
		return nil
	}
	if apiErr.StatusCode == 0 {
		return nil
	}
	code := apiErr.StatusCode
	return &code
}

// GenerateRunID mints a timestamp-based run identifier: run_ + UTC
// time to second resolution + millisecond suffix, matching the
// upstream format exactly so run IDs sort lexically by creation time.
func GenerateRunID() string {
	return generateRunID()
}

func generateRunID() string {
	now := time.Now().UTC()
	return fmt.Sprintf("run_%s_%03d", now.Format("20060102_150405"), now.Nanosecond()/1_000_000)
}

func actionKindLabel(kind types.ActionKind) string {
	return string(kind)
}
