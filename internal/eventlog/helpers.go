package eventlog

import "github.com/andrewmcadoo/nexus/internal/types"

// Convenience factory helpers for building the common run events, so
// every call site shares one definition of an event type's string and
// payload shape instead of hand-assembling RunEvent literals.

func toolActor() types.Actor {
	return types.Actor{Agent: types.AgentTool}
}

func defaultExecutorActor() types.Actor {
	return types.Actor{Agent: types.AgentExecutor, Provider: "openai", Model: "codex"}
}

// RunStarted records that a run began working on task.
func RunStarted(runID, task string) types.RunEvent {
	return types.NewRunEvent(runID, "run.started").
		WithActor(toolActor()).
		WithPayload(map[string]any{"task": task})
}

// RunCompleted records a run's terminal status and how many actions it
// produced.
func RunCompleted(runID, status string, actionsApplied int) types.RunEvent {
	return types.NewRunEvent(runID, "run.completed").
		WithActor(toolActor()).
		WithPayload(map[string]any{"status": status, "actions_applied": actionsApplied})
}

// ActionProposed records that the given action was proposed. actor, if
// nil, defaults to the executor actor.
func ActionProposed(runID, actionID, kind, summary string, actor *types.Actor) types.RunEvent {
	a := defaultExecutorActor()
	if actor != nil {
		a = *actor
	}
	return types.NewRunEvent(runID, "action.proposed").
		WithActor(a).
		WithPayload(map[string]any{"action_id": actionID, "kind": kind, "summary": summary})
}

// PermissionGranted records that scope was granted for an action.
func PermissionGranted(runID, actionID, scope string) types.RunEvent {
	return types.NewRunEvent(runID, "permission.granted").
		WithActor(toolActor()).
		WithPayload(map[string]any{"action_id": actionID, "scope": scope})
}

// PermissionDenied records that an action was denied, and why.
func PermissionDenied(runID, actionID, reason string) types.RunEvent {
	return types.NewRunEvent(runID, "permission.denied").
		WithActor(toolActor()).
		WithPayload(map[string]any{"action_id": actionID, "reason": reason})
}

// ToolExecuted records a successful application of an action.
func ToolExecuted(runID, actionID string, filesModified []string) types.RunEvent {
	return types.NewRunEvent(runID, "tool.executed").
		WithActor(toolActor()).
		WithPayload(map[string]any{
			"action_id":      actionID,
			"success":        true,
			"files_modified": filesModified,
		})
}

// ToolFailed records a failed application of an action.
func ToolFailed(runID, actionID, errMsg string) types.RunEvent {
	return types.NewRunEvent(runID, "tool.failed").
		WithActor(toolActor()).
		WithPayload(map[string]any{
			"action_id": actionID,
			"success":   false,
			"error":     errMsg,
		})
}

// ExecutorStarted records the start of an executor call against task
// over fileCount files, using model.
func ExecutorStarted(runID, task string, fileCount int, model string) types.RunEvent {
	return types.NewRunEvent(runID, "executor.started").
		WithActor(types.Actor{Agent: types.AgentExecutor, Provider: "openai", Model: model}).
		WithPayload(map[string]any{"task": task, "file_count": fileCount, "model": model})
}

// ExecutorStreaming records a streaming progress tick.
func ExecutorStreaming(runID string, chunkSize, totalChars int) types.RunEvent {
	return types.NewRunEvent(runID, "executor.streaming").
		WithActor(defaultExecutorActor()).
		WithPayload(map[string]any{"chunk_size": chunkSize, "total_chars": totalChars})
}

// ExecutorCompleted records a successful executor call's outcome.
func ExecutorCompleted(runID string, actionCount int, durationMs int64) types.RunEvent {
	return types.NewRunEvent(runID, "executor.completed").
		WithActor(defaultExecutorActor()).
		WithPayload(map[string]any{
			"action_count": actionCount,
			"duration_ms":  durationMs,
			"success":      true,
		})
}

// ExecutorFailed records a failed executor call. statusCode is omitted
// from the payload when nil (mirrors the source's conditional insert).
func ExecutorFailed(runID, errMsg string, statusCode *int) types.RunEvent {
	payload := map[string]any{"error": errMsg, "success": false}
	if statusCode != nil {
		payload["status_code"] = *statusCode
	}
	return types.NewRunEvent(runID, "executor.failed").
		WithActor(defaultExecutorActor()).
		WithPayload(payload)
}
