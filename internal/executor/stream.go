package executor

import (
	"context"

	"github.com/andrewmcadoo/nexus/internal/transport"
)

const (
	primaryChoiceIndex = 0
	finishReasonStop   = "stop"
)

// StreamChunk is one unit of progress an executor reports while
// working. Only Text and Done are ever produced by the adapter today;
// the rest are carried for forward compatibility with a richer
// orchestration layer (see DESIGN.md).
type StreamChunk struct {
	Kind           StreamChunkKind
	Text           string
	Thinking       string
	ActionID       string
	ActionSummary  string
	ErrorMessage   string
}

// StreamChunkKind discriminates a StreamChunk's populated fields.
type StreamChunkKind string

const (
	ChunkText           StreamChunkKind = "text"
	ChunkThinking       StreamChunkKind = "thinking"
	ChunkActionStart    StreamChunkKind = "action_start"
	ChunkActionComplete StreamChunkKind = "action_complete"
	ChunkError          StreamChunkKind = "error"
	ChunkDone           StreamChunkKind = "done"
)

// Accumulate drains stream, concatenating every text delta, and
// returns the full response text plus the final usage totals seen (nil
// if the stream never reported usage).
func Accumulate(ctx context.Context, stream <-chan transport.StreamResult) (string, *transport.UsageInfo, error) {
	return accumulateWithCallback(ctx, stream, func(StreamChunk) {})
}

// AccumulateWithCallback is Accumulate, additionally invoking callback
// for every Text chunk and once more with ChunkDone when the
// underlying stream's final chunk reports finish_reason "stop".
func AccumulateWithCallback(ctx context.Context, stream <-chan transport.StreamResult, callback func(StreamChunk)) (string, *transport.UsageInfo, error) {
	return accumulateWithCallback(ctx, stream, callback)
}

func accumulateWithCallback(ctx context.Context, stream <-chan transport.StreamResult, callback func(StreamChunk)) (string, *transport.UsageInfo, error) {
	var content string
	var usage *transport.UsageInfo

	for {
		select {
		case <-ctx.Done():
			return content, usage, ctx.Err()
		case result, ok := <-stream:
			if !ok {
				return content, usage, nil
			}
			if result.Err != nil {
				return content, usage, result.Err
			}

			chunk := result.Chunk
			if chunk.Usage != nil {
				usage = chunk.Usage
			}

			if len(chunk.Choices) <= primaryChoiceIndex {
				continue
			}
			choice := chunk.Choices[primaryChoiceIndex]

			if choice.Delta.Content != "" {
				content += choice.Delta.Content
				callback(StreamChunk{Kind: ChunkText, Text: choice.Delta.Content})
			}
			if isFinishStop(choice.FinishReason) {
				callback(StreamChunk{Kind: ChunkDone})
			}
		}
	}
}

func isFinishStop(reason *string) bool {
	return reason != nil && *reason == finishReasonStop
}
