// Package eventlog implements the durable, append-only JSONL event log:
// an exclusive-writer/shared-reader locked file with monotonic
// event_seq assignment that survives reopen (spec §4.1, §4.2).
package eventlog

import (
	"encoding/json"
	"time"

	"github.com/andrewmcadoo/nexus/internal/types"
)

// Record is one on-disk line: a RunEvent plus the event_seq the writer
// assigned it at append time. types.RunEvent itself never carries
// event_seq (see its doc comment); Record is the only place the two are
// joined, mirroring the source's append-time generic-value injection.
type Record struct {
	types.RunEvent
	EventSeq uint64
}

// recordWire is the on-disk field order: every RunEvent field, then
// event_seq last, matching the bit-exact example in spec §6.
type recordWire struct {
	V          string            `json:"v"`
	RunID      string            `json:"run_id"`
	WorkflowID string            `json:"workflow_id,omitempty"`
	NodeID     string            `json:"node_id,omitempty"`
	Type       string            `json:"type"`
	Time       time.Time         `json:"time"`
	Trace      *types.TraceInfo  `json:"trace,omitempty"`
	Actor      *types.Actor      `json:"actor,omitempty"`
	Payload    json.RawMessage   `json:"payload,omitempty"`
	PayloadRef *types.PayloadRef `json:"payload_ref,omitempty"`
	EventSeq   uint64            `json:"event_seq"`
}

func marshalRecord(event types.RunEvent, seq uint64) ([]byte, error) {
	wire := recordWire{
		V:          event.V,
		RunID:      event.RunID,
		WorkflowID: event.WorkflowID,
		NodeID:     event.NodeID,
		Type:       event.Type,
		Time:       event.Time.UTC(),
		Trace:      event.Trace,
		Actor:      event.Actor,
		Payload:    event.Payload,
		PayloadRef: event.PayloadRef,
		EventSeq:   seq,
	}
	return json.Marshal(wire)
}

// MarshalJSON renders r in the same field order and naming as the
// on-disk wire format (event_seq last, snake_case), so printing a
// Record read back by a Reader reproduces the log's own encoding
// instead of Go's default struct field names.
func (r Record) MarshalJSON() ([]byte, error) {
	return marshalRecord(r.RunEvent, r.EventSeq)
}

func unmarshalRecord(line []byte) (Record, error) {
	var wire recordWire
	if err := json.Unmarshal(line, &wire); err != nil {
		return Record{}, err
	}
	return Record{
		RunEvent: types.RunEvent{
			V:          wire.V,
			RunID:      wire.RunID,
			WorkflowID: wire.WorkflowID,
			NodeID:     wire.NodeID,
			Type:       wire.Type,
			Time:       wire.Time,
			Trace:      wire.Trace,
			Actor:      wire.Actor,
			Payload:    wire.Payload,
			PayloadRef: wire.PayloadRef,
		},
		EventSeq: wire.EventSeq,
	}, nil
}

// rawEventSeq extracts just the event_seq field from a raw JSONL line,
// for the writer's startup scan (it doesn't need the full event).
func rawEventSeq(line []byte) (uint64, bool) {
	var probe struct {
		EventSeq uint64 `json:"event_seq"`
	}
	if err := json.Unmarshal(line, &probe); err != nil {
		return 0, false
	}
	return probe.EventSeq, true
}
