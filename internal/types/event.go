// Package types defines the domain records of the Run Core: the
// append-only event log record, the proposed-action union, and the
// settings document, plus the validation invariants that bind them.
package types

import (
	"encoding/json"
	"time"
)

// SchemaVersion is the fixed schema tag stamped on every RunEvent.
const SchemaVersion = "nexus/1"

// AgentRole enumerates the roles an Actor may identify as.
type AgentRole string

const (
	AgentRouter     AgentRole = "router"
	AgentResearcher AgentRole = "researcher"
	AgentPlanner    AgentRole = "planner"
	AgentExecutor   AgentRole = "executor"
	AgentReviewer   AgentRole = "reviewer"
	AgentTool       AgentRole = "tool"
)

// TraceInfo correlates an event with a distributed trace.
type TraceInfo struct {
	CorrelationID string `json:"correlation_id,omitempty"`
	SpanID        string `json:"span_id,omitempty"`
	ParentSpanID  string `json:"parent_span_id,omitempty"`
}

// Actor identifies who or what produced an event.
type Actor struct {
	Agent    AgentRole `json:"agent,omitempty"`
	Provider string    `json:"provider,omitempty"`
	Model    string    `json:"model,omitempty"`
}

// PayloadRef points to an out-of-band payload too large to inline.
type PayloadRef struct {
	URI       string `json:"uri"`
	Mime      string `json:"mime,omitempty"`
	SHA256    string `json:"sha256,omitempty"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
	Label     string `json:"label,omitempty"`
}

// RunEvent is one append-only log record. It never carries its own
// event_seq: the event log writer assigns that at append time, and a
// RunEvent value is a complete, valid record without one. See
// eventlog.Record for the on-disk shape including event_seq.
type RunEvent struct {
	V          string          `json:"v"`
	RunID      string          `json:"run_id"`
	WorkflowID string          `json:"workflow_id,omitempty"`
	NodeID     string          `json:"node_id,omitempty"`
	Type       string          `json:"type"`
	Time       time.Time       `json:"time"`
	Trace      *TraceInfo      `json:"trace,omitempty"`
	Actor      *Actor          `json:"actor,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	PayloadRef *PayloadRef     `json:"payload_ref,omitempty"`
}

// NewRunEvent constructs a RunEvent with the fixed schema version and
// the current UTC time, ready for With* builders to populate.
func NewRunEvent(runID, eventType string) RunEvent {
	return RunEvent{
		V:     SchemaVersion,
		RunID: runID,
		Type:  eventType,
		Time:  time.Now().UTC(),
	}
}

// WithActor returns a copy of e with the given actor set.
func (e RunEvent) WithActor(actor Actor) RunEvent {
	e.Actor = &actor
	return e
}

// WithPayload returns a copy of e with its payload set to the JSON
// encoding of v. It panics only if v cannot be marshaled, which for the
// map/struct literals the helpers package builds never happens.
func (e RunEvent) WithPayload(v any) RunEvent {
	raw, err := json.Marshal(v)
	if err != nil {
		panic("types: payload does not marshal: " + err.Error())
	}
	e.Payload = raw
	return e
}

// WithTrace returns a copy of e with the given trace info set.
func (e RunEvent) WithTrace(trace TraceInfo) RunEvent {
	e.Trace = &trace
	return e
}
