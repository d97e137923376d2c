package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunEvent_StampsSchemaVersionAndTime(t *testing.T) {
	e := NewRunEvent("run_1", "run.started")
	assert.Equal(t, SchemaVersion, e.V)
	assert.Equal(t, "run_1", e.RunID)
	assert.Equal(t, "run.started", e.Type)
	assert.False(t, e.Time.IsZero())
	assert.Equal(t, e.Time, e.Time.UTC())
}

func TestWithActor_SetsActorWithoutMutatingOriginal(t *testing.T) {
	base := NewRunEvent("run_1", "a")
	withActor := base.WithActor(Actor{Agent: AgentExecutor})

	assert.Nil(t, base.Actor)
	require.NotNil(t, withActor.Actor)
	assert.Equal(t, AgentExecutor, withActor.Actor.Agent)
}

func TestWithPayload_MarshalsValue(t *testing.T) {
	e := NewRunEvent("run_1", "run.started").WithPayload(map[string]any{"task": "refactor"})

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(e.Payload, &decoded))
	assert.Equal(t, "refactor", decoded["task"])
}

func TestWithTrace_SetsTraceWithoutMutatingOriginal(t *testing.T) {
	base := NewRunEvent("run_1", "a")
	withTrace := base.WithTrace(TraceInfo{CorrelationID: "corr-1"})

	assert.Nil(t, base.Trace)
	require.NotNil(t, withTrace.Trace)
	assert.Equal(t, "corr-1", withTrace.Trace.CorrelationID)
}

func TestRunEvent_OmitsEmptyOptionalFields(t *testing.T) {
	e := NewRunEvent("run_1", "run.started")
	raw, err := json.Marshal(e)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	for _, field := range []string{"workflow_id", "node_id", "trace", "actor", "payload", "payload_ref"} {
		_, present := decoded[field]
		assert.False(t, present, "expected %q to be omitted", field)
	}
}
