package executor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewmcadoo/nexus/internal/eventlog"
	"github.com/andrewmcadoo/nexus/internal/secret"
)

func sseHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	}
}

func newAdapter(t *testing.T, body string) *Adapter {
	t.Helper()
	server := httptest.NewServer(sseHandler(body))
	t.Cleanup(server.Close)
	return NewAdapter(secret.New("sk-test")).WithBaseURL(server.URL)
}

func diffSSEBody() string {
	content := "hello\n```diff\n--- a/x.go\n+++ b/x.go\n@@ -1 +1 @@\n-a\n+b\n```"
	chunk := map[string]any{
		"id":      "x",
		"object":  "chat.completion.chunk",
		"created": 1,
		"model":   "m",
		"choices": []map[string]any{{
			"index": 0,
			"delta": map[string]any{"content": content},
		}},
	}
	raw, err := json.Marshal(chunk)
	if err != nil {
		panic(err)
	}
	return "data: " + string(raw) + "\n\ndata: [DONE]\n\n"
}

func TestAdapter_ExecuteWithLoggingID_HappyPath(t *testing.T) {
	adapter := newAdapter(t, diffSSEBody())

	path := filepath.Join(t.TempDir(), "run.jsonl")
	writer, err := eventlog.Open(path)
	require.NoError(t, err)
	defer writer.Close()

	actions, err := adapter.ExecuteWithLoggingID(context.Background(), "run_1", "refactor x.go", nil, ExecuteOptions{}, writer)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "run_1-action-1", actions[0].ID)

	require.NoError(t, writer.Close())
	records, err := eventlog.LoadAll(path)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "executor.started", records[0].Type)
	assert.Equal(t, "action.proposed", records[1].Type)
	assert.Equal(t, "executor.completed", records[2].Type)
	for _, r := range records {
		assert.Equal(t, "run_1", r.RunID)
	}
}

func TestAdapter_ExecuteWithLoggingID_DryRunSkipsCallAndActions(t *testing.T) {
	adapter := newAdapter(t, diffSSEBody())

	path := filepath.Join(t.TempDir(), "run.jsonl")
	writer, err := eventlog.Open(path)
	require.NoError(t, err)
	defer writer.Close()

	actions, err := adapter.ExecuteWithLoggingID(context.Background(), "run_1", "task", nil, ExecuteOptions{DryRun: true}, writer)
	require.NoError(t, err)
	assert.Empty(t, actions)

	require.NoError(t, writer.Close())
	records, err := eventlog.LoadAll(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "executor.started", records[0].Type)
	assert.Equal(t, "executor.completed", records[1].Type)
}

func TestAdapter_ExecuteWithLoggingID_FailureEmitsExecutorFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad model"))
	}))
	defer server.Close()

	adapter := NewAdapter(secret.New("sk-test")).WithBaseURL(server.URL)

	path := filepath.Join(t.TempDir(), "run.jsonl")
	writer, err := eventlog.Open(path)
	require.NoError(t, err)
	defer writer.Close()

	_, err = adapter.ExecuteWithLoggingID(context.Background(), "run_1", "task", nil, ExecuteOptions{}, writer)
	require.Error(t, err)

	require.NoError(t, writer.Close())
	records, err := eventlog.LoadAll(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "executor.started", records[0].Type)
	assert.Equal(t, "executor.failed", records[1].Type)
}

func TestAdapter_ExecuteWithLoggingID_OriginalErrorSurvivesCleanupFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad model"))
	}))
	defer server.Close()

	adapter := NewAdapter(secret.New("sk-test")).WithBaseURL(server.URL)

	path := filepath.Join(t.TempDir(), "run.jsonl")
	writer, err := eventlog.Open(path)
	require.NoError(t, err)
	// Close the underlying file out from under the writer so the
	// executor.failed cleanup emit/sync fails too, the way a transient
	// disk error would: the original upstream error must still win.
	require.NoError(t, writer.Close())

	_, err = adapter.ExecuteWithLoggingID(context.Background(), "run_1", "task", nil, ExecuteOptions{}, writer)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "event log")
	assert.NotContains(t, err.Error(), "sync")
}

func TestGenerateRunID_MatchesExpectedShape(t *testing.T) {
	id := GenerateRunID()
	assert.Regexp(t, `^run_\d{8}_\d{6}_\d{3}$`, id)
}
