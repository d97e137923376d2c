package eventlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewmcadoo/nexus/internal/errs"
	"github.com/andrewmcadoo/nexus/internal/types"
)

func TestReader_NotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.jsonl")

	_, err := OpenReader(path)
	require.Error(t, err)
	var notFound *errs.EventLogNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestLoadAll_SkipsCorruptedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run_1.jsonl")

	content := `{"v":"nexus/1","run_id":"run_1","type":"run.started","time":"2026-01-08T12:00:00Z","event_seq":0}
not valid json at all
{"v":"nexus/1","run_id":"run_1","type":"run.completed","time":"2026-01-08T12:00:01Z","event_seq":1}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	records, err := LoadAll(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "run.started", records[0].Type)
	assert.Equal(t, "run.completed", records[1].Type)
}

func TestLoadAll_SkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run_1.jsonl")

	content := "{\"v\":\"nexus/1\",\"run_id\":\"run_1\",\"type\":\"a\",\"time\":\"2026-01-08T12:00:00Z\",\"event_seq\":0}\n\n\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	records, err := LoadAll(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestFilterByRun(t *testing.T) {
	records := []Record{
		{RunEvent: types.NewRunEvent("run_1", "a")},
		{RunEvent: types.NewRunEvent("run_2", "b")},
		{RunEvent: types.NewRunEvent("run_1", "c")},
	}

	filtered := FilterByRun(records, "run_1")
	require.Len(t, filtered, 2)
	assert.Equal(t, "a", filtered[0].Type)
	assert.Equal(t, "c", filtered[1].Type)
}

func TestFilterByType(t *testing.T) {
	records := []Record{
		{RunEvent: types.NewRunEvent("run_1", "run.started")},
		{RunEvent: types.NewRunEvent("run_1", "action.proposed")},
		{RunEvent: types.NewRunEvent("run_1", "run.started")},
	}

	filtered := FilterByType(records, "run.started")
	require.Len(t, filtered, 2)
	for _, r := range filtered {
		assert.Equal(t, "run.started", r.Type)
	}
}

func TestLineNumber_TracksAcrossBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run_1.jsonl")

	content := "{\"v\":\"nexus/1\",\"run_id\":\"run_1\",\"type\":\"a\",\"time\":\"2026-01-08T12:00:00Z\",\"event_seq\":0}\n\n{\"v\":\"nexus/1\",\"run_id\":\"run_1\",\"type\":\"b\",\"time\":\"2026-01-08T12:00:01Z\",\"event_seq\":1}\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	r, err := OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	_, ok, err := r.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, r.LineNumber())

	_, ok, err = r.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, r.LineNumber())

	_, ok, err = r.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}
