package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewmcadoo/nexus/internal/types"
)

func TestParse_RejectsInvalidRunID(t *testing.T) {
	_, err := Parse("anything", "../bad")
	require.Error(t, err)
}

func TestParse_FencedUnifiedDiff(t *testing.T) {
	response := "here's the fix:\n```diff\n--- a/src/lib.rs\n+++ b/src/lib.rs\n@@ -1 +1 @@\n-old\n+new\n```\n"

	actions, err := Parse(response, "run_42")
	require.NoError(t, err)
	require.Len(t, actions, 1)

	a := actions[0]
	assert.Equal(t, "run_42-action-1", a.ID)
	assert.Equal(t, types.ActionPatch, a.Kind)
	assert.Equal(t, types.DefaultRisk, a.Risk)
	assert.True(t, a.RequiresApproval)
	assert.Equal(t, "Apply patch to src/lib.rs", a.Summary)

	details, err := a.UnmarshalDetails()
	require.NoError(t, err)
	patch := details.(types.PatchDetails)
	assert.Equal(t, types.PatchFormatUnified, patch.Format)
	assert.Equal(t, []string{"src/lib.rs"}, patch.Files)
	assert.Contains(t, patch.Diff, "+new")
}

func TestParse_RawUnifiedDiffMultiFile(t *testing.T) {
	response := "--- a/a.go\n+++ b/a.go\n@@ -1 +1 @@\n-x\n+y\n--- a/b.go\n+++ b/b.go\n@@ -1 +1 @@\n-x\n+y\n"

	actions, err := Parse(response, "run_1")
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, "Apply patch to a.go", actions[0].Summary)
	assert.Equal(t, "Apply patch to b.go", actions[1].Summary)
}

func TestParse_DiffWithNoFileHeadersUsesLineThreshold(t *testing.T) {
	response := "```diff\njust one line\n```"
	actions, err := Parse(response, "run_1")
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "Apply patch", actions[0].Summary)
}

func TestParse_SearchReplaceBlock(t *testing.T) {
	response := "<<<<<<< SEARCH src/main.go\nfoo()\n=======\nbar()\n>>>>>>> REPLACE\n"

	actions, err := Parse(response, "run_7")
	require.NoError(t, err)
	require.Len(t, actions, 1)

	a := actions[0]
	assert.Equal(t, "run_7-action-1", a.ID)
	assert.Equal(t, "Apply search/replace to src/main.go", a.Summary)

	details, err := a.UnmarshalDetails()
	require.NoError(t, err)
	patch := details.(types.PatchDetails)
	assert.Equal(t, types.PatchFormatSearchReplace, patch.Format)
	require.Len(t, patch.SearchReplaceBlocks, 1)
	assert.Equal(t, "foo()", patch.SearchReplaceBlocks[0].Search)
	assert.Equal(t, "bar()", patch.SearchReplaceBlocks[0].Replace)
	assert.Equal(t, types.MatchModeExact, patch.SearchReplaceBlocks[0].MatchMode)
}

func TestParse_SearchReplaceWithoutPath(t *testing.T) {
	response := "<<<<<<< SEARCH\nfoo\n=======\nbar\n>>>>>>> REPLACE\n"
	actions, err := Parse(response, "run_7")
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "Apply search/replace block", actions[0].Summary)
}

func TestParse_FencedJSONArray(t *testing.T) {
	response := "```json\n" +
		`[{"id":"run_9-action-1","summary":"do thing","risk":1,"requires_approval":true,"kind":"command","details":{"argv":["ls"],"timeout_s":5,"requires_network":false}}]` +
		"\n```"

	actions, err := Parse(response, "run_9")
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, types.ActionCommand, actions[0].Kind)
}

func TestParse_InlineJSONArrayScannedFromRawText(t *testing.T) {
	response := `some preamble text then [{"id":"a","summary":"s","risk":1,"requires_approval":true,"kind":"file_create","details":{"path":"x","content":"y","overwrite":false,"ignore_if_exists":false}}] trailing text`

	actions, err := Parse(response, "run_9")
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, types.ActionFileCreate, actions[0].Kind)
}

func TestParse_InlineJSONArrayIgnoresNonActionArrays(t *testing.T) {
	response := `the list is [1, 2, 3] and nothing else`
	actions, err := Parse(response, "run_9")
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestParse_NoMatchesReturnsEmpty(t *testing.T) {
	actions, err := Parse("just plain prose, no patch here", "run_1")
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestParse_CRLFNormalizedBeforeMatching(t *testing.T) {
	response := "```diff\r\n--- a/x.go\r\n+++ b/x.go\r\n@@ -1 +1 @@\r\n-a\r\n+b\r\n```\r\n"
	actions, err := Parse(response, "run_1")
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "Apply patch to x.go", actions[0].Summary)
}

func TestParse_Idempotent(t *testing.T) {
	response := "```diff\n--- a/x.go\n+++ b/x.go\n@@ -1 +1 @@\n-a\n+b\n```"
	first, err := Parse(response, "run_1")
	require.NoError(t, err)
	second, err := Parse(response, "run_1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParse_DevNullFileSkipped(t *testing.T) {
	response := "```diff\n--- /dev/null\n+++ b/new.go\n@@ -0,0 +1 @@\n+hello\n```"
	actions, err := Parse(response, "run_1")
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, []string{"new.go"}, mustFiles(t, actions[0]))
}

func mustFiles(t *testing.T, a types.ProposedAction) []string {
	t.Helper()
	details, err := a.UnmarshalDetails()
	require.NoError(t, err)
	return details.(types.PatchDetails).Files
}
