// Package parser recovers ProposedActions from a free-text model
// response, trying unified diffs, then search/replace blocks, then
// inline JSON action arrays, in that order — the first tier that
// produces anything wins.
package parser

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/andrewmcadoo/nexus/internal/errs"
	"github.com/andrewmcadoo/nexus/internal/types"
)

const (
	actionIndexBase          = 1
	summaryDiffLineThreshold = 2
)

var (
	diffFencedRe     = regexp.MustCompile(`(?s)` + "```" + `diff\s*(.*?)` + "```")
	diffRawStartRe   = regexp.MustCompile(`(?m)^---\s+a/.*$`)
	searchReplaceRe  = regexp.MustCompile(`(?s)<<<<<<< SEARCH(?:\s+([^\r\n]+))?\r?\n(.*?)\r?\n=======\r?\n(.*?)\r?\n>>>>>>> REPLACE`)
	jsonFencedRe     = regexp.MustCompile(`(?s)` + "```" + `json\s*(\[.*\])\s*` + "```")
)

// Parse extracts ProposedActions from response, validating runID (I4)
// first. It tries unified diffs, then search/replace blocks, then
// inline JSON arrays, returning the first non-empty result.
func Parse(response, runID string) ([]types.ProposedAction, error) {
	if err := types.ValidateRunID(runID); err != nil {
		return nil, err
	}

	if actions, err := parseUnifiedDiffs(response, runID); err != nil {
		return nil, err
	} else if len(actions) > 0 {
		return actions, nil
	}

	if actions, err := parseSearchReplace(response, runID); err != nil {
		return nil, err
	} else if len(actions) > 0 {
		return actions, nil
	}

	return parseJSONActions(response, runID)
}

func normalizeLineEndings(s string) string {
	if !strings.Contains(s, "\r\n") {
		return s
	}
	return strings.ReplaceAll(s, "\r\n", "\n")
}

func parseUnifiedDiffs(response, runID string) ([]types.ProposedAction, error) {
	response = normalizeLineEndings(response)
	diffs := collectUnifiedDiffs(response)
	return buildPatchActionsFromDiffs(runID, diffs), nil
}

func collectUnifiedDiffs(response string) []string {
	var diffs []string
	for _, m := range diffFencedRe.FindAllStringSubmatch(response, -1) {
		diff := strings.TrimSpace(m[1])
		if diff != "" {
			diffs = append(diffs, diff)
		}
	}

	for _, block := range collectRawDiffBlocks(diffFencedRe.ReplaceAllString(response, "")) {
		block = strings.TrimSpace(block)
		if block != "" {
			diffs = append(diffs, block)
		}
	}

	return diffs
}

// collectRawDiffBlocks finds every unfenced "--- a/..." diff header and
// slices the text from each header to the start of the next one (or
// the end of the response).
func collectRawDiffBlocks(response string) []string {
	starts := diffRawStartRe.FindAllStringIndex(response, -1)
	if len(starts) == 0 {
		return nil
	}

	bounds := make([]int, 0, len(starts)+1)
	for _, s := range starts {
		bounds = append(bounds, s[0])
	}
	bounds = append(bounds, len(response))

	blocks := make([]string, 0, len(starts))
	for i := 0; i < len(starts); i++ {
		blocks = append(blocks, response[bounds[i]:bounds[i+1]])
	}
	return blocks
}

func buildPatchActionsFromDiffs(runID string, diffs []string) []types.ProposedAction {
	actions := make([]types.ProposedAction, 0, len(diffs))
	for i, diff := range diffs {
		index := i + actionIndexBase
		files := extractFilesFromDiff(diff)
		summary := generateSummaryFromDiff(diff, files)
		details := patchDetailsFromDiff(diff, files)
		actions = append(actions, buildPatchAction(runID, index, summary, details))
	}
	return actions
}

func patchDetailsFromDiff(diff string, files []string) types.PatchDetails {
	d := types.DefaultPatchDetails()
	d.Diff = diff
	d.Files = files
	return d
}

func extractFilesFromDiff(diff string) []string {
	seen := make(map[string]struct{})
	var files []string
	for _, line := range strings.Split(diff, "\n") {
		path, ok := extractPathFromDiffLine(line)
		if !ok {
			continue
		}
		if _, dup := seen[path]; dup {
			continue
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}
	return files
}

func extractPathFromDiffLine(line string) (string, bool) {
	var prefix string
	switch {
	case strings.HasPrefix(line, "--- "):
		prefix = "--- "
	case strings.HasPrefix(line, "+++ "):
		prefix = "+++ "
	default:
		return "", false
	}

	rest := strings.TrimPrefix(line, prefix)
	token := strings.Fields(rest)
	if len(token) == 0 {
		return "", false
	}
	path := token[0]
	if path == "/dev/null" {
		return "", false
	}
	path = strings.TrimPrefix(path, "a/")
	path = strings.TrimPrefix(path, "b/")
	if path == "" {
		return "", false
	}
	return path, true
}

func generateSummaryFromDiff(diff string, files []string) string {
	switch len(files) {
	case 0:
		if strings.Count(diff, "\n")+1 <= summaryDiffLineThreshold {
			return "Apply patch"
		}
		return "Apply multi-file patch"
	case 1:
		return "Apply patch to " + files[0]
	default:
		return "Apply patch to " + files[0] + " and " + strconv.Itoa(len(files)-1) + " other files"
	}
}

func parseSearchReplace(response, runID string) ([]types.ProposedAction, error) {
	response = normalizeLineEndings(response)
	blocks := collectSearchReplaceBlocks(response)
	return buildSearchReplaceActions(runID, blocks), nil
}

func collectSearchReplaceBlocks(response string) []types.SearchReplaceBlock {
	matches := searchReplaceRe.FindAllStringSubmatch(response, -1)
	blocks := make([]types.SearchReplaceBlock, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, types.SearchReplaceBlock{
			File:      strings.TrimSpace(m[1]),
			Search:    m[2],
			Replace:   m[3],
			MatchMode: types.MatchModeExact,
		})
	}
	return blocks
}

func buildSearchReplaceActions(runID string, blocks []types.SearchReplaceBlock) []types.ProposedAction {
	actions := make([]types.ProposedAction, 0, len(blocks))
	for i, block := range blocks {
		index := i + actionIndexBase
		summary := summaryFromSearchReplace(block)
		details := patchDetailsFromSearchReplace(block)
		actions = append(actions, buildPatchAction(runID, index, summary, details))
	}
	return actions
}

func patchDetailsFromSearchReplace(block types.SearchReplaceBlock) types.PatchDetails {
	d := types.DefaultPatchDetails()
	d.Format = types.PatchFormatSearchReplace
	d.SearchReplaceBlocks = []types.SearchReplaceBlock{block}
	if block.File != "" {
		d.Files = []string{block.File}
	}
	return d
}

func summaryFromSearchReplace(block types.SearchReplaceBlock) string {
	if block.File != "" {
		return "Apply search/replace to " + block.File
	}
	return "Apply search/replace block"
}

func buildPatchAction(runID string, index int, summary string, details types.PatchDetails) types.ProposedAction {
	return types.ProposedAction{
		ID:               generateActionID(runID, index),
		Summary:          summary,
		Risk:             types.DefaultRisk,
		RequiresApproval: true,
		Kind:             types.ActionPatch,
		Details:          types.MarshalPatchDetails(details),
	}
}

func generateActionID(runID string, index int) string {
	return runID + "-action-" + strconv.Itoa(index)
}

func parseJSONActions(response, runID string) ([]types.ProposedAction, error) {
	if actions, err := parseFencedJSONActions(response); err != nil {
		return nil, err
	} else if actions != nil {
		return actions, nil
	}
	return parseInlineJSONActions(response)
}

func parseFencedJSONActions(response string) ([]types.ProposedAction, error) {
	m := jsonFencedRe.FindStringSubmatch(response)
	if m == nil {
		return nil, nil
	}
	return parseActionsFromJSON(m[1])
}

func parseInlineJSONActions(response string) ([]types.ProposedAction, error) {
	for _, candidate := range extractJSONArrays(response) {
		if !looksLikeActionArray(candidate) {
			continue
		}
		actions, err := parseActionsFromJSON(candidate)
		if err == nil && len(actions) > 0 {
			return actions, nil
		}
	}
	return nil, nil
}

func looksLikeActionArray(candidate string) bool {
	return strings.Contains(candidate, `"kind"`) && strings.Contains(candidate, `"details"`)
}

func parseActionsFromJSON(raw string) ([]types.ProposedAction, error) {
	var actions []types.ProposedAction
	if err := json.Unmarshal([]byte(raw), &actions); err != nil {
		return nil, &errs.JSONError{Context: "failed to parse JSON actions", Cause: err}
	}
	return actions, nil
}

// extractJSONArrays performs a single forward pass over response,
// tracking bracket depth, string-literal state, and backslash-escape
// state, and returns every top-level "[...]" substring found — the
// same single-pass scanner shape the upstream parser uses rather than
// a regex, since balanced-bracket matching isn't regular.
func extractJSONArrays(response string) []string {
	var arrays []string
	start := -1
	depth := 0
	inString := false
	escape := false

	for i, r := range response {
		if escape {
			escape = false
			continue
		}
		if inString {
			switch r {
			case '\\':
				escape = true
			case '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '[':
			if depth == 0 {
				start = i
			}
			depth++
		case ']':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					arrays = append(arrays, response[start:i+1])
					start = -1
				}
			}
		}
	}

	return arrays
}
