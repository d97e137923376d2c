package types

import "encoding/json"

// ActionKind discriminates the variant payload a ProposedAction carries.
type ActionKind string

const (
	ActionHandoff     ActionKind = "handoff"
	ActionPatch       ActionKind = "patch"
	ActionCommand     ActionKind = "command"
	ActionPlanPatch   ActionKind = "plan_patch"
	ActionAgendaPatch ActionKind = "agenda_patch"
	ActionFileCreate  ActionKind = "file_create"
	ActionFileRename  ActionKind = "file_rename"
	ActionFileDelete  ActionKind = "file_delete"
)

// CreatedBy records who or what minted a ProposedAction.
type CreatedBy struct {
	Agent    AgentRole `json:"agent,omitempty"`
	Provider string    `json:"provider,omitempty"`
	Model    string    `json:"model,omitempty"`
}

// ApprovalGroup batches related actions under one approval decision.
type ApprovalGroup struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Size  uint32 `json:"size"`
	Index uint32 `json:"index"`
}

// ProposedAction is an edit (or meta-edit) the agent would like to
// perform. The Core only ever produces and records these; it never
// applies them. Details is kept as raw JSON and decoded into the
// concrete struct selected by Kind (see UnmarshalDetails) — an
// externally-tagged representation, replacing the source's
// order-sensitive untagged union (see SPEC_FULL.md Design Notes).
type ProposedAction struct {
	ID               string          `json:"id"`
	Summary          string          `json:"summary"`
	Why              string          `json:"why,omitempty"`
	Risk             uint8           `json:"risk"`
	PolicyTags       []string        `json:"policy_tags,omitempty"`
	RequiresApproval bool            `json:"requires_approval"`
	CreatedBy        *CreatedBy      `json:"created_by,omitempty"`
	ApprovalGroup    *ApprovalGroup  `json:"approval_group,omitempty"`
	Kind             ActionKind      `json:"kind"`
	Details          json.RawMessage `json:"details"`
}

// DefaultRisk is the default risk score for a newly parsed action.
const DefaultRisk uint8 = 1

// PatchFormat selects the shape of a patch action's payload.
type PatchFormat string

const (
	PatchFormatUnified       PatchFormat = "unified"
	PatchFormatSearchReplace PatchFormat = "search_replace"
	PatchFormatWholeFile     PatchFormat = "whole_file"
)

// OnConflict selects how a patch should behave when it fails to apply
// cleanly. Carried for forward compatibility with an apply stage; the
// Core itself never applies patches.
type OnConflict string

const (
	OnConflictFail   OnConflict = "fail"
	OnConflictOurs   OnConflict = "ours"
	OnConflictTheirs OnConflict = "theirs"
	OnConflictMarker OnConflict = "marker"
)

// FallbackStrategy selects a degraded matching strategy when an exact
// patch location cannot be found.
type FallbackStrategy string

const (
	FallbackNone       FallbackStrategy = "none"
	FallbackFuzzy      FallbackStrategy = "fuzzy"
	FallbackLineAnchor FallbackStrategy = "line_anchor"
)

// MatchMode selects how a SearchReplaceBlock's search text is compared
// against file content.
type MatchMode string

const (
	MatchModeExact                MatchMode = "exact"
	MatchModeWhitespaceInsensitive MatchMode = "whitespace_insensitive"
)

// SearchReplaceBlock is one SEARCH/REPLACE unit targeting a single file.
type SearchReplaceBlock struct {
	File      string    `json:"file"`
	Search    string    `json:"search"`
	Replace   string    `json:"replace"`
	MatchMode MatchMode `json:"match_mode,omitempty"`
}

// PatchDetails is the Details payload for ActionPatch.
type PatchDetails struct {
	Format              PatchFormat          `json:"format"`
	Diff                string               `json:"diff,omitempty"`
	SearchReplaceBlocks []SearchReplaceBlock `json:"search_replace_blocks,omitempty"`
	WholeFileContent    map[string]string    `json:"whole_file_content,omitempty"`
	Files               []string             `json:"files,omitempty"`
	BaseFileSHA256      map[string]string    `json:"base_file_sha256,omitempty"`
	OnConflict          OnConflict           `json:"on_conflict,omitempty"`
	FallbackStrategy    FallbackStrategy     `json:"fallback_strategy,omitempty"`
	FuzzyThreshold      *float64             `json:"fuzzy_threshold,omitempty"`
	MatchConfidence     *float64             `json:"match_confidence,omitempty"`
}

// DefaultPatchDetails returns a PatchDetails with the source's default
// field values (unified format, fail-on-conflict, no fallback).
func DefaultPatchDetails() PatchDetails {
	return PatchDetails{
		Format:           PatchFormatUnified,
		OnConflict:       OnConflictFail,
		FallbackStrategy: FallbackNone,
	}
}

// HandoffDetails is the Details payload for ActionHandoff.
type HandoffDetails struct {
	From             AgentRole `json:"from"`
	To               AgentRole `json:"to"`
	Reason           string    `json:"reason"`
	WorkflowPatchRef string    `json:"workflow_patch_ref,omitempty"`
}

// DefaultCommandTimeoutSeconds is applied to a CommandDetails whose
// TimeoutS is zero.
const DefaultCommandTimeoutSeconds uint32 = 1200

// CommandDetails is the Details payload for ActionCommand.
type CommandDetails struct {
	Argv            []string `json:"argv"`
	Cwd             string   `json:"cwd,omitempty"`
	TimeoutS        uint32   `json:"timeout_s"`
	EnvAllow        []string `json:"env_allow,omitempty"`
	RequiresNetwork bool     `json:"requires_network"`
	Purpose         string   `json:"purpose,omitempty"`
}

// PatchMode selects how a PlanPatchDetails' patch_ref should be applied.
type PatchMode string

const (
	PatchModeReplace   PatchMode = "replace"
	PatchModeJSONPatch PatchMode = "json_patch"
)

// PlanPatchDetails is the Details payload for ActionPlanPatch.
type PlanPatchDetails struct {
	PlanID    string    `json:"plan_id"`
	PatchRef  string    `json:"patch_ref"`
	PatchMode PatchMode `json:"patch_mode,omitempty"`
	Summary   string    `json:"summary,omitempty"`
}

// AgendaPatchDetails is the Details payload for ActionAgendaPatch.
type AgendaPatchDetails struct {
	TargetPath string `json:"target_path"`
	Diff       string `json:"diff"`
}

// FileCreateDetails is the Details payload for ActionFileCreate.
type FileCreateDetails struct {
	Path            string `json:"path"`
	Content         string `json:"content"`
	Overwrite       bool   `json:"overwrite"`
	IgnoreIfExists  bool   `json:"ignore_if_exists"`
}

// FileRenameDetails is the Details payload for ActionFileRename.
type FileRenameDetails struct {
	OldPath   string `json:"old_path"`
	NewPath   string `json:"new_path"`
	Overwrite bool   `json:"overwrite"`
}

// FileDeleteDetails is the Details payload for ActionFileDelete.
type FileDeleteDetails struct {
	Path            string `json:"path"`
	Recursive       bool   `json:"recursive"`
	IgnoreIfMissing bool   `json:"ignore_if_missing"`
}

// UnmarshalDetails decodes a.Details into the concrete struct selected
// by a.Kind. Returns an error if Kind is unrecognized or Details does
// not match the expected shape.
func (a ProposedAction) UnmarshalDetails() (any, error) {
	var err error
	switch a.Kind {
	case ActionHandoff:
		var d HandoffDetails
		err = json.Unmarshal(a.Details, &d)
		return d, err
	case ActionPatch:
		var d PatchDetails
		err = json.Unmarshal(a.Details, &d)
		return d, err
	case ActionCommand:
		var d CommandDetails
		err = json.Unmarshal(a.Details, &d)
		return d, err
	case ActionPlanPatch:
		var d PlanPatchDetails
		err = json.Unmarshal(a.Details, &d)
		return d, err
	case ActionAgendaPatch:
		var d AgendaPatchDetails
		err = json.Unmarshal(a.Details, &d)
		return d, err
	case ActionFileCreate:
		var d FileCreateDetails
		err = json.Unmarshal(a.Details, &d)
		return d, err
	case ActionFileRename:
		var d FileRenameDetails
		err = json.Unmarshal(a.Details, &d)
		return d, err
	case ActionFileDelete:
		var d FileDeleteDetails
		err = json.Unmarshal(a.Details, &d)
		return d, err
	default:
		return nil, &unknownActionKindError{Kind: string(a.Kind)}
	}
}

type unknownActionKindError struct{ Kind string }

func (e *unknownActionKindError) Error() string {
	return "unknown action kind: " + e.Kind
}

// MarshalPatchDetails encodes details as the Details payload of a patch
// action, for callers building a ProposedAction by hand (the parser
// uses this internally).
func MarshalPatchDetails(details PatchDetails) json.RawMessage {
	raw, err := json.Marshal(details)
	if err != nil {
		panic("types: patch details does not marshal: " + err.Error())
	}
	return raw
}
