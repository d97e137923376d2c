package types

import (
	"encoding/json"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/andrewmcadoo/nexus/internal/errs"
)

// PermissionMode selects how aggressively the agent may act without an
// explicit human approval step. The Core never enforces this itself
// (approval UI is a Non-goal); it is carried so a collaborating
// approval layer has a stable schema to read.
type PermissionMode string

const (
	PermissionDefault     PermissionMode = "default"
	PermissionAcceptEdits PermissionMode = "acceptEdits"
	PermissionAutopilot   PermissionMode = "autopilot"
)

// AutopilotConfig bounds how much work autopilot mode may perform
// before requiring a check-in.
type AutopilotConfig struct {
	MaxBatchCU         uint32 `json:"max_batch_cu"`
	MaxBatchSteps      uint32 `json:"max_batch_steps"`
	AutoApprovePatches bool   `json:"auto_approve_patches"`
	AutoApproveTests   bool   `json:"auto_approve_tests"`
	AutoHandoffs       bool   `json:"auto_handoffs"`
}

// DefaultAutopilotConfig returns the canonical autopilot limits applied
// when a settings file has an autopilot block with fields omitted.
func DefaultAutopilotConfig() AutopilotConfig {
	return AutopilotConfig{
		MaxBatchCU:    40,
		MaxBatchSteps: 8,
	}
}

// UnmarshalJSON decodes an autopilot block on top of
// DefaultAutopilotConfig, so omitted fields keep their default limits.
func (a *AutopilotConfig) UnmarshalJSON(data []byte) error {
	type plain AutopilotConfig
	p := plain(DefaultAutopilotConfig())
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*a = AutopilotConfig(p)
	return nil
}

// SettingsSchemaVersion is the only schema_version Validate() accepts.
const SettingsSchemaVersion = "1.0"

// NexusSettings is the project-level configuration document (matches
// .nexus/schemas/settings.schema.json in the source).
type NexusSettings struct {
	SchemaVersion    string           `json:"schema_version"`
	PermissionMode   PermissionMode   `json:"permission_mode"`
	DenyPaths        []string         `json:"deny_paths,omitempty"`
	AllowPathsWrite  []string         `json:"allow_paths_write,omitempty"`
	AllowCommands    [][]string       `json:"allow_commands,omitempty"`
	AskCommands      [][]string       `json:"ask_commands,omitempty"`
	DenyCommands     [][]string       `json:"deny_commands,omitempty"`
	Autopilot        *AutopilotConfig `json:"autopilot,omitempty"`
}

// DefaultNexusSettings returns the module's canonical defaults: schema
// version "1.0", permission mode "default", a baseline deny-path list
// protecting credential files, and sudo/rm denied by default.
func DefaultNexusSettings() NexusSettings {
	return NexusSettings{
		SchemaVersion:  SettingsSchemaVersion,
		PermissionMode: PermissionDefault,
		DenyPaths: []string{
			".env*",
			"**/.ssh/**",
			"**/.aws/**",
			"**/.npmrc",
			"**/.pypirc",
		},
		DenyCommands: [][]string{{"sudo"}, {"rm"}},
	}
}

// Validate checks schema_version, every path pattern (I5), and any
// autopilot block's batch limits. It returns the first violation found.
func (s NexusSettings) Validate() error {
	if s.SchemaVersion != SettingsSchemaVersion {
		return &errs.SettingsValidationError{
			Kind:   "schema_version",
			Reason: "expected '1.0', got '" + s.SchemaVersion + "'",
		}
	}

	for _, p := range s.DenyPaths {
		if err := ValidatePathPattern(p); err != nil {
			return err
		}
	}
	for _, p := range s.AllowPathsWrite {
		if err := ValidatePathPattern(p); err != nil {
			return err
		}
	}

	if s.Autopilot != nil {
		if s.Autopilot.MaxBatchCU < 1 {
			return &errs.SettingsValidationError{
				Kind:   "max_batch_cu",
				Reason: "must be >= 1",
			}
		}
		if s.Autopilot.MaxBatchSteps < 1 {
			return &errs.SettingsValidationError{
				Kind:   "max_batch_steps",
				Reason: "must be >= 1",
			}
		}
	}

	return nil
}

// PathAllowed reports whether path is permitted for write access: not
// matched by any DenyPaths glob, and (when AllowPathsWrite is
// non-empty) matched by at least one of its globs. A malformed glob in
// either list never matches rather than erroring, since Validate()
// already rejects unsafe patterns before this is ever called.
func (s NexusSettings) PathAllowed(path string) bool {
	path = strings.ReplaceAll(path, "\\", "/")

	for _, pattern := range s.DenyPaths {
		if globMatch(pattern, path) {
			return false
		}
	}

	if len(s.AllowPathsWrite) == 0 {
		return true
	}
	for _, pattern := range s.AllowPathsWrite {
		if globMatch(pattern, path) {
			return true
		}
	}
	return false
}

func globMatch(pattern, path string) bool {
	pattern = strings.TrimPrefix(pattern, "/")
	matched, err := doublestar.Match(pattern, path)
	if err != nil {
		return false
	}
	return matched
}

// ValidatePathPattern enforces invariant I5: no path traversal, no
// absolute prefix unless it is a "/**/" glob, no Windows drive or UNC
// prefix, no control characters.
func ValidatePathPattern(pattern string) error {
	if strings.Contains(pattern, "..") {
		return &errs.SettingsValidationError{
			Kind: "path_pattern", Path: pattern,
			Reason: "path traversal (..) not allowed",
		}
	}

	if strings.HasPrefix(pattern, "/") && !strings.HasPrefix(pattern, "/**/") {
		return &errs.SettingsValidationError{
			Kind: "path_pattern", Path: pattern,
			Reason: "absolute paths not allowed in patterns",
		}
	}

	if len(pattern) >= 2 {
		c0, c1 := pattern[0], pattern[1]
		if isASCIIAlpha(c0) && c1 == ':' {
			return &errs.SettingsValidationError{
				Kind: "path_pattern", Path: pattern,
				Reason: "Windows drive paths not allowed in patterns",
			}
		}
	}

	if strings.HasPrefix(pattern, `\\`) {
		return &errs.SettingsValidationError{
			Kind: "path_pattern", Path: pattern,
			Reason: "UNC paths not allowed in patterns",
		}
	}

	for _, r := range pattern {
		if isControlRune(r) {
			return &errs.SettingsValidationError{
				Kind: "path_pattern", Path: pattern,
				Reason: "control characters not allowed in patterns",
			}
		}
	}

	return nil
}

func isASCIIAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// isControlRune matches Rust's char::is_control: C0 controls (0x00-0x1F),
// DEL (0x7F), and the C1 control range (0x80-0x9F).
func isControlRune(r rune) bool {
	return (r >= 0x00 && r <= 0x1F) || r == 0x7F || (r >= 0x80 && r <= 0x9F)
}
