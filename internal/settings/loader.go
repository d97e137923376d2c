// Package settings loads, validates, and merges the project's
// .nexus/settings.json document with the module's built-in defaults.
package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/andrewmcadoo/nexus/internal/errs"
	"github.com/andrewmcadoo/nexus/internal/secret"
	"github.com/andrewmcadoo/nexus/internal/types"
)

// DefaultSettingsPath is the path auto-discovery looks for, relative to
// the current working directory.
const DefaultSettingsPath = ".nexus/settings.json"

// apiKeyEnvVar is the environment variable the OpenAI-compatible
// executor client reads its credential from.
const apiKeyEnvVar = "OPENAI_API_KEY"

// Config bundles the resolved settings document, the path it was
// loaded from (empty if defaulted), and the API key, if any.
type Config struct {
	Settings    types.NexusSettings
	SettingsPath string
	APIKey      secret.String
}

// HasAPIKey reports whether an API key was found in the environment.
func (c Config) HasAPIKey() bool {
	return c.APIKey.Set()
}

// HasSettingsFile reports whether Settings was loaded from a file
// rather than defaulted.
func (c Config) HasSettingsFile() bool {
	return c.SettingsPath != ""
}

// RequireAPIKey returns the API key or ErrMissingAPIKey if none was
// found.
func (c Config) RequireAPIKey() (secret.String, error) {
	if !c.HasAPIKey() {
		return secret.String{}, errs.ErrMissingAPIKey
	}
	return c.APIKey, nil
}

// Load auto-discovers .nexus/settings.json under the current working
// directory, defaulting silently if it is absent, and reads the API
// key from the environment.
func Load() (Config, error) {
	s, path, err := loadAutoDiscover()
	if err != nil {
		return Config{}, err
	}
	return Config{Settings: s, SettingsPath: path, APIKey: loadAPIKey()}, nil
}

// LoadWithConfigPath loads settings from the given explicit path. It
// diverges from the upstream Rust behavior (see DESIGN.md Open
// Question decisions): an explicit path that does not exist is a
// ConfigLoadError, not a silent default.
func LoadWithConfigPath(configPath string) (Config, error) {
	if _, err := os.Stat(configPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, &errs.ConfigLoadError{Path: configPath, Cause: err}
		}
		return Config{}, &errs.IoError{Operation: "read settings file", Path: configPath, Cause: err}
	}

	s, err := loadFromFileLocked(configPath)
	if err != nil {
		return Config{}, err
	}
	return Config{Settings: s, SettingsPath: configPath, APIKey: loadAPIKey()}, nil
}

func loadAutoDiscover() (types.NexusSettings, string, error) {
	path, ok := discoverSettingsPath()
	if !ok {
		return types.DefaultNexusSettings(), "", nil
	}
	s, err := loadFromFileLocked(path)
	if err != nil {
		return types.NexusSettings{}, "", err
	}
	return s, path, nil
}

// discoverSettingsPath returns DefaultSettingsPath under the current
// working directory if it exists.
func discoverSettingsPath() (string, bool) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false
	}
	path := filepath.Join(cwd, DefaultSettingsPath)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// loadFromFileLocked takes a shared lock on a path+".lock" sidecar
// (mirroring the teacher's settings-file locking pattern) while
// reading, then parses, merges, and validates.
func loadFromFileLocked(path string) (types.NexusSettings, error) {
	lockPath := path + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o700); err != nil {
		return types.NexusSettings{}, &errs.IoError{Operation: "create settings directory", Path: filepath.Dir(lockPath), Cause: err}
	}
	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return types.NexusSettings{}, &errs.IoError{Operation: "open settings lock", Path: lockPath, Cause: err}
	}
	defer lockFile.Close()

	if err := syscall.Flock(int(lockFile.Fd()), syscall.LOCK_SH); err != nil {
		return types.NexusSettings{}, &errs.IoError{Operation: "lock settings file", Path: lockPath, Cause: err}
	}
	defer syscall.Flock(int(lockFile.Fd()), syscall.LOCK_UN)

	return loadFromFile(path)
}

func loadFromFile(path string) (types.NexusSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.NexusSettings{}, &errs.ConfigLoadError{Path: path, Cause: err}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return types.NexusSettings{}, &errs.ConfigParseError{Path: path, Message: "settings file is empty"}
	}

	var s types.NexusSettings
	if err := json.Unmarshal(data, &s); err != nil {
		return types.NexusSettings{}, &errs.ConfigParseError{Path: path, Message: describeJSONError(data, err)}
	}

	s = mergeWithDefaults(s)

	if err := s.Validate(); err != nil {
		return types.NexusSettings{}, &errs.ConfigValidationError{Path: path, Cause: err}
	}

	return s, nil
}

// describeJSONError renders a "line N, column M: msg" description.
// encoding/json only reports a byte offset, unlike serde_json's
// line()/column(), so the position is recovered by counting newlines
// up to the offset.
func describeJSONError(data []byte, err error) string {
	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		return err.Error()
	}
	line, col := lineColumnAt(data, syntaxErr.Offset)
	return "JSON parse error at line " + itoa(line) + ", column " + itoa(col) + ": " + err.Error()
}

func lineColumnAt(data []byte, offset int64) (line, col int) {
	line = 1
	col = 1
	for i := int64(0); i < offset && i < int64(len(data)); i++ {
		if data[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// mergeWithDefaults fills any empty/absent field of s from the
// built-in defaults, so a settings file only needs to specify what it
// wants to override.
func mergeWithDefaults(s types.NexusSettings) types.NexusSettings {
	defaults := types.DefaultNexusSettings()

	if s.SchemaVersion == "" {
		s.SchemaVersion = defaults.SchemaVersion
	}
	if s.PermissionMode == "" {
		s.PermissionMode = defaults.PermissionMode
	}
	if len(s.DenyPaths) == 0 {
		s.DenyPaths = defaults.DenyPaths
	}
	if len(s.DenyCommands) == 0 {
		s.DenyCommands = defaults.DenyCommands
	}

	return s
}

func loadAPIKey() secret.String {
	return secret.New(strings.TrimSpace(os.Getenv(apiKeyEnvVar)))
}
