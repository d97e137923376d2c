package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewmcadoo/nexus/internal/errs"
	nexuslog "github.com/andrewmcadoo/nexus/internal/log"
)

func TestLevelConfig_MapsVerboseCount(t *testing.T) {
	cases := []struct {
		verbose int
		level   string
	}{
		{0, nexuslog.FromEnv().Level},
		{1, "info"},
		{2, "debug"},
		{3, "trace"},
		{4, "trace"},
	}
	for _, tc := range cases {
		cfg := levelConfig(tc.verbose)
		assert.Equal(t, tc.level, cfg.Level)
	}
}

func TestLanguageFromExt(t *testing.T) {
	cases := map[string]string{
		".go":  "go",
		".rs":  "rust",
		".py":  "python",
		".js":  "javascript",
		".tsx": "typescript",
		".xyz": "",
	}
	for ext, want := range cases {
		assert.Equal(t, want, languageFromExt(ext))
	}
}

func TestLoadFileContexts_MissingFileErrors(t *testing.T) {
	_, err := loadFileContexts([]string{"/no/such/file.go"})
	require.Error(t, err)
	var ioErr *errs.IoError
	assert.ErrorAs(t, err, &ioErr)
}

func TestLoadFileContexts_EmptyListReturnsEmptySlice(t *testing.T) {
	files, err := loadFileContexts(nil)
	require.NoError(t, err)
	assert.Empty(t, files)
}
