package executor

import (
	"path/filepath"
	"strings"

	"github.com/andrewmcadoo/nexus/internal/transport"
	"github.com/andrewmcadoo/nexus/internal/types"
)

const defaultLanguageHint = "text"

const defaultSystemPrompt = `You are an expert code refactoring assistant. Your task is to generate precise code changes based on the user's request.

IMPORTANT RULES:
1. Output changes as unified diffs (preferred) or search/replace blocks
2. Use the exact file paths provided
3. Preserve existing code style and formatting
4. Make minimal, focused changes
5. Do not add unnecessary modifications

OUTPUT FORMAT (choose one):

Option A - Unified Diff:
` + "```diff" + `
--- a/path/to/file.go
+++ b/path/to/file.go
@@ -10,5 +10,6 @@
 existing context
-old line to remove
+new line to add
 more context
` + "```" + `

Option B - Search/Replace:
File: path/to/file.go
<<<<<<< SEARCH
exact code to find
=======
replacement code
>>>>>>> REPLACE

Always include enough context for unique matching.
`

const (
	roleSystem           = "system"
	roleUser             = "user"
	formatLabelUnified   = "unified_diff"
	formatLabelSearchRep = "search_replace"
	formatLabelWholeFile = "whole_file"
)

// PromptBuilder assembles the system/user message pair sent to the
// chat completions endpoint for one execution call.
type PromptBuilder struct {
	systemPrompt string
}

// NewPromptBuilder returns a builder using the module's default system
// prompt.
func NewPromptBuilder() PromptBuilder {
	return PromptBuilder{systemPrompt: defaultSystemPrompt}
}

// WithSystemPrompt returns a copy of b using prompt instead of the
// default system prompt.
func (b PromptBuilder) WithSystemPrompt(prompt string) PromptBuilder {
	b.systemPrompt = prompt
	return b
}

// BuildMessages returns the [system, user] message pair for one call:
// a fixed system prompt plus a user message describing the files,
// task, and preferred output format.
func (b PromptBuilder) BuildMessages(task string, files []FileContext, preferredFormat types.PatchFormat) []transport.ChatMessage {
	return []transport.ChatMessage{
		{Role: roleSystem, Content: b.systemPrompt},
		{Role: roleUser, Content: buildUserMessage(task, files, preferredFormat)},
	}
}

func buildUserMessage(task string, files []FileContext, preferredFormat types.PatchFormat) string {
	var b strings.Builder
	pushFilesSection(&b, files)
	pushTaskSection(&b, task)
	pushFormatSection(&b, preferredFormat)
	return b.String()
}

func pushFilesSection(b *strings.Builder, files []FileContext) {
	b.WriteString("## Files\n\n")
	for _, file := range files {
		b.WriteString("### ")
		b.WriteString(file.Path)
		b.WriteByte('\n')
		b.WriteString("```")
		b.WriteString(languageHint(file))
		b.WriteByte('\n')
		b.WriteString(file.Content)
		if !strings.HasSuffix(file.Content, "\n") {
			b.WriteByte('\n')
		}
		b.WriteString("```\n\n")
	}
}

func pushTaskSection(b *strings.Builder, task string) {
	b.WriteString("## Task\n")
	b.WriteString(task)
	b.WriteString("\n\n")
}

func pushFormatSection(b *strings.Builder, preferredFormat types.PatchFormat) {
	b.WriteString("## Preferred Format\n")
	b.WriteString(formatLabel(preferredFormat))
	b.WriteByte('\n')
}

func formatLabel(format types.PatchFormat) string {
	switch format {
	case types.PatchFormatUnified:
		return formatLabelUnified
	case types.PatchFormatSearchReplace:
		return formatLabelSearchRep
	case types.PatchFormatWholeFile:
		return formatLabelWholeFile
	default:
		return formatLabelUnified
	}
}

func languageHint(file FileContext) string {
	lang := strings.TrimSpace(file.Language)
	if lang != "" {
		return lang
	}
	return languageFromPath(file.Path)
}

func languageFromPath(path string) string {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return defaultLanguageHint
	}
	return mapExtensionToLanguage(ext)
}

var extensionLanguages = map[string]string{
	"rs":   "rust",
	"md":   "markdown",
	"yml":  "yaml",
	"yaml": "yaml",
	"toml": "toml",
	"json": "json",
	"js":   "javascript",
	"ts":   "typescript",
	"tsx":  "tsx",
	"jsx":  "jsx",
	"py":   "python",
	"go":   "go",
	"rb":   "ruby",
	"java": "java",
	"kt":   "kotlin",
	"kts":  "kotlin",
	"c":    "c",
	"h":    "c",
	"cpp":  "cpp",
	"cc":   "cpp",
	"cxx":  "cpp",
	"hpp":  "cpp",
	"hh":   "cpp",
	"hxx":  "cpp",
	"cs":   "csharp",
	"sh":   "bash",
}

func mapExtensionToLanguage(ext string) string {
	if lang, ok := extensionLanguages[ext]; ok {
		return lang
	}
	return ext
}
