package rules

import (
	"path/filepath"
	"sort"
	"strings"
)

// Options tunes analyzer behavior for a single run.
type Options struct {
	// MaxIssuesPerFile caps the number of issues a single analyzer may
	// report for one file. Zero means no cap.
	MaxIssuesPerFile int
}

// Analyzer is a pure function from file content to a list of issues.
type Analyzer func(path, content string, opts Options) []Issue

// registry is the closed set of named analyzers. Workers dispatch by
// name through Run; an unknown name yields an empty result, never an
// error, so a stale task cannot take a worker down.
var registry = map[string]Analyzer{
	"go-smells":     analyzeGo,
	"js-smells":     analyzeJavaScript,
	"py-smells":     analyzePython,
	"secrets":       analyzeSecrets,
	"todos":         analyzeTodos,
	"sql-injection": analyzeSQLInjection,
}

// Names returns all registered analyzer names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Known reports whether name is a registered analyzer.
func Known(name string) bool {
	_, ok := registry[name]
	return ok
}

// Run executes the named analyzer against the given file. Unknown
// analyzer names return an empty issue list.
func Run(name, path, content string, opts Options) []Issue {
	analyzer, ok := registry[name]
	if !ok {
		return nil
	}
	issues := analyzer(path, content, opts)
	if opts.MaxIssuesPerFile > 0 && len(issues) > opts.MaxIssuesPerFile {
		issues = issues[:opts.MaxIssuesPerFile]
	}
	return issues
}

// languageAnalyzers maps file extensions to the language-specific
// analyzer for that extension.
var languageAnalyzers = map[string]string{
	".go":  "go-smells",
	".js":  "js-smells",
	".jsx": "js-smells",
	".ts":  "js-smells",
	".tsx": "js-smells",
	".mjs": "js-smells",
	".py":  "py-smells",
}

// crossLanguageAnalyzers run against every file regardless of language.
var crossLanguageAnalyzers = []string{"secrets", "todos", "sql-injection"}

// ForFile returns the analyzers that apply to the given file path: the
// language analyzer selected by extension (if any) plus the
// cross-language passes.
func ForFile(path string) []string {
	var names []string
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := languageAnalyzers[ext]; ok {
		names = append(names, lang)
	}
	names = append(names, crossLanguageAnalyzers...)
	return names
}
