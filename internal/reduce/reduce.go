package reduce

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dshills/patrol/internal/engine"
	"github.com/dshills/patrol/internal/rules"
)

// suppressMarker is the inline comment that silences issues on its own
// line or the line directly below it.
const suppressMarker = "patrol:ignore"

// Options controls the reduction pass.
type Options struct {
	// MinSeverity drops issues below this level. Empty keeps all.
	MinSeverity rules.Severity
	// Suppress enables inline patrol:ignore comment handling.
	Suppress bool
}

// Apply reduces each file's issue list in place and returns the
// results. Degraded entries pass through untouched.
func Apply(results []engine.FileResult, contents map[string]string, opts Options) []engine.FileResult {
	for i := range results {
		if results[i].Err != nil {
			continue
		}
		issues := dedupe(results[i].Issues)
		if opts.Suppress {
			issues = suppress(issues, contents[results[i].File])
		}
		if opts.MinSeverity != "" {
			issues = floor(issues, opts.MinSeverity)
		}
		sortIssues(issues)
		results[i].Issues = issues
	}
	return results
}

// dedupe collapses issues that share a location and title. Cross
// language analyzers and language analyzers can flag the same line;
// the higher severity entry wins.
func dedupe(issues []rules.Issue) []rules.Issue {
	seen := make(map[string]int, len(issues))
	out := issues[:0]
	for _, iss := range issues {
		key := fmt.Sprintf("%s:%d:%d:%s", iss.File, iss.Line, iss.Column, iss.Title)
		if j, ok := seen[key]; ok {
			if rules.SeverityRank(iss.Severity) > rules.SeverityRank(out[j].Severity) {
				out[j] = iss
			}
			continue
		}
		seen[key] = len(out)
		out = append(out, iss)
	}
	return out
}

// suppress drops issues on lines covered by a patrol:ignore comment.
// A marker suppresses its own line and the line after it, so it works
// both as a trailing comment and as a standalone comment above the
// flagged line.
func suppress(issues []rules.Issue, content string) []rules.Issue {
	if content == "" || !strings.Contains(content, suppressMarker) {
		return issues
	}

	suppressed := make(map[int]bool)
	for i, line := range strings.Split(content, "\n") {
		if strings.Contains(line, suppressMarker) {
			n := i + 1
			suppressed[n] = true
			suppressed[n+1] = true
		}
	}

	out := issues[:0]
	for _, iss := range issues {
		if suppressed[iss.Line] {
			continue
		}
		out = append(out, iss)
	}
	return out
}

func floor(issues []rules.Issue, min rules.Severity) []rules.Issue {
	out := issues[:0]
	for _, iss := range issues {
		if rules.SeverityRank(iss.Severity) >= rules.SeverityRank(min) {
			out = append(out, iss)
		}
	}
	return out
}

func sortIssues(issues []rules.Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Line != issues[j].Line {
			return issues[i].Line < issues[j].Line
		}
		if issues[i].Column != issues[j].Column {
			return issues[i].Column < issues[j].Column
		}
		return rules.SeverityRank(issues[i].Severity) > rules.SeverityRank(issues[j].Severity)
	})
}
