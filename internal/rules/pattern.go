package rules

import (
	"regexp"
	"strings"
)

// pattern is one regex rule in an analyzer's table.
type pattern struct {
	re         *regexp.Regexp
	severity   Severity
	issueType  string
	title      string
	message    string
	suggestion string
}

// maxSnippetLen bounds the snippet attached to an issue.
const maxSnippetLen = 160

// scanPatterns matches a pattern table line by line against content and
// builds issues with 1-based line and column positions.
func scanPatterns(analyzer, path, content string, pats []pattern) []Issue {
	var issues []Issue
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		for _, p := range pats {
			loc := p.re.FindStringIndex(line)
			if loc == nil {
				continue
			}
			issues = append(issues, Issue{
				Severity:   p.severity,
				Type:       p.issueType,
				Title:      p.title,
				Message:    p.message,
				File:       path,
				Line:       i + 1,
				Column:     loc[0] + 1,
				Snippet:    snippet(line),
				Suggestion: p.suggestion,
				Analyzer:   analyzer,
			})
		}
	}
	return issues
}

func snippet(line string) string {
	s := strings.TrimRight(line, " \t\r")
	if len(s) > maxSnippetLen {
		s = s[:maxSnippetLen]
	}
	return s
}
