package report

import (
	"io"
	"strings"

	"github.com/dshills/patrol/internal/rules"
)

// MarkdownWriter outputs the report as GitHub-flavored Markdown.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *Report) error {
	ew := &errWriter{w: w}

	ew.println("# Patrol Code Review")
	ew.println("")
	ew.printf("**Mode:** %s  \n", report.Mode)
	if report.Repo.Root != "" {
		ew.printf("**Repository:** %s (branch: %s)  \n", report.Repo.Root, report.Repo.Branch)
	}
	ew.printf("**Run:** `%s`\n", report.RunID)
	ew.println("")

	ew.println("## Summary")
	ew.println("")
	ew.println("| Severity | Count |")
	ew.println("|----------|-------|")
	ew.printf("| High | %d |\n", report.Summary.Counts.High)
	ew.printf("| Medium | %d |\n", report.Summary.Counts.Medium)
	ew.printf("| Low | %d |\n", report.Summary.Counts.Low)
	ew.printf("| **Total** | **%d** |\n", report.TotalIssues())
	ew.println("")

	if report.Summary.Degraded > 0 {
		ew.println("## Incomplete Analysis")
		ew.println("")
		for _, f := range report.Files {
			if f.Error == "" {
				continue
			}
			ew.printf("- `%s`: %s\n", f.Path, f.Error)
		}
		ew.println("")
	}

	if report.TotalIssues() == 0 {
		if report.Summary.Degraded == 0 {
			ew.println("No issues found.")
		}
		return ew.err
	}

	for _, sev := range []rules.Severity{rules.SeverityHigh, rules.SeverityMedium, rules.SeverityLow} {
		issues := issuesBySeverity(report, sev)
		if len(issues) == 0 {
			continue
		}

		title := strings.ToUpper(string(sev)[:1]) + string(sev)[1:]
		ew.printf("## %s Severity (%d)\n", title, len(issues))
		ew.println("")

		for _, iss := range issues {
			ew.printf("### %s\n", iss.Title)
			ew.println("")
			ew.printf("**Location:** `%s:%d:%d`  \n", iss.File, iss.Line, iss.Column)
			ew.printf("**Analyzer:** %s | **Type:** %s\n", iss.Analyzer, iss.Type)
			ew.println("")
			ew.println(iss.Message)
			ew.println("")
			if iss.Snippet != "" {
				ew.println("```")
				ew.println(iss.Snippet)
				ew.println("```")
				ew.println("")
			}
			if iss.Suggestion != "" {
				ew.printf("**Suggestion:** %s\n", iss.Suggestion)
				ew.println("")
			}
		}
	}

	ew.println("---")
	ew.printf("*%s*\n", completedLine(report))

	return ew.err
}
