package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dshills/patrol/internal/rules"
)

// TextWriter outputs a human-readable console report.
type TextWriter struct{}

var (
	styleHeader   = lipgloss.NewStyle().Bold(true)
	styleHigh     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	styleMedium   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	styleLow      = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	styleDim      = lipgloss.NewStyle().Faint(true)
	styleDegraded = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
)

func severityStyle(s rules.Severity) lipgloss.Style {
	switch s {
	case rules.SeverityHigh:
		return styleHigh
	case rules.SeverityMedium:
		return styleMedium
	default:
		return styleLow
	}
}

func (t *TextWriter) Write(w io.Writer, report *Report) error {
	ew := &errWriter{w: w}

	total := report.TotalIssues()
	ew.printf("%s\n", styleHeader.Render(fmt.Sprintf("Patrol Code Review (%s mode)", report.Mode)))
	if report.Repo.Root != "" {
		ew.printf("Repository: %s (branch: %s)\n", report.Repo.Root, report.Repo.Branch)
	}
	ew.println(strings.Repeat("─", 60))
	ew.printf("Issues: %d total", total)
	if total > 0 {
		ew.printf(" (%d high, %d medium, %d low)",
			report.Summary.Counts.High,
			report.Summary.Counts.Medium,
			report.Summary.Counts.Low,
		)
	}
	ew.println("")
	ew.println(strings.Repeat("─", 60))

	// Isolated task failures never abort a run, but they must be
	// visible: report each degraded file as a partial result.
	if report.Summary.Degraded > 0 {
		ew.println("")
		for _, f := range report.Files {
			if f.Error == "" {
				continue
			}
			ew.printf("%s\n", styleDegraded.Render(
				fmt.Sprintf("analysis incomplete for file %s: %s", f.Path, f.Error)))
		}
	}

	if total == 0 {
		if report.Summary.Degraded == 0 {
			ew.println("\nNo issues found. Looks good!")
		}
		ew.printf("\n%s\n", styleDim.Render(completedLine(report)))
		return ew.err
	}

	for _, sev := range []rules.Severity{rules.SeverityHigh, rules.SeverityMedium, rules.SeverityLow} {
		issues := issuesBySeverity(report, sev)
		if len(issues) == 0 {
			continue
		}

		label := strings.ToUpper(string(sev))
		ew.printf("\n%s\n", severityStyle(sev).Render(label))
		ew.println(strings.Repeat("─", 40))

		sort.Slice(issues, func(i, j int) bool {
			if issues[i].File != issues[j].File {
				return issues[i].File < issues[j].File
			}
			return issues[i].Line < issues[j].Line
		})

		for _, iss := range issues {
			ew.printf("\n  %s:%d:%d  %s\n", iss.File, iss.Line, iss.Column, iss.Title)
			ew.printf("  %s\n", styleDim.Render(fmt.Sprintf("Analyzer: %s | Type: %s", iss.Analyzer, iss.Type)))
			for _, line := range wrapText(iss.Message, 70) {
				ew.printf("    %s\n", line)
			}
			if iss.Snippet != "" {
				ew.printf("    %s\n", styleDim.Render("> "+strings.TrimSpace(iss.Snippet)))
			}
			if iss.Suggestion != "" {
				ew.println("  Suggestion:")
				for _, line := range wrapText(iss.Suggestion, 70) {
					ew.printf("    %s\n", line)
				}
			}
		}
	}

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	ew.printf("%s\n", styleDim.Render(completedLine(report)))

	return ew.err
}

func completedLine(report *Report) string {
	return fmt.Sprintf("Completed in %dms (%d files, %d tasks, %d failed)",
		report.Stats.TotalMs, report.Stats.Files, report.Stats.Tasks, report.Stats.Failed)
}

func issuesBySeverity(report *Report, sev rules.Severity) []rules.Issue {
	var issues []rules.Issue
	for _, f := range report.Files {
		for _, iss := range f.Issues {
			if iss.Severity == sev {
				issues = append(issues, iss)
			}
		}
	}
	return issues
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	words := strings.Fields(text)
	var current strings.Builder
	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
