package report

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dshills/patrol/internal/engine"
	"github.com/dshills/patrol/internal/rules"
)

// RepoInfo contains repository metadata, when the scan ran inside a
// git repository.
type RepoInfo struct {
	Root   string `json:"root,omitempty"`
	Head   string `json:"head,omitempty"`
	Branch string `json:"branch,omitempty"`
}

// FileReport is the per-file slice of the report. Error is set for
// degraded entries where analysis was incomplete.
type FileReport struct {
	Path   string        `json:"path"`
	Issues []rules.Issue `json:"issues"`
	Error  string        `json:"error,omitempty"`
}

// SeverityCounts holds issue counts by severity level.
type SeverityCounts struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

// Summary provides an overview of the run.
type Summary struct {
	Counts          SeverityCounts `json:"counts"`
	HighestSeverity rules.Severity `json:"highestSeverity,omitempty"`
	Degraded        int            `json:"degraded"`
}

// Stats contains execution metrics for the run.
type Stats struct {
	Files     int   `json:"files"`
	Tasks     int   `json:"tasks"`
	Succeeded int   `json:"succeeded"`
	Failed    int   `json:"failed"`
	TotalMs   int64 `json:"totalMs"`
}

// Report is the top-level output structure.
type Report struct {
	Tool    string       `json:"tool"`
	Version string       `json:"version"`
	RunID   string       `json:"runId"`
	Mode    string       `json:"mode"`
	Repo    RepoInfo     `json:"repo"`
	Summary Summary      `json:"summary"`
	Files   []FileReport `json:"files"`
	Stats   Stats        `json:"stats"`
}

// Meta carries run context into Build.
type Meta struct {
	Mode    string
	Version string
	Repo    RepoInfo
}

// Build assembles a report from the orchestrator's merged results.
func Build(results []engine.FileResult, stats engine.BatchStats, meta Meta) *Report {
	r := &Report{
		Tool:    "patrol",
		Version: meta.Version,
		RunID:   generateRunID(),
		Mode:    meta.Mode,
		Repo:    meta.Repo,
		Stats: Stats{
			Files:     len(results),
			Tasks:     stats.Tasks,
			Succeeded: stats.Succeeded,
			Failed:    stats.Failed,
			TotalMs:   stats.Duration.Milliseconds(),
		},
	}
	for _, fr := range results {
		file := FileReport{Path: fr.File, Issues: fr.Issues}
		if fr.Err != nil {
			file.Error = fr.Err.Error()
			r.Summary.Degraded++
		}
		for _, iss := range fr.Issues {
			switch iss.Severity {
			case rules.SeverityLow:
				r.Summary.Counts.Low++
			case rules.SeverityMedium:
				r.Summary.Counts.Medium++
			case rules.SeverityHigh:
				r.Summary.Counts.High++
			}
			if rules.SeverityRank(iss.Severity) > rules.SeverityRank(r.Summary.HighestSeverity) {
				r.Summary.HighestSeverity = iss.Severity
			}
		}
		r.Files = append(r.Files, file)
	}
	return r
}

// TotalIssues returns the number of issues across all files.
func (r *Report) TotalIssues() int {
	return r.Summary.Counts.Low + r.Summary.Counts.Medium + r.Summary.Counts.High
}

// MeetsThreshold reports whether any issue is at or above the
// severity threshold.
func (r *Report) MeetsThreshold(threshold string) bool {
	for _, f := range r.Files {
		for _, iss := range f.Issues {
			if rules.MeetsThreshold(iss.Severity, threshold) {
				return true
			}
		}
	}
	return false
}

// Writer renders a report in a specific format.
type Writer interface {
	Write(w io.Writer, report *Report) error
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "text":
		return &TextWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	case "markdown":
		return &MarkdownWriter{}, nil
	case "sarif":
		return &SARIFWriter{}, nil
	case "junit":
		return &JUnitWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteReport writes the report to the specified output (file path or
// stdout).
func WriteReport(report *Report, format, outPath string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}

	var w io.Writer
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	} else {
		w = os.Stdout
	}

	return writer.Write(w, report)
}

func generateRunID() string {
	h := sha256.Sum256(fmt.Appendf(nil, "%d", time.Now().UnixNano()))
	return fmt.Sprintf("%x", h[:16])
}
