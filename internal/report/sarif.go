package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/patrol/internal/rules"
)

// SARIFWriter outputs the report in SARIF 2.1.0 format for CI and
// editor integrations.
type SARIFWriter struct{}

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version,omitempty"`
	InformationURI string      `json:"informationUri,omitempty"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string            `json:"id"`
	Name             string            `json:"name,omitempty"`
	ShortDescription *sarifMessage     `json:"shortDescription,omitempty"`
	DefaultConfig    *sarifRuleConfig  `json:"defaultConfiguration,omitempty"`
	Properties       map[string]string `json:"properties,omitempty"`
}

type sarifRuleConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	RuleIndex int             `json:"ruleIndex"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   int           `json:"startLine,omitempty"`
	StartColumn int           `json:"startColumn,omitempty"`
	Snippet     *sarifMessage `json:"snippet,omitempty"`
}

func severityToLevel(s rules.Severity) string {
	switch s {
	case rules.SeverityHigh:
		return "error"
	case rules.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}

func (s *SARIFWriter) Write(w io.Writer, report *Report) error {
	run := sarifRun{
		Tool: sarifTool{
			Driver: sarifDriver{
				Name:    "patrol",
				Version: report.Version,
				Rules:   []sarifRule{},
			},
		},
		Results: []sarifResult{},
	}

	ruleIndex := make(map[string]int)
	for _, f := range report.Files {
		for _, iss := range f.Issues {
			ruleID := fmt.Sprintf("%s/%s", iss.Analyzer, iss.Type)
			idx, ok := ruleIndex[ruleID]
			if !ok {
				idx = len(run.Tool.Driver.Rules)
				ruleIndex[ruleID] = idx
				run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, sarifRule{
					ID:               ruleID,
					Name:             iss.Title,
					ShortDescription: &sarifMessage{Text: iss.Title},
					DefaultConfig:    &sarifRuleConfig{Level: severityToLevel(iss.Severity)},
					Properties:       map[string]string{"analyzer": iss.Analyzer},
				})
			}

			result := sarifResult{
				RuleID:    ruleID,
				RuleIndex: idx,
				Level:     severityToLevel(iss.Severity),
				Message:   sarifMessage{Text: iss.Message},
				Locations: []sarifLocation{{
					PhysicalLocation: sarifPhysicalLocation{
						ArtifactLocation: sarifArtifactLocation{URI: iss.File},
					},
				}},
			}
			if iss.Line > 0 {
				region := &sarifRegion{StartLine: iss.Line, StartColumn: iss.Column}
				if iss.Snippet != "" {
					region.Snippet = &sarifMessage{Text: iss.Snippet}
				}
				result.Locations[0].PhysicalLocation.Region = region
			}
			run.Results = append(run.Results, result)
		}
	}

	log := sarifLog{
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		Version: "2.1.0",
		Runs:    []sarifRun{run},
	}

	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling SARIF: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing SARIF: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}
