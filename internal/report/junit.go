package report

import (
	"encoding/xml"
	"fmt"
	"io"
)

// JUnitWriter outputs the report as JUnit XML, one test suite per file.
// CI systems that consume JUnit reports render each issue as a failed
// test case.
type JUnitWriter struct{}

type junitTestSuites struct {
	XMLName  xml.Name         `xml:"testsuites"`
	Name     string           `xml:"name,attr"`
	Tests    int              `xml:"tests,attr"`
	Failures int              `xml:"failures,attr"`
	Errors   int              `xml:"errors,attr"`
	Time     string           `xml:"time,attr"`
	Suites   []junitTestSuite `xml:"testsuite"`
}

type junitTestSuite struct {
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Errors   int             `xml:"errors,attr"`
	Cases    []junitTestCase `xml:"testcase"`
}

type junitTestCase struct {
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
	Error     *junitFailure `xml:"error,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

func (j *JUnitWriter) Write(w io.Writer, report *Report) error {
	suites := junitTestSuites{
		Name: "patrol",
		Time: fmt.Sprintf("%.3f", float64(report.Stats.TotalMs)/1000),
	}

	for _, f := range report.Files {
		suite := junitTestSuite{Name: f.Path}

		if f.Error != "" {
			suite.Tests++
			suite.Errors++
			suite.Cases = append(suite.Cases, junitTestCase{
				Name:      "analysis",
				ClassName: f.Path,
				Error: &junitFailure{
					Message: f.Error,
					Type:    "AnalysisIncomplete",
				},
			})
		}

		for _, iss := range f.Issues {
			suite.Tests++
			suite.Failures++
			suite.Cases = append(suite.Cases, junitTestCase{
				Name:      fmt.Sprintf("%s:%d %s", f.Path, iss.Line, iss.Title),
				ClassName: iss.Analyzer,
				Failure: &junitFailure{
					Message: iss.Title,
					Type:    string(iss.Severity),
					Body:    fmt.Sprintf("%s:%d:%d\n%s", iss.File, iss.Line, iss.Column, iss.Message),
				},
			})
		}

		if suite.Tests == 0 {
			suite.Tests = 1
			suite.Cases = append(suite.Cases, junitTestCase{
				Name:      "analysis",
				ClassName: f.Path,
			})
		}

		suites.Tests += suite.Tests
		suites.Failures += suite.Failures
		suites.Errors += suite.Errors
		suites.Suites = append(suites.Suites, suite)
	}

	if _, err := fmt.Fprint(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(suites); err != nil {
		return fmt.Errorf("encoding JUnit XML: %w", err)
	}
	_, err := fmt.Fprintln(w)
	return err
}
