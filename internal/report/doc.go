// Package report builds the top-level analysis report and renders it
// as text, JSON, Markdown, SARIF, or JUnit XML.
package report
