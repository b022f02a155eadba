package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dshills/patrol/internal/engine"
)

func TestTextWriter_NoIssues(t *testing.T) {
	report := Build([]engine.FileResult{{File: "clean.go"}}, engine.BatchStats{Tasks: 1, Succeeded: 1}, Meta{Mode: "paths"})

	var buf bytes.Buffer
	w := &TextWriter{}
	if err := w.Write(&buf, report); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "paths") {
		t.Error("Output should mention mode")
	}
	if !strings.Contains(out, "Issues: 0 total") {
		t.Error("Output should show zero issues")
	}
	if !strings.Contains(out, "No issues found") {
		t.Error("Output should say no issues found")
	}
}

func TestTextWriter_WithIssues(t *testing.T) {
	report := sampleReport()

	var buf bytes.Buffer
	w := &TextWriter{}
	if err := w.Write(&buf, report); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "1 high") {
		t.Error("Output should show high count")
	}
	if !strings.Contains(out, "Hardcoded credential") {
		t.Error("Output should contain issue title")
	}
	if !strings.Contains(out, "main.go:10:2") {
		t.Error("Output should show file:line:column")
	}
	if !strings.Contains(out, "HIGH") {
		t.Error("Output should have HIGH section")
	}
	if !strings.Contains(out, "LOW") {
		t.Error("Output should have LOW section")
	}
}

func TestTextWriter_DegradedFileNotice(t *testing.T) {
	report := sampleReport()

	var buf bytes.Buffer
	w := &TextWriter{}
	if err := w.Write(&buf, report); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "analysis incomplete for file broken.go") {
		t.Error("Output should report the degraded file")
	}
	if !strings.Contains(out, "worker crashed: boom") {
		t.Error("Output should include the degradation reason")
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("short", 70)
	if len(lines) != 1 || lines[0] != "short" {
		t.Errorf("wrapText(short) = %v", lines)
	}

	long := strings.Repeat("word ", 30)
	lines = wrapText(long, 20)
	if len(lines) < 2 {
		t.Errorf("long text should wrap: %v", lines)
	}
	for _, l := range lines {
		if len(l) > 20 {
			t.Errorf("line exceeds width: %q", l)
		}
	}
}
