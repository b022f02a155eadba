package rules

import (
	"strings"
	"testing"
)

func TestRun_UnknownAnalyzer(t *testing.T) {
	issues := Run("no-such-analyzer", "main.go", "package main", Options{})
	if issues != nil {
		t.Errorf("unknown analyzer returned %d issues, want none", len(issues))
	}
}

func TestRun_MaxIssuesPerFile(t *testing.T) {
	content := strings.Repeat("// TODO: later\n", 10)
	issues := Run("todos", "main.go", content, Options{MaxIssuesPerFile: 3})
	if len(issues) != 3 {
		t.Errorf("got %d issues, want 3 (capped)", len(issues))
	}
}

func TestNames_SortedAndClosed(t *testing.T) {
	names := Names()
	if len(names) != len(registry) {
		t.Fatalf("Names returned %d entries, registry has %d", len(names), len(registry))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("names not sorted: %q before %q", names[i-1], names[i])
		}
	}
	for _, name := range names {
		if !Known(name) {
			t.Errorf("Known(%q) = false for a listed analyzer", name)
		}
	}
}

func TestForFile_LanguageSelection(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"cmd/main.go", "go-smells"},
		{"web/app.tsx", "js-smells"},
		{"scripts/run.py", "py-smells"},
	}
	for _, tt := range tests {
		names := ForFile(tt.path)
		found := false
		for _, n := range names {
			if n == tt.want {
				found = true
			}
		}
		if !found {
			t.Errorf("ForFile(%q) = %v, missing %q", tt.path, names, tt.want)
		}
	}
}

func TestForFile_UnknownExtensionGetsCrossLanguage(t *testing.T) {
	names := ForFile("README.md")
	if len(names) != len(crossLanguageAnalyzers) {
		t.Fatalf("ForFile(README.md) = %v, want only cross-language analyzers", names)
	}
}
