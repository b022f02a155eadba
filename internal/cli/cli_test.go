package cli

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/dshills/patrol/internal/config"
	"github.com/dshills/patrol/internal/logging"
	"github.com/dshills/patrol/internal/rules"
)

func TestSplitComma(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"single", "*.go", []string{"*.go"}},
		{"multiple", "*.go,*.ts", []string{"*.go", "*.ts"}},
		{"spaces", " *.go , *.ts ", []string{"*.go", "*.ts"}},
		{"trailing comma", "*.go,", []string{"*.go"}},
		{"glob patterns", "*.go,src/**/*.ts", []string{"*.go", "src/**/*.ts"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitComma(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitComma(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestAnalyzerSelector_NoAllowlist(t *testing.T) {
	cfg := config.Default()
	sel := analyzerSelector(cfg)

	got := sel("main.go")
	want := rules.ForFile("main.go")
	if !reflect.DeepEqual(got, want) {
		t.Errorf("selector = %v, want registry default %v", got, want)
	}
}

func TestAnalyzerSelector_Allowlist(t *testing.T) {
	cfg := config.Default()
	cfg.Analyzers = []string{"secrets"}
	sel := analyzerSelector(cfg)

	got := sel("main.go")
	if len(got) != 1 || got[0] != "secrets" {
		t.Errorf("selector = %v, want [secrets]", got)
	}
}

func TestRunAnalysis_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	src := "package main\n\nimport \"fmt\"\n\nfunc main() {\n\tpanic(\"boom\")\n\tfmt.Println(\"unreachable\")\n}\n"
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Cache.Enabled = false
	cfg.Engine.Workers = 2

	rep, err := runAnalysis(context.Background(), []string{dir}, cfg, "paths", logging.Nop())
	if err != nil {
		t.Fatalf("runAnalysis error: %v", err)
	}

	if rep.Mode != "paths" {
		t.Errorf("Mode = %q, want paths", rep.Mode)
	}
	if len(rep.Files) != 1 {
		t.Fatalf("Files = %d, want 1", len(rep.Files))
	}
	found := false
	for _, iss := range rep.Files[0].Issues {
		if iss.Title == "Explicit panic" {
			found = true
		}
	}
	if !found {
		t.Errorf("go-smells issues missing from report: %+v", rep.Files[0].Issues)
	}
	if rep.Stats.Failed != 0 {
		t.Errorf("Failed = %d, want 0", rep.Stats.Failed)
	}
}

func TestRunAnalysis_CacheHitSkipsEngine(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc f() {\n\tpanic(\"x\")\n}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Cache.Dir = t.TempDir()
	cfg.Engine.Workers = 1

	first, err := runAnalysis(context.Background(), []string{dir}, cfg, "paths", logging.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if first.Stats.Tasks == 0 {
		t.Fatal("first run should execute tasks")
	}

	second, err := runAnalysis(context.Background(), []string{dir}, cfg, "paths", logging.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if second.Stats.Tasks != 0 {
		t.Errorf("second run executed %d tasks, want 0 (cache hit)", second.Stats.Tasks)
	}
	if second.TotalIssues() != first.TotalIssues() {
		t.Errorf("cached issues = %d, want %d", second.TotalIssues(), first.TotalIssues())
	}
}

func TestRunAnalysis_SuppressionComment(t *testing.T) {
	dir := t.TempDir()
	src := "package main\n\nfunc f() {\n\tpanic(\"x\") // patrol:ignore\n}\n"
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Cache.Enabled = false

	rep, err := runAnalysis(context.Background(), []string{dir}, cfg, "paths", logging.Nop())
	if err != nil {
		t.Fatal(err)
	}
	for _, iss := range rep.Files[0].Issues {
		if iss.Title == "Explicit panic" {
			t.Errorf("suppressed issue survived: %+v", iss)
		}
	}
}

func TestResolveRoots_DefaultsToCwd(t *testing.T) {
	flagStaged = false
	flagUnstaged = false
	flagRange = ""

	roots, mode, err := resolveRoots(nil)
	if err != nil {
		t.Fatal(err)
	}
	if mode != "paths" {
		t.Errorf("mode = %q, want paths", mode)
	}
	if len(roots) != 1 || roots[0] != "." {
		t.Errorf("roots = %v, want [.]", roots)
	}
}

func TestExistingPaths(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "real.go")
	if err := os.WriteFile(real, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := existingPaths([]string{real, filepath.Join(dir, "gone.go")})
	if len(out) != 1 || out[0] != real {
		t.Errorf("existingPaths = %v, want [%s]", out, real)
	}
}
