package scanner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func paths(files []File) []string {
	var out []string
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

func TestScan_WalksAndLoads(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main")
	writeFile(t, dir, "sub/util.go", "package sub")

	files, err := Scan([]string{dir}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2: %v", len(files), paths(files))
	}
	for _, f := range files {
		if f.Content == "" {
			t.Errorf("%s has empty content", f.Path)
		}
	}
}

func TestScan_SkipsVendorAndHiddenDirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main")
	writeFile(t, dir, "vendor/dep.go", "package dep")
	writeFile(t, dir, "node_modules/x.js", "x")
	writeFile(t, dir, ".git/config", "[core]")

	files, err := Scan([]string{dir}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || !strings.HasSuffix(files[0].Path, "main.go") {
		t.Errorf("got %v, want only main.go", paths(files))
	}
}

func TestScan_ExcludeGlobs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main")
	writeFile(t, dir, "main_test.go", "package main")

	files, err := Scan([]string{dir}, Options{Exclude: []string{"**/*_test.go"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || !strings.HasSuffix(files[0].Path, "main.go") {
		t.Errorf("got %v, want only main.go", paths(files))
	}
}

func TestScan_IncludeGlobs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main")
	writeFile(t, dir, "script.py", "pass")

	files, err := Scan([]string{dir}, Options{Include: []string{"**/*.go"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || !strings.HasSuffix(files[0].Path, "main.go") {
		t.Errorf("got %v, want only main.go", paths(files))
	}
}

func TestScan_SkipsBinaryAndOversized(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ok.go", "package ok")
	writeFile(t, dir, "blob.bin", "ELF\x00\x01\x02")
	writeFile(t, dir, "big.go", strings.Repeat("x", 100))

	files, err := Scan([]string{dir}, Options{MaxFileBytes: 50})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || !strings.HasSuffix(files[0].Path, "ok.go") {
		t.Errorf("got %v, want only ok.go", paths(files))
	}
}

func TestScan_SingleFileRoot(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "one.go", "package one")

	files, err := Scan([]string{path}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].Content != "package one" {
		t.Errorf("got %v", files)
	}
}

func TestScan_MissingRoot(t *testing.T) {
	_, err := Scan([]string{"/does/not/exist"}, Options{})
	if err == nil {
		t.Error("expected error for missing root")
	}
}

func TestMatchesAny(t *testing.T) {
	tests := []struct {
		path     string
		patterns []string
		want     bool
	}{
		{"main.go", []string{"*.go"}, true},
		{"src/util.ts", []string{"**/*.ts"}, true},
		{"src/util.ts", []string{"*.go"}, false},
		{"a/b/c.py", []string{"**/*.py"}, true},
		{"main.go", nil, false},
	}
	for _, tt := range tests {
		if got := MatchesAny(tt.path, tt.patterns); got != tt.want {
			t.Errorf("MatchesAny(%q, %v) = %v, want %v", tt.path, tt.patterns, got, tt.want)
		}
	}
}

func TestIsBinary(t *testing.T) {
	if !isBinary([]byte("abc\x00def")) {
		t.Error("NUL byte should mark content binary")
	}
	if isBinary([]byte("plain text")) {
		t.Error("plain text should not be binary")
	}
}
