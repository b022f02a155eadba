package gitctx

import (
	"fmt"
	"os/exec"
	"sort"
	"strings"
)

// RepoMeta contains git repository metadata.
type RepoMeta struct {
	Root   string
	Head   string
	Branch string
}

// GetRepoMeta collects repository metadata from git.
func GetRepoMeta() (RepoMeta, error) {
	root, err := gitOutput("rev-parse", "--show-toplevel")
	if err != nil {
		return RepoMeta{}, fmt.Errorf("not a git repository: %w", err)
	}
	head, err := gitOutput("rev-parse", "HEAD")
	if err != nil {
		head = "" // new repo with no commits
	}
	branch, err := gitOutput("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		branch = ""
	}
	return RepoMeta{
		Root:   strings.TrimSpace(root),
		Head:   strings.TrimSpace(head),
		Branch: strings.TrimSpace(branch),
	}, nil
}

// StagedFiles returns the paths changed in the index vs HEAD.
func StagedFiles() ([]string, error) {
	out, err := gitOutput("diff", "--cached", "--name-only", "--diff-filter=ACMR")
	if err != nil {
		return nil, fmt.Errorf("git diff --cached: %w", err)
	}
	return parseFileList(out), nil
}

// UnstagedFiles returns the paths changed in the working tree vs the
// index, plus untracked files.
func UnstagedFiles() ([]string, error) {
	out, err := gitOutput("diff", "--name-only", "--diff-filter=ACMR")
	if err != nil {
		return nil, fmt.Errorf("git diff: %w", err)
	}
	files := parseFileList(out)

	untracked, err := gitOutput("ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}
	files = append(files, parseFileList(untracked)...)

	sort.Strings(files)
	return dedupeList(files), nil
}

// RangeFiles returns the paths changed across a revision range. When
// mergeBase is set, a two-dot range is widened to three dots so the
// comparison starts at the common ancestor.
func RangeFiles(revRange string, mergeBase bool) ([]string, error) {
	diffRange := revRange
	if mergeBase && strings.Contains(revRange, "..") && !strings.Contains(revRange, "...") {
		diffRange = strings.Replace(revRange, "..", "...", 1)
	}
	out, err := gitOutput("diff", "--name-only", "--diff-filter=ACMR", diffRange)
	if err != nil {
		return nil, fmt.Errorf("git diff %s: %w", revRange, err)
	}
	return parseFileList(out), nil
}

func parseFileList(out string) []string {
	var files []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			files = append(files, line)
		}
	}
	return files
}

func dedupeList(files []string) []string {
	out := files[:0]
	var prev string
	for i, f := range files {
		if i > 0 && f == prev {
			continue
		}
		out = append(out, f)
		prev = f
	}
	return out
}

func gitOutput(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return string(out), fmt.Errorf("%s: %s", err, string(exitErr.Stderr))
		}
		return "", err
	}
	return string(out), nil
}
