package scanner

import (
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMaxFileBytes is the per-file size limit for analysis.
const DefaultMaxFileBytes = 1 << 20 // 1MB

// binarySniffLen is how many leading bytes are checked for NUL when
// deciding whether a file is binary.
const binarySniffLen = 8192

// skipDirs are directory names never descended into.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
	".venv":        true,
	"dist":         true,
	"build":        true,
}

// Options controls which files a scan picks up.
type Options struct {
	// Include limits the scan to paths matching these globs. Empty
	// means all files.
	Include []string
	// Exclude drops paths matching these globs.
	Exclude []string
	// MaxFileBytes caps file size. Zero uses DefaultMaxFileBytes.
	MaxFileBytes int64
	// Logger receives skip decisions at debug level. Nil disables.
	Logger *slog.Logger
}

// File is a loaded candidate for analysis.
type File struct {
	Path    string
	Content string
}

// Scan walks each root and returns the files eligible for analysis.
// Roots that are plain files are loaded directly; filters still apply.
func Scan(roots []string, opts Options) ([]File, error) {
	maxBytes := opts.MaxFileBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileBytes
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	var files []File
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}

		if !info.IsDir() {
			f, ok, err := load(root, maxBytes, opts, log)
			if err != nil {
				return nil, err
			}
			if ok {
				files = append(files, f)
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if skipDirs[d.Name()] || (strings.HasPrefix(d.Name(), ".") && path != root) {
					return filepath.SkipDir
				}
				return nil
			}
			f, ok, err := load(path, maxBytes, opts, log)
			if err != nil {
				return err
			}
			if ok {
				files = append(files, f)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", root, err)
		}
	}
	return files, nil
}

func load(path string, maxBytes int64, opts Options, log *slog.Logger) (File, bool, error) {
	rel := filepath.ToSlash(path)

	if len(opts.Include) > 0 && !MatchesAny(rel, opts.Include) {
		return File{}, false, nil
	}
	if MatchesAny(rel, opts.Exclude) {
		log.Debug("skipping excluded file", "path", path)
		return File{}, false, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return File{}, false, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > maxBytes {
		log.Debug("skipping oversized file", "path", path, "size", info.Size())
		return File{}, false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, false, fmt.Errorf("reading %s: %w", path, err)
	}
	if isBinary(data) {
		log.Debug("skipping binary file", "path", path)
		return File{}, false, nil
	}

	return File{Path: rel, Content: string(data)}, true, nil
}

// isBinary reports whether data looks binary. A NUL byte in the
// leading chunk is the signal, same heuristic git uses.
func isBinary(data []byte) bool {
	n := min(len(data), binarySniffLen)
	return bytes.IndexByte(data[:n], 0) >= 0
}

// MatchesAny returns true if the path matches any of the given glob
// patterns. Patterns with a **/ prefix also match against the base
// name, so "**/*.go" catches files at any depth.
func MatchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, path)
		if err == nil && matched {
			return true
		}
		clean := strings.TrimPrefix(pattern, "**/")
		if clean != pattern {
			matched, err = filepath.Match(clean, filepath.Base(path))
			if err == nil && matched {
				return true
			}
			matched, err = filepath.Match(clean, path)
			if err == nil && matched {
				return true
			}
		}
	}
	return false
}
