// Package cache provides a file-based cache for per-file analysis
// results.
//
// Cache entries are keyed by a SHA-256 hash of the file content and
// the analyzer set that ran on it. Each entry stores the issue list
// along with a creation timestamp and a TTL (in seconds). Expired
// entries are skipped on read and removed during cache-clear
// operations.
//
// The default cache directory is $XDG_CACHE_HOME/patrol (or the
// OS-appropriate equivalent). Degraded results are never cached, so a
// crashed analyzer gets a fresh chance on the next run.
package cache
