// Patrol is a fast local CLI for rule-based code review.
//
// It scans files or git changes with a parallel pool of analyzers and
// emits structured issues with deterministic exit codes suitable for
// CI gating and git hooks.
//
// Usage:
//
//	patrol check                      # analyze the current directory
//	patrol check src/ pkg/            # analyze specific paths
//	patrol check --staged             # analyze staged changes
//	patrol check --unstaged           # analyze working tree changes
//	patrol check --range origin/main..HEAD  # analyze a revision range
//	patrol watch                      # re-analyze on file changes
//	patrol analyzers                  # list available analyzers
//
// See https://github.com/dshills/patrol for full documentation.
package main
