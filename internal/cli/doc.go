// Package cli implements the patrol command tree: check, watch,
// analyzers, config, cache, and version. Exit codes are deterministic
// so CI can gate on them.
package cli
