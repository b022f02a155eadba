// Package gitctx shells out to git for repository metadata and
// changed-file lists. It backs the --staged, --unstaged, and --range
// check modes.
package gitctx
