// Package watch observes source trees for changes and emits debounced
// batches of modified file paths, driving incremental re-analysis in
// watch mode.
package watch
