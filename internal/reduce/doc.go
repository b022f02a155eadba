// Package reduce post-processes merged analysis results: deduplicates
// overlapping issues, honors inline suppression comments, and applies
// the configured severity floor.
package reduce
