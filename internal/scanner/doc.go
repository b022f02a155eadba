// Package scanner gathers candidate source files from the filesystem.
// It walks directories, applies include/exclude glob filters, skips
// binaries and oversized files, and loads file contents for analysis.
package scanner
