// Package rules defines the issue model and the registry of named
// regex-based analyzers. Each analyzer is a pure function from file
// content to a list of issues; the set of analyzers is closed and
// dispatch happens by name through the registry.
package rules
