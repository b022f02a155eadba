// Package redact removes secrets from issue snippets before they
// reach a report.
//
// Detection uses regex heuristics covering common secret shapes: API
// keys, JWTs, private keys, AWS access key IDs and secret access keys,
// bearer tokens, and provider-specific tokens (GitHub, Slack, OpenAI).
//
// Path-based redaction is also supported: snippets from files whose
// paths match configured glob patterns are replaced with [REDACTED]
// entirely rather than being scanned pattern by pattern.
package redact
