package rules

import "regexp"

// secretPatterns detect credentials committed into source. The table
// mirrors the redaction heuristics in internal/redact so that anything
// we would redact from a snippet is also reported as an issue.
var secretPatterns = []pattern{
	{
		re:         regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?[A-Za-z0-9/+=_-]{20,}["']?`),
		severity:   SeverityHigh,
		issueType:  TypeSecurity,
		title:      "Hardcoded API key",
		message:    "An API key appears to be committed in source.",
		suggestion: "Move the key to environment configuration or a secret manager and rotate it.",
	},
	{
		re:         regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
		severity:   SeverityHigh,
		issueType:  TypeSecurity,
		title:      "AWS access key ID",
		message:    "An AWS access key ID appears in source.",
		suggestion: "Revoke the key and use IAM roles or environment credentials.",
	},
	{
		re:         regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)\s*[:=]\s*["'][^"']{8,}["']`),
		severity:   SeverityHigh,
		issueType:  TypeSecurity,
		title:      "Hardcoded credential",
		message:    "A secret-like assignment with a literal value appears in source.",
		suggestion: "Load credentials from the environment or a secret store.",
	},
	{
		re:         regexp.MustCompile(`-----BEGIN\s+(?:RSA\s+)?PRIVATE KEY-----`),
		severity:   SeverityHigh,
		issueType:  TypeSecurity,
		title:      "Private key material",
		message:    "A private key block is committed in source.",
		suggestion: "Remove the key from the repository and rotate it.",
	},
	{
		re:         regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`),
		severity:   SeverityHigh,
		issueType:  TypeSecurity,
		title:      "GitHub token",
		message:    "A GitHub token appears in source.",
		suggestion: "Revoke the token and supply it via environment configuration.",
	},
	{
		re:         regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
		severity:   SeverityMedium,
		issueType:  TypeSecurity,
		title:      "Embedded JWT",
		message:    "A JSON Web Token appears in source; tokens expire and should not be committed.",
		suggestion: "Generate tokens at runtime instead of embedding them.",
	},
}

func analyzeSecrets(path, content string, _ Options) []Issue {
	return scanPatterns("secrets", path, content, secretPatterns)
}
