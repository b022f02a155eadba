package rules

import "regexp"

// goPatterns are heuristic smell checks for Go source.
var goPatterns = []pattern{
	{
		re:         regexp.MustCompile(`(?:^|[^.\w])panic\(`),
		severity:   SeverityMedium,
		issueType:  TypeBug,
		title:      "Explicit panic",
		message:    "panic aborts the process and is rarely appropriate outside of init-time invariants.",
		suggestion: "Return an error to the caller instead of panicking.",
	},
	{
		re:         regexp.MustCompile(`\bfmt\.Print(?:ln|f)?\(`),
		severity:   SeverityLow,
		issueType:  TypeStyle,
		title:      "Direct stdout printing",
		message:    "fmt.Print* in library code bypasses the logger and cannot be silenced or redirected.",
		suggestion: "Log through the configured logger or write to an injected io.Writer.",
	},
	{
		re:         regexp.MustCompile(`_\s*=\s*\w+\.(?:Close|Flush|Sync)\(\)`),
		severity:   SeverityMedium,
		issueType:  TypeCorrectness,
		title:      "Discarded cleanup error",
		message:    "The error from a Close/Flush/Sync call is discarded; write failures can go unnoticed.",
		suggestion: "Check the error, at minimum log it.",
	},
	{
		re:         regexp.MustCompile(`\btime\.Sleep\(`),
		severity:   SeverityLow,
		issueType:  TypeMaintainability,
		title:      "Sleep-based synchronization",
		message:    "time.Sleep as a synchronization mechanism is flaky; it hides races instead of fixing them.",
		suggestion: "Synchronize with channels, sync primitives, or polling with a deadline.",
	},
	{
		re:         regexp.MustCompile(`\bcontext\.TODO\(\)`),
		severity:   SeverityLow,
		issueType:  TypeMaintainability,
		title:      "context.TODO in non-test code",
		message:    "context.TODO signals an unfinished context plumbing decision.",
		suggestion: "Thread a real context.Context from the caller.",
	},
	{
		re:         regexp.MustCompile(`\bmd5\.(?:New|Sum)\b|\bsha1\.(?:New|Sum)\b`),
		severity:   SeverityHigh,
		issueType:  TypeSecurity,
		title:      "Weak hash algorithm",
		message:    "MD5 and SHA-1 are broken for security purposes.",
		suggestion: "Use sha256 or a purpose-built KDF for credentials.",
	},
	{
		re:         regexp.MustCompile(`InsecureSkipVerify:\s*true`),
		severity:   SeverityHigh,
		issueType:  TypeSecurity,
		title:      "TLS verification disabled",
		message:    "InsecureSkipVerify disables certificate validation and allows man-in-the-middle attacks.",
		suggestion: "Remove InsecureSkipVerify or scope it to test configuration.",
	},
	{
		re:         regexp.MustCompile(`\bgoto\s+\w+`),
		severity:   SeverityLow,
		issueType:  TypeStyle,
		title:      "goto statement",
		message:    "goto complicates control flow; Go code almost never needs it.",
		suggestion: "Restructure with loops or early returns.",
	},
}

func analyzeGo(path, content string, _ Options) []Issue {
	return scanPatterns("go-smells", path, content, goPatterns)
}
