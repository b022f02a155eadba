package rules

import "regexp"

// jsPatterns are heuristic smell checks for JavaScript and TypeScript.
var jsPatterns = []pattern{
	{
		re:         regexp.MustCompile(`\beval\s*\(`),
		severity:   SeverityHigh,
		issueType:  TypeSecurity,
		title:      "Use of eval",
		message:    "eval executes arbitrary strings as code and is a common injection vector.",
		suggestion: "Parse the input explicitly (JSON.parse, a lookup table) instead of eval.",
	},
	{
		re:         regexp.MustCompile(`\.innerHTML\s*=`),
		severity:   SeverityHigh,
		issueType:  TypeSecurity,
		title:      "innerHTML assignment",
		message:    "Assigning to innerHTML with untrusted data enables cross-site scripting.",
		suggestion: "Use textContent, or sanitize the markup before insertion.",
	},
	{
		re:         regexp.MustCompile(`\bdocument\.write\s*\(`),
		severity:   SeverityMedium,
		issueType:  TypeSecurity,
		title:      "document.write",
		message:    "document.write can inject unsanitized markup and blocks parsing.",
		suggestion: "Build DOM nodes explicitly or use a templating layer.",
	},
	{
		re:         regexp.MustCompile(`\bconsole\.(?:log|debug|info)\s*\(`),
		severity:   SeverityLow,
		issueType:  TypeStyle,
		title:      "Leftover console logging",
		message:    "console output in production code leaks internals and clutters the console.",
		suggestion: "Remove the call or route it through a log helper.",
	},
	{
		re:         regexp.MustCompile(`[^=!<>]==[^=]|[^=!<>]!=[^=]`),
		severity:   SeverityLow,
		issueType:  TypeCorrectness,
		title:      "Loose equality",
		message:    "== and != apply implicit coercion with surprising results.",
		suggestion: "Use === / !== unless coercion is intentional.",
	},
	{
		re:         regexp.MustCompile(`\bvar\s+\w+`),
		severity:   SeverityLow,
		issueType:  TypeStyle,
		title:      "var declaration",
		message:    "var is function-scoped and hoisted; let/const have clearer scoping.",
		suggestion: "Use const, or let when reassignment is needed.",
	},
	{
		re:         regexp.MustCompile(`\bsetTimeout\s*\(\s*["']`),
		severity:   SeverityHigh,
		issueType:  TypeSecurity,
		title:      "String argument to setTimeout",
		message:    "Passing a string to setTimeout is implicit eval.",
		suggestion: "Pass a function reference instead of a string.",
	},
}

func analyzeJavaScript(path, content string, _ Options) []Issue {
	return scanPatterns("js-smells", path, content, jsPatterns)
}
