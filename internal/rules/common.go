package rules

import "regexp"

// todoPatterns flag deferred-work markers.
var todoPatterns = []pattern{
	{
		re:         regexp.MustCompile(`(?i)(?://|#)\s*(?:TODO|FIXME|XXX|HACK)\b`),
		severity:   SeverityLow,
		issueType:  TypeMaintainability,
		title:      "Deferred-work marker",
		message:    "A TODO/FIXME marker indicates unfinished work tracked only in a comment.",
		suggestion: "File an issue for the follow-up or resolve it.",
	},
}

func analyzeTodos(path, content string, _ Options) []Issue {
	return scanPatterns("todos", path, content, todoPatterns)
}

// sqlInjectionPatterns flag query strings assembled from variables.
var sqlInjectionPatterns = []pattern{
	{
		re:         regexp.MustCompile(`(?i)(?:SELECT|INSERT|UPDATE|DELETE)\s+[^"']*["'][^"']*["']\s*\+\s*\w`),
		severity:   SeverityHigh,
		issueType:  TypeSecurity,
		title:      "SQL built by string concatenation",
		message:    "Concatenating values into a SQL statement enables injection.",
		suggestion: "Use parameterized queries with placeholders.",
	},
	{
		re:         regexp.MustCompile(`(?i)(?:Sprintf|format|f["'])\s*\(?["'][^"']*(?:SELECT|INSERT|UPDATE|DELETE)\b[^"']*%[sdv]`),
		severity:   SeverityHigh,
		issueType:  TypeSecurity,
		title:      "SQL built by string formatting",
		message:    "Formatting values into a SQL statement enables injection.",
		suggestion: "Use parameterized queries with placeholders.",
	},
	{
		re:         regexp.MustCompile("(?i)(?:SELECT|INSERT|UPDATE|DELETE)[^`\"']*\\$\\{"),
		severity:   SeverityHigh,
		issueType:  TypeSecurity,
		title:      "SQL built by template interpolation",
		message:    "Interpolating values into a SQL template string enables injection.",
		suggestion: "Use parameterized queries with placeholders.",
	},
}

func analyzeSQLInjection(path, content string, _ Options) []Issue {
	return scanPatterns("sql-injection", path, content, sqlInjectionPatterns)
}
