package rules

import "regexp"

// pyPatterns are heuristic smell checks for Python source.
var pyPatterns = []pattern{
	{
		re:         regexp.MustCompile(`\bexec\s*\(|\beval\s*\(`),
		severity:   SeverityHigh,
		issueType:  TypeSecurity,
		title:      "Dynamic code execution",
		message:    "exec/eval on constructed strings is a code injection risk.",
		suggestion: "Use ast.literal_eval or an explicit dispatch table.",
	},
	{
		re:         regexp.MustCompile(`\bpickle\.loads?\s*\(`),
		severity:   SeverityHigh,
		issueType:  TypeSecurity,
		title:      "Unsafe deserialization",
		message:    "Unpickling untrusted data executes arbitrary code.",
		suggestion: "Use json or another data-only format for untrusted input.",
	},
	{
		re:         regexp.MustCompile(`\bsubprocess\.\w+\([^)]*shell\s*=\s*True`),
		severity:   SeverityHigh,
		issueType:  TypeSecurity,
		title:      "subprocess with shell=True",
		message:    "shell=True routes arguments through the shell, enabling command injection.",
		suggestion: "Pass an argument list and drop shell=True.",
	},
	{
		re:         regexp.MustCompile(`\bexcept\s*:\s*(?:pass)?\s*$`),
		severity:   SeverityMedium,
		issueType:  TypeBug,
		title:      "Bare except",
		message:    "A bare except swallows every exception including KeyboardInterrupt.",
		suggestion: "Catch the specific exception types you can handle.",
	},
	{
		re:         regexp.MustCompile(`def\s+\w+\([^)]*=\s*(?:\[\]|\{\})`),
		severity:   SeverityMedium,
		issueType:  TypeBug,
		title:      "Mutable default argument",
		message:    "Mutable default arguments are shared across calls.",
		suggestion: "Default to None and create the container inside the function.",
	},
	{
		re:         regexp.MustCompile(`\bassert\s+[^,]+,`),
		severity:   SeverityLow,
		issueType:  TypeCorrectness,
		title:      "assert for runtime validation",
		message:    "asserts are stripped under python -O; they are not input validation.",
		suggestion: "Raise an explicit exception for runtime checks.",
	},
	{
		re:         regexp.MustCompile(`\bprint\s*\(`),
		severity:   SeverityLow,
		issueType:  TypeStyle,
		title:      "Leftover print",
		message:    "print in library code bypasses logging configuration.",
		suggestion: "Use the logging module.",
	},
}

func analyzePython(path, content string, _ Options) []Issue {
	return scanPatterns("py-smells", path, content, pyPatterns)
}
