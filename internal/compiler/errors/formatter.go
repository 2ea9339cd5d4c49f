package errors

import (
	"fmt"
	"strings"
)

// FormatError returns a human-readable error message for terminal output
func FormatError(e *CompilerError) string {
	var b strings.Builder

	file := e.File
	if file == "" {
		file = "<template>"
	}

	fmt.Fprintf(&b, "%s %s in %s [%s]\n", severityIcon(e.Severity), categoryDisplayName(e.Category), file, e.Name)

	if e.Loc != nil {
		fmt.Fprintf(&b, "Line %d, Column %d:\n", e.Loc.Start.Line, e.Loc.Start.Column)
	}

	if e.Context != nil && len(e.Context.SourceLines) > 0 {
		for i, line := range e.Context.SourceLines {
			lineNum := e.Context.FirstLine + i
			fmt.Fprintf(&b, "%s  %s\n", formatLineNumber(lineNum), line)
			if e.Loc != nil && lineNum == e.Loc.Start.Line {
				pad := strings.Repeat(" ", len(formatLineNumber(lineNum))+1+e.Loc.Start.Column)
				fmt.Fprintf(&b, "%s^ %s\n", pad, e.Message)
			}
		}
	} else {
		fmt.Fprintf(&b, "  %s\n", e.Message)
	}

	return b.String()
}

// FormatErrorList returns a formatted string of all errors
func FormatErrorList(errors ErrorList) string {
	if len(errors) == 0 {
		return "no errors"
	}

	var b strings.Builder

	errCount, warnCount := errors.ErrorCount()
	fmt.Fprintf(&b, "Compilation finished with %d error(s), %d warning(s)\n\n", errCount, warnCount)

	for i, err := range errors {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(err.Format())
	}

	return b.String()
}

// FormatCompact returns a compact one-line error format
func FormatCompact(e *CompilerError) string {
	file := e.File
	if file == "" {
		file = "<template>"
	}
	line, col := 0, 0
	if e.Loc != nil {
		line, col = e.Loc.Start.Line, e.Loc.Start.Column
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s [%s]", file, line, col, e.Severity, e.Message, e.Name)
}

func buildContext(source string, line int) *ErrorContext {
	lines := strings.Split(source, "\n")
	if line < 1 || line > len(lines) {
		return nil
	}
	first := line - 1
	if first < 1 {
		first = 1
	}
	last := line + 1
	if last > len(lines) {
		last = len(lines)
	}
	return &ErrorContext{
		Current:     lines[line-1],
		SourceLines: lines[first-1 : last],
		FirstLine:   first,
	}
}

// severityIcon returns the icon for a severity level
func severityIcon(severity ErrorSeverity) string {
	switch severity {
	case SeverityError:
		return "❌"
	case SeverityWarning:
		return "⚠️ "
	default:
		return "❓"
	}
}

// categoryDisplayName returns a human-readable category name
func categoryDisplayName(category ErrorCategory) string {
	switch category {
	case CategoryParse:
		return "Syntax Error"
	case CategoryTransform:
		return "Directive Error"
	case CategoryFeature:
		return "Unsupported Option"
	case CategoryDeprecation:
		return "Deprecation"
	default:
		return "Compiler Error"
	}
}

// formatLineNumber formats a line number for display
func formatLineNumber(lineNum int) string {
	return fmt.Sprintf("%3d |", lineNum)
}
