package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	cerrors "github.com/conduit-lang/stencil/internal/compiler/errors"
)

// ErrorLevel represents the severity of an error message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
	ErrorLevelInfo
)

// ErrorOptions configures the error message formatting
type ErrorOptions struct {
	Level        ErrorLevel
	Context      string
	Problem      string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

func paint(noColor bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if noColor {
		c.DisableColor()
	}
	return c
}

// FormatError creates a standardized error message
//
// Example output:
//
//	❌ CONFIGURATION ERROR
//	   compiler.whitespace must be one of condense, preserve (got "condence")
//
//	   Did you mean: condense?
//
//	   → Get help: stencil --help
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	var header, body *color.Color
	var symbol string
	switch opts.Level {
	case ErrorLevelWarning:
		header = paint(opts.NoColor, color.FgYellow, color.Bold)
		body = paint(opts.NoColor, color.FgYellow)
		symbol = "⚠️"
	case ErrorLevelInfo:
		header = paint(opts.NoColor, color.FgCyan, color.Bold)
		body = paint(opts.NoColor, color.FgCyan)
		symbol = "ℹ️"
	default:
		header = paint(opts.NoColor, color.FgRed, color.Bold)
		body = paint(opts.NoColor, color.FgRed)
		symbol = "❌"
	}

	if opts.Context != "" {
		header.Fprintf(&b, "%s %s\n", symbol, strings.ToUpper(opts.Context))
		body.Fprintf(&b, "   %s\n", opts.Problem)
	} else {
		header.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		paint(opts.NoColor, color.FgYellow).Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		cyan := paint(opts.NoColor, color.FgCyan)
		for _, cmd := range opts.HelpCommands {
			cyan.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

// WriteError writes a formatted error message to the writer
func WriteError(w io.Writer, opts ErrorOptions) {
	fmt.Fprint(w, FormatError(opts))
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	return paint(noColor, color.FgGreen, color.Bold).Sprintf("✓ %s", message)
}

// WriteSuccess writes a success message to the writer
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}

// ConfigError reports an invalid stencil.yml
func ConfigError(message string, suggestions []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:       ErrorLevelError,
		Context:     "configuration error",
		Problem:     message,
		Suggestions: suggestions,
		HelpCommands: []string{
			"Create a config: stencil init",
			"Get help: stencil --help",
		},
		NoColor: noColor,
	})
}

// Warning creates a standardized warning message
func Warning(message string, noColor bool) string {
	return FormatError(ErrorOptions{Level: ErrorLevelWarning, Problem: message, NoColor: noColor})
}

// Info creates a standardized info message
func Info(message string, noColor bool) string {
	return FormatError(ErrorOptions{Level: ErrorLevelInfo, Problem: message, NoColor: noColor})
}

// FormatDiagnostic renders one compiler diagnostic with its source excerpt,
// red for errors and yellow for warnings
func FormatDiagnostic(e *cerrors.CompilerError, noColor bool) string {
	text := strings.TrimRight(cerrors.FormatError(e), "\n")
	lines := strings.Split(text, "\n")

	accent := paint(noColor, color.FgRed, color.Bold)
	if e.Severity == cerrors.SeverityWarning {
		accent = paint(noColor, color.FgYellow, color.Bold)
	}
	gray := paint(noColor, color.FgHiBlack)

	var b strings.Builder
	accent.Fprintln(&b, lines[0])
	for _, line := range lines[1:] {
		if strings.Contains(line, "^ ") {
			accent.Fprintln(&b, line)
			continue
		}
		gray.Fprintln(&b, line)
	}
	return b.String()
}

// FormatDiagnostics renders every diagnostic followed by a summary line
func FormatDiagnostics(list cerrors.ErrorList, noColor bool) string {
	var b strings.Builder
	for _, e := range list {
		b.WriteString(FormatDiagnostic(e, noColor))
		b.WriteString("\n")
	}

	errs, warns := list.ErrorCount()
	summary := fmt.Sprintf("%d error(s), %d warning(s)", errs, warns)
	switch {
	case errs > 0:
		paint(noColor, color.FgRed, color.Bold).Fprintln(&b, summary)
	case warns > 0:
		paint(noColor, color.FgYellow, color.Bold).Fprintln(&b, summary)
	default:
		b.WriteString(FormatSuccess("no problems found", noColor))
		b.WriteString("\n")
	}
	return b.String()
}
