// Package errors provides structured diagnostics for the template compiler.
// Every diagnostic carries a numeric code, an optional source location and an
// optional extra message fragment, and is routed through a Handler sink.
package errors

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/conduit-lang/stencil/internal/compiler/ast"
)

// ErrorCategory groups error codes.
type ErrorCategory string

const (
	// CategoryParse covers lexical and structural markup errors
	CategoryParse ErrorCategory = "parse"
	// CategoryTransform covers directive usage errors
	CategoryTransform ErrorCategory = "transform"
	// CategoryFeature covers options unsupported by the current configuration
	CategoryFeature ErrorCategory = "feature"
	// CategoryDeprecation covers deprecated syntax
	CategoryDeprecation ErrorCategory = "deprecation"
)

// ErrorSeverity indicates the severity level of a diagnostic
type ErrorSeverity string

const (
	SeverityError   ErrorSeverity = "error"
	SeverityWarning ErrorSeverity = "warning"
)

// ErrorContext provides source code context for an error
type ErrorContext struct {
	// Current is the line of code where the error occurred
	Current string `json:"current"`
	// SourceLines holds the line before, the error line and the line after
	SourceLines []string `json:"source_lines"`
	// FirstLine is the line number of SourceLines[0]
	FirstLine int `json:"first_line"`
}

// CompilerError is a single compiler diagnostic.
type CompilerError struct {
	Code     ErrorCode           `json:"code"`
	Name     string              `json:"name"`
	Category ErrorCategory       `json:"category"`
	Severity ErrorSeverity       `json:"severity"`
	Message  string              `json:"message"`
	Loc      *ast.SourceLocation `json:"loc,omitempty"`
	// AdditionalMessage is appended to the code's base message
	AdditionalMessage string        `json:"additional_message,omitempty"`
	File              string        `json:"file,omitempty"`
	Context           *ErrorContext `json:"context,omitempty"`
}

// New creates an error-severity diagnostic for code.
func New(code ErrorCode, loc *ast.SourceLocation, additional ...string) *CompilerError {
	e := &CompilerError{
		Code:     code,
		Name:     code.Name(),
		Category: code.Category(),
		Severity: SeverityError,
		Loc:      loc,
	}
	for _, a := range additional {
		e.AdditionalMessage += a
	}
	e.Message = code.Message() + e.AdditionalMessage
	return e
}

// NewWarning creates a warning-severity diagnostic for code.
func NewWarning(code ErrorCode, loc *ast.SourceLocation, additional ...string) *CompilerError {
	e := New(code, loc, additional...)
	e.Severity = SeverityWarning
	return e
}

// At is a convenience for passing a location by value.
func At(loc ast.SourceLocation) *ast.SourceLocation {
	return &loc
}

// Error implements the error interface
func (e *CompilerError) Error() string {
	return FormatCompact(e)
}

// Format returns a human-readable error message for terminal output
func (e *CompilerError) Format() string {
	return FormatError(e)
}

// ToJSON returns the error as an indented JSON string
func (e *CompilerError) ToJSON() (string, error) {
	bytes, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// WithFile sets the source file name for the error
func (e *CompilerError) WithFile(file string) *CompilerError {
	e.File = file
	return e
}

// WithSource fills Context from the full template source.
func (e *CompilerError) WithSource(source string) *CompilerError {
	if e.Loc == nil || source == "" {
		return e
	}
	e.Context = buildContext(source, e.Loc.Start.Line)
	return e
}

// ErrorList is a collection of compiler errors
type ErrorList []*CompilerError

// Error implements the error interface
func (el ErrorList) Error() string {
	if len(el) == 0 {
		return "no errors"
	}
	return FormatErrorList(el)
}

// HasErrors returns true if the list contains any errors (excludes warnings)
func (el ErrorList) HasErrors() bool {
	for _, err := range el {
		if err.Severity == SeverityError {
			return true
		}
	}
	return false
}

// HasWarnings returns true if the list contains any warnings
func (el ErrorList) HasWarnings() bool {
	for _, err := range el {
		if err.Severity == SeverityWarning {
			return true
		}
	}
	return false
}

// ToJSON returns all errors as a JSON array
func (el ErrorList) ToJSON() (string, error) {
	bytes, err := json.MarshalIndent(el, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// ErrorCount returns the number of diagnostics by severity
func (el ErrorList) ErrorCount() (errors, warnings int) {
	for _, err := range el {
		switch err.Severity {
		case SeverityError:
			errors++
		case SeverityWarning:
			warnings++
		}
	}
	return
}

// Codes returns the codes of the list in order.
func (el ErrorList) Codes() []ErrorCode {
	codes := make([]ErrorCode, len(el))
	for i, e := range el {
		codes[i] = e.Code
	}
	return codes
}

// Handler is a diagnostic sink.
type Handler func(*CompilerError)

// abort carries a fatal diagnostic up the stack to Recover.
type abort struct {
	err *CompilerError
}

// DefaultOnError stops compilation at the first error.
func DefaultOnError(e *CompilerError) {
	panic(abort{err: e})
}

// DefaultOnWarn ignores warnings.
func DefaultOnWarn(*CompilerError) {}

// WarnLogger returns a warn sink that logs through logger.
func WarnLogger(logger *zap.Logger) Handler {
	if logger == nil {
		return DefaultOnWarn
	}
	return func(e *CompilerError) {
		fields := []zap.Field{
			zap.String("code", e.Name),
			zap.String("message", e.Message),
		}
		if e.Loc != nil {
			fields = append(fields, zap.Int("line", e.Loc.Start.Line), zap.Int("column", e.Loc.Start.Column))
		}
		logger.Warn("template compiler warning", fields...)
	}
}

// Recover turns a DefaultOnError abort into a returned error. It must be
// deferred directly by the entry point. Other panics are re-raised.
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if a, ok := r.(abort); ok {
		if errp != nil {
			*errp = a.err
		}
		return
	}
	panic(r)
}

// Collector accumulates diagnostics without stopping compilation.
type Collector struct {
	Errors   ErrorList
	Warnings ErrorList
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// OnError is the collector's error sink.
func (c *Collector) OnError(e *CompilerError) {
	c.Errors = append(c.Errors, e)
}

// OnWarn is the collector's warn sink.
func (c *Collector) OnWarn(e *CompilerError) {
	if e.Severity != SeverityWarning {
		e.Severity = SeverityWarning
	}
	c.Warnings = append(c.Warnings, e)
}

// All returns errors followed by warnings.
func (c *Collector) All() ErrorList {
	all := make(ErrorList, 0, len(c.Errors)+len(c.Warnings))
	all = append(all, c.Errors...)
	return append(all, c.Warnings...)
}

// Err returns the collected errors as an error, or nil.
func (c *Collector) Err() error {
	if len(c.Errors) == 0 {
		return nil
	}
	return fmt.Errorf("template compilation failed: %w", c.Errors)
}
