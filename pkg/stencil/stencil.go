// Package stencil is the public entry point of the template compiler.
//
// A template is parsed into a tree, transformed into codegen annotations
// (vnode calls, conditionals, loops, slot functions, hoisted constants) and
// handed to a code generator as Metadata:
//
//	res, err := stencil.Compile(`<p>{{ msg }}</p>`, stencil.DefaultOptions())
//	if err != nil {
//		return err
//	}
//	data, err := stencil.Serialize(stencil.Handoff(res))
package stencil

import (
	"github.com/conduit-lang/stencil/internal/compiler"
	"github.com/conduit-lang/stencil/internal/compiler/ast"
	"github.com/conduit-lang/stencil/internal/compiler/errors"
	"github.com/conduit-lang/stencil/internal/compiler/metadata"
)

type (
	// Options configures a compilation.
	Options = compiler.Options
	// Result is one compilation.
	Result = compiler.Result
	// Root is the transformed template tree.
	Root = ast.RootNode
	// Metadata is the serializable codegen handoff.
	Metadata = metadata.Metadata
	// Diagnostic is a compiler error or warning.
	Diagnostic = errors.CompilerError
	// Diagnostics is a list of compiler errors and warnings.
	Diagnostics = errors.ErrorList
)

// DefaultOptions returns the recommended options.
func DefaultOptions() Options { return compiler.DefaultOptions() }

// Compile stops at the first error and returns it.
func Compile(source string, opts Options) (*Result, error) {
	return compiler.Compile(source, opts)
}

// Check compiles to the end and collects every diagnostic in the result.
func Check(source string, opts Options) *Result {
	return compiler.Check(source, opts)
}

// Parse returns the untransformed template tree.
func Parse(source string, opts Options) (*Root, error) {
	return compiler.Parse(source, opts)
}

// Handoff builds the codegen handoff of a result.
func Handoff(res *Result) *Metadata { return metadata.FromResult(res) }

// Serialize encodes a handoff as indented JSON.
func Serialize(m *Metadata) ([]byte, error) { return metadata.Serialize(m) }

// FormatDiagnostics renders diagnostics for a terminal.
func FormatDiagnostics(d Diagnostics) string { return errors.FormatErrorList(d) }
