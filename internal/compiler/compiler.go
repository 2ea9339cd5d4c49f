// Package compiler runs the template pipeline: parse, transform, hoist, and
// hand the annotated tree to code generation.
package compiler

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/conduit-lang/stencil/internal/compiler/ast"
	"github.com/conduit-lang/stencil/internal/compiler/errors"
	"github.com/conduit-lang/stencil/internal/compiler/parser"
	"github.com/conduit-lang/stencil/internal/compiler/transform"
)

// Result is one compilation. Root carries the codegen annotations and the
// root metadata (helpers, components, hoists, ...).
type Result struct {
	ID       string
	Filename string
	Root     *ast.RootNode
	// Errors and Warnings are only filled by Check.
	Errors   errors.ErrorList
	Warnings errors.ErrorList
	Duration time.Duration
}

// HasErrors reports whether any error was collected.
func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// Diagnostics returns errors followed by warnings.
func (r *Result) Diagnostics() errors.ErrorList {
	all := make(errors.ErrorList, 0, len(r.Errors)+len(r.Warnings))
	all = append(all, r.Errors...)
	return append(all, r.Warnings...)
}

// Parse builds the template tree only.
func Parse(source string, opts Options) (*ast.RootNode, error) {
	opts = withSinks(opts)
	return parser.Parse(source, opts.parserOptions())
}

// Compile parses and transforms source. Unless opts.OnError is set, the
// first error aborts compilation and is returned.
func Compile(source string, opts Options) (res *Result, err error) {
	defer errors.Recover(&err)
	opts = withSinks(opts)
	return compile(source, opts), nil
}

// Check compiles in recovery mode: every diagnostic is collected into the
// result and compilation runs to the end. Sinks set in opts still receive
// each diagnostic.
func Check(source string, opts Options) *Result {
	c := errors.NewCollector()
	onError, onWarn := opts.OnError, opts.OnWarn
	opts.OnError = func(e *errors.CompilerError) {
		c.OnError(e.WithFile(opts.Filename))
		if onError != nil {
			onError(e)
		}
	}
	opts.OnWarn = func(e *errors.CompilerError) {
		c.OnWarn(e.WithFile(opts.Filename))
		if onWarn != nil {
			onWarn(e)
		}
	}
	opts = withSinks(opts)

	var err error
	res := func() *Result {
		defer errors.Recover(&err)
		return compile(source, opts)
	}()
	if res == nil {
		// a caller sink aborted
		res = &Result{ID: uuid.NewString(), Filename: opts.Filename}
	}
	res.Errors = c.Errors
	res.Warnings = c.Warnings
	return res
}

func withSinks(opts Options) Options {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.OnError == nil {
		opts.OnError = errors.DefaultOnError
	}
	if opts.OnWarn == nil {
		opts.OnWarn = errors.WarnLogger(opts.Logger)
	}
	return opts
}

func compile(source string, opts Options) *Result {
	start := time.Now()
	checkFeatures(opts)

	root := parser.New(source, opts.parserOptions()).Parse()
	transform.Transform(root, opts.transformOptions())

	res := &Result{
		ID:       uuid.NewString(),
		Filename: opts.Filename,
		Root:     root,
		Duration: time.Since(start),
	}
	opts.Logger.Debug("compiled template",
		zap.String("id", res.ID),
		zap.String("file", opts.Filename),
		zap.Int("helpers", len(root.Helpers)),
		zap.Int("hoists", len(root.Hoists)),
		zap.Duration("duration", res.Duration))
	return res
}

// checkFeatures reports option combinations this compiler cannot honour.
func checkFeatures(opts Options) {
	if opts.CacheHandlers && !opts.PrefixIdentifiers {
		opts.OnError(errors.New(errors.XCacheHandlerNotSupported, nil))
	}
	if opts.ScopeID != "" && opts.Mode != ModeModule {
		opts.OnError(errors.New(errors.XScopeIDNotSupported, nil))
	}
}
