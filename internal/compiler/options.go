package compiler

import (
	"go.uber.org/zap"

	"github.com/conduit-lang/stencil/internal/compiler/ast"
	"github.com/conduit-lang/stencil/internal/compiler/errors"
	"github.com/conduit-lang/stencil/internal/compiler/expression"
	"github.com/conduit-lang/stencil/internal/compiler/parser"
	"github.com/conduit-lang/stencil/internal/compiler/transform"
)

// Mode is the shape of the generated render module.
type Mode string

const (
	ModeFunction Mode = "function"
	ModeModule   Mode = "module"
)

// Options configures a compilation. Start from DefaultOptions: a zero
// Options turns every boolean feature off. Nil hooks fall back to the HTML
// defaults of the parser.
type Options struct {
	// Filename is reported with diagnostics and used to infer the
	// component's own name.
	Filename string

	// parser
	Delimiters         [2]string
	GetNamespace       func(tag string, parent *ast.ElementNode) ast.Namespace
	GetTextMode        func(el, parent *ast.ElementNode) parser.TextMode
	IsVoidTag          func(tag string) bool
	IsPreTag           func(tag string) bool
	IsCustomElement    func(tag string) bool
	IsBuiltInComponent func(tag string) ast.Helper
	IsNativeTag        func(tag string) bool
	DecodeEntities     func(raw string, asAttr bool) string
	Comments           bool
	Whitespace         string

	// transform
	PrefixIdentifiers bool
	HoistStatic       bool
	CacheHandlers     bool
	ScopeID           string
	Slotted           bool
	Mode              Mode
	ExpressionParser  expression.Parser

	// NodeTransforms run after the built-in node transforms.
	NodeTransforms []transform.NodeTransform
	// DirectiveTransforms are added to, or replace, the built-in ones.
	DirectiveTransforms map[string]transform.DirectiveTransform

	OnError errors.Handler
	OnWarn  errors.Handler
	Logger  *zap.Logger
}

// DefaultOptions returns the options the CLI and server compile with.
func DefaultOptions() Options {
	return Options{
		Delimiters:        [2]string{"{{", "}}"},
		Comments:          true,
		Whitespace:        parser.WhitespaceCondense,
		PrefixIdentifiers: true,
		HoistStatic:       true,
		Slotted:           true,
		Mode:              ModeModule,
	}
}

func (o Options) parserOptions() parser.Options {
	return parser.Options{
		Delimiters:         o.Delimiters,
		GetNamespace:       o.GetNamespace,
		GetTextMode:        o.GetTextMode,
		IsVoidTag:          o.IsVoidTag,
		IsPreTag:           o.IsPreTag,
		IsCustomElement:    o.IsCustomElement,
		IsBuiltInComponent: o.IsBuiltInComponent,
		IsNativeTag:        o.IsNativeTag,
		DecodeEntities:     o.DecodeEntities,
		Comments:           o.Comments,
		Whitespace:         o.Whitespace,
		OnError:            o.OnError,
		OnWarn:             o.OnWarn,
	}
}

func (o Options) transformOptions() transform.Options {
	nodeTransforms, directiveTransforms := transform.BaseTransforms(o.PrefixIdentifiers)
	nodeTransforms = append(nodeTransforms, o.NodeTransforms...)
	for name, dt := range o.DirectiveTransforms {
		directiveTransforms[name] = dt
	}
	return transform.Options{
		Filename:            o.Filename,
		NodeTransforms:      nodeTransforms,
		DirectiveTransforms: directiveTransforms,
		PrefixIdentifiers:   o.PrefixIdentifiers,
		HoistStatic:         o.HoistStatic,
		CacheHandlers:       o.CacheHandlers,
		ScopeID:             o.ScopeID,
		Slotted:             o.Slotted,
		IsBuiltInComponent:  o.IsBuiltInComponent,
		IsCustomElement:     o.IsCustomElement,
		ExpressionParser:    o.ExpressionParser,
		OnError:             o.OnError,
		OnWarn:              o.OnWarn,
		Logger:              o.Logger,
	}
}

// Fingerprint identifies the options that change compiler output. Hooks
// and sinks are not part of it.
func (o Options) Fingerprint() string {
	flag := func(b bool) byte {
		if b {
			return '1'
		}
		return '0'
	}
	mode := o.Mode
	if mode == "" {
		mode = ModeFunction
	}
	return string([]byte{
		flag(o.Comments), flag(o.PrefixIdentifiers), flag(o.HoistStatic),
		flag(o.CacheHandlers), flag(o.Slotted),
	}) + "|" + o.Delimiters[0] + "|" + o.Delimiters[1] + "|" + o.Whitespace +
		"|" + string(mode) + "|" + o.ScopeID + "|" + o.Filename
}
