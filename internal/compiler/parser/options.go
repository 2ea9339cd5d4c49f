package parser

import (
	"html"
	"strings"

	"github.com/conduit-lang/stencil/internal/compiler/ast"
	"github.com/conduit-lang/stencil/internal/compiler/errors"
)

// TextMode is the lexical state the parser is in.
type TextMode int

const (
	// TextData is full markup: tags, interpolation, entities
	TextData TextMode = iota
	// TextRCData allows interpolation and entities but no tags (textarea, title)
	TextRCData
	// TextRawText is plain text up to the parent's end tag (script, style)
	TextRawText
	// TextCData ends only at ]]>
	TextCData
	// TextAttributeValue is a quoted or unquoted attribute value
	TextAttributeValue
)

func (m TextMode) String() string {
	switch m {
	case TextRCData:
		return "RCDATA"
	case TextRawText:
		return "RAWTEXT"
	case TextCData:
		return "CDATA"
	case TextAttributeValue:
		return "ATTRIBUTE_VALUE"
	default:
		return "DATA"
	}
}

// Whitespace strategies.
const (
	WhitespaceCondense = "condense"
	WhitespacePreserve = "preserve"
)

// Options configures Parse. Start from DefaultOptions; nil hooks and empty
// delimiters are replaced by the defaults.
type Options struct {
	Delimiters [2]string

	GetNamespace       func(tag string, parent *ast.ElementNode) ast.Namespace
	GetTextMode        func(el, parent *ast.ElementNode) TextMode
	IsVoidTag          func(tag string) bool
	IsPreTag           func(tag string) bool
	IsCustomElement    func(tag string) bool
	IsBuiltInComponent func(tag string) ast.Helper
	// IsNativeTag, when set, makes every non-native tag a component.
	IsNativeTag    func(tag string) bool
	DecodeEntities func(raw string, asAttr bool) string

	// Comments keeps comment nodes in the tree.
	Comments   bool
	Whitespace string

	OnError errors.Handler
	OnWarn  errors.Handler
}

// DefaultOptions returns the HTML defaults.
func DefaultOptions() Options {
	return Options{
		Delimiters:     [2]string{"{{", "}}"},
		GetNamespace:   DefaultNamespace,
		GetTextMode:    DefaultTextMode,
		IsVoidTag:      IsHTMLVoidTag,
		IsPreTag:       func(tag string) bool { return tag == "pre" },
		DecodeEntities: DecodeHTMLEntities,
		Comments:       true,
		Whitespace:     WhitespaceCondense,
		OnError:        errors.DefaultOnError,
		OnWarn:         errors.DefaultOnWarn,
	}
}

func (o *Options) withDefaults() {
	d := DefaultOptions()
	if o.Delimiters[0] == "" || o.Delimiters[1] == "" {
		o.Delimiters = d.Delimiters
	}
	if o.GetNamespace == nil {
		o.GetNamespace = d.GetNamespace
	}
	if o.GetTextMode == nil {
		o.GetTextMode = d.GetTextMode
	}
	if o.IsVoidTag == nil {
		o.IsVoidTag = d.IsVoidTag
	}
	if o.IsPreTag == nil {
		o.IsPreTag = d.IsPreTag
	}
	if o.IsCustomElement == nil {
		o.IsCustomElement = func(string) bool { return false }
	}
	if o.IsBuiltInComponent == nil {
		o.IsBuiltInComponent = func(string) ast.Helper { return ast.HelperNone }
	}
	if o.DecodeEntities == nil {
		o.DecodeEntities = d.DecodeEntities
	}
	if o.Whitespace == "" {
		o.Whitespace = d.Whitespace
	}
	if o.OnError == nil {
		o.OnError = d.OnError
	}
	if o.OnWarn == nil {
		o.OnWarn = d.OnWarn
	}
}

var voidTags = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// IsHTMLVoidTag reports whether tag never has children or an end tag.
func IsHTMLVoidTag(tag string) bool {
	return voidTags[tag]
}

// DecodeHTMLEntities decodes named and numeric character references.
func DecodeHTMLEntities(raw string, _ bool) string {
	return html.UnescapeString(raw)
}

var rawTextContainers = map[string]bool{
	"style": true, "script": true, "xmp": true, "iframe": true,
	"noembed": true, "noframes": true, "noscript": true,
}

// DefaultTextMode puts textarea/title in RCDATA and script-like containers in
// RAWTEXT. Foreign (SVG, MathML) content is always DATA.
func DefaultTextMode(el, _ *ast.ElementNode) TextMode {
	if el.Ns != ast.NamespaceHTML {
		return TextData
	}
	if el.Tag == "textarea" || el.Tag == "title" {
		return TextRCData
	}
	if rawTextContainers[el.Tag] {
		return TextRawText
	}
	return TextData
}

// DefaultNamespace resolves svg and math subtrees. foreignObject, desc and
// title inside SVG, and MathML text integration points, switch back to HTML.
func DefaultNamespace(tag string, parent *ast.ElementNode) ast.Namespace {
	ns := ast.NamespaceHTML
	if parent != nil {
		ns = parent.Ns
	}
	switch {
	case parent != nil && ns == ast.NamespaceMathML:
		if parent.Tag == "annotation-xml" {
			if tag == "svg" {
				return ast.NamespaceSVG
			}
			for _, p := range parent.Props {
				a, ok := p.(*ast.AttributeNode)
				if ok && a.Name == "encoding" && a.Value != nil &&
					(a.Value.Content == "text/html" || a.Value.Content == "application/xhtml+xml") {
					ns = ast.NamespaceHTML
				}
			}
		} else if isMathMLTextPoint(parent.Tag) && tag != "mglyph" && tag != "malignmark" {
			ns = ast.NamespaceHTML
		}
	case parent != nil && ns == ast.NamespaceSVG:
		if parent.Tag == "foreignObject" || parent.Tag == "desc" || parent.Tag == "title" {
			ns = ast.NamespaceHTML
		}
	}
	if ns == ast.NamespaceHTML {
		switch tag {
		case "svg":
			return ast.NamespaceSVG
		case "math":
			return ast.NamespaceMathML
		}
	}
	return ns
}

// mi, mo, mn, ms, mtext
func isMathMLTextPoint(tag string) bool {
	if !strings.HasPrefix(tag, "m") {
		return false
	}
	switch tag[1:] {
	case "i", "o", "n", "s", "text":
		return true
	}
	return false
}
