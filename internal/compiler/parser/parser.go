// Package parser turns template markup into an ast.RootNode. It is a
// hand-written recursive-descent parser over a small set of text modes
// (DATA, RCDATA, RAWTEXT, CDATA, ATTRIBUTE_VALUE), reporting every problem
// through the options' error sink and recovering with a best-effort node.
package parser

import (
	"strings"

	"github.com/conduit-lang/stencil/internal/compiler/ast"
	"github.com/conduit-lang/stencil/internal/compiler/errors"
)

// Parser holds the state of one parse.
type Parser struct {
	opts   Options
	cur    *Cursor
	ids    *ast.IDGen
	inPre  bool
	inVPre bool
}

// New creates a parser for source.
func New(source string, opts Options) *Parser {
	opts.withDefaults()
	return &Parser{
		opts: opts,
		cur:  NewCursor(source),
		ids:  &ast.IDGen{},
	}
}

// Parse parses source into a template tree. With the default error sink the
// first error aborts parsing and is returned; with a collecting sink Parse
// always returns a tree.
func Parse(source string, opts Options) (root *ast.RootNode, err error) {
	defer errors.Recover(&err)
	return New(source, opts).Parse(), nil
}

// Parse runs the parser. Errors go to the configured sink.
func (p *Parser) Parse() *ast.RootNode {
	start := p.cur.Pos()
	children := p.parseChildren(TextData, nil)
	root := ast.NewRoot(children, p.cur.source, p.cur.Selection(start))
	root.IDs = p.ids
	p.ids.Assign(root)
	return root
}

func (p *Parser) track(n ast.Node) {
	p.ids.Assign(n)
}

func (p *Parser) emitError(code errors.ErrorCode, offset int, at ...ast.Position) {
	pos := p.cur.Pos()
	if len(at) > 0 {
		pos = at[0]
	}
	pos.Offset += offset
	pos.Column += offset
	loc := ast.SourceLocation{Start: pos, End: pos}
	p.opts.OnError(errors.New(code, &loc))
}

func lastElement(ancestors []*ast.ElementNode) *ast.ElementNode {
	if len(ancestors) == 0 {
		return nil
	}
	return ancestors[len(ancestors)-1]
}

func (p *Parser) parseChildren(mode TextMode, ancestors []*ast.ElementNode) []ast.Node {
	parent := lastElement(ancestors)
	ns := ast.NamespaceHTML
	if parent != nil {
		ns = parent.Ns
	}
	var nodes []ast.Node

	for !p.isEnd(mode, ancestors) {
		var parsed []ast.Node
		c := p.cur

		if mode == TextData || mode == TextRCData {
			switch {
			case !p.inVPre && c.HasPrefix(p.opts.Delimiters[0]):
				if n := p.parseInterpolation(mode); n != nil {
					parsed = []ast.Node{n}
				}
			case mode == TextData && c.At(0) == '<':
				var skip bool
				if parsed, skip = p.parseMarkup(ns, ancestors, parent); skip {
					continue
				}
			}
		}
		if parsed == nil {
			parsed = []ast.Node{p.parseText(mode)}
		}
		for _, n := range parsed {
			nodes = pushNode(nodes, n)
		}
	}

	if mode == TextRawText || mode == TextRCData {
		return nodes
	}
	return p.condenseWhitespace(nodes, parent)
}

// parseMarkup dispatches on the characters following '<'. skip reports that
// input was consumed without producing a node; a nil result without skip
// leaves the '<' to be parsed as text.
func (p *Parser) parseMarkup(ns ast.Namespace, ancestors []*ast.ElementNode, parent *ast.ElementNode) (nodes []ast.Node, skip bool) {
	c := p.cur
	switch {
	case c.Len() == 1:
		p.emitError(errors.EOFBeforeTagName, 1)
	case c.At(1) == '!':
		switch {
		case c.HasPrefix("<!--"):
			return []ast.Node{p.parseComment()}, false
		case c.HasPrefix("<!DOCTYPE"):
			return []ast.Node{p.parseBogusComment()}, false
		case c.HasPrefix("<![CDATA["):
			if ns != ast.NamespaceHTML {
				nodes = p.parseCDATA(ancestors)
				return nodes, len(nodes) == 0
			}
			p.emitError(errors.CDATAInHTMLContent, 0)
			return []ast.Node{p.parseBogusComment()}, false
		default:
			p.emitError(errors.IncorrectlyOpenedComment, 0)
			return []ast.Node{p.parseBogusComment()}, false
		}
	case c.At(1) == '/':
		switch {
		case c.Len() == 2:
			p.emitError(errors.EOFBeforeTagName, 2)
		case c.At(2) == '>':
			p.emitError(errors.MissingEndTagName, 2)
			c.Advance(3)
			return nil, true
		case isASCIILetter(c.At(2)):
			p.emitError(errors.XInvalidEndTag, 0)
			p.parseTag(tagEnd, parent)
			return nil, true
		default:
			p.emitError(errors.InvalidFirstCharacterOfTagName, 2)
			return []ast.Node{p.parseBogusComment()}, false
		}
	case isASCIILetter(c.At(1)):
		return []ast.Node{p.parseElement(ancestors)}, false
	case c.At(1) == '?':
		p.emitError(errors.UnexpectedQuestionMarkInsteadOfTagName, 1)
		return []ast.Node{p.parseBogusComment()}, false
	default:
		p.emitError(errors.InvalidFirstCharacterOfTagName, 1)
	}
	return nil, false
}

// pushNode appends n, merging it into the previous text node when both are
// text and contiguous (e.g. "a < b" is scanned as two text runs).
func pushNode(nodes []ast.Node, n ast.Node) []ast.Node {
	if text, ok := n.(*ast.TextNode); ok && len(nodes) > 0 {
		if prev, ok := nodes[len(nodes)-1].(*ast.TextNode); ok && prev.Loc.End.Offset == text.Loc.Start.Offset {
			prev.Content += text.Content
			prev.Loc.End = text.Loc.End
			prev.Loc.Source += text.Loc.Source
			return nodes
		}
	}
	return append(nodes, n)
}

// isEnd decides whether the current parseChildren loop is finished.
func (p *Parser) isEnd(mode TextMode, ancestors []*ast.ElementNode) bool {
	rest := p.cur.Rest()
	switch mode {
	case TextData:
		if strings.HasPrefix(rest, "</") {
			for i := len(ancestors) - 1; i >= 0; i-- {
				if startsWithEndTagOpen(rest, ancestors[i].Tag) {
					return true
				}
			}
		}
	case TextRCData, TextRawText:
		if parent := lastElement(ancestors); parent != nil && startsWithEndTagOpen(rest, parent.Tag) {
			return true
		}
	case TextCData:
		if strings.HasPrefix(rest, "]]>") {
			return true
		}
	}
	return rest == ""
}

func startsWithEndTagOpen(source, tag string) bool {
	if !strings.HasPrefix(source, "</") || len(source) < 2+len(tag) {
		return false
	}
	if !strings.EqualFold(source[2:2+len(tag)], tag) {
		return false
	}
	if len(source) == 2+len(tag) {
		return true
	}
	c := source[2+len(tag)]
	return isWhitespace(c) || c == '/' || c == '>'
}

// condenseWhitespace applies the whitespace policy to one sibling list and
// strips comments when they are disabled.
func (p *Parser) condenseWhitespace(nodes []ast.Node, parent *ast.ElementNode) []ast.Node {
	condense := p.opts.Whitespace != WhitespacePreserve
	removed := false
	for i, n := range nodes {
		switch node := n.(type) {
		case *ast.TextNode:
			if p.inPre {
				if condense {
					node.Content = strings.ReplaceAll(node.Content, "\r\n", "\n")
				}
				continue
			}
			if isWhitespaceOnly(node.Content) {
				var prev, next ast.Node
				if i > 0 {
					prev = nodes[i-1]
				}
				if i+1 < len(nodes) {
					next = nodes[i+1]
				}
				if prev == nil && next == nil && parent != nil {
					// sole child of an element
					node.Content = " "
				} else if prev == nil || next == nil || (condense && removableBetween(prev, next, node.Content)) {
					removed = true
					nodes[i] = nil
				} else {
					node.Content = " "
				}
			} else if condense {
				node.Content = condenseSpaces(node.Content)
			}
		case *ast.CommentNode:
			if !p.opts.Comments {
				removed = true
				nodes[i] = nil
			}
		}
	}

	if p.inPre && parent != nil && p.opts.IsPreTag(parent.Tag) && len(nodes) > 0 {
		if first, ok := nodes[0].(*ast.TextNode); ok {
			if strings.HasPrefix(first.Content, "\r\n") {
				first.Content = first.Content[2:]
			} else {
				first.Content = strings.TrimPrefix(first.Content, "\n")
			}
		}
	}

	if !removed {
		return nodes
	}
	kept := nodes[:0]
	for _, n := range nodes {
		if n != nil {
			kept = append(kept, n)
		}
	}
	return kept
}

func removableBetween(prev, next ast.Node, content string) bool {
	_, prevComment := prev.(*ast.CommentNode)
	_, nextComment := next.(*ast.CommentNode)
	_, prevElement := prev.(*ast.ElementNode)
	_, nextElement := next.(*ast.ElementNode)
	switch {
	case prevComment && nextComment,
		prevComment && nextElement,
		prevElement && nextComment:
		return true
	case prevElement && nextElement:
		return strings.ContainsAny(content, "\r\n")
	}
	return false
}

// condenseSpaces collapses each whitespace run to a single space.
func condenseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for i := 0; i < len(s); i++ {
		if isWhitespace(s[i]) {
			if !inSpace {
				b.WriteByte(' ')
			}
			inSpace = true
			continue
		}
		inSpace = false
		b.WriteByte(s[i])
	}
	return b.String()
}
