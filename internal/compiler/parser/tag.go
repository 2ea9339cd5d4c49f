package parser

import (
	"strings"

	"github.com/conduit-lang/stencil/internal/compiler/ast"
	"github.com/conduit-lang/stencil/internal/compiler/errors"
)

type tagType int

const (
	tagStart tagType = iota
	tagEnd
)

func (p *Parser) parseElement(ancestors []*ast.ElementNode) *ast.ElementNode {
	wasInPre := p.inPre
	wasInVPre := p.inVPre
	parent := lastElement(ancestors)
	element := p.parseTag(tagStart, parent)
	isPreBoundary := p.inPre && !wasInPre
	isVPreBoundary := p.inVPre && !wasInVPre

	if element.IsSelfClosing || p.opts.IsVoidTag(element.Tag) {
		if isPreBoundary {
			p.inPre = false
		}
		if isVPreBoundary {
			p.inVPre = false
		}
		return element
	}

	ancestors = append(ancestors, element)
	mode := p.opts.GetTextMode(element, parent)
	element.Children = p.parseChildren(mode, ancestors)

	if startsWithEndTagOpen(p.cur.Rest(), element.Tag) {
		p.parseTag(tagEnd, parent)
	} else {
		p.emitError(errors.XMissingEndTag, 0, element.Loc.Start)
		if p.cur.Done() && strings.EqualFold(element.Tag, "script") && len(element.Children) > 0 {
			if strings.HasPrefix(element.Children[0].Location().Source, "<!--") {
				p.emitError(errors.EOFInScriptHTMLCommentLikeText, 0)
			}
		}
	}

	element.Loc = p.cur.Selection(element.Loc.Start)

	if isPreBoundary {
		p.inPre = false
	}
	if isVPreBoundary {
		p.inVPre = false
	}
	return element
}

// parseTag parses a start or end tag. End tags are consumed and discarded.
//
// Attribute parsing depends on whether the element is inside v-pre, which
// is only known once a v-pre attribute has been seen. The attribute list is
// therefore parsed on a fork of the cursor; if the first pass finds v-pre,
// the list is parsed a second time from the same starting point in v-pre
// mode and the v-pre attribute itself is dropped.
func (p *Parser) parseTag(typ tagType, parent *ast.ElementNode) *ast.ElementNode {
	start := p.cur.Pos()
	n := 1
	if p.cur.At(1) == '/' {
		n = 2
	}
	nameStart := n
	for n < p.cur.Len() && isTagNameChar(p.cur.At(n)) {
		n++
	}
	tag := p.cur.Rest()[nameStart:n]
	ns := p.opts.GetNamespace(tag, parent)

	p.cur.Advance(n)
	p.cur.AdvanceSpaces()

	if p.opts.IsPreTag(tag) {
		p.inPre = true
	}

	live := p.cur
	p.cur = live.Fork()
	props := p.parseAttributes(typ)

	if typ == tagStart && !p.inVPre && hasDirective(props, "pre") {
		p.inVPre = true
		p.cur = live.Fork()
		reparsed := p.parseAttributes(typ)
		props = props[:0]
		for _, prop := range reparsed {
			if a, ok := prop.(*ast.AttributeNode); ok && a.Name == "v-pre" {
				continue
			}
			props = append(props, prop)
		}
	}
	live.Join(p.cur)
	p.cur = live

	isSelfClosing := false
	if p.cur.Done() {
		p.emitError(errors.EOFInTag, 0)
	} else {
		isSelfClosing = p.cur.HasPrefix("/>")
		if typ == tagEnd && isSelfClosing {
			p.emitError(errors.EndTagWithTrailingSolidus, 0)
		}
		if isSelfClosing {
			p.cur.Advance(2)
		} else {
			p.cur.Advance(1)
		}
	}

	if typ == tagEnd {
		return nil
	}

	tagKind := ast.ElementPlain
	if !p.inVPre {
		switch {
		case tag == "slot":
			tagKind = ast.ElementSlot
		case tag == "template":
			for _, prop := range props {
				if d, ok := prop.(*ast.DirectiveNode); ok && isSpecialTemplateDirective(d.Name) {
					tagKind = ast.ElementTemplate
					break
				}
			}
		case p.isComponent(tag, props):
			tagKind = ast.ElementComponent
		}
	}

	el := &ast.ElementNode{
		Base:          ast.Base{Loc: p.cur.Selection(start)},
		Tag:           tag,
		Ns:            ns,
		TagType:       tagKind,
		Props:         props,
		IsSelfClosing: isSelfClosing,
	}
	p.track(el)
	return el
}

func hasDirective(props []ast.Node, name string) bool {
	for _, prop := range props {
		if d, ok := prop.(*ast.DirectiveNode); ok && d.Name == name {
			return true
		}
	}
	return false
}

// isComponent classifies a tag from its casing, the configured predicates
// and an is="vue:..." or v-is override.
func (p *Parser) isComponent(tag string, props []ast.Node) bool {
	if p.opts.IsCustomElement(tag) {
		return false
	}
	if tag == "component" || (tag[0] >= 'A' && tag[0] <= 'Z') ||
		ast.CoreComponent(tag) != ast.HelperNone ||
		p.opts.IsBuiltInComponent(tag) != ast.HelperNone ||
		(p.opts.IsNativeTag != nil && !p.opts.IsNativeTag(tag)) {
		return true
	}
	for _, prop := range props {
		switch pr := prop.(type) {
		case *ast.AttributeNode:
			if pr.Name == "is" && pr.Value != nil && strings.HasPrefix(pr.Value.Content, "vue:") {
				return true
			}
		case *ast.DirectiveNode:
			if pr.Name == "is" {
				return true
			}
		}
	}
	return false
}

func (p *Parser) parseAttributes(typ tagType) []ast.Node {
	var props []ast.Node
	names := make(map[string]bool)
	for !p.cur.Done() && !p.cur.HasPrefix(">") && !p.cur.HasPrefix("/>") {
		if p.cur.HasPrefix("/") {
			p.emitError(errors.UnexpectedSolidusInTag, 0)
			p.cur.Advance(1)
			p.cur.AdvanceSpaces()
			continue
		}
		if typ == tagEnd {
			p.emitError(errors.EndTagWithAttributes, 0)
		}

		attr := p.parseAttribute(names)

		if a, ok := attr.(*ast.AttributeNode); ok && a.Value != nil && a.Name == "class" {
			a.Value.Content = strings.TrimSpace(condenseSpaces(a.Value.Content))
		}

		if typ == tagStart {
			props = append(props, attr)
		}

		if !p.cur.Done() && isTagNameChar(p.cur.At(0)) {
			p.emitError(errors.MissingWhitespaceBetweenAttributes, 0)
		}
		p.cur.AdvanceSpaces()
	}
	return props
}

type attrValue struct {
	content  string
	isQuoted bool
	closed   bool
	loc      ast.SourceLocation
}

func (p *Parser) parseAttribute(names map[string]bool) ast.Node {
	start := p.cur.Pos()
	n := 1
	for n < p.cur.Len() && isAttrNameChar(p.cur.At(n)) {
		n++
	}
	name := p.cur.Rest()[:n]

	if names[name] {
		p.emitError(errors.DuplicateAttribute, 0)
	}
	names[name] = true

	if name[0] == '=' {
		p.emitError(errors.UnexpectedEqualsSignBeforeAttributeName, 0)
	}
	for i := 0; i < len(name); i++ {
		if isUnexpectedInAttrName(name[i]) {
			p.emitError(errors.UnexpectedCharacterInAttributeName, i)
		}
	}

	p.cur.Advance(len(name))

	var value *attrValue
	if p.followedByEquals() {
		p.cur.AdvanceSpaces()
		p.cur.Advance(1)
		p.cur.AdvanceSpaces()
		value = p.parseAttributeValue()
		if value == nil {
			p.emitError(errors.MissingAttributeValue, 0)
		}
	}
	loc := p.cur.Selection(start)

	if !p.inVPre && looksLikeDirective(name) {
		return p.buildDirective(name, start, loc, value)
	}

	if !p.inVPre && strings.HasPrefix(name, "v-") {
		p.emitError(errors.XMissingDirectiveName, 0)
	}

	var text *ast.TextNode
	if value != nil {
		text = ast.NewText(value.content, value.loc)
		p.track(text)
	}
	attr := ast.NewAttribute(name, text, loc)
	p.track(attr)
	return attr
}

func (p *Parser) followedByEquals() bool {
	rest := p.cur.Rest()
	for i := 0; i < len(rest); i++ {
		if rest[i] == '=' {
			return true
		}
		if !isWhitespace(rest[i]) {
			return false
		}
	}
	return false
}

func (p *Parser) buildDirective(name string, start ast.Position, loc ast.SourceLocation, value *attrValue) *ast.DirectiveNode {
	parts := splitDirective(name)
	isPropShorthand := name[0] == sigilProp

	dirName := parts.name
	if dirName == "" {
		switch name[0] {
		case sigilProp, sigilBind:
			dirName = "bind"
		case sigilOn:
			dirName = "on"
		default:
			dirName = "slot"
		}
	}

	var arg ast.ExpressionNode
	if parts.arg != "" {
		isSlot := dirName == "slot"
		argLen := len(parts.arg)
		if isSlot {
			argLen += len(parts.rest)
		}
		argStart := ast.AdvancePositionWithClone(start, name, parts.argOffset)
		argEnd := ast.AdvancePositionWithClone(argStart, name[parts.argOffset:], argLen)

		content := parts.arg
		isStatic := true
		if strings.HasPrefix(content, "[") {
			isStatic = false
			if !strings.HasSuffix(content, "]") {
				p.emitError(errors.XMissingDynamicDirectiveArgumentEnd, 0)
				content = content[1:]
			} else {
				content = content[1 : len(content)-1]
			}
		} else if isSlot {
			// slot names may contain dots
			content += parts.rest
		}
		constType := ast.NotConstant
		if isStatic {
			constType = ast.CanStringify
		}
		a := ast.NewSimpleExpression(content, isStatic, p.cur.Selection(argStart, argEnd), constType)
		p.track(a)
		arg = a
	}

	var exp ast.ExpressionNode
	if value != nil {
		valueLoc := value.loc
		if value.isQuoted {
			inner := valueLoc.Source[1:]
			if value.closed {
				inner = inner[:len(inner)-1]
			}
			valueLoc.Start = ast.AdvancePositionWithClone(valueLoc.Start, valueLoc.Source, 1)
			valueLoc.End = ast.AdvancePositionWithClone(valueLoc.Start, inner, len(inner))
			valueLoc.Source = inner
		}
		e := ast.NewSimpleExpression(value.content, false, valueLoc, ast.NotConstant)
		p.track(e)
		exp = e
	}

	modifiers := []string{}
	if parts.rest != "" {
		modifiers = strings.Split(parts.rest[1:], ".")
	}
	if isPropShorthand {
		modifiers = append(modifiers, "prop")
	}

	d := ast.NewDirective(dirName, arg, exp, modifiers, loc)
	d.RawName = name
	p.track(d)
	return d
}

func (p *Parser) parseAttributeValue() *attrValue {
	start := p.cur.Pos()
	quote := p.cur.At(0)
	v := &attrValue{isQuoted: quote == '"' || quote == '\''}
	if v.isQuoted {
		p.cur.Advance(1)
		end := strings.IndexByte(p.cur.Rest(), quote)
		if end == -1 {
			v.content = p.parseTextData(p.cur.Len(), TextAttributeValue)
		} else {
			v.content = p.parseTextData(end, TextAttributeValue)
			p.cur.Advance(1)
			v.closed = true
		}
	} else {
		n := 0
		for n < p.cur.Len() && isUnquotedValueChar(p.cur.At(n)) {
			n++
		}
		if n == 0 {
			return nil
		}
		raw := p.cur.Peek(n)
		for i := 0; i < len(raw); i++ {
			if isUnexpectedInUnquotedValue(raw[i]) {
				p.emitError(errors.UnexpectedCharacterInUnquotedAttributeValue, i)
			}
		}
		v.content = p.parseTextData(n, TextAttributeValue)
	}
	v.loc = p.cur.Selection(start)
	return v
}
