package ast

import (
	"strconv"
	"strings"
)

// FindDir returns the first directive of el matching name. With allowEmpty
// false a directive without expression is skipped.
func FindDir(el *ElementNode, name string, allowEmpty bool) *DirectiveNode {
	return FindDirFunc(el, func(n string) bool { return n == name }, allowEmpty)
}

// FindDirFunc is FindDir with a name predicate.
func FindDirFunc(el *ElementNode, match func(string) bool, allowEmpty bool) *DirectiveNode {
	for _, p := range el.Props {
		d, ok := p.(*DirectiveNode)
		if !ok || !match(d.Name) {
			continue
		}
		if allowEmpty || d.Exp != nil {
			return d
		}
	}
	return nil
}

// FindProp returns the attribute or v-bind directive named name.
func FindProp(el *ElementNode, name string, dynamicOnly, allowEmpty bool) Node {
	for _, p := range el.Props {
		switch prop := p.(type) {
		case *AttributeNode:
			if dynamicOnly {
				continue
			}
			if prop.Name == name && (prop.Value != nil || allowEmpty) {
				return prop
			}
		case *DirectiveNode:
			if prop.Name == "bind" && (prop.Exp != nil || allowEmpty) && IsStaticArgOf(prop.Arg, name) {
				return prop
			}
		}
	}
	return nil
}

// IsStaticExp reports whether n is a static simple expression.
func IsStaticExp(n Node) bool {
	s, ok := n.(*SimpleExpressionNode)
	return ok && s.IsStatic
}

// IsStaticArgOf reports whether arg is the static argument name.
func IsStaticArgOf(arg Node, name string) bool {
	s, ok := arg.(*SimpleExpressionNode)
	return ok && s.IsStatic && s.Content == name
}

// IsText reports whether n is text or an interpolation.
func IsText(n Node) bool {
	switch n.(type) {
	case *TextNode, *InterpolationNode:
		return true
	}
	return false
}

// IsVSlot reports whether p is a v-slot directive.
func IsVSlot(p Node) bool {
	d, ok := p.(*DirectiveNode)
	return ok && d.Name == "slot"
}

// IsTemplateNode reports whether n is a <template> wrapper.
func IsTemplateNode(n Node) bool {
	el, ok := n.(*ElementNode)
	return ok && el.TagType == ElementTemplate
}

// IsSlotOutlet reports whether n is a <slot> outlet.
func IsSlotOutlet(n Node) bool {
	el, ok := n.(*ElementNode)
	return ok && el.TagType == ElementSlot
}

// IsCommentOrWhitespace reports whether n is a comment or a whitespace-only
// text node.
func IsCommentOrWhitespace(n Node) bool {
	switch v := n.(type) {
	case *CommentNode:
		return true
	case *TextNode:
		return strings.TrimSpace(v.Content) == ""
	}
	return false
}

// CoreComponent maps a built-in component tag to its runtime helper.
func CoreComponent(tag string) Helper {
	switch tag {
	case "Teleport", "teleport":
		return Teleport
	case "Suspense", "suspense":
		return Suspense
	case "KeepAlive", "keep-alive":
		return KeepAlive
	case "BaseTransition", "base-transition":
		return BaseTransition
	}
	return HelperNone
}

// Camelize turns foo-bar into fooBar.
func Camelize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '-' && i+1 < len(s) && isWordByte(s[i+1]) {
			b.WriteString(strings.ToUpper(s[i+1 : i+2]))
			i++
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// Hyphenate turns fooBar into foo-bar.
func Hyphenate(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			if i > 0 && isWordByte(s[i-1]) {
				b.WriteByte('-')
			}
			b.WriteByte(c + ('a' - 'A'))
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Capitalize upper-cases the first byte.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ToHandlerKey turns click into onClick.
func ToHandlerKey(s string) string {
	if s == "" {
		return ""
	}
	return "on" + Capitalize(s)
}

// ToValidAssetID turns a component or directive name into the identifier
// its resolved value is bound to, e.g. _component_my_button.
func ToValidAssetID(name, kind string) string {
	var b strings.Builder
	b.WriteString("_")
	b.WriteString(kind)
	b.WriteString("_")
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case isWordByte(c):
			b.WriteByte(c)
		case c == '-':
			b.WriteByte('_')
		default:
			b.WriteString(strconv.Itoa(int(c)))
		}
	}
	return b.String()
}

// IsSimpleIdentifier reports whether s is a plain identifier.
func IsSimpleIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '$' || c == '_' || (c|0x20 >= 'a' && c|0x20 <= 'z') {
			continue
		}
		if i > 0 && c >= '0' && c <= '9' {
			continue
		}
		return false
	}
	return true
}

// Quote renders s as a double-quoted JavaScript string literal.
func Quote(s string) string {
	return strconv.Quote(s)
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
