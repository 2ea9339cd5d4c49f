package ast

// NewRoot creates the root of a template tree.
func NewRoot(children []Node, source string, loc SourceLocation) *RootNode {
	return &RootNode{Base: Base{Loc: loc}, Source: source, Children: children}
}

// NewText creates a text node.
func NewText(content string, loc SourceLocation) *TextNode {
	return &TextNode{Base: Base{Loc: loc}, Content: content}
}

// NewComment creates a comment node.
func NewComment(content string, loc SourceLocation) *CommentNode {
	return &CommentNode{Base: Base{Loc: loc}, Content: content}
}

// NewInterpolation creates an interpolation around content.
func NewInterpolation(content ExpressionNode, loc SourceLocation) *InterpolationNode {
	return &InterpolationNode{Base: Base{Loc: loc}, Content: content}
}

// NewAttribute creates a plain attribute.
func NewAttribute(name string, value *TextNode, loc SourceLocation) *AttributeNode {
	return &AttributeNode{Base: Base{Loc: loc}, Name: name, Value: value}
}

// NewDirective creates a directive.
func NewDirective(name string, arg, exp ExpressionNode, modifiers []string, loc SourceLocation) *DirectiveNode {
	return &DirectiveNode{
		Base:      Base{Loc: loc},
		Name:      name,
		Arg:       arg,
		Exp:       exp,
		Modifiers: modifiers,
	}
}

// NewVNodeCall creates an element vnode annotation. When tracking helpers is
// needed the caller registers them; see transform.Context.NewVNodeCall.
func NewVNodeCall(tag string, props Node, children []Node, loc SourceLocation) *VNodeCall {
	return &VNodeCall{Base: Base{Loc: loc}, Tag: tag, Props: props, Children: children}
}
