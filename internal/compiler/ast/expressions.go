package ast

// ConstantType is the constancy tier of an expression or subtree. Tiers are
// totally ordered: NotConstant < CanSkipPatch < CanHoist < CanStringify.
type ConstantType int

const (
	NotConstant ConstantType = iota
	CanSkipPatch
	CanHoist
	CanStringify
)

func (c ConstantType) String() string {
	switch c {
	case CanSkipPatch:
		return "CAN_SKIP_PATCH"
	case CanHoist:
		return "CAN_HOIST"
	case CanStringify:
		return "CAN_STRINGIFY"
	default:
		return "NOT_CONSTANT"
	}
}

// ExpressionNode is a Simple or Compound expression.
type ExpressionNode interface {
	Node
	isExpression()
}

// SimpleExpressionNode is raw expression text. Static expressions are string
// literals (an attribute name, a static directive argument).
type SimpleExpressionNode struct {
	Base
	Content   string
	IsStatic  bool
	ConstType ConstantType
	// Hoisted points at the original node when this expression is a
	// _hoisted_N placeholder.
	Hoisted Node
	// Identifiers introduced by this expression (function params, slot
	// props) when prefixing identifiers.
	Identifiers  []string
	IsHandlerKey bool
}

func (s *SimpleExpressionNode) Type() NodeType { return NodeSimpleExpression }
func (s *SimpleExpressionNode) isExpression()  {}

// CompoundPart is one fragment of a compound expression: a raw code string,
// a runtime helper reference, or a nested node.
type CompoundPart interface {
	part()
}

// Raw is a literal code fragment inside a compound expression.
type Raw string

func (Raw) part() {}

// CompoundExpressionNode is an expression whose identifiers were rewritten
// individually, kept as ordered fragments.
type CompoundExpressionNode struct {
	Base
	Children     []CompoundPart
	Identifiers  []string
	IsHandlerKey bool
}

func (c *CompoundExpressionNode) Type() NodeType { return NodeCompoundExpression }
func (c *CompoundExpressionNode) isExpression()  {}

// NewSimpleExpression creates a simple expression node.
func NewSimpleExpression(content string, isStatic bool, loc SourceLocation, constType ConstantType) *SimpleExpressionNode {
	if isStatic {
		constType = CanStringify
	}
	return &SimpleExpressionNode{
		Base:      Base{Loc: loc},
		Content:   content,
		IsStatic:  isStatic,
		ConstType: constType,
	}
}

// Code wraps a raw code snippet (a literal, a generated identifier) as a
// non-static expression without location.
func Code(content string) *SimpleExpressionNode {
	return NewSimpleExpression(content, false, LocStub, NotConstant)
}

// ConstCode is Code for snippets known to never change.
func ConstCode(content string) *SimpleExpressionNode {
	return NewSimpleExpression(content, false, LocStub, CanStringify)
}

// NewCompoundExpression creates a compound expression.
func NewCompoundExpression(parts []CompoundPart, loc SourceLocation) *CompoundExpressionNode {
	return &CompoundExpressionNode{Base: Base{Loc: loc}, Children: parts}
}

// ExpressionText renders an expression back to code, resolving helpers to
// their aliased names. It is used for keys, diagnostics and the handoff view.
func ExpressionText(n Node) string {
	switch e := n.(type) {
	case nil:
		return ""
	case *SimpleExpressionNode:
		return e.Content
	case *CompoundExpressionNode:
		var out []byte
		for _, p := range e.Children {
			out = append(out, partText(p)...)
		}
		return string(out)
	case *InterpolationNode:
		return ExpressionText(e.Content)
	case *TextNode:
		return e.Content
	default:
		return ""
	}
}

func partText(p CompoundPart) string {
	switch v := p.(type) {
	case Raw:
		return string(v)
	case Helper:
		return v.Alias()
	case Node:
		return ExpressionText(v)
	default:
		return ""
	}
}
