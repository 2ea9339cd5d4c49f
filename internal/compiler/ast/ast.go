// Package ast defines the node model of the template compiler: the template
// tree produced by the parser, the expression nodes rewritten by transforms,
// and the codegen annotations handed to the code generator.
package ast

// NodeType tags every node variant.
type NodeType int

const (
	NodeRoot NodeType = iota
	NodeElement
	NodeText
	NodeComment
	NodeSimpleExpression
	NodeInterpolation
	NodeAttribute
	NodeDirective
	NodeCompoundExpression
	NodeIf
	NodeIfBranch
	NodeFor
	NodeTextCall

	// codegen
	NodeVNodeCall
	NodeJSCallExpression
	NodeJSObjectExpression
	NodeJSProperty
	NodeJSArrayExpression
	NodeJSFunctionExpression
	NodeJSConditionalExpression
	NodeJSCacheExpression
	NodeJSBlockStatement
)

var nodeTypeNames = [...]string{
	NodeRoot:                    "Root",
	NodeElement:                 "Element",
	NodeText:                    "Text",
	NodeComment:                 "Comment",
	NodeSimpleExpression:        "SimpleExpression",
	NodeInterpolation:           "Interpolation",
	NodeAttribute:               "Attribute",
	NodeDirective:               "Directive",
	NodeCompoundExpression:      "CompoundExpression",
	NodeIf:                      "If",
	NodeIfBranch:                "IfBranch",
	NodeFor:                     "For",
	NodeTextCall:                "TextCall",
	NodeVNodeCall:               "VNodeCall",
	NodeJSCallExpression:        "JSCallExpression",
	NodeJSObjectExpression:      "JSObjectExpression",
	NodeJSProperty:              "JSProperty",
	NodeJSArrayExpression:       "JSArrayExpression",
	NodeJSFunctionExpression:    "JSFunctionExpression",
	NodeJSConditionalExpression: "JSConditionalExpression",
	NodeJSCacheExpression:       "JSCacheExpression",
	NodeJSBlockStatement:        "JSBlockStatement",
}

func (t NodeType) String() string {
	if int(t) >= 0 && int(t) < len(nodeTypeNames) {
		return nodeTypeNames[t]
	}
	return "Unknown"
}

// Node is the closed set of tree variants. Every node carries a location and
// a stable integer id used as the key of per-compilation side tables.
type Node interface {
	Type() NodeType
	Location() SourceLocation
	ID() int
	setID(int)
	part()
}

// Base is embedded by every node variant.
type Base struct {
	Loc SourceLocation
	id  int
}

// Location returns the node's source span.
func (b *Base) Location() SourceLocation { return b.Loc }

// ID returns the node id, 0 when not yet assigned.
func (b *Base) ID() int { return b.id }

func (b *Base) setID(id int) { b.id = id }
func (b *Base) part()        {}

// IDGen hands out node ids. The parser creates one per compilation and stores
// it on the Root so that transforms keep numbering synthesized nodes.
type IDGen struct {
	next int
}

// Assign gives n an id if it has none and returns it.
func (g *IDGen) Assign(n Node) int {
	if n == nil {
		return 0
	}
	if n.ID() == 0 {
		g.next++
		n.setID(g.next)
	}
	return n.ID()
}

// Count returns how many ids were handed out.
func (g *IDGen) Count() int { return g.next }

// ParentNode is implemented by the variants that own a child sequence.
type ParentNode interface {
	Node
	ChildNodes() []Node
	SetChildNodes([]Node)
}

// Namespace of an element.
type Namespace int

const (
	NamespaceHTML Namespace = iota
	NamespaceSVG
	NamespaceMathML
)

func (n Namespace) String() string {
	switch n {
	case NamespaceSVG:
		return "svg"
	case NamespaceMathML:
		return "mathml"
	default:
		return "html"
	}
}

// ElementType classifies an element tag.
type ElementType int

const (
	ElementPlain ElementType = iota
	ElementComponent
	ElementSlot
	ElementTemplate
)

func (e ElementType) String() string {
	switch e {
	case ElementComponent:
		return "component"
	case ElementSlot:
		return "slot"
	case ElementTemplate:
		return "template"
	default:
		return "element"
	}
}

// ImportItem is a module import requested by a transform.
type ImportItem struct {
	Exp  ExpressionNode
	Path string
}

// RootNode is the top of the tree. The metadata fields below Children are
// filled in exactly once, after transform, and are read-only afterwards.
type RootNode struct {
	Base
	Source   string
	Children []Node
	IDs      *IDGen

	Helpers     []Helper
	Components  []string
	Directives  []string
	Imports     []ImportItem
	Hoists      []Node
	Temps       int
	Cached      int
	Codegen     Node
	Transformed bool
}

func (r *RootNode) Type() NodeType         { return NodeRoot }
func (r *RootNode) ChildNodes() []Node     { return r.Children }
func (r *RootNode) SetChildNodes(c []Node) { r.Children = c }

// ElementNode covers plain elements, components, slot outlets and templates.
//
// Codegen holds the annotation built by transforms:
//   - plain element / component: *VNodeCall, or *SimpleExpressionNode when hoisted,
//     or *CacheExpression under v-once, or *CallExpression under v-memo
//   - slot outlet: *CallExpression (renderSlot) or *CacheExpression
//   - template: nil
type ElementNode struct {
	Base
	Tag           string
	Ns            Namespace
	TagType       ElementType
	Props         []Node // *AttributeNode | *DirectiveNode
	Children      []Node
	IsSelfClosing bool
	Codegen       Node
}

func (e *ElementNode) Type() NodeType         { return NodeElement }
func (e *ElementNode) ChildNodes() []Node     { return e.Children }
func (e *ElementNode) SetChildNodes(c []Node) { e.Children = c }

// TextNode is literal text, already entity-decoded.
type TextNode struct {
	Base
	Content string
}

func (t *TextNode) Type() NodeType { return NodeText }

// CommentNode is an HTML comment.
type CommentNode struct {
	Base
	Content string
}

func (c *CommentNode) Type() NodeType { return NodeComment }

// InterpolationNode wraps a mustache expression.
type InterpolationNode struct {
	Base
	Content ExpressionNode
}

func (i *InterpolationNode) Type() NodeType { return NodeInterpolation }

// AttributeNode is a plain attribute. Value is nil for bare attributes.
type AttributeNode struct {
	Base
	Name  string
	Value *TextNode
}

func (a *AttributeNode) Type() NodeType { return NodeAttribute }

// DirectiveNode is a v- prefixed (or shorthand) attribute.
type DirectiveNode struct {
	Base
	Name      string
	Exp       ExpressionNode
	Arg       ExpressionNode
	Modifiers []string
	// RawName is the attribute name as written, kept for v-pre re-parsing
	// and diagnostics.
	RawName  string
	ForParse *ForParseResult
}

func (d *DirectiveNode) Type() NodeType { return NodeDirective }

// TextCallNode is a text child pre-converted to a createTextVNode call.
type TextCallNode struct {
	Base
	Content Node // *TextNode | *InterpolationNode | *CompoundExpressionNode
	Codegen Node // *CallExpression, or *SimpleExpressionNode when hoisted
}

func (t *TextCallNode) Type() NodeType { return NodeTextCall }

// IfNode groups adjacent v-if / v-else-if / v-else elements.
type IfNode struct {
	Base
	Branches []*IfBranchNode
	Codegen  Node // *ConditionalExpression | *CacheExpression | *VNodeCall
}

func (i *IfNode) Type() NodeType { return NodeIf }

// IfBranchNode is one arm of an IfNode. Condition is nil for v-else.
type IfBranchNode struct {
	Base
	Condition    ExpressionNode
	Children     []Node
	UserKey      Node // *AttributeNode | *DirectiveNode
	IsTemplateIf bool
}

func (b *IfBranchNode) Type() NodeType         { return NodeIfBranch }
func (b *IfBranchNode) ChildNodes() []Node     { return b.Children }
func (b *IfBranchNode) SetChildNodes(c []Node) { b.Children = c }

// ForParseResult is the structural breakdown of a v-for expression.
// Aliases keeps the positional tuple as written, with nil holes.
type ForParseResult struct {
	Source    ExpressionNode
	Value     ExpressionNode
	Key       ExpressionNode
	Index     ExpressionNode
	Aliases   []ExpressionNode
	Finalized bool
}

// ForNode is an element (or template) rendered once per item of Source.
type ForNode struct {
	Base
	Source     ExpressionNode
	ValueAlias ExpressionNode
	KeyAlias   ExpressionNode
	IndexAlias ExpressionNode
	Parse      *ForParseResult
	Children   []Node
	Codegen    Node // *VNodeCall | *CacheExpression
}

func (f *ForNode) Type() NodeType         { return NodeFor }
func (f *ForNode) ChildNodes() []Node     { return f.Children }
func (f *ForNode) SetChildNodes(c []Node) { f.Children = c }
