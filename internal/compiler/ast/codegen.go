package ast

// VNodeCall is the codegen annotation of an element: createVNode /
// createElementVNode, or their block variants when IsBlock is set.
//
// Exactly one of Tag, TagHelper and TagCall names the vnode type: Tag is a
// quoted element name or a resolved component identifier, TagHelper a
// built-in (Fragment, Teleport, ...), TagCall a resolveDynamicComponent call.
type VNodeCall struct {
	Base
	Tag       string
	TagHelper Helper
	TagCall   *CallExpression

	// Props is *ObjectExpression, *CallExpression (mergeProps, normalizeProps,
	// toHandlers), an ExpressionNode (single v-bind object) or a hoisted
	// placeholder.
	Props Node
	// Children is the child list; Child is used instead for single-node
	// children (text, a slots object, a renderList call, a hoisted array).
	Children []Node
	Child    Node

	PatchFlag    PatchFlag
	DynamicProps Node // *SimpleExpressionNode holding the prop name array
	Directives   *ArrayExpression

	IsBlock         bool
	DisableTracking bool
	IsComponent     bool
}

func (v *VNodeCall) Type() NodeType { return NodeVNodeCall }

// HasTag reports whether the call is for the given built-in helper.
func (v *VNodeCall) HasTag(h Helper) bool { return v.TagHelper == h && v.Tag == "" && v.TagCall == nil }

// HasChildren reports whether any child list or single child is set.
func (v *VNodeCall) HasChildren() bool { return len(v.Children) > 0 || v.Child != nil }

// CallExpression calls a runtime helper.
type CallExpression struct {
	Base
	Callee    Helper
	Arguments []Node
}

func (c *CallExpression) Type() NodeType { return NodeJSCallExpression }

// ObjectExpression is an object literal.
type ObjectExpression struct {
	Base
	Properties []*Property
}

func (o *ObjectExpression) Type() NodeType { return NodeJSObjectExpression }

// Property is one key/value of an ObjectExpression.
type Property struct {
	Base
	Key   ExpressionNode
	Value Node
}

func (p *Property) Type() NodeType { return NodeJSProperty }

// ArrayExpression is an array literal.
type ArrayExpression struct {
	Base
	Elements []Node
}

func (a *ArrayExpression) Type() NodeType { return NodeJSArrayExpression }

// FunctionExpression is an arrow function. Returns is a single expression;
// ReturnsChildren is used by slot functions that return a child list.
type FunctionExpression struct {
	Base
	Params          []Node
	Returns         Node
	ReturnsChildren []Node
	Body            *BlockStatement
	Newline         bool
	IsSlot          bool
	IsNonScopedSlot bool
}

func (f *FunctionExpression) Type() NodeType { return NodeJSFunctionExpression }

// ConditionalExpression is `test ? consequent : alternate`.
type ConditionalExpression struct {
	Base
	Test       Node
	Consequent Node
	Alternate  Node
	Newline    bool
}

func (c *ConditionalExpression) Type() NodeType { return NodeJSConditionalExpression }

// CacheExpression stores Value in the render cache slot Index.
type CacheExpression struct {
	Base
	Index   int
	Value   Node
	IsVNode bool
}

func (c *CacheExpression) Type() NodeType { return NodeJSCacheExpression }

// BlockStatement is a function body.
type BlockStatement struct {
	Base
	Body []Node
}

func (b *BlockStatement) Type() NodeType { return NodeJSBlockStatement }

// NewCall creates a helper call with a stub location.
func NewCall(callee Helper, args ...Node) *CallExpression {
	return &CallExpression{Base: Base{Loc: LocStub}, Callee: callee, Arguments: args}
}

// NewObject creates an object literal.
func NewObject(props []*Property, loc SourceLocation) *ObjectExpression {
	return &ObjectExpression{Base: Base{Loc: loc}, Properties: props}
}

// NewProperty creates an object property.
func NewProperty(key ExpressionNode, value Node) *Property {
	return &Property{Base: Base{Loc: LocStub}, Key: key, Value: value}
}

// NewStaticProperty is NewProperty with a static string key.
func NewStaticProperty(key string, value Node) *Property {
	return NewProperty(NewSimpleExpression(key, true, LocStub, CanStringify), value)
}

// NewArray creates an array literal.
func NewArray(elements []Node, loc SourceLocation) *ArrayExpression {
	return &ArrayExpression{Base: Base{Loc: loc}, Elements: elements}
}

// NewFunction creates an arrow function expression.
func NewFunction(params []Node, returns Node, newline, isSlot bool, loc SourceLocation) *FunctionExpression {
	return &FunctionExpression{
		Base:    Base{Loc: loc},
		Params:  params,
		Returns: returns,
		Newline: newline,
		IsSlot:  isSlot,
	}
}

// NewConditional creates a ternary expression.
func NewConditional(test, consequent, alternate Node, newline bool) *ConditionalExpression {
	return &ConditionalExpression{
		Base:       Base{Loc: LocStub},
		Test:       test,
		Consequent: consequent,
		Alternate:  alternate,
		Newline:    newline,
	}
}
