// Package transform rewrites a parsed template tree into the shape the code
// generator consumes. A Context is created per compilation; TraverseNode
// drives the registered node and directive transforms over the tree, and
// HoistStatic and createRootCodegen finish the root metadata.
package transform

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/conduit-lang/stencil/internal/compiler/ast"
	"github.com/conduit-lang/stencil/internal/compiler/errors"
	"github.com/conduit-lang/stencil/internal/compiler/expression"
)

// Options configures Transform.
type Options struct {
	// Filename is used to infer the component's own name for
	// self-references (<FooBar> inside FooBar.vue.html).
	Filename string

	NodeTransforms      []NodeTransform
	DirectiveTransforms map[string]DirectiveTransform

	// PrefixIdentifiers rewrites free identifiers to _ctx.<id>.
	PrefixIdentifiers bool
	HoistStatic       bool
	CacheHandlers     bool
	ScopeID           string
	Slotted           bool

	IsBuiltInComponent func(tag string) ast.Helper
	IsCustomElement    func(tag string) bool
	ExpressionParser   expression.Parser

	OnError errors.Handler
	OnWarn  errors.Handler
	Logger  *zap.Logger
}

// Scopes counts the enclosing scope-introducing constructs.
type Scopes struct {
	VFor  int
	VSlot int
}

// Context is the mutable state of one transform run. It is not safe for
// concurrent use.
type Context struct {
	opts   Options
	logger *zap.Logger
	ids    *ast.IDGen

	Root     *ast.RootNode
	SelfName string

	helpers     map[ast.Helper]int
	helperOrder []ast.Helper
	components  orderedSet
	directives  orderedSet
	hoists      []ast.Node
	imports     []ast.ImportItem
	temps       int
	cached      int
	identifiers map[string]int

	Scopes Scopes

	// traversal cursor
	Parent      ast.ParentNode
	ChildIndex  int
	CurrentNode ast.Node
	InVOnce     bool

	onNodeRemoved func()

	constantCache     map[int]ast.ConstantType
	directiveRuntimes map[int]ast.Helper
	seenOnce          map[int]bool
	seenMemo          map[int]bool
}

type orderedSet struct {
	items []string
	seen  map[string]bool
}

func (s *orderedSet) add(v string) {
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if !s.seen[v] {
		s.seen[v] = true
		s.items = append(s.items, v)
	}
}

// NewContext creates the transform context for root.
func NewContext(root *ast.RootNode, opts Options) *Context {
	if opts.OnError == nil {
		opts.OnError = errors.DefaultOnError
	}
	if opts.OnWarn == nil {
		opts.OnWarn = errors.DefaultOnWarn
	}
	if opts.IsBuiltInComponent == nil {
		opts.IsBuiltInComponent = func(string) ast.Helper { return ast.HelperNone }
	}
	if opts.IsCustomElement == nil {
		opts.IsCustomElement = func(string) bool { return false }
	}
	if opts.ExpressionParser == nil {
		opts.ExpressionParser = expression.Default
	}
	if opts.DirectiveTransforms == nil {
		opts.DirectiveTransforms = map[string]DirectiveTransform{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ids := root.IDs
	if ids == nil {
		ids = &ast.IDGen{}
		root.IDs = ids
	}

	return &Context{
		opts:              opts,
		logger:            logger,
		ids:               ids,
		Root:              root,
		SelfName:          selfName(opts.Filename),
		helpers:           make(map[ast.Helper]int),
		identifiers:       make(map[string]int),
		CurrentNode:       root,
		constantCache:     make(map[int]ast.ConstantType),
		directiveRuntimes: make(map[int]ast.Helper),
		seenOnce:          make(map[int]bool),
		seenMemo:          make(map[int]bool),
	}
}

// selfName turns path/to/foo-bar.vue.html into FooBar.
func selfName(filename string) string {
	if filename == "" {
		return ""
	}
	base := filename
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '/' || base[i] == '\\' {
			base = base[i+1:]
			break
		}
	}
	for i := 0; i < len(base); i++ {
		if base[i] == '.' {
			base = base[:i]
			break
		}
	}
	return ast.Capitalize(ast.Camelize(base))
}

// Options returns the options the context was created with, defaults
// applied.
func (c *Context) Options() Options { return c.opts }

// Logger returns the context logger, never nil.
func (c *Context) Logger() *zap.Logger { return c.logger }

// Helper records a use of h and returns it.
func (c *Context) Helper(h ast.Helper) ast.Helper {
	if _, ok := c.helpers[h]; !ok {
		c.helperOrder = append(c.helperOrder, h)
	}
	c.helpers[h]++
	return h
}

// RemoveHelper drops one use of h. The helper disappears from the output once
// its count reaches zero.
func (c *Context) RemoveHelper(h ast.Helper) {
	count, ok := c.helpers[h]
	if !ok {
		return
	}
	if count > 1 {
		c.helpers[h] = count - 1
		return
	}
	delete(c.helpers, h)
	for i, o := range c.helperOrder {
		if o == h {
			c.helperOrder = append(c.helperOrder[:i], c.helperOrder[i+1:]...)
			break
		}
	}
}

// HelperString records a use of h and returns the name generated code
// refers to it by.
func (c *Context) HelperString(h ast.Helper) string {
	return c.Helper(h).Alias()
}

// HelperCount returns the current use count of h.
func (c *Context) HelperCount(h ast.Helper) int { return c.helpers[h] }

// Helpers returns the helpers in use, in first-use order.
func (c *Context) Helpers() []ast.Helper {
	out := make([]ast.Helper, len(c.helperOrder))
	copy(out, c.helperOrder)
	return out
}

// AddComponent registers a component that must be resolved at runtime.
func (c *Context) AddComponent(name string) { c.components.add(name) }

// AddDirective registers a custom directive that must be resolved at runtime.
func (c *Context) AddDirective(name string) { c.directives.add(name) }

// AddImport requests a module import.
func (c *Context) AddImport(item ast.ImportItem) { c.imports = append(c.imports, item) }

// AddTemp reserves a temporary variable and returns its index.
func (c *Context) AddTemp() int {
	c.temps++
	return c.temps - 1
}

// AddIdentifiers marks the names bound by exp as local for the scope being
// entered. Param expressions carry their declared names; a plain simple
// expression binds its own content.
func (c *Context) AddIdentifiers(exp ast.ExpressionNode) {
	for _, name := range boundNames(exp) {
		c.AddIdentifier(name)
	}
}

// RemoveIdentifiers undoes AddIdentifiers.
func (c *Context) RemoveIdentifiers(exp ast.ExpressionNode) {
	for _, name := range boundNames(exp) {
		c.RemoveIdentifier(name)
	}
}

// AddIdentifier marks a single name as local.
func (c *Context) AddIdentifier(name string) {
	c.identifiers[name]++
}

// RemoveIdentifier drops one binding of name.
func (c *Context) RemoveIdentifier(name string) {
	if c.identifiers[name] <= 1 {
		delete(c.identifiers, name)
		return
	}
	c.identifiers[name]--
}

// IsIdentifier reports whether name is bound by an enclosing v-for or
// v-slot scope.
func (c *Context) IsIdentifier(name string) bool {
	return c.identifiers[name] > 0
}

func boundNames(exp ast.ExpressionNode) []string {
	switch e := exp.(type) {
	case *ast.SimpleExpressionNode:
		if len(e.Identifiers) > 0 {
			return e.Identifiers
		}
		return []string{e.Content}
	case *ast.CompoundExpressionNode:
		return e.Identifiers
	}
	return nil
}

// Hoist appends exp to the hoist registry and returns the placeholder that
// replaces it.
func (c *Context) Hoist(exp ast.Node) *ast.SimpleExpressionNode {
	c.hoists = append(c.hoists, exp)
	id := ast.NewSimpleExpression(fmt.Sprintf("_hoisted_%d", len(c.hoists)), false, exp.Location(), ast.CanHoist)
	id.Hoisted = exp
	c.ensureID(id)
	c.logger.Debug("hoisted node",
		zap.String("placeholder", id.Content),
		zap.Stringer("type", exp.Type()))
	return id
}

// Hoists returns the hoist registry.
func (c *Context) Hoists() []ast.Node { return c.hoists }

// Cache wraps exp in a render cache slot.
func (c *Context) Cache(exp ast.Node, isVNode bool) *ast.CacheExpression {
	ce := &ast.CacheExpression{
		Base:    ast.Base{Loc: exp.Location()},
		Index:   c.cached,
		Value:   exp,
		IsVNode: isVNode,
	}
	c.cached++
	c.ensureID(ce)
	c.logger.Debug("cached expression", zap.Int("slot", ce.Index), zap.Bool("vnode", isVNode))
	return ce
}

// NextCacheIndex reserves a cache slot without wrapping anything; used by
// v-memo.
func (c *Context) NextCacheIndex() int {
	c.cached++
	return c.cached - 1
}

// ReplaceNode swaps the current node for n in its parent's child list.
func (c *Context) ReplaceNode(n ast.Node) {
	if c.Parent == nil {
		panic("transform: cannot replace root node")
	}
	c.ensureID(n)
	children := c.Parent.ChildNodes()
	children[c.ChildIndex] = n
	c.CurrentNode = n
}

// RemoveNode removes n from the current parent's child list, or the current
// node when n is nil. Removing a sibling before the cursor shifts the
// traversal index so no sibling is skipped.
func (c *Context) RemoveNode(n ast.Node) {
	if c.Parent == nil {
		panic("transform: cannot remove root node")
	}
	list := c.Parent.ChildNodes()
	index := -1
	switch {
	case n == nil:
		if c.CurrentNode != nil {
			index = c.ChildIndex
		}
	default:
		for i, child := range list {
			if child == n {
				index = i
				break
			}
		}
	}
	if index < 0 {
		panic("transform: node being removed is not a child of current parent")
	}

	if n == nil || n == c.CurrentNode {
		c.CurrentNode = nil
		c.nodeRemoved()
	} else if c.ChildIndex > index {
		c.ChildIndex--
		c.nodeRemoved()
	}
	c.Parent.SetChildNodes(append(list[:index:index], list[index+1:]...))
}

func (c *Context) nodeRemoved() {
	if c.onNodeRemoved != nil {
		c.onNodeRemoved()
	}
}

// OnError reports an error through the configured sink.
func (c *Context) OnError(e *errors.CompilerError) {
	c.opts.OnError(e)
}

// OnWarn reports a warning through the configured sink.
func (c *Context) OnWarn(e *errors.CompilerError) {
	c.opts.OnWarn(e)
}

func (c *Context) reportError(code errors.ErrorCode, loc ast.SourceLocation, additional ...string) {
	c.OnError(errors.New(code, errors.At(loc), additional...))
}

func (c *Context) ensureID(n ast.Node) int {
	return c.ids.Assign(n)
}

// NewVNodeCall builds a vnode annotation and records the creation helpers it
// needs.
func (c *Context) NewVNodeCall(tag vnodeTag, props ast.Node, children []ast.Node, child ast.Node, patchFlag ast.PatchFlag,
	dynamicProps ast.Node, directives *ast.ArrayExpression, isBlock, disableTracking, isComponent bool, loc ast.SourceLocation) *ast.VNodeCall {
	if isBlock {
		c.Helper(ast.OpenBlock)
		c.Helper(ast.BlockHelper(false, isComponent))
	} else {
		c.Helper(ast.VNodeHelper(false, isComponent))
	}
	if directives != nil {
		c.Helper(ast.WithDirectives)
	}
	v := &ast.VNodeCall{
		Base:            ast.Base{Loc: loc},
		Tag:             tag.name,
		TagHelper:       tag.helper,
		TagCall:         tag.call,
		Props:           props,
		Children:        children,
		Child:           child,
		PatchFlag:       patchFlag,
		DynamicProps:    dynamicProps,
		Directives:      directives,
		IsBlock:         isBlock,
		DisableTracking: disableTracking,
		IsComponent:     isComponent,
	}
	c.ensureID(v)
	return v
}

// vnodeTag is the resolved type argument of a vnode call.
type vnodeTag struct {
	name   string
	helper ast.Helper
	call   *ast.CallExpression
}

func helperTag(h ast.Helper) vnodeTag { return vnodeTag{helper: h} }
