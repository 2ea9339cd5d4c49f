package transform

import (
	"slices"

	"go.uber.org/zap"

	"github.com/conduit-lang/stencil/internal/compiler/ast"
)

// ExitFn runs after a node's subtree has been traversed.
type ExitFn func()

// NodeTransform is invoked on entering every node. It returns zero, one or
// several exit callbacks. Exit callbacks of all transforms run in reverse
// registration order once the subtree is done.
type NodeTransform func(node ast.Node, ctx *Context) []ExitFn

// DirectiveResult is what a DirectiveTransform produces for one directive.
type DirectiveResult struct {
	Props []*ast.Property
	// NeedRuntime keeps the directive in the runtime directive list.
	NeedRuntime bool
	// Runtime is the helper implementing the directive at runtime, when it is
	// a built-in one rather than a user directive resolved by name.
	Runtime ast.Helper
}

// DirectiveTransform turns a directive on an element into vnode props.
type DirectiveTransform func(dir *ast.DirectiveNode, node *ast.ElementNode, ctx *Context) DirectiveResult

// StructuralFn is the body of a structural directive transform.
type StructuralFn func(node *ast.ElementNode, dir *ast.DirectiveNode, ctx *Context) ExitFn

// Transform runs the configured transforms over root, hoists static content
// when enabled and fills in the root's codegen metadata.
func Transform(root *ast.RootNode, opts Options) {
	ctx := NewContext(root, opts)
	TraverseNode(root, ctx)
	if ctx.opts.HoistStatic {
		HoistStatic(root, ctx)
	}
	createRootCodegen(root, ctx)
	finalize(root, ctx)
}

func finalize(root *ast.RootNode, ctx *Context) {
	root.Helpers = ctx.Helpers()
	root.Components = slices.Clone(ctx.components.items)
	root.Directives = slices.Clone(ctx.directives.items)
	root.Imports = ctx.imports
	root.Hoists = ctx.hoists
	root.Temps = ctx.temps
	root.Cached = ctx.cached
	root.Transformed = true

	ctx.logger.Debug("transform finished",
		zap.Int("helpers", len(root.Helpers)),
		zap.Int("hoists", len(root.Hoists)),
		zap.Int("cached", root.Cached),
		zap.Int("nodes", ctx.ids.Count()))
}

// TraverseNode applies the node transforms to node and walks its subtree.
func TraverseNode(node ast.Node, ctx *Context) {
	ctx.CurrentNode = node
	var exits []ExitFn
	for _, transform := range ctx.opts.NodeTransforms {
		exits = append(exits, transform(node, ctx)...)
		if ctx.CurrentNode == nil {
			// removed
			return
		}
		// may have been replaced
		node = ctx.CurrentNode
	}

	switch n := node.(type) {
	case *ast.CommentNode:
		ctx.Helper(ast.CreateComment)
	case *ast.InterpolationNode:
		ctx.Helper(ast.ToDisplayString)
	case *ast.IfNode:
		for _, branch := range n.Branches {
			TraverseNode(branch, ctx)
		}
	case ast.ParentNode:
		TraverseChildren(n, ctx)
	}

	ctx.CurrentNode = node
	for i := len(exits) - 1; i >= 0; i-- {
		exits[i]()
	}
}

// TraverseChildren walks the children of parent. Children removed during
// the walk do not cause siblings to be skipped.
func TraverseChildren(parent ast.ParentNode, ctx *Context) {
	prevParent, prevIndex, prevRemoved := ctx.Parent, ctx.ChildIndex, ctx.onNodeRemoved
	defer func() {
		ctx.Parent, ctx.ChildIndex, ctx.onNodeRemoved = prevParent, prevIndex, prevRemoved
	}()

	i := 0
	removed := func() { i-- }
	for ; i < len(parent.ChildNodes()); i++ {
		ctx.Parent = parent
		ctx.ChildIndex = i
		ctx.onNodeRemoved = removed
		TraverseNode(parent.ChildNodes()[i], ctx)
	}
}

// StructuralDirective wraps fn into a node transform that fires for every
// directive whose name matches. Matched directives are removed from the
// element before fn runs so that a re-entrant traversal of the same element
// does not process them again.
func StructuralDirective(match func(name string) bool, fn StructuralFn) NodeTransform {
	return func(node ast.Node, ctx *Context) []ExitFn {
		el, ok := node.(*ast.ElementNode)
		if !ok {
			return nil
		}
		// structural directives on <template v-slot> are handled by the slot
		// transform
		if el.TagType == ast.ElementTemplate && slices.ContainsFunc(el.Props, ast.IsVSlot) {
			return nil
		}
		var exits []ExitFn
		for i := 0; i < len(el.Props); i++ {
			dir, ok := el.Props[i].(*ast.DirectiveNode)
			if !ok || !match(dir.Name) {
				continue
			}
			el.Props = slices.Delete(el.Props, i, i+1)
			i--
			if exit := fn(el, dir, ctx); exit != nil {
				exits = append(exits, exit)
			}
		}
		return exits
	}
}

func matchName(names ...string) func(string) bool {
	return func(name string) bool {
		return slices.Contains(names, name)
	}
}
