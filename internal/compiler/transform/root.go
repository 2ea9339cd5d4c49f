package transform

import (
	"github.com/conduit-lang/stencil/internal/compiler/ast"
)

// createRootCodegen picks what the render function returns: the single root
// element as a block, a single structural node as is, or a stable fragment
// around several root nodes.
func createRootCodegen(root *ast.RootNode, ctx *Context) {
	switch len(root.Children) {
	case 0:
		// renders null
	case 1:
		child := root.Children[0]
		el, _ := child.(*ast.ElementNode)
		if isSingleElementRoot(root, child) && el.Codegen != nil {
			if v, ok := el.Codegen.(*ast.VNodeCall); ok {
				makeBlock(v, ctx)
			}
			root.Codegen = el.Codegen
			return
		}
		// a <slot/>, v-if or v-for is a block already; text is always
		// patched
		root.Codegen = child
	default:
		root.Codegen = ctx.NewVNodeCall(helperTag(ctx.Helper(ast.Fragment)), nil, root.Children, nil,
			ast.PatchStableFragment, nil, nil, true, false, false, root.Loc)
	}
}
