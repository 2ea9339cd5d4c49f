package transform

import (
	"github.com/conduit-lang/stencil/internal/compiler/ast"
)

// TransformOnce renders a v-once subtree a single time by caching its vnode.
// Nested v-once elements are plain elements.
func TransformOnce(node ast.Node, ctx *Context) []ExitFn {
	el, ok := node.(*ast.ElementNode)
	if !ok || ast.FindDir(el, "once", true) == nil {
		return nil
	}
	id := ctx.ensureID(el)
	if ctx.seenOnce[id] || ctx.InVOnce {
		return nil
	}
	ctx.seenOnce[id] = true
	ctx.InVOnce = true
	ctx.Helper(ast.SetBlockTracking)
	return []ExitFn{func() {
		ctx.InVOnce = false
		switch cur := ctx.CurrentNode.(type) {
		case *ast.ElementNode:
			if cur.Codegen != nil {
				cur.Codegen = ctx.Cache(cur.Codegen, true)
			}
		case *ast.IfNode:
			if cur.Codegen != nil {
				cur.Codegen = ctx.Cache(cur.Codegen, true)
			}
		case *ast.ForNode:
			if cur.Codegen != nil {
				cur.Codegen = ctx.Cache(cur.Codegen, true)
			}
		}
	}}
}
