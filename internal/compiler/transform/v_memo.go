package transform

import (
	"strconv"

	"github.com/conduit-lang/stencil/internal/compiler/ast"
)

// TransformMemo wraps an element's vnode into withMemo so that it is reused
// while the memo dependencies are unchanged. v-memo combined with v-for is
// compiled by the loop transform.
func TransformMemo(node ast.Node, ctx *Context) []ExitFn {
	el, ok := node.(*ast.ElementNode)
	if !ok {
		return nil
	}
	dir := ast.FindDir(el, "memo", false)
	if dir == nil {
		return nil
	}
	id := ctx.ensureID(el)
	if ctx.seenMemo[id] {
		return nil
	}
	ctx.seenMemo[id] = true
	return []ExitFn{func() {
		if _, isFor := ctx.CurrentNode.(*ast.ForNode); isFor {
			return
		}
		codegen := el.Codegen
		if codegen == nil {
			if cur, ok := ctx.CurrentNode.(*ast.ElementNode); ok {
				codegen = cur.Codegen
			}
		}
		v, ok := codegen.(*ast.VNodeCall)
		if !ok {
			return
		}
		if el.TagType != ast.ElementComponent {
			makeBlock(v, ctx)
		}
		el.Codegen = ast.NewCall(ctx.Helper(ast.WithMemo),
			dir.Exp,
			ast.NewFunction(nil, v, false, false, ast.LocStub),
			ast.Code("_cache"),
			ast.Code(strconv.Itoa(ctx.NextCacheIndex())),
		)
	}}
}
