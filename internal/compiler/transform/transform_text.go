package transform

import (
	"strconv"

	"github.com/conduit-lang/stencil/internal/compiler/ast"
)

// TransformText merges adjacent text and interpolation children into one
// compound expression and, where the text shares its parent with other
// nodes, converts it into a createTextVNode call.
func TransformText(node ast.Node, ctx *Context) []ExitFn {
	switch node.(type) {
	case *ast.RootNode, *ast.ElementNode, *ast.ForNode, *ast.IfBranchNode:
	default:
		return nil
	}
	parent := node.(ast.ParentNode)
	return []ExitFn{func() {
		children := parent.ChildNodes()
		hasText := false
		for i := 0; i < len(children); i++ {
			child := children[i]
			if !ast.IsText(child) {
				continue
			}
			hasText = true
			var container *ast.CompoundExpressionNode
			for j := i + 1; j < len(children); j++ {
				next := children[j]
				if !ast.IsText(next) {
					break
				}
				if container == nil {
					container = ast.NewCompoundExpression([]ast.CompoundPart{child}, child.Location())
					ctx.ensureID(container)
					children[i] = container
				}
				container.Children = append(container.Children, ast.Raw(" + "), next)
				children = append(children[:j:j], children[j+1:]...)
				j--
			}
		}
		parent.SetChildNodes(children)

		// a lone text child of the root or of a plain element is passed as
		// the vnode's children directly
		if !hasText || (len(children) == 1 && textOnlyContainer(node, ctx)) {
			return
		}

		for i, child := range children {
			_, isCompound := child.(*ast.CompoundExpressionNode)
			if !ast.IsText(child) && !isCompound {
				continue
			}
			var args []ast.Node
			if t, ok := child.(*ast.TextNode); !ok || t.Content != " " {
				args = append(args, child)
			}
			if GetConstantType(child, ctx) == ast.NotConstant {
				args = append(args, ast.Code(strconv.Itoa(int(ast.PatchText))+" /* "+ast.PatchText.String()+" */"))
			}
			call := ast.NewCall(ctx.Helper(ast.CreateText), args...)
			call.Loc = child.Location()
			textCall := &ast.TextCallNode{
				Base:    ast.Base{Loc: child.Location()},
				Content: child,
				Codegen: call,
			}
			ctx.ensureID(textCall)
			children[i] = textCall
		}
	}}
}

func textOnlyContainer(node ast.Node, ctx *Context) bool {
	switch n := node.(type) {
	case *ast.RootNode:
		return true
	case *ast.ElementNode:
		if n.TagType != ast.ElementPlain {
			return false
		}
		// runtime directives such as v-show may need to see the children
		for _, p := range n.Props {
			if d, ok := p.(*ast.DirectiveNode); ok {
				if _, known := ctx.opts.DirectiveTransforms[d.Name]; !known {
					return false
				}
			}
		}
		return true
	}
	return false
}
