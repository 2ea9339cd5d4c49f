package transform

import (
	"go.uber.org/zap"

	"github.com/conduit-lang/stencil/internal/compiler/ast"
)

// HoistStatic lifts fully static element vnodes, static props objects and
// static text calls out of the render function into root-level hoists.
func HoistStatic(root *ast.RootNode, ctx *Context) {
	var first ast.Node
	if len(root.Children) > 0 {
		first = root.Children[0]
	}
	walkHoist(root, ctx, isSingleElementRoot(root, first))
}

// isSingleElementRoot reports whether the root renders exactly one plain
// element or component, which becomes the root block itself.
func isSingleElementRoot(root *ast.RootNode, child ast.Node) bool {
	el, ok := child.(*ast.ElementNode)
	return len(root.Children) == 1 && ok && !ast.IsSlotOutlet(el)
}

func walkHoist(node ast.ParentNode, ctx *Context, doNotHoistNode bool) {
	children := node.ChildNodes()
	originalCount := len(children)
	hoistedCount := 0

	for _, child := range children {
		switch c := child.(type) {
		case *ast.ElementNode:
			if c.TagType == ast.ElementPlain && hoistElement(c, ctx, doNotHoistNode) {
				hoistedCount++
				continue
			}
		case *ast.TextCallNode:
			if GetConstantType(c.Content, ctx) >= ast.CanHoist {
				c.Codegen = ctx.Hoist(c.Codegen)
				hoistedCount++
			}
		}

		switch c := child.(type) {
		case *ast.ElementNode:
			isComponent := c.TagType == ast.ElementComponent
			if isComponent {
				ctx.Scopes.VSlot++
			}
			walkHoist(c, ctx, false)
			if isComponent {
				ctx.Scopes.VSlot--
			}
		case *ast.ForNode:
			walkHoist(c, ctx, len(c.Children) == 1)
		case *ast.IfNode:
			for _, b := range c.Branches {
				walkHoist(b, ctx, len(b.Children) == 1)
			}
		}
	}

	// every child was hoisted: the children array itself is static
	el, ok := node.(*ast.ElementNode)
	if hoistedCount == 0 || hoistedCount != originalCount || !ok || el.TagType != ast.ElementPlain {
		return
	}
	if v, ok := el.Codegen.(*ast.VNodeCall); ok && len(v.Children) > 0 {
		v.Child = ctx.Hoist(ast.NewArray(v.Children, ast.LocStub))
		v.Children = nil
	}
}

// hoistElement hoists a static plain element, or failing that its static
// props and dynamic prop names. It reports whether the element itself was
// hoisted.
func hoistElement(el *ast.ElementNode, ctx *Context, doNotHoistNode bool) bool {
	constantType := ast.NotConstant
	if !doNotHoistNode {
		constantType = GetConstantType(el, ctx)
	}
	if constantType > ast.NotConstant {
		if constantType >= ast.CanHoist {
			v := el.Codegen.(*ast.VNodeCall)
			v.PatchFlag = ast.PatchHoisted
			el.Codegen = ctx.Hoist(v)
			return true
		}
		return false
	}

	v, ok := el.Codegen.(*ast.VNodeCall)
	if !ok {
		return false
	}
	flag := v.PatchFlag
	if (flag == 0 || flag == ast.PatchNeedPatch || flag == ast.PatchText) &&
		getGeneratedPropsConstantType(el, ctx) >= ast.CanHoist && v.Props != nil {
		v.Props = ctx.Hoist(v.Props)
	}
	if v.DynamicProps != nil {
		v.DynamicProps = ctx.Hoist(v.DynamicProps)
	}
	return false
}

// GetConstantType computes how static node is. Results for elements are
// memoized per node id. A static element that was made a block (svg,
// foreignObject) is turned back into a plain vnode.
func GetConstantType(node ast.Node, ctx *Context) ast.ConstantType {
	switch n := node.(type) {
	case *ast.ElementNode:
		if n.TagType != ast.ElementPlain {
			return ast.NotConstant
		}
		id := ctx.ensureID(n)
		if cached, ok := ctx.constantCache[id]; ok {
			return cached
		}
		ct := elementConstantType(n, ctx)
		ctx.constantCache[id] = ct
		return ct
	case *ast.TextNode, *ast.CommentNode:
		return ast.CanStringify
	case *ast.IfNode, *ast.ForNode, *ast.IfBranchNode:
		return ast.NotConstant
	case *ast.InterpolationNode:
		return GetConstantType(n.Content, ctx)
	case *ast.TextCallNode:
		return GetConstantType(n.Content, ctx)
	case *ast.SimpleExpressionNode:
		return n.ConstType
	case *ast.CompoundExpressionNode:
		returnType := ast.CanStringify
		for _, part := range n.Children {
			child, ok := part.(ast.Node)
			if !ok {
				continue
			}
			ct := GetConstantType(child, ctx)
			if ct == ast.NotConstant {
				return ast.NotConstant
			}
			returnType = min(returnType, ct)
		}
		return returnType
	}
	return ast.NotConstant
}

func elementConstantType(n *ast.ElementNode, ctx *Context) ast.ConstantType {
	v, ok := n.Codegen.(*ast.VNodeCall)
	if !ok {
		return ast.NotConstant
	}
	if v.IsBlock && n.Tag != "svg" && n.Tag != "foreignObject" {
		return ast.NotConstant
	}
	if v.PatchFlag != 0 {
		return ast.NotConstant
	}

	returnType := ast.CanStringify
	propsType := getGeneratedPropsConstantType(n, ctx)
	if propsType == ast.NotConstant {
		return ast.NotConstant
	}
	returnType = min(returnType, propsType)

	for _, child := range n.Children {
		ct := GetConstantType(child, ctx)
		if ct == ast.NotConstant {
			return ast.NotConstant
		}
		returnType = min(returnType, ct)
	}

	// bound values that only skip patching still lower the tier
	if returnType > ast.CanSkipPatch {
		for _, p := range n.Props {
			d, ok := p.(*ast.DirectiveNode)
			if !ok || d.Name != "bind" || d.Exp == nil {
				continue
			}
			ct := GetConstantType(d.Exp, ctx)
			if ct == ast.NotConstant {
				return ast.NotConstant
			}
			returnType = min(returnType, ct)
		}
	}

	if v.IsBlock {
		for _, p := range n.Props {
			if _, ok := p.(*ast.DirectiveNode); ok {
				return ast.NotConstant
			}
		}
		ctx.RemoveHelper(ast.OpenBlock)
		ctx.RemoveHelper(ast.BlockHelper(false, v.IsComponent))
		v.IsBlock = false
		ctx.Helper(ast.VNodeHelper(false, v.IsComponent))
		ctx.logger.Debug("demoted static block", zap.String("tag", n.Tag))
	}
	return returnType
}

// getGeneratedPropsConstantType rates the props object of an element's vnode.
// Non-object props (merged or normalized calls) do not lower the tier.
func getGeneratedPropsConstantType(n *ast.ElementNode, ctx *Context) ast.ConstantType {
	returnType := ast.CanStringify
	v, ok := n.Codegen.(*ast.VNodeCall)
	if !ok {
		return returnType
	}
	obj, ok := v.Props.(*ast.ObjectExpression)
	if !ok {
		return returnType
	}
	for _, p := range obj.Properties {
		keyType := GetConstantType(p.Key, ctx)
		if keyType == ast.NotConstant {
			return ast.NotConstant
		}
		returnType = min(returnType, keyType)

		valueType := ast.NotConstant
		switch val := p.Value.(type) {
		case *ast.SimpleExpressionNode:
			valueType = GetConstantType(val, ctx)
		case *ast.CallExpression:
			valueType = helperCallConstantType(val, ctx)
		}
		if valueType == ast.NotConstant {
			return ast.NotConstant
		}
		returnType = min(returnType, valueType)
	}
	return returnType
}

// helperCallConstantType rates normalization calls, which are pure in their
// argument.
func helperCallConstantType(call *ast.CallExpression, ctx *Context) ast.ConstantType {
	switch call.Callee {
	case ast.NormalizeClass, ast.NormalizeStyle, ast.NormalizeProps, ast.GuardReactiveProps:
	default:
		return ast.NotConstant
	}
	if len(call.Arguments) == 0 {
		return ast.NotConstant
	}
	switch arg := call.Arguments[0].(type) {
	case *ast.SimpleExpressionNode:
		return GetConstantType(arg, ctx)
	case *ast.CallExpression:
		return helperCallConstantType(arg, ctx)
	}
	return ast.NotConstant
}
