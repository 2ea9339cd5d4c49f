package transform

import (
	"github.com/conduit-lang/stencil/internal/compiler/ast"
	"github.com/conduit-lang/stencil/internal/compiler/errors"
)

// TransformSlotOutlet compiles <slot> into a renderSlot call.
func TransformSlotOutlet(node ast.Node, ctx *Context) []ExitFn {
	el, ok := node.(*ast.ElementNode)
	if !ok || !ast.IsSlotOutlet(el) {
		return nil
	}

	slotName, slotProps := processSlotOutlet(el, ctx)

	slots := "$slots"
	if ctx.opts.PrefixIdentifiers {
		slots = "_ctx.$slots"
	}
	args := []ast.Node{ast.Code(slots), slotName}
	var fallback *ast.FunctionExpression
	if len(el.Children) > 0 || (ctx.opts.ScopeID != "" && !ctx.opts.Slotted) {
		if slotProps == nil {
			slotProps = rawArg(emptyObject)
		}
		args = append(args, slotProps)
	} else if slotProps != nil {
		args = append(args, slotProps)
	}
	if len(el.Children) > 0 {
		fallback = ast.NewFunction(nil, nil, false, false, el.Loc)
		fallback.ReturnsChildren = el.Children
		args = append(args, fallback)
	}
	if ctx.opts.ScopeID != "" && !ctx.opts.Slotted {
		if fallback == nil {
			args = append(args, ast.Code(undefined))
		}
		args = append(args, ast.ConstCode("true"))
	}

	call := ast.NewCall(ctx.Helper(ast.RenderSlot), args...)
	call.Loc = el.Loc
	el.Codegen = call

	if fallback == nil {
		return nil
	}
	return []ExitFn{func() {
		// children may have been merged or replaced during traversal
		fallback.ReturnsChildren = el.Children
	}}
}

// processSlotOutlet extracts the slot name and the props passed to the slot.
func processSlotOutlet(node *ast.ElementNode, ctx *Context) (ast.Node, ast.Node) {
	var slotName ast.Node = ast.ConstCode(`"default"`)
	var nonNameProps []ast.Node

	for _, p := range node.Props {
		switch prop := p.(type) {
		case *ast.AttributeNode:
			if prop.Value == nil {
				continue
			}
			if prop.Name == "name" {
				slotName = ast.ConstCode(ast.Quote(prop.Value.Content))
				continue
			}
			prop.Name = ast.Camelize(prop.Name)
			nonNameProps = append(nonNameProps, prop)
		case *ast.DirectiveNode:
			if prop.Name == "bind" && ast.IsStaticArgOf(prop.Arg, "name") {
				if prop.Exp != nil {
					slotName = prop.Exp
				}
				continue
			}
			if arg, ok := prop.Arg.(*ast.SimpleExpressionNode); ok && prop.Name == "bind" && arg.IsStatic {
				arg.Content = ast.Camelize(arg.Content)
			}
			nonNameProps = append(nonNameProps, prop)
		}
	}

	if len(nonNameProps) == 0 {
		return slotName, nil
	}
	res := buildProps(node, ctx, nonNameProps, false, false)
	if len(res.Directives) > 0 {
		ctx.reportError(errors.XVSlotUnexpectedDirectiveOnSlotOutlet, res.Directives[0].Loc)
	}
	return slotName, res.Props
}
