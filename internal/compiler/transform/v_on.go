package transform

import (
	"strings"

	"github.com/conduit-lang/stencil/internal/compiler/ast"
	"github.com/conduit-lang/stencil/internal/compiler/errors"
	"github.com/conduit-lang/stencil/internal/compiler/expression"
)

// TransformOn handles v-on with an argument: it names the handler prop,
// wraps inline statements into a function and caches handlers that close
// over no scope variable.
func TransformOn(dir *ast.DirectiveNode, node *ast.ElementNode, ctx *Context) DirectiveResult {
	if dir.Exp == nil && len(dir.Modifiers) == 0 {
		ctx.reportError(errors.XVOnNoExpression, dir.Loc)
	}

	eventName := handlerKey(dir, node, ctx)

	var exp ast.ExpressionNode = dir.Exp
	if exp != nil && strings.TrimSpace(ast.ExpressionText(exp)) == "" {
		exp = nil
	}
	shouldCache := ctx.opts.CacheHandlers && exp == nil && !ctx.InVOnce

	if exp != nil {
		content := ast.ExpressionText(exp)
		isMemberExp := expression.IsMemberExpression(content)
		isInlineStatement := !(isMemberExp || expression.IsFunctionExpression(content))
		hasMultipleStatements := strings.Contains(content, ";")

		if s, ok := exp.(*ast.SimpleExpressionNode); ok && ctx.opts.PrefixIdentifiers {
			if isInlineStatement {
				ctx.AddIdentifier("$event")
			}
			exp = ProcessExpression(s, ctx, false, hasMultipleStatements)
			dir.Exp = exp
			if isInlineStatement {
				ctx.RemoveIdentifier("$event")
			}

			constant := false
			if s, ok := exp.(*ast.SimpleExpressionNode); ok && s.ConstType > ast.NotConstant {
				constant = true
			}
			// a member expression on a component may be re-bound by the child
			shouldCache = ctx.opts.CacheHandlers && !ctx.InVOnce && !constant &&
				!(isMemberExp && node.TagType == ast.ElementComponent) &&
				!hasScopeRef(exp, ctx)

			if shouldCache && isMemberExp {
				// call through the latest value of the member
				switch e := exp.(type) {
				case *ast.SimpleExpressionNode:
					e.Content = e.Content + " && " + e.Content + "(...args)"
				case *ast.CompoundExpressionNode:
					children := append([]ast.CompoundPart{}, e.Children...)
					children = append(children, ast.Raw(" && "))
					children = append(children, e.Children...)
					e.Children = append(children, ast.Raw("(...args)"))
				}
			}
		}

		if isInlineStatement || (shouldCache && isMemberExp) {
			param := "(...args)"
			if isInlineStatement {
				param = "$event"
			}
			open, closing := "(", ")"
			if hasMultipleStatements {
				open, closing = "{", "}"
			}
			exp = ast.NewCompoundExpression([]ast.CompoundPart{
				ast.Raw(param + " => " + open),
				exp,
				ast.Raw(closing),
			}, exp.Location())
		}
	}

	var value ast.Node = exp
	if exp == nil {
		value = ast.NewSimpleExpression("() => {}", false, dir.Loc, ast.NotConstant)
	}
	if shouldCache {
		value = ctx.Cache(value, false)
	}
	return DirectiveResult{Props: []*ast.Property{ast.NewProperty(eventName, value)}}
}

// handlerKey names the prop a listener is bound to: click becomes onClick,
// vue:mounted becomes onVnodeMounted, and a dynamic argument goes through
// toHandlerKey at runtime.
func handlerKey(dir *ast.DirectiveNode, node *ast.ElementNode, ctx *Context) ast.ExpressionNode {
	switch arg := dir.Arg.(type) {
	case *ast.SimpleExpressionNode:
		if !arg.IsStatic {
			key := ast.NewCompoundExpression([]ast.CompoundPart{
				ast.Raw(ctx.HelperString(ast.HelperToHandlerKey) + "("),
				arg,
				ast.Raw(")"),
			}, arg.Loc)
			key.IsHandlerKey = true
			return key
		}
		rawName := arg.Content
		if strings.HasPrefix(rawName, "vnode") {
			ctx.OnWarn(errors.NewWarning(errors.DeprecationVNodeHooks, errors.At(arg.Loc)))
		}
		if strings.HasPrefix(rawName, "vue:") {
			rawName = "vnode-" + rawName[4:]
		}
		// mixed-case events on native elements are custom element events
		// and keep their case
		var name string
		if node.TagType != ast.ElementPlain || strings.HasPrefix(rawName, "vnode") || !hasUpper(rawName) {
			name = ast.ToHandlerKey(ast.Camelize(rawName))
		} else {
			name = "on:" + rawName
		}
		key := ast.NewSimpleExpression(name, true, arg.Loc, ast.CanStringify)
		key.IsHandlerKey = true
		return key
	case *ast.CompoundExpressionNode:
		arg.Children = append([]ast.CompoundPart{ast.Raw(ctx.HelperString(ast.HelperToHandlerKey) + "(")}, arg.Children...)
		arg.Children = append(arg.Children, ast.Raw(")"))
		arg.IsHandlerKey = true
		return arg
	}
	return nil
}

func hasUpper(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			return true
		}
	}
	return false
}
