package transform

import (
	"strconv"
	"strings"

	"github.com/conduit-lang/stencil/internal/compiler/ast"
	"github.com/conduit-lang/stencil/internal/compiler/errors"
	"github.com/conduit-lang/stencil/internal/compiler/expression"
)

// TransformModel expands v-model into a value prop and an update handler.
// DOM-specific input handling is left to platform transforms.
func TransformModel(dir *ast.DirectiveNode, node *ast.ElementNode, ctx *Context) DirectiveResult {
	exp := dir.Exp
	if exp == nil {
		ctx.reportError(errors.XVModelNoExpression, dir.Loc)
		return DirectiveResult{}
	}

	expString := exp.Location().Source
	if s, ok := exp.(*ast.SimpleExpressionNode); ok {
		expString = s.Content
	}
	if strings.TrimSpace(expString) == "" || !expression.IsMemberExpression(expString) {
		ctx.reportError(errors.XVModelMalformedExpression, exp.Location())
		return DirectiveResult{}
	}
	if ctx.opts.PrefixIdentifiers && ast.IsSimpleIdentifier(expString) && ctx.IsIdentifier(expString) {
		ctx.reportError(errors.XVModelOnScopeVariable, exp.Location())
		return DirectiveResult{}
	}

	arg := dir.Arg
	var propName ast.ExpressionNode = ast.NewSimpleExpression("modelValue", true, ast.LocStub, ast.CanStringify)
	var eventName ast.ExpressionNode = ast.NewSimpleExpression("onUpdate:modelValue", true, ast.LocStub, ast.CanStringify)
	if arg != nil {
		propName = arg
		if s, ok := arg.(*ast.SimpleExpressionNode); ok && s.IsStatic {
			eventName = ast.NewSimpleExpression("onUpdate:"+ast.Camelize(s.Content), true, ast.LocStub, ast.CanStringify)
		} else {
			eventName = ast.NewCompoundExpression([]ast.CompoundPart{ast.Raw(`"onUpdate:" + `), arg}, ast.LocStub)
		}
	}

	var assignment ast.Node = ast.NewCompoundExpression([]ast.CompoundPart{
		ast.Raw("$event => (("),
		exp,
		ast.Raw(") = $event)"),
	}, ast.LocStub)

	if ctx.opts.PrefixIdentifiers && !ctx.InVOnce && ctx.opts.CacheHandlers && !hasScopeRef(exp, ctx) {
		assignment = ctx.Cache(assignment, false)
	}

	props := []*ast.Property{
		ast.NewProperty(propName, exp),
		ast.NewProperty(eventName, assignment),
	}

	// modelModifiers: { trim: true, "bar-baz": true }
	if len(dir.Modifiers) > 0 && node.TagType == ast.ElementComponent {
		entries := make([]string, len(dir.Modifiers))
		for i, m := range dir.Modifiers {
			if !ast.IsSimpleIdentifier(m) {
				m = strconv.Quote(m)
			}
			entries[i] = m + ": true"
		}
		var modifiersKey ast.ExpressionNode
		switch a := arg.(type) {
		case nil:
			modifiersKey = ast.NewSimpleExpression("modelModifiers", true, ast.LocStub, ast.CanStringify)
		case *ast.SimpleExpressionNode:
			if a.IsStatic {
				modifiersKey = ast.NewSimpleExpression(a.Content+"Modifiers", true, ast.LocStub, ast.CanStringify)
				break
			}
			modifiersKey = ast.NewCompoundExpression([]ast.CompoundPart{a, ast.Raw(` + "Modifiers"`)}, ast.LocStub)
		default:
			modifiersKey = ast.NewCompoundExpression([]ast.CompoundPart{a, ast.Raw(` + "Modifiers"`)}, ast.LocStub)
		}
		props = append(props, ast.NewProperty(modifiersKey,
			ast.NewSimpleExpression("{ "+strings.Join(entries, ", ")+" }", false, dir.Loc, ast.CanHoist)))
	}

	return DirectiveResult{Props: props}
}
