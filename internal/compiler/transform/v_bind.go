package transform

import (
	"slices"
	"strings"

	"github.com/conduit-lang/stencil/internal/compiler/ast"
	"github.com/conduit-lang/stencil/internal/compiler/errors"
)

// TransformBind handles v-bind with an argument. The argument-less object
// form is merged by the element transform.
func TransformBind(dir *ast.DirectiveNode, _ *ast.ElementNode, ctx *Context) DirectiveResult {
	arg := dir.Arg
	switch a := arg.(type) {
	case *ast.CompoundExpressionNode:
		a.Children = append([]ast.CompoundPart{ast.Raw("(")}, a.Children...)
		a.Children = append(a.Children, ast.Raw(`) || ""`))
	case *ast.SimpleExpressionNode:
		if !a.IsStatic {
			a.Content += ` || ""`
		}
	}

	if slices.Contains(dir.Modifiers, "camel") {
		switch a := arg.(type) {
		case *ast.SimpleExpressionNode:
			if a.IsStatic {
				a.Content = ast.Camelize(a.Content)
			} else {
				a.Content = ctx.HelperString(ast.HelperCamelize) + "(" + a.Content + ")"
			}
		case *ast.CompoundExpressionNode:
			a.Children = append([]ast.CompoundPart{ctx.Helper(ast.HelperCamelize), ast.Raw("(")}, a.Children...)
			a.Children = append(a.Children, ast.Raw(")"))
		}
	}

	if slices.Contains(dir.Modifiers, "prop") {
		injectPrefix(arg, ".")
	}
	if slices.Contains(dir.Modifiers, "attr") {
		injectPrefix(arg, "^")
	}

	if dir.Exp == nil || strings.TrimSpace(ast.ExpressionText(dir.Exp)) == "" {
		ctx.reportError(errors.XVBindNoExpression, dir.Loc)
		return DirectiveResult{Props: []*ast.Property{
			ast.NewProperty(arg, ast.NewSimpleExpression("", true, dir.Loc, ast.CanStringify)),
		}}
	}
	return DirectiveResult{Props: []*ast.Property{ast.NewProperty(arg, dir.Exp)}}
}

// injectPrefix marks a binding as a DOM property (.) or a forced attribute (^).
func injectPrefix(arg ast.ExpressionNode, prefix string) {
	switch a := arg.(type) {
	case *ast.SimpleExpressionNode:
		if a.IsStatic {
			a.Content = prefix + a.Content
		} else {
			a.Content = "`" + prefix + "${" + a.Content + "}`"
		}
	case *ast.CompoundExpressionNode:
		a.Children = append([]ast.CompoundPart{ast.Raw("'" + prefix + "' + (")}, a.Children...)
		a.Children = append(a.Children, ast.Raw(")"))
	}
}
