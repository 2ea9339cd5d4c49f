package transform

import (
	"strings"

	"github.com/conduit-lang/stencil/internal/compiler/ast"
	"github.com/conduit-lang/stencil/internal/compiler/errors"
	"github.com/conduit-lang/stencil/internal/compiler/expression"
)

// TransformExpression prefixes identifiers of interpolations and directive
// expressions. v-for is handled by the loop transform and v-on expressions
// with an argument by the v-on transform.
func TransformExpression(node ast.Node, ctx *Context) []ExitFn {
	switch n := node.(type) {
	case *ast.InterpolationNode:
		if s, ok := n.Content.(*ast.SimpleExpressionNode); ok {
			n.Content = ProcessExpression(s, ctx, false, false)
		}
	case *ast.ElementNode:
		for _, p := range n.Props {
			dir, ok := p.(*ast.DirectiveNode)
			if !ok || dir.Name == "for" {
				continue
			}
			if exp, ok := dir.Exp.(*ast.SimpleExpressionNode); ok && !(dir.Name == "on" && dir.Arg != nil) {
				// slot props are a parameter list
				dir.Exp = ProcessExpression(exp, ctx, dir.Name == "slot", false)
			}
			if arg, ok := dir.Arg.(*ast.SimpleExpressionNode); ok && !arg.IsStatic {
				dir.Arg = ProcessExpression(arg, ctx, false, false)
			}
		}
	}
	return nil
}

// ProcessExpression rewrites the free identifiers of node to _ctx.<id> and
// assigns the expression its constancy tier. asParams treats the content as
// a function parameter list; asStatements as a statement list. With
// identifier prefixing off, node is returned untouched.
func ProcessExpression(node *ast.SimpleExpressionNode, ctx *Context, asParams, asStatements bool) ast.ExpressionNode {
	if !ctx.opts.PrefixIdentifiers || strings.TrimSpace(node.Content) == "" {
		return node
	}

	raw := node.Content
	if ast.IsSimpleIdentifier(raw) {
		isScopeVar := ctx.IsIdentifier(raw)
		isGlobal := expression.IsGloballyAllowed(raw)
		isLiteral := expression.IsLiteral(raw)
		switch {
		case !asParams && !isScopeVar && !isLiteral && !isGlobal:
			node.Content = prefix(raw)
		case !isScopeVar && isLiteral:
			node.ConstType = ast.CanStringify
		case !isScopeVar:
			node.ConstType = ast.CanHoist
		}
		if asParams {
			node.Identifiers = []string{raw}
		}
		return node
	}

	mode := expression.ModeExpression
	switch {
	case asParams:
		mode = expression.ModeParams
	case asStatements:
		mode = expression.ModeStatements
	}
	res, err := ctx.opts.ExpressionParser.Parse(raw, mode)
	if err != nil {
		ctx.OnError(errors.New(errors.XInvalidExpression, errors.At(node.Loc), err.Error()))
		return node
	}

	var parts []ast.CompoundPart
	last := 0
	for _, id := range res.Identifiers {
		if id.Start < last || id.End > len(raw) {
			continue
		}
		local := id.Local || ctx.IsIdentifier(id.Name)
		needPrefix := !expression.IsGloballyAllowed(id.Name) && id.Name != "require"

		name := id.Name
		lead := raw[last:id.Start]
		constType := ast.NotConstant
		if needPrefix && !local {
			if id.Shorthand {
				lead += id.Name + ": "
			}
			name = prefix(id.Name)
		} else if !(needPrefix && local) && !res.Bail {
			constType = ast.CanStringify
		}
		if lead != "" {
			parts = append(parts, ast.Raw(lead))
		}

		source := raw[id.Start:id.End]
		start := ast.AdvancePositionWithClone(node.Loc.Start, raw, id.Start)
		end := ast.AdvancePositionWithClone(start, source, len(source))
		child := ast.NewSimpleExpression(name, false, ast.SourceLocation{Start: start, End: end, Source: source}, constType)
		ctx.ensureID(child)
		parts = append(parts, child)
		last = id.End
	}

	var ret ast.ExpressionNode
	if len(parts) > 0 {
		if last < len(raw) {
			parts = append(parts, ast.Raw(raw[last:]))
		}
		compound := ast.NewCompoundExpression(parts, node.Loc)
		compound.Identifiers = res.Declared
		compound.IsHandlerKey = node.IsHandlerKey
		ctx.ensureID(compound)
		ret = compound
	} else {
		node.ConstType = ast.CanStringify
		if res.Bail {
			node.ConstType = ast.NotConstant
		}
		node.Identifiers = res.Declared
		ret = node
	}
	return ret
}

func prefix(id string) string { return "_ctx." + id }
