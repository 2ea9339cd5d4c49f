package transform

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/conduit-lang/stencil/internal/compiler/ast"
	"github.com/conduit-lang/stencil/internal/compiler/errors"
)

// TransformFor turns an element with v-for into a ForNode rendered through
// renderList.
var TransformFor = StructuralDirective(matchName("for"), transformFor)

func transformFor(node *ast.ElementNode, dir *ast.DirectiveNode, ctx *Context) ExitFn {
	return processFor(node, dir, ctx, func(forNode *ast.ForNode) ExitFn {
		renderExp := ast.NewCall(ctx.Helper(ast.RenderList), forNode.Source)
		isTemplate := ast.IsTemplateNode(node)
		memo := ast.FindDir(node, "memo", false)
		keyProp := ast.FindProp(node, "key", false, false)

		var keyExp ast.Node
		var keyProperty *ast.Property
		switch k := keyProp.(type) {
		case *ast.AttributeNode:
			if k.Value != nil {
				keyExp = ast.NewSimpleExpression(k.Value.Content, true, ast.LocStub, ast.CanStringify)
			}
		case *ast.DirectiveNode:
			keyExp = k.Exp
		}
		if keyExp != nil {
			keyProperty = ast.NewStaticProperty("key", keyExp)
		}

		if isTemplate {
			// a <template v-for> is discarded and never traversed, so its
			// own :key and v-memo expressions are processed here
			if memo != nil {
				if s, ok := memo.Exp.(*ast.SimpleExpressionNode); ok {
					memo.Exp = ProcessExpression(s, ctx, false, false)
				}
			}
			if _, isDir := keyProp.(*ast.DirectiveNode); isDir && keyProperty != nil {
				if s, ok := keyProperty.Value.(*ast.SimpleExpressionNode); ok {
					keyProperty.Value = ProcessExpression(s, ctx, false, false)
					keyExp = keyProperty.Value
				}
			}
		}

		source, isSimple := forNode.Source.(*ast.SimpleExpressionNode)
		isStableFragment := isSimple && source.ConstType > ast.NotConstant
		fragmentFlag := ast.PatchUnkeyedFragment
		switch {
		case isStableFragment:
			fragmentFlag = ast.PatchStableFragment
		case keyProp != nil:
			fragmentFlag = ast.PatchKeyedFragment
		}

		forNode.Codegen = ctx.NewVNodeCall(helperTag(ctx.Helper(ast.Fragment)), nil, nil, renderExp, fragmentFlag,
			nil, nil, true, !isStableFragment, false, node.Loc)

		return func() {
			if isTemplate {
				checkTemplateKeyPlacement(node, ctx)
			}

			var childBlock ast.Node
			children := forNode.Children
			_, firstIsElement := firstNode(children).(*ast.ElementNode)
			needFragmentWrapper := len(children) != 1 || !firstIsElement

			var slotOutlet *ast.ElementNode
			switch {
			case ast.IsSlotOutlet(node):
				slotOutlet = node
			case isTemplate && len(children) == 1 && ast.IsSlotOutlet(children[0]):
				slotOutlet = children[0].(*ast.ElementNode)
			}

			switch {
			case slotOutlet != nil:
				// <slot v-for> or <template v-for><slot/></template>
				childBlock = slotOutlet.Codegen
				if isTemplate && keyProperty != nil {
					injectProp(childBlock, keyProperty, ctx)
				}
			case needFragmentWrapper:
				// text or several elements under <template v-for>
				var props ast.Node
				if keyProperty != nil {
					props = ast.NewObject([]*ast.Property{keyProperty}, ast.LocStub)
				}
				childBlock = ctx.NewVNodeCall(helperTag(ctx.Helper(ast.Fragment)), props, children, nil,
					ast.PatchStableFragment, nil, nil, true, false, false, node.Loc)
			default:
				el := children[0].(*ast.ElementNode)
				v, ok := el.Codegen.(*ast.VNodeCall)
				if !ok {
					childBlock = el.Codegen
					break
				}
				if isTemplate && keyProperty != nil {
					injectProp(v, keyProperty, ctx)
				}
				setBlock(v, !isStableFragment, ctx)
				childBlock = v
			}

			if memo != nil {
				if d, ok := keyProp.(*ast.DirectiveNode); ok && !isTemplate {
					// processed while the element was traversed
					keyExp = d.Exp
				}
				params := forLoopParams(forNode.Parse, ast.Code("_cached"))
				loop := ast.NewFunction(params, nil, false, false, ast.LocStub)
				check := []ast.CompoundPart{ast.Raw("if (_cached")}
				if keyExp != nil {
					check = append(check, ast.Raw(" && _cached.key === "), keyExp)
				}
				check = append(check, ast.Raw(" && "+ctx.HelperString(ast.IsMemoSame)+"(_cached, _memo)) return _cached"))
				loop.Body = &ast.BlockStatement{Base: ast.Base{Loc: ast.LocStub}, Body: []ast.Node{
					ast.NewCompoundExpression([]ast.CompoundPart{ast.Raw("const _memo = ("), memo.Exp, ast.Raw(")")}, ast.LocStub),
					ast.NewCompoundExpression(check, ast.LocStub),
					ast.NewCompoundExpression([]ast.CompoundPart{ast.Raw("const _item = "), childBlock}, ast.LocStub),
					ast.Code("_item.memo = _memo"),
					ast.Code("return _item"),
				}}
				renderExp.Arguments = append(renderExp.Arguments, loop, ast.Code("_cache"),
					ast.Code(strconv.Itoa(ctx.NextCacheIndex())))
				return
			}
			renderExp.Arguments = append(renderExp.Arguments,
				ast.NewFunction(forLoopParams(forNode.Parse), childBlock, true, false, ast.LocStub))
		}
	})
}

// setBlock switches a loop item between block and plain vnode, moving the
// helper counts along.
func setBlock(v *ast.VNodeCall, isBlock bool, ctx *Context) {
	if v.IsBlock != isBlock {
		if v.IsBlock {
			ctx.RemoveHelper(ast.OpenBlock)
			ctx.RemoveHelper(ast.BlockHelper(false, v.IsComponent))
		} else {
			ctx.RemoveHelper(ast.VNodeHelper(false, v.IsComponent))
		}
	}
	v.IsBlock = isBlock
	if isBlock {
		ctx.Helper(ast.OpenBlock)
		ctx.Helper(ast.BlockHelper(false, v.IsComponent))
	} else {
		ctx.Helper(ast.VNodeHelper(false, v.IsComponent))
	}
}

func checkTemplateKeyPlacement(node *ast.ElementNode, ctx *Context) {
	for _, c := range node.Children {
		el, ok := c.(*ast.ElementNode)
		if !ok {
			continue
		}
		if key := ast.FindProp(el, "key", false, false); key != nil {
			ctx.reportError(errors.XVForTemplateKeyPlacement, key.Location())
			return
		}
	}
}

func firstNode(nodes []ast.Node) ast.Node {
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

type forCodegenFn func(forNode *ast.ForNode) ExitFn

// processFor replaces node with a ForNode and keeps the loop aliases in
// scope while the body is traversed.
func processFor(node *ast.ElementNode, dir *ast.DirectiveNode, ctx *Context, codegen forCodegenFn) ExitFn {
	if dir.Exp == nil {
		ctx.reportError(errors.XVForNoExpression, dir.Loc)
		return nil
	}
	result := forParseResult(dir, ctx)
	if result == nil {
		ctx.reportError(errors.XVForMalformedExpression, dir.Loc)
		return nil
	}

	forNode := &ast.ForNode{
		Base:       ast.Base{Loc: dir.Loc},
		Source:     result.Source,
		ValueAlias: result.Value,
		KeyAlias:   result.Key,
		IndexAlias: result.Index,
		Parse:      result,
	}
	if ast.IsTemplateNode(node) {
		forNode.Children = node.Children
	} else {
		forNode.Children = []ast.Node{node}
	}
	ctx.ReplaceNode(forNode)

	ctx.Scopes.VFor++
	aliases := result.Aliases
	if ctx.opts.PrefixIdentifiers {
		for _, a := range aliases {
			if a != nil {
				ctx.AddIdentifiers(a)
			}
		}
	}

	var onExit ExitFn
	if codegen != nil {
		onExit = codegen(forNode)
	}

	return func() {
		ctx.Scopes.VFor--
		if ctx.opts.PrefixIdentifiers {
			for _, a := range aliases {
				if a != nil {
					ctx.RemoveIdentifiers(a)
				}
			}
		}
		if onExit != nil {
			onExit()
		}
	}
}

// forParseResult parses the directive's loop expression on first use and
// runs expression processing over its parts exactly once.
func forParseResult(dir *ast.DirectiveNode, ctx *Context) *ast.ForParseResult {
	if dir.ForParse == nil {
		exp, ok := dir.Exp.(*ast.SimpleExpressionNode)
		if !ok {
			return nil
		}
		dir.ForParse = ParseForExpression(exp)
		if dir.ForParse == nil {
			return nil
		}
	}
	finalizeForParseResult(dir.ForParse, ctx)
	return dir.ForParse
}

var (
	forAliasRE    = regexp.MustCompile(`^([\s\S]*?)\s+(?:in|of)\s+([\s\S]*)`)
	forIteratorRE = regexp.MustCompile(`,([^,\}\]]*)(?:,([^,\}\]]*))?$`)
)

// ParseForExpression splits `alias in source` (or `of`) into its source and
// alias expressions, each with a location inside input. Two aliases bind the
// item and its index; three bind item, key and index. Aliases keeps the
// positional tuple as written, with nil holes for empty slots. It returns nil
// when input has no `in`/`of` separator.
func ParseForExpression(input *ast.SimpleExpressionNode) *ast.ForParseResult {
	exp := input.Content
	m := forAliasRE.FindStringSubmatch(exp)
	if m == nil {
		return nil
	}
	lhs, rhs := m[1], m[2]

	result := &ast.ForParseResult{
		Source: aliasExpression(input, strings.TrimSpace(rhs), strings.Index(exp[len(lhs):], rhs)+len(lhs)),
	}

	valueContent := strings.TrimSpace(stripParens(strings.TrimSpace(lhs)))
	trimmedOffset := strings.Index(lhs, valueContent)

	var second, third ast.ExpressionNode
	iter := forIteratorRE.FindStringSubmatch(valueContent)
	if iter != nil {
		valueContent = strings.TrimSpace(forIteratorRE.ReplaceAllString(valueContent, ""))

		secondContent := strings.TrimSpace(iter[1])
		secondOffset := -1
		if secondContent != "" {
			secondOffset = indexFrom(exp, secondContent, trimmedOffset+len(valueContent))
			second = aliasExpression(input, secondContent, secondOffset)
		}
		if thirdContent := strings.TrimSpace(iter[2]); thirdContent != "" {
			from := trimmedOffset + len(valueContent)
			if secondOffset >= 0 {
				from = secondOffset + len(secondContent)
			}
			third = aliasExpression(input, thirdContent, indexFrom(exp, thirdContent, from))
		}
	}

	var value ast.ExpressionNode
	if valueContent != "" {
		value = aliasExpression(input, valueContent, trimmedOffset)
	}
	result.Value = value

	switch {
	case iter == nil:
		result.Aliases = []ast.ExpressionNode{value}
	case strings.Count(iter[0], ",") == 1:
		// (item, index)
		result.Index = second
		result.Aliases = []ast.ExpressionNode{value, second}
	default:
		result.Key = second
		result.Index = third
		result.Aliases = []ast.ExpressionNode{value, second, third}
	}
	result.Aliases = trimAliases(result.Aliases)
	return result
}

func finalizeForParseResult(result *ast.ForParseResult, ctx *Context) {
	if result.Finalized {
		return
	}
	result.Finalized = true
	ctx.ensureID(result.Source)
	if s, ok := result.Source.(*ast.SimpleExpressionNode); ok {
		result.Source = ProcessExpression(s, ctx, false, false)
	}
	for i, a := range result.Aliases {
		s, ok := a.(*ast.SimpleExpressionNode)
		if !ok {
			continue
		}
		ctx.ensureID(s)
		processed := ProcessExpression(s, ctx, true, false)
		result.Aliases[i] = processed
		switch a {
		case result.Value:
			result.Value = processed
		case result.Key:
			result.Key = processed
		case result.Index:
			result.Index = processed
		}
	}
}

func aliasExpression(input *ast.SimpleExpressionNode, content string, offset int) *ast.SimpleExpressionNode {
	loc := input.Loc
	if offset >= 0 && offset+len(content) <= len(loc.Source) {
		loc = ast.SubLocation(loc, offset, len(content))
	}
	return ast.NewSimpleExpression(content, false, loc, ast.NotConstant)
}

func stripParens(s string) string {
	s = strings.TrimPrefix(s, "(")
	return strings.TrimSuffix(s, ")")
}

func indexFrom(s, sub string, from int) int {
	if from < 0 || from > len(s) {
		from = 0
	}
	i := strings.Index(s[from:], sub)
	if i < 0 {
		return -1
	}
	return i + from
}

// trimAliases drops trailing empty slots.
func trimAliases(aliases []ast.ExpressionNode) []ast.ExpressionNode {
	n := len(aliases)
	for n > 0 && aliases[n-1] == nil {
		n--
	}
	return aliases[:n]
}

// forLoopParams builds the iterator's parameter list: the aliases as
// written, holes filled with _, __, ..., followed by extra.
func forLoopParams(result *ast.ForParseResult, extra ...ast.Node) []ast.Node {
	args := make([]ast.Node, 0, len(result.Aliases)+len(extra))
	for _, a := range result.Aliases {
		if a == nil {
			args = append(args, nil)
			continue
		}
		args = append(args, a)
	}
	args = append(args, extra...)

	n := len(args)
	for n > 0 && args[n-1] == nil {
		n--
	}
	params := make([]ast.Node, n)
	for i := 0; i < n; i++ {
		if args[i] == nil {
			params[i] = ast.Code(strings.Repeat("_", i+1))
			continue
		}
		params[i] = args[i]
	}
	return params
}
