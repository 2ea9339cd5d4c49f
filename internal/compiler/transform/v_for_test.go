package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/stencil/internal/compiler/ast"
	"github.com/conduit-lang/stencil/internal/compiler/errors"
)

func forExp(content string) *ast.SimpleExpressionNode {
	loc := ast.SourceLocation{
		Start:  ast.Position{Offset: 0, Line: 1, Column: 1},
		End:    ast.Position{Offset: len(content), Line: 1, Column: len(content) + 1},
		Source: content,
	}
	return ast.NewSimpleExpression(content, false, loc, ast.NotConstant)
}

func aliasText(n ast.ExpressionNode) string {
	if n == nil {
		return ""
	}
	return ast.ExpressionText(n)
}

func TestParseForExpression(t *testing.T) {
	tests := []struct {
		input                   string
		source, value, key, idx string
		aliases                 int
	}{
		{"item in items", "items", "item", "", "", 1},
		{"item of items", "items", "item", "", "", 1},
		{"(item, index) in list", "list", "item", "", "index", 2},
		{"(value, key, index) in obj", "obj", "value", "key", "index", 3},
		{"(item, , index) in list", "list", "item", "", "index", 3},
		{"{ id, name } in users", "users", "{ id, name }", "", "", 1},
		{"[a, b] in pairs", "pairs", "[a, b]", "", "", 1},
		{"  i   in   10  ", "10", "i", "", "", 1},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			res := ParseForExpression(forExp(tt.input))
			require.NotNil(t, res)
			assert.Equal(t, tt.source, aliasText(res.Source))
			assert.Equal(t, tt.value, aliasText(res.Value))
			assert.Equal(t, tt.key, aliasText(res.Key))
			assert.Equal(t, tt.idx, aliasText(res.Index))
			assert.Len(t, res.Aliases, tt.aliases)
		})
	}
}

func TestParseForExpression_Malformed(t *testing.T) {
	assert.Nil(t, ParseForExpression(forExp("items")))
	assert.Nil(t, ParseForExpression(forExp("")))
}

func TestParseForExpression_AliasLocations(t *testing.T) {
	input := "(item, index) in list"
	res := ParseForExpression(forExp(input))
	require.NotNil(t, res)
	for _, n := range []ast.ExpressionNode{res.Source, res.Value, res.Index} {
		loc := n.Location()
		assert.Equal(t, input[loc.Start.Offset:loc.End.Offset], loc.Source)
		assert.Equal(t, ast.ExpressionText(n), loc.Source)
	}
}

func TestForLoopParams_FillsHoles(t *testing.T) {
	res := ParseForExpression(forExp("(item, , index) in list"))
	require.NotNil(t, res)
	params := forLoopParams(res)
	require.Len(t, params, 3)
	assert.Equal(t, "item", ast.ExpressionText(params[0]))
	assert.Equal(t, "__", ast.ExpressionText(params[1]))
	assert.Equal(t, "index", ast.ExpressionText(params[2]))
}

func renderList(t *testing.T, forNode *ast.ForNode) (*ast.CallExpression, *ast.FunctionExpression) {
	t.Helper()
	frag := vnode(t, forNode.Codegen)
	call, ok := frag.Child.(*ast.CallExpression)
	require.True(t, ok, "expected renderList call, got %T", frag.Child)
	require.Equal(t, ast.RenderList, call.Callee)
	require.Len(t, call.Arguments, 2)
	fn, ok := call.Arguments[1].(*ast.FunctionExpression)
	require.True(t, ok)
	return call, fn
}

func TestTransformFor_KeyedList(t *testing.T) {
	root, c := transformSource(t, `<div v-for="item in items" :key="item.id">{{ item.name }}</div>`, true)
	require.Empty(t, c.Errors)
	require.Len(t, root.Children, 1)

	forNode, ok := root.Children[0].(*ast.ForNode)
	require.True(t, ok)
	assert.Equal(t, "_ctx.items", ast.ExpressionText(forNode.Source))
	assert.Equal(t, "item", ast.ExpressionText(forNode.ValueAlias))
	assert.Nil(t, forNode.KeyAlias)

	frag := vnode(t, forNode.Codegen)
	assert.True(t, frag.HasTag(ast.Fragment))
	assert.True(t, frag.IsBlock)
	assert.True(t, frag.DisableTracking)
	assert.Equal(t, ast.PatchKeyedFragment, frag.PatchFlag)

	_, fn := renderList(t, forNode)
	require.Len(t, fn.Params, 1)
	assert.Equal(t, "item", ast.ExpressionText(fn.Params[0]))

	item := vnode(t, fn.Returns)
	assert.True(t, item.IsBlock)
	assert.Equal(t, "item.id", ast.ExpressionText(propValue(t, object(t, item.Props), "key")))
	interp, ok := item.Child.(*ast.InterpolationNode)
	require.True(t, ok)
	assert.Equal(t, "item.name", ast.ExpressionText(interp.Content))
}

func TestTransformFor_ConstantSourceIsStable(t *testing.T) {
	root, c := transformSource(t, `<li v-for="i in 3">{{ i }}</li>`, true)
	require.Empty(t, c.Errors)

	forNode := root.Children[0].(*ast.ForNode)
	frag := vnode(t, forNode.Codegen)
	assert.Equal(t, ast.PatchStableFragment, frag.PatchFlag)
	assert.False(t, frag.DisableTracking)

	_, fn := renderList(t, forNode)
	assert.False(t, vnode(t, fn.Returns).IsBlock)
}

func TestTransformFor_UnkeyedList(t *testing.T) {
	root, _ := transformSource(t, `<span v-for="x in xs"/>`, false)
	frag := vnode(t, root.Children[0].(*ast.ForNode).Codegen)
	assert.Equal(t, ast.PatchUnkeyedFragment, frag.PatchFlag)
}

func TestTransformFor_TemplateWithSeveralChildren(t *testing.T) {
	root, c := transformSource(t, `<template v-for="x in xs" :key="x"><b/><i/></template>`, false)
	require.Empty(t, c.Errors)

	_, fn := renderList(t, root.Children[0].(*ast.ForNode))
	wrapper := vnode(t, fn.Returns)
	assert.True(t, wrapper.HasTag(ast.Fragment))
	assert.Len(t, wrapper.Children, 2)
	assert.Equal(t, "x", ast.ExpressionText(propValue(t, object(t, wrapper.Props), "key")))
}

func TestTransformFor_AliasesScopedToBody(t *testing.T) {
	root, c := transformSource(t, `<div><p v-for="(item, i) in list">{{ item }}{{ i }}</p>{{ item }}</div>`, true)
	require.Empty(t, c.Errors)

	div := elementAt(t, root.Children[0])
	require.Len(t, div.Children, 2)
	forNode := div.Children[0].(*ast.ForNode)
	_, fn := renderList(t, forNode)
	require.Len(t, fn.Params, 2)

	p := vnode(t, fn.Returns)
	merged, ok := p.Child.(*ast.CompoundExpressionNode)
	require.True(t, ok, "got %T", p.Child)
	assert.Equal(t, "item + i", ast.ExpressionText(merged))

	// outside the loop the alias is a context property again
	outside, ok := div.Children[1].(*ast.TextCallNode)
	require.True(t, ok, "got %T", div.Children[1])
	assert.Equal(t, "_ctx.item", ast.ExpressionText(outside.Content))
}

func TestTransformFor_Memo(t *testing.T) {
	root, c := transformSource(t, `<div v-for="x in xs" :key="x.id" v-memo="[x.sel]"/>`, true)
	require.Empty(t, c.Errors)

	frag := vnode(t, root.Children[0].(*ast.ForNode).Codegen)
	call := frag.Child.(*ast.CallExpression)
	require.Len(t, call.Arguments, 4)
	fn := call.Arguments[1].(*ast.FunctionExpression)
	require.NotNil(t, fn.Body)
	assert.Len(t, fn.Body.Body, 5)
	assert.Equal(t, "_cache", ast.ExpressionText(call.Arguments[2]))
	assert.Equal(t, "0", ast.ExpressionText(call.Arguments[3]))
	assert.Contains(t, root.Helpers, ast.IsMemoSame)
	assert.Equal(t, 1, root.Cached)
}

func TestTransformFor_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   errors.ErrorCode
	}{
		{"no expression", `<div v-for></div>`, errors.XVForNoExpression},
		{"malformed", `<div v-for="items"></div>`, errors.XVForMalformedExpression},
		{"key on template child", `<template v-for="x in xs"><div :key="x"/></template>`, errors.XVForTemplateKeyPlacement},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := transformSource(t, tt.source, false)
			assert.Contains(t, c.Errors.Codes(), tt.want)
		})
	}
}
