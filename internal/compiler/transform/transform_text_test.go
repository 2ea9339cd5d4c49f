package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/stencil/internal/compiler/ast"
)

func textCall(t *testing.T, n ast.Node) *ast.TextCallNode {
	t.Helper()
	tc, ok := n.(*ast.TextCallNode)
	require.True(t, ok, "expected text call, got %T", n)
	return tc
}

func TestTransformText_MergesAdjacentText(t *testing.T) {
	root, _ := transformSource(t, `<div>a {{ b }} c</div>`, false)
	v := vnode(t, root.Codegen)
	merged, ok := v.Child.(*ast.CompoundExpressionNode)
	require.True(t, ok, "got %T", v.Child)
	assert.Equal(t, "a  + b +  c", ast.ExpressionText(merged))
	assert.Equal(t, ast.PatchText, v.PatchFlag)
}

func TestTransformText_ConvertsMixedChildren(t *testing.T) {
	root, _ := transformSource(t, `<div>hi {{ name }}<span/>bye</div>`, false)
	v := vnode(t, root.Codegen)
	require.Len(t, v.Children, 3)

	dynamic := textCall(t, v.Children[0])
	call := callOf(t, dynamic.Codegen, ast.CreateText)
	require.Len(t, call.Arguments, 2)
	assert.Equal(t, "1 /* TEXT */", ast.ExpressionText(call.Arguments[1]))

	static := textCall(t, v.Children[2])
	call = callOf(t, static.Codegen, ast.CreateText)
	require.Len(t, call.Arguments, 1)
	assert.Equal(t, "bye", ast.ExpressionText(call.Arguments[0]))
	assert.Contains(t, root.Helpers, ast.CreateText)
}

func TestTransformText_SingleSpaceHasNoArguments(t *testing.T) {
	root, _ := transformSource(t, `<div><span/> <span/></div>`, false)
	v := vnode(t, root.Codegen)
	require.Len(t, v.Children, 3)
	call := callOf(t, textCall(t, v.Children[1]).Codegen, ast.CreateText)
	assert.Empty(t, call.Arguments)
}

func TestTransformText_RootTextStaysPlain(t *testing.T) {
	root, _ := transformSource(t, `hello {{ world }}`, false)
	_, ok := root.Codegen.(*ast.CompoundExpressionNode)
	assert.True(t, ok, "got %T", root.Codegen)
	assert.NotContains(t, root.Helpers, ast.CreateText)
}

func TestTransformText_RuntimeDirectiveKeepsTextCall(t *testing.T) {
	root, _ := transformSource(t, `<div v-show="ok">text</div>`, false)
	v := vnode(t, root.Codegen)
	require.Len(t, v.Children, 1)
	textCall(t, v.Children[0])
}
