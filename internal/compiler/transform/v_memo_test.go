package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/stencil/internal/compiler/ast"
)

func TestTransformMemo_Element(t *testing.T) {
	root, c := transformSource(t, `<div v-memo="[a]">{{ a }}</div>`, false)
	require.Empty(t, c.Errors)

	call := callOf(t, root.Codegen, ast.WithMemo)
	require.Len(t, call.Arguments, 4)
	assert.Equal(t, "[a]", ast.ExpressionText(call.Arguments[0]))
	fn := call.Arguments[1].(*ast.FunctionExpression)
	assert.True(t, vnode(t, fn.Returns).IsBlock)
	assert.Equal(t, "_cache", ast.ExpressionText(call.Arguments[2]))
	assert.Equal(t, "0", ast.ExpressionText(call.Arguments[3]))
	assert.Equal(t, 1, root.Cached)
}

func TestTransformMemo_ComponentIsNotMadeBlock(t *testing.T) {
	root, _ := transformSource(t, `<div><Comp v-memo="[a]"/></div>`, false)
	comp := elementAt(t, elementAt(t, root.Children[0]).Children[0])
	call := callOf(t, comp.Codegen, ast.WithMemo)
	fn := call.Arguments[1].(*ast.FunctionExpression)
	assert.False(t, vnode(t, fn.Returns).IsBlock)
}

func TestTransformMemo_SlotsIndexAfterHandlers(t *testing.T) {
	root, _ := transformSource(t, `<div v-memo="[a]"><button @click="go"/></div>`, true, withCachedHandlers)
	call := callOf(t, root.Codegen, ast.WithMemo)
	// the handler took slot 0
	assert.Equal(t, "1", ast.ExpressionText(call.Arguments[3]))
	assert.Equal(t, 2, root.Cached)
}
