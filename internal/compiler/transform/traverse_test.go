package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/stencil/internal/compiler/ast"
	"github.com/conduit-lang/stencil/internal/compiler/errors"
)

func tagOf(n ast.Node) string {
	if el, ok := n.(*ast.ElementNode); ok {
		return el.Tag
	}
	return n.Type().String()
}

func TestTraverseNode_EnterExitOrder(t *testing.T) {
	var events []string
	record := func(name string) NodeTransform {
		return func(node ast.Node, ctx *Context) []ExitFn {
			if _, ok := node.(*ast.ElementNode); !ok {
				return nil
			}
			events = append(events, name+">"+tagOf(node))
			return []ExitFn{func() { events = append(events, name+"<"+tagOf(ctx.CurrentNode)) }}
		}
	}
	root := parse(t, `<div><p/></div>`)
	Transform(root, Options{NodeTransforms: []NodeTransform{record("a"), record("b")}})

	assert.Equal(t, []string{
		"a>div", "b>div",
		"a>p", "b>p",
		"b<p", "a<p",
		"b<div", "a<div",
	}, events)
}

func TestTraverseNode_RemovalDoesNotSkipSiblings(t *testing.T) {
	var visited []string
	removeComments := func(node ast.Node, ctx *Context) []ExitFn {
		if _, ok := node.(*ast.CommentNode); ok {
			ctx.RemoveNode(nil)
			return nil
		}
		visited = append(visited, tagOf(node))
		return nil
	}
	root := parse(t, `<div><!--a--><!--b--><span/><!--c--><i/></div>`)
	Transform(root, Options{NodeTransforms: []NodeTransform{removeComments}})

	div := elementAt(t, root.Children[0])
	require.Len(t, div.Children, 2)
	assert.Equal(t, "span", tagOf(div.Children[0]))
	assert.Equal(t, "i", tagOf(div.Children[1]))
	assert.Contains(t, visited, "span")
	assert.Contains(t, visited, "i")
	assert.NotContains(t, root.Helpers, ast.CreateComment)
}

func TestTraverseNode_RemovedNodeStopsLaterTransforms(t *testing.T) {
	calls := 0
	remove := func(node ast.Node, ctx *Context) []ExitFn {
		if el, ok := node.(*ast.ElementNode); ok && el.Tag == "x" {
			ctx.RemoveNode(nil)
		}
		return nil
	}
	count := func(node ast.Node, ctx *Context) []ExitFn {
		if el, ok := node.(*ast.ElementNode); ok && el.Tag == "x" {
			calls++
		}
		return nil
	}
	root := parse(t, `<div><x><y/></x></div>`)
	Transform(root, Options{NodeTransforms: []NodeTransform{remove, count}})
	assert.Zero(t, calls)
	assert.Empty(t, elementAt(t, root.Children[0]).Children)
}

func TestTraverseNode_ReplacedNodeSeenByLaterTransforms(t *testing.T) {
	var seen []string
	replace := func(node ast.Node, ctx *Context) []ExitFn {
		if el, ok := node.(*ast.ElementNode); ok && el.Tag == "old" {
			ctx.ReplaceNode(&ast.TextNode{Base: ast.Base{Loc: el.Loc}, Content: "new"})
		}
		return nil
	}
	observe := func(node ast.Node, ctx *Context) []ExitFn {
		if text, ok := node.(*ast.TextNode); ok {
			seen = append(seen, text.Content)
		}
		return nil
	}
	root := parse(t, `<div><old/></div>`)
	Transform(root, Options{NodeTransforms: []NodeTransform{replace, observe}})

	assert.Equal(t, []string{"new"}, seen)
	text, ok := elementAt(t, root.Children[0]).Children[0].(*ast.TextNode)
	require.True(t, ok)
	assert.NotZero(t, text.ID())
}

func TestContext_HelperCounting(t *testing.T) {
	ctx := NewContext(parse(t, ``), Options{})
	ctx.Helper(ast.CreateElementVNode)
	ctx.Helper(ast.ToDisplayString)
	ctx.Helper(ast.CreateElementVNode)
	assert.Equal(t, 2, ctx.HelperCount(ast.CreateElementVNode))

	ctx.RemoveHelper(ast.CreateElementVNode)
	assert.Equal(t, []ast.Helper{ast.CreateElementVNode, ast.ToDisplayString}, ctx.Helpers())
	ctx.RemoveHelper(ast.CreateElementVNode)
	assert.Equal(t, []ast.Helper{ast.ToDisplayString}, ctx.Helpers())

	// removing an unused helper is a no-op
	ctx.RemoveHelper(ast.Fragment)
	assert.Equal(t, "_toDisplayString", ctx.HelperString(ast.ToDisplayString))
	assert.Equal(t, 2, ctx.HelperCount(ast.ToDisplayString))
}

func TestContext_HoistAndCache(t *testing.T) {
	ctx := NewContext(parse(t, ``), Options{})
	a := ctx.Hoist(ast.ConstCode(`"a"`))
	b := ctx.Hoist(ast.ConstCode(`"b"`))
	assert.Equal(t, "_hoisted_1", a.Content)
	assert.Equal(t, "_hoisted_2", b.Content)
	assert.Equal(t, ast.CanHoist, a.ConstType)
	assert.Len(t, ctx.Hoists(), 2)

	ce := ctx.Cache(ast.Code("x"), false)
	assert.Equal(t, 0, ce.Index)
	assert.Equal(t, 1, ctx.NextCacheIndex())
	assert.Equal(t, 2, ctx.Cache(ast.Code("y"), true).Index)
}

func TestContext_Identifiers(t *testing.T) {
	ctx := NewContext(parse(t, ``), Options{})
	ctx.AddIdentifier("item")
	ctx.AddIdentifier("item")
	ctx.RemoveIdentifier("item")
	assert.True(t, ctx.IsIdentifier("item"))
	ctx.RemoveIdentifier("item")
	assert.False(t, ctx.IsIdentifier("item"))
}

func TestSelfName(t *testing.T) {
	tests := map[string]string{
		"":                           "",
		"App.vue.html":               "App",
		"src/components/my-list.vue": "MyList",
		`c:\views\user_card.html`:    "User_card",
	}
	for in, want := range tests {
		assert.Equal(t, want, selfName(in), in)
	}
}

func TestTransform_DefaultOnErrorAborts(t *testing.T) {
	nodeTransforms, directiveTransforms := BaseTransforms(false)
	root := parse(t, `<div v-if></div><p v-else-if/>`)

	err := func() (err error) {
		defer errors.Recover(&err)
		Transform(root, Options{NodeTransforms: nodeTransforms, DirectiveTransforms: directiveTransforms})
		return nil
	}()

	var ce *errors.CompilerError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, errors.XVIfNoExpression, ce.Code)
	assert.False(t, root.Transformed)
}
