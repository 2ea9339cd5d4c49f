package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/stencil/internal/compiler/ast"
	"github.com/conduit-lang/stencil/internal/compiler/errors"
)

func callOf(t *testing.T, n ast.Node, callee ast.Helper) *ast.CallExpression {
	t.Helper()
	call, ok := n.(*ast.CallExpression)
	require.True(t, ok, "expected call, got %T", n)
	require.Equal(t, callee, call.Callee)
	return call
}

func TestTransformElement_PatchFlags(t *testing.T) {
	root, c := transformSource(t, `<div class="a" :class="b" @click="go" :id="x"/>`, false)
	require.Empty(t, c.Errors)

	v := vnode(t, root.Codegen)
	assert.Equal(t, ast.PatchClass|ast.PatchProps, v.PatchFlag)
	assert.Equal(t, `["onClick", "id"]`, ast.ExpressionText(v.DynamicProps))

	props := object(t, v.Props)
	assert.Equal(t, []string{"class", "onClick", "id"}, propKeys(props))

	// static and bound class merge into one normalized array
	class := callOf(t, propValue(t, props, "class"), ast.NormalizeClass)
	arr, ok := class.Arguments[0].(*ast.ArrayExpression)
	require.True(t, ok)
	require.Len(t, arr.Elements, 2)
	assert.Equal(t, "a", ast.ExpressionText(arr.Elements[0]))
	assert.Equal(t, "b", ast.ExpressionText(arr.Elements[1]))
}

func TestTransformElement_StaticPropsHaveNoFlag(t *testing.T) {
	root, _ := transformSource(t, `<img src="a.png" alt>`, false)
	v := vnode(t, root.Codegen)
	assert.Equal(t, ast.PatchFlag(0), v.PatchFlag)
	assert.Nil(t, v.DynamicProps)
	props := object(t, v.Props)
	assert.Equal(t, []string{"src", "alt"}, propKeys(props))
	assert.Equal(t, "", ast.ExpressionText(propValue(t, props, "alt")))
}

func TestTransformElement_BindObjectMerges(t *testing.T) {
	root, c := transformSource(t, `<div v-bind="obj" id="a"/>`, false)
	require.Empty(t, c.Errors)

	v := vnode(t, root.Codegen)
	assert.Equal(t, ast.PatchFullProps, v.PatchFlag)
	merge := callOf(t, v.Props, ast.MergeProps)
	require.Len(t, merge.Arguments, 2)
	assert.Equal(t, "obj", ast.ExpressionText(merge.Arguments[0]))
	assert.Equal(t, []string{"id"}, propKeys(object(t, merge.Arguments[1])))
}

func TestTransformElement_SingleBindObjectIsGuarded(t *testing.T) {
	root, _ := transformSource(t, `<div v-bind="obj"/>`, false)
	v := vnode(t, root.Codegen)
	outer := callOf(t, v.Props, ast.NormalizeProps)
	inner := callOf(t, outer.Arguments[0], ast.GuardReactiveProps)
	assert.Equal(t, "obj", ast.ExpressionText(inner.Arguments[0]))
}

func TestTransformElement_OnObjectOnElement(t *testing.T) {
	root, _ := transformSource(t, `<div v-on="handlers"/>`, false)
	v := vnode(t, root.Codegen)
	call := callOf(t, v.Props, ast.ToHandlers)
	require.Len(t, call.Arguments, 2)
	assert.Equal(t, "true", ast.ExpressionText(call.Arguments[1]))
}

func TestTransformElement_CustomDirective(t *testing.T) {
	root, c := transformSource(t, `<div v-foo:bar.baz="x"/>`, false)
	require.Empty(t, c.Errors)

	v := vnode(t, root.Codegen)
	assert.Equal(t, ast.PatchNeedPatch, v.PatchFlag)
	require.NotNil(t, v.Directives)
	require.Len(t, v.Directives.Elements, 1)

	args := v.Directives.Elements[0].(*ast.ArrayExpression)
	require.Len(t, args.Elements, 4)
	assert.Equal(t, "_directive_foo", ast.ExpressionText(args.Elements[0]))
	assert.Equal(t, "x", ast.ExpressionText(args.Elements[1]))
	assert.Equal(t, "bar", ast.ExpressionText(args.Elements[2]))
	assert.Equal(t, []string{"baz"}, propKeys(object(t, args.Elements[3])))

	assert.Equal(t, []string{"foo"}, root.Directives)
	assert.Contains(t, root.Helpers, ast.ResolveDirective)
	assert.Contains(t, root.Helpers, ast.WithDirectives)
}

func TestTransformElement_DirectiveWithoutValueFillsSlots(t *testing.T) {
	root, _ := transformSource(t, `<div v-foo.lazy/>`, false)
	args := vnode(t, root.Codegen).Directives.Elements[0].(*ast.ArrayExpression)
	require.Len(t, args.Elements, 4)
	assert.Equal(t, "void 0", ast.ExpressionText(args.Elements[1]))
	assert.Equal(t, "void 0", ast.ExpressionText(args.Elements[2]))
}

func TestTransformElement_CustomDirectiveWithChildrenUsesBlock(t *testing.T) {
	root, _ := transformSource(t, `<div><p v-foo>x</p></div>`, false)
	p := elementAt(t, elementAt(t, root.Children[0]).Children[0])
	v := vnode(t, p.Codegen)
	assert.True(t, v.IsBlock)
	assert.Equal(t, ast.PatchFlag(0), v.PatchFlag)
}

func TestTransformElement_RefNeedsPatch(t *testing.T) {
	root, _ := transformSource(t, `<div ref="r"/>`, false)
	assert.Equal(t, ast.PatchNeedPatch, vnode(t, root.Codegen).PatchFlag)
}

func TestTransformElement_RefInsideLoop(t *testing.T) {
	root, _ := transformSource(t, `<div v-for="x in xs" ref="r"/>`, false)
	_, fn := renderList(t, root.Children[0].(*ast.ForNode))
	props := object(t, vnode(t, fn.Returns).Props)
	assert.Equal(t, []string{"ref_for", "ref"}, propKeys(props))
}

func TestTransformElement_ComponentClassIsAProp(t *testing.T) {
	root, _ := transformSource(t, `<Comp :class="c"/>`, false)
	v := vnode(t, root.Codegen)
	assert.Equal(t, ast.PatchProps, v.PatchFlag)
	assert.Equal(t, `["class"]`, ast.ExpressionText(v.DynamicProps))
}

func TestTransformElement_DynamicComponent(t *testing.T) {
	root, c := transformSource(t, `<component :is="view" title="t"/>`, false)
	require.Empty(t, c.Errors)

	v := vnode(t, root.Codegen)
	require.NotNil(t, v.TagCall)
	assert.Equal(t, ast.ResolveDynamicComponent, v.TagCall.Callee)
	assert.Equal(t, "view", ast.ExpressionText(v.TagCall.Arguments[0]))
	assert.True(t, v.IsBlock)
	// is is consumed by the tag
	assert.Equal(t, []string{"title"}, propKeys(object(t, v.Props)))
	assert.Empty(t, root.Components)
}

func TestTransformElement_VueIsPrefix(t *testing.T) {
	root, _ := transformSource(t, `<button is="vue:fancy-button"/>`, false)
	v := vnode(t, root.Codegen)
	assert.Equal(t, "_component_fancy_button", v.Tag)
	assert.Equal(t, []string{"fancy-button"}, root.Components)
}

func TestTransformElement_KeepAlive(t *testing.T) {
	root, c := transformSource(t, `<KeepAlive><A/></KeepAlive>`, false)
	require.Empty(t, c.Errors)
	v := vnode(t, root.Codegen)
	assert.True(t, v.HasTag(ast.KeepAlive))
	assert.True(t, v.PatchFlag.Has(ast.PatchDynamicSlots))
	// KeepAlive receives its children raw
	require.Len(t, v.Children, 1)

	_, c = transformSource(t, `<KeepAlive><A/><B/></KeepAlive>`, false)
	assert.Equal(t, []errors.ErrorCode{errors.XKeepAliveInvalidChildren}, c.Errors.Codes())
}

func TestTransformElement_DynamicTextChild(t *testing.T) {
	root, _ := transformSource(t, `<p>{{ msg }}</p>`, true)
	v := vnode(t, root.Codegen)
	assert.Equal(t, ast.PatchText, v.PatchFlag)
	interp, ok := v.Child.(*ast.InterpolationNode)
	require.True(t, ok)
	assert.Equal(t, "_ctx.msg", ast.ExpressionText(interp.Content))
}

func TestTransformElement_ConstantInterpolationIsNotPatched(t *testing.T) {
	root, _ := transformSource(t, `<p>{{ 1 + 2 }}</p>`, true)
	assert.Equal(t, ast.PatchFlag(0), vnode(t, root.Codegen).PatchFlag)
}

func TestTransformElement_BindCamelModifier(t *testing.T) {
	root, _ := transformSource(t, `<svg :view-box.camel="vb"/>`, false)
	v := vnode(t, root.Codegen)
	assert.Equal(t, []string{"viewBox"}, propKeys(object(t, v.Props)))
	// svg is always a block
	assert.True(t, v.IsBlock)
}

func TestTransformElement_BindPropModifier(t *testing.T) {
	root, _ := transformSource(t, `<div :text-content.prop="t" .inner-html="h"/>`, false)
	assert.Equal(t, []string{".text-content", ".inner-html"}, propKeys(object(t, vnode(t, root.Codegen).Props)))
}

func TestTransformElement_BindWithoutExpression(t *testing.T) {
	_, c := transformSource(t, `<div :id/>`, false)
	assert.Equal(t, []errors.ErrorCode{errors.XVBindNoExpression}, c.Errors.Codes())
}
