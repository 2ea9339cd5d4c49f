package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/stencil/internal/compiler/ast"
	"github.com/conduit-lang/stencil/internal/compiler/errors"
)

func rootProps(t *testing.T, root *ast.RootNode) *ast.ObjectExpression {
	t.Helper()
	return object(t, vnode(t, root.Codegen).Props)
}

func cached(t *testing.T, n ast.Node) *ast.CacheExpression {
	t.Helper()
	ce, ok := n.(*ast.CacheExpression)
	require.True(t, ok, "expected cache expression, got %T", n)
	return ce
}

func TestTransformOn_HandlerKeys(t *testing.T) {
	tests := []struct {
		source string
		key    string
	}{
		{`<div @click="h"/>`, "onClick"},
		{`<div @update-value="h"/>`, "onUpdateValue"},
		{`<div @vue:mounted="h"/>`, "onVnodeMounted"},
		{`<div @myEvent="h"/>`, "on:myEvent"},
		{`<Comp @myEvent="h"/>`, "onMyEvent"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			root, _ := transformSource(t, tt.source, false)
			assert.Equal(t, []string{tt.key}, propKeys(rootProps(t, root)))
		})
	}
}

func TestTransformOn_MemberHandlerIsPassedThrough(t *testing.T) {
	root, c := transformSource(t, `<div @click="handler"/>`, false)
	require.Empty(t, c.Errors)

	v := vnode(t, root.Codegen)
	assert.Equal(t, "handler", ast.ExpressionText(propValue(t, object(t, v.Props), "onClick")))
	assert.Equal(t, ast.PatchProps, v.PatchFlag)
	assert.Equal(t, `["onClick"]`, ast.ExpressionText(v.DynamicProps))
}

func TestTransformOn_InlineStatements(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{`<div @click="count++"/>`, "$event => (count++)"},
		{`<div @click="a(); b()"/>`, "$event => {a(); b()}"},
		{`<div @click="() => go()"/>`, "() => go()"},
		{`<div @click="function () {}"/>`, "function () {}"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			root, _ := transformSource(t, tt.source, false)
			assert.Equal(t, tt.want, ast.ExpressionText(propValue(t, rootProps(t, root), "onClick")))
		})
	}
}

func TestTransformOn_CachesInlineHandler(t *testing.T) {
	root, c := transformSource(t, `<div @click="count++"/>`, true, withCachedHandlers)
	require.Empty(t, c.Errors)

	v := vnode(t, root.Codegen)
	ce := cached(t, propValue(t, object(t, v.Props), "onClick"))
	assert.Equal(t, 0, ce.Index)
	assert.Equal(t, "$event => (_ctx.count++)", ast.ExpressionText(ce.Value))
	// a cached handler never changes
	assert.Equal(t, ast.PatchFlag(0), v.PatchFlag)
	assert.Equal(t, 1, root.Cached)
}

func TestTransformOn_CachesMemberHandlerThroughLatestValue(t *testing.T) {
	root, _ := transformSource(t, `<div @click="handler"/>`, true, withCachedHandlers)
	ce := cached(t, propValue(t, rootProps(t, root), "onClick"))
	assert.Equal(t, "(...args) => (_ctx.handler && _ctx.handler(...args))", ast.ExpressionText(ce.Value))
}

func TestTransformOn_ScopeReferenceIsNotCached(t *testing.T) {
	root, _ := transformSource(t, `<div v-for="x in xs" @click="pick(x)"/>`, true, withCachedHandlers)
	_, fn := renderList(t, root.Children[0].(*ast.ForNode))
	value := propValue(t, object(t, vnode(t, fn.Returns).Props), "onClick")
	_, isCached := value.(*ast.CacheExpression)
	assert.False(t, isCached)
	assert.Equal(t, "$event => (_ctx.pick(x))", ast.ExpressionText(value))
}

func TestTransformOn_ModifierOnlyGetsEmptyHandler(t *testing.T) {
	root, c := transformSource(t, `<form @submit.prevent/>`, false)
	require.Empty(t, c.Errors)
	assert.Equal(t, "() => {}", ast.ExpressionText(propValue(t, rootProps(t, root), "onSubmit")))
}

func TestTransformOn_NoExpression(t *testing.T) {
	_, c := transformSource(t, `<div @click/>`, false)
	assert.Equal(t, []errors.ErrorCode{errors.XVOnNoExpression}, c.Errors.Codes())
}

func TestTransformOn_DynamicEventName(t *testing.T) {
	root, c := transformSource(t, `<div @[evt]="h"/>`, false)
	require.Empty(t, c.Errors)

	v := vnode(t, root.Codegen)
	assert.Equal(t, ast.PatchFullProps, v.PatchFlag)
	props := object(t, v.Props)
	require.Len(t, props.Properties, 1)
	assert.Equal(t, "_toHandlerKey(evt)", ast.ExpressionText(props.Properties[0].Key))
	assert.Contains(t, root.Helpers, ast.HelperToHandlerKey)
}

func TestTransformOn_VNodeHookWarning(t *testing.T) {
	root, c := transformSource(t, `<div @vnodeMounted="h"/>`, false)
	assert.Equal(t, []errors.ErrorCode{errors.DeprecationVNodeHooks}, c.Warnings.Codes())
	assert.Equal(t, []string{"onVnodeMounted"}, propKeys(rootProps(t, root)))
}

func TestTransformModel_Element(t *testing.T) {
	root, c := transformSource(t, `<input v-model="text">`, false)
	require.Empty(t, c.Errors)

	v := vnode(t, root.Codegen)
	props := object(t, v.Props)
	assert.Equal(t, []string{"modelValue", "onUpdate:modelValue"}, propKeys(props))
	assert.Equal(t, "text", ast.ExpressionText(propValue(t, props, "modelValue")))
	assert.Equal(t, "$event => ((text) = $event)", ast.ExpressionText(propValue(t, props, "onUpdate:modelValue")))
	assert.Equal(t, ast.PatchProps, v.PatchFlag)
}

func TestTransformModel_ComponentArgumentAndModifiers(t *testing.T) {
	root, c := transformSource(t, `<Comp v-model:page-title.trim.bar-baz="t"/>`, false)
	require.Empty(t, c.Errors)

	props := rootProps(t, root)
	assert.Equal(t, []string{"page-title", "onUpdate:pageTitle", "page-titleModifiers"}, propKeys(props))
	assert.Equal(t, `{ trim: true, "bar-baz": true }`, ast.ExpressionText(propValue(t, props, "page-titleModifiers")))
}

func TestTransformModel_ModifiersIgnoredOnElements(t *testing.T) {
	root, _ := transformSource(t, `<input v-model.trim="t">`, false)
	assert.Equal(t, []string{"modelValue", "onUpdate:modelValue"}, propKeys(rootProps(t, root)))
}

func TestTransformModel_CachedAssignment(t *testing.T) {
	root, _ := transformSource(t, `<input v-model="form.name">`, true, withCachedHandlers)
	props := rootProps(t, root)
	assert.Equal(t, "_ctx.form.name", ast.ExpressionText(propValue(t, props, "modelValue")))
	ce := cached(t, propValue(t, props, "onUpdate:modelValue"))
	assert.Equal(t, "$event => ((_ctx.form.name) = $event)", ast.ExpressionText(ce.Value))
}

func TestTransformModel_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		prefix bool
		want   errors.ErrorCode
	}{
		{"no expression", `<input v-model>`, false, errors.XVModelNoExpression},
		{"not assignable", `<input v-model="a + b">`, false, errors.XVModelMalformedExpression},
		{"call", `<input v-model="get()">`, false, errors.XVModelMalformedExpression},
		{"loop alias", `<div v-for="x in xs"><input v-model="x"></div>`, true, errors.XVModelOnScopeVariable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := transformSource(t, tt.source, tt.prefix)
			assert.Equal(t, []errors.ErrorCode{tt.want}, c.Errors.Codes())
		})
	}
}

func TestTransformOn_PrefixesOnlyFreeIdentifiers(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{`<div @click="async () => { await save() }"/>`, "async () => { await _ctx.save() }"},
		{`<div @click="() => { const n = count + 1; save(n) }"/>`, "() => { const n = _ctx.count + 1; _ctx.save(n) }"},
		{`<div @click="const a = 1; go(a)"/>`, "$event => {const a = 1; _ctx.go(a)}"},
		{`<div @click="let { x, y: z } = pos; move(x, z)"/>`, "$event => {let { x, y: z } = _ctx.pos; _ctx.move(x, z)}"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			root, c := transformSource(t, tt.source, true)
			require.Empty(t, c.Errors)
			assert.Equal(t, tt.want, ast.ExpressionText(propValue(t, rootProps(t, root), "onClick")))
		})
	}
}

func TestTransformBind_ArrowBlockBody(t *testing.T) {
	root, c := transformSource(t, `<div :title="items.map(x => { const y = x; return y })"/>`, true)
	require.Empty(t, c.Errors)
	assert.Equal(t, "_ctx.items.map(x => { const y = x; return y })",
		ast.ExpressionText(propValue(t, rootProps(t, root), "title")))
}
