package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/stencil/internal/compiler/ast"
	"github.com/conduit-lang/stencil/internal/compiler/errors"
)

func slotsOf(t *testing.T, root *ast.RootNode) *ast.ObjectExpression {
	t.Helper()
	return object(t, vnode(t, root.Codegen).Child)
}

func TestBuildSlots_ImplicitDefault(t *testing.T) {
	root, c := transformSource(t, `<Comp>hello</Comp>`, false)
	require.Empty(t, c.Errors)

	v := vnode(t, root.Codegen)
	assert.Equal(t, "_component_Comp", v.Tag)
	assert.True(t, v.IsComponent)
	assert.Equal(t, []string{"Comp"}, root.Components)
	assert.Contains(t, root.Helpers, ast.ResolveComponent)
	assert.Contains(t, root.Helpers, ast.WithCtx)

	slots := slotsOf(t, root)
	assert.Equal(t, []string{"default", "_"}, propKeys(slots))
	fn, ok := propValue(t, slots, "default").(*ast.FunctionExpression)
	require.True(t, ok)
	assert.True(t, fn.IsSlot)
	assert.Len(t, fn.ReturnsChildren, 1)
	assert.Equal(t, "1", ast.ExpressionText(propValue(t, slots, "_")))
}

func TestBuildSlots_NamedTemplates(t *testing.T) {
	root, c := transformSource(t, `<Comp><template #header="{ title }">{{ title }}</template><template #footer>f</template></Comp>`, true)
	require.Empty(t, c.Errors)

	slots := slotsOf(t, root)
	assert.Equal(t, []string{"header", "footer", "_"}, propKeys(slots))

	header := propValue(t, slots, "header").(*ast.FunctionExpression)
	require.Len(t, header.Params, 1)
	require.Len(t, header.ReturnsChildren, 1)
	text, ok := header.ReturnsChildren[0].(*ast.TextCallNode)
	require.True(t, ok, "got %T", header.ReturnsChildren[0])
	// slot props are local to the slot
	assert.Equal(t, "title", ast.ExpressionText(text.Content))
}

func TestBuildSlots_DuplicateNamesKeepFirst(t *testing.T) {
	root, c := transformSource(t, `<Comp><template #a>1</template><template #a>2</template></Comp>`, false)

	assert.Equal(t, []errors.ErrorCode{errors.XVSlotDuplicateSlotNames}, c.Errors.Codes())
	slots := slotsOf(t, root)
	assert.Equal(t, []string{"a", "_"}, propKeys(slots))
	first := propValue(t, slots, "a").(*ast.FunctionExpression)
	require.Len(t, first.ReturnsChildren, 1)
	text, ok := first.ReturnsChildren[0].(*ast.TextCallNode)
	require.True(t, ok)
	assert.Equal(t, "1", ast.ExpressionText(text.Content))
}

func TestBuildSlots_ConditionalSlotIsDynamic(t *testing.T) {
	root, c := transformSource(t, `<Comp><template v-if="ok" #a>x</template><template v-else #b>y</template></Comp>`, false)
	require.Empty(t, c.Errors)

	v := vnode(t, root.Codegen)
	assert.True(t, v.PatchFlag.Has(ast.PatchDynamicSlots))
	call, ok := v.Child.(*ast.CallExpression)
	require.True(t, ok)
	assert.Equal(t, ast.CreateSlots, call.Callee)
	require.Len(t, call.Arguments, 2)

	dynamic := call.Arguments[1].(*ast.ArrayExpression)
	require.Len(t, dynamic.Elements, 1)
	cond := conditional(t, dynamic.Elements[0])
	assert.Equal(t, "ok", ast.ExpressionText(cond.Test))
	assert.Equal(t, "0", ast.ExpressionText(propValue(t, object(t, cond.Consequent), "key")))
	assert.Equal(t, "1", ast.ExpressionText(propValue(t, object(t, cond.Alternate), "key")))

	static := object(t, call.Arguments[0])
	assert.Equal(t, "2", ast.ExpressionText(propValue(t, static, "_")))
}

func TestBuildSlots_LoopedSlot(t *testing.T) {
	root, c := transformSource(t, `<Comp><template v-for="n in names" #[n]>{{ n }}</template></Comp>`, true)
	require.Empty(t, c.Errors)

	call := vnode(t, root.Codegen).Child.(*ast.CallExpression)
	dynamic := call.Arguments[1].(*ast.ArrayExpression)
	require.Len(t, dynamic.Elements, 1)
	list, ok := dynamic.Elements[0].(*ast.CallExpression)
	require.True(t, ok)
	assert.Equal(t, ast.RenderList, list.Callee)
	assert.Equal(t, "_ctx.names", ast.ExpressionText(list.Arguments[0]))
}

func TestBuildSlots_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   errors.ErrorCode
	}{
		{"mixed usage", `<Comp v-slot="p"><template #a>x</template></Comp>`, errors.XVSlotMixedSlotUsage},
		{"extraneous default children", `<Comp><template #default>a</template>b</Comp>`, errors.XVSlotExtraneousDefaultSlotChildren},
		{"slot on plain element", `<div v-slot="p"/>`, errors.XVSlotMisplaced},
		{"template slot outside component", `<div><template #a>x</template></div>`, errors.XVSlotMisplaced},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := transformSource(t, tt.source, false)
			assert.Contains(t, c.Errors.Codes(), tt.want)
		})
	}
}

func TestTransformSlotOutlet(t *testing.T) {
	root, c := transformSource(t, `<slot name="header" :title="t">fallback</slot>`, true)
	require.Empty(t, c.Errors)

	call, ok := elementAt(t, root.Children[0]).Codegen.(*ast.CallExpression)
	require.True(t, ok)
	assert.Equal(t, ast.RenderSlot, call.Callee)
	require.Len(t, call.Arguments, 4)
	assert.Equal(t, "_ctx.$slots", ast.ExpressionText(call.Arguments[0]))
	assert.Equal(t, `"header"`, ast.ExpressionText(call.Arguments[1]))
	assert.Equal(t, []string{"title"}, propKeys(object(t, call.Arguments[2])))
	fallback := call.Arguments[3].(*ast.FunctionExpression)
	assert.Len(t, fallback.ReturnsChildren, 1)

	// a lone slot outlet is returned as is
	assert.Same(t, root.Children[0], root.Codegen)
}

func TestTransformSlotOutlet_MinimalArguments(t *testing.T) {
	root, _ := transformSource(t, `<slot/>`, false)
	call := elementAt(t, root.Children[0]).Codegen.(*ast.CallExpression)
	require.Len(t, call.Arguments, 2)
	assert.Equal(t, "$slots", ast.ExpressionText(call.Arguments[0]))
	assert.Equal(t, `"default"`, ast.ExpressionText(call.Arguments[1]))
}

func TestTransformSlotOutlet_ScopeIDAddsFlag(t *testing.T) {
	root, _ := transformSource(t, `<slot/>`, false, func(o *Options) { o.ScopeID = "data-v-1" })
	call := elementAt(t, root.Children[0]).Codegen.(*ast.CallExpression)
	require.Len(t, call.Arguments, 5)
	assert.Equal(t, "{}", ast.ExpressionText(call.Arguments[2]))
	assert.Equal(t, "undefined", ast.ExpressionText(call.Arguments[3]))
	assert.Equal(t, "true", ast.ExpressionText(call.Arguments[4]))
}
