package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/stencil/internal/compiler/ast"
	"github.com/conduit-lang/stencil/internal/compiler/errors"
	"github.com/conduit-lang/stencil/internal/compiler/transform"
)

func TestCompile(t *testing.T) {
	res, err := Compile(`<div :id="id"><span>static</span>{{ msg }}</div>`, DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, res.Root)

	assert.NotEmpty(t, res.ID)
	assert.True(t, res.Root.Transformed)
	// the static span and the root's dynamic prop names
	assert.Len(t, res.Root.Hoists, 2)
	assert.Contains(t, res.Root.Helpers, ast.ToDisplayString)
	assert.Contains(t, res.Root.Helpers, ast.CreateText)

	v, ok := res.Root.Codegen.(*ast.VNodeCall)
	require.True(t, ok)
	assert.True(t, v.IsBlock)
	assert.Equal(t, ast.PatchProps, v.PatchFlag)
}

func TestCompile_AbortsOnFirstError(t *testing.T) {
	res, err := Compile(`<div v-if></div><div v-for="x"></div>`, DefaultOptions())
	assert.Nil(t, res)

	var ce *errors.CompilerError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, errors.XVIfNoExpression, ce.Code)
}

func TestCompile_ParseErrorAborts(t *testing.T) {
	_, err := Compile(`<div>{{ oops</div>`, DefaultOptions())
	var ce *errors.CompilerError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, errors.XMissingInterpolationEnd, ce.Code)
}

func TestCheck_CollectsEverything(t *testing.T) {
	opts := DefaultOptions()
	opts.Filename = "views/list.html"
	res := Check(`<div v-if></div><div v-for="x"></div><p v-else/>`, opts)

	require.NotNil(t, res.Root)
	assert.True(t, res.HasErrors())
	assert.Equal(t, []errors.ErrorCode{
		errors.XVIfNoExpression,
		errors.XVForMalformedExpression,
		errors.XVElseNoAdjacentIf,
	}, res.Errors.Codes())
	for _, e := range res.Errors {
		assert.Equal(t, "views/list.html", e.File)
	}
	assert.Len(t, res.Diagnostics(), 3)
}

func TestCheck_ForwardsToCallerSinks(t *testing.T) {
	var seen []errors.ErrorCode
	opts := DefaultOptions()
	opts.OnError = func(e *errors.CompilerError) { seen = append(seen, e.Code) }
	res := Check(`<input v-model>`, opts)
	assert.Equal(t, []errors.ErrorCode{errors.XVModelNoExpression}, seen)
	assert.Equal(t, seen, res.Errors.Codes())
}

func TestCheck_CallerSinkMayAbort(t *testing.T) {
	opts := DefaultOptions()
	opts.OnError = errors.DefaultOnError
	res := Check(`<div v-if></div>`, opts)
	assert.Nil(t, res.Root)
	assert.Equal(t, []errors.ErrorCode{errors.XVIfNoExpression}, res.Errors.Codes())
}

func TestCheck_FeatureDiagnostics(t *testing.T) {
	opts := DefaultOptions()
	opts.PrefixIdentifiers = false
	opts.CacheHandlers = true
	opts.ScopeID = "data-v-1"
	opts.Mode = ModeFunction

	res := Check(`<div/>`, opts)
	assert.Equal(t, []errors.ErrorCode{
		errors.XCacheHandlerNotSupported,
		errors.XScopeIDNotSupported,
	}, res.Errors.Codes())
	// compilation still ran
	assert.True(t, res.Root.Transformed)
}

func TestCompile_WarningsDoNotAbort(t *testing.T) {
	res := Check(`<div @vnodeMounted="h"/>`, DefaultOptions())
	assert.False(t, res.HasErrors())
	assert.Equal(t, []errors.ErrorCode{errors.DeprecationVNodeHooks}, res.Warnings.Codes())

	_, err := Compile(`<div @vnodeMounted="h"/>`, DefaultOptions())
	assert.NoError(t, err)
}

func TestCompile_ExtraTransforms(t *testing.T) {
	var tags []string
	opts := DefaultOptions()
	opts.NodeTransforms = []transform.NodeTransform{
		func(node ast.Node, ctx *transform.Context) []transform.ExitFn {
			if el, ok := node.(*ast.ElementNode); ok {
				tags = append(tags, el.Tag)
			}
			return nil
		},
	}
	opts.DirectiveTransforms = map[string]transform.DirectiveTransform{
		"show": func(dir *ast.DirectiveNode, _ *ast.ElementNode, _ *transform.Context) transform.DirectiveResult {
			return transform.DirectiveResult{NeedRuntime: true, Runtime: ast.HelperNone}
		},
	}

	res, err := Compile(`<div><p v-show="ok"/></div>`, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"div", "p"}, tags)
	assert.Equal(t, []string{"show"}, res.Root.Directives)
}

func TestParse(t *testing.T) {
	root, err := Parse(`<p>{{ a }}</p>`, DefaultOptions())
	require.NoError(t, err)
	assert.False(t, root.Transformed)
	require.Len(t, root.Children, 1)
}

func TestOptions_Fingerprint(t *testing.T) {
	a := DefaultOptions()
	b := DefaultOptions()
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	b.HoistStatic = false
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())

	c := DefaultOptions()
	c.OnWarn = func(*errors.CompilerError) {}
	assert.Equal(t, a.Fingerprint(), c.Fingerprint())
}
