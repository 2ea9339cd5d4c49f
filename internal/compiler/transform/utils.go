package transform

import (
	"strings"

	"github.com/conduit-lang/stencil/internal/compiler/ast"
)

const (
	emptyObject = "{}"
	undefined   = "undefined"
)

// placeholder arguments of helper calls that are trimmed or replaced later
func rawArg(s string) *ast.SimpleExpressionNode { return ast.ConstCode(s) }

func isRawArg(n ast.Node, s string) bool {
	e, ok := n.(*ast.SimpleExpressionNode)
	return ok && !e.IsStatic && e.Content == s && e.Location().IsStub()
}

// makeBlock turns a vnode call into a block, swapping its creation helper.
func makeBlock(v *ast.VNodeCall, ctx *Context) {
	if v.IsBlock {
		return
	}
	v.IsBlock = true
	ctx.RemoveHelper(ast.VNodeHelper(false, v.IsComponent))
	ctx.Helper(ast.OpenBlock)
	ctx.Helper(ast.BlockHelper(false, v.IsComponent))
}

// getMemoedVNodeCall unwraps a withMemo call to the vnode call it renders.
func getMemoedVNodeCall(n ast.Node) ast.Node {
	call, ok := n.(*ast.CallExpression)
	if !ok || call.Callee != ast.WithMemo || len(call.Arguments) < 2 {
		return n
	}
	if fn, ok := call.Arguments[1].(*ast.FunctionExpression); ok {
		return fn.Returns
	}
	return n
}

// unnormalizedProps strips normalizeProps/guardReactiveProps wrappers and
// returns the innermost props together with the wrapper chain.
func unnormalizedProps(props ast.Node, path []*ast.CallExpression) (ast.Node, []*ast.CallExpression) {
	call, ok := props.(*ast.CallExpression)
	if ok && (call.Callee == ast.NormalizeProps || call.Callee == ast.GuardReactiveProps) && len(call.Arguments) > 0 {
		return unnormalizedProps(call.Arguments[0], append(path, call))
	}
	return props, path
}

// injectProp adds prop in front of the props of a vnode call or a renderSlot
// call, merging with whatever props shape is already there. An existing prop
// with the same static key wins.
func injectProp(node ast.Node, prop *ast.Property, ctx *Context) {
	var props ast.Node
	switch n := node.(type) {
	case *ast.VNodeCall:
		props = n.Props
	case *ast.CallExpression:
		if len(n.Arguments) > 2 {
			props = n.Arguments[2]
		}
	default:
		return
	}

	var path []*ast.CallExpression
	var parentCall *ast.CallExpression
	if _, ok := props.(*ast.CallExpression); ok {
		props, path = unnormalizedProps(props, nil)
		if len(path) > 0 {
			parentCall = path[len(path)-1]
		}
	}

	var injected ast.Node
	switch p := props.(type) {
	case nil:
		injected = ast.NewObject([]*ast.Property{prop}, ast.LocStub)
	case *ast.CallExpression:
		// mergeProps(...) or toHandlers(...)
		if first, ok := firstArg(p).(*ast.ObjectExpression); ok {
			if !hasProp(prop, first) {
				first.Properties = append([]*ast.Property{prop}, first.Properties...)
			}
			injected = p
		} else if p.Callee == ast.ToHandlers {
			injected = ast.NewCall(ctx.Helper(ast.MergeProps), ast.NewObject([]*ast.Property{prop}, ast.LocStub), p)
		} else {
			p.Arguments = append([]ast.Node{ast.NewObject([]*ast.Property{prop}, ast.LocStub)}, p.Arguments...)
			injected = p
		}
	case *ast.ObjectExpression:
		if !hasProp(prop, p) {
			p.Properties = append([]*ast.Property{prop}, p.Properties...)
		}
		injected = p
	default:
		if isRawArg(p, emptyObject) {
			injected = ast.NewObject([]*ast.Property{prop}, ast.LocStub)
			break
		}
		// single v-bind object
		injected = ast.NewCall(ctx.Helper(ast.MergeProps), ast.NewObject([]*ast.Property{prop}, ast.LocStub), p)
		if parentCall != nil && parentCall.Callee == ast.GuardReactiveProps {
			if len(path) > 1 {
				parentCall = path[len(path)-2]
			} else {
				parentCall = nil
			}
		}
	}

	if parentCall != nil {
		parentCall.Arguments[0] = injected
		return
	}
	switch n := node.(type) {
	case *ast.VNodeCall:
		n.Props = injected
	case *ast.CallExpression:
		for len(n.Arguments) < 3 {
			n.Arguments = append(n.Arguments, rawArg(emptyObject))
		}
		n.Arguments[2] = injected
	}
}

func firstArg(call *ast.CallExpression) ast.Node {
	if len(call.Arguments) == 0 {
		return nil
	}
	return call.Arguments[0]
}

func hasProp(prop *ast.Property, obj *ast.ObjectExpression) bool {
	key, ok := prop.Key.(*ast.SimpleExpressionNode)
	if !ok {
		return false
	}
	for _, p := range obj.Properties {
		if k, ok := p.Key.(*ast.SimpleExpressionNode); ok && k.Content == key.Content {
			return true
		}
	}
	return false
}

// hasScopeRef reports whether node references any of the local scope
// identifiers currently bound in ctx.
func hasScopeRef(node ast.Node, ctx *Context) bool {
	switch n := node.(type) {
	case nil:
		return false
	case *ast.ElementNode:
		for _, p := range n.Props {
			if d, ok := p.(*ast.DirectiveNode); ok && (hasScopeRef(d.Arg, ctx) || hasScopeRef(d.Exp, ctx)) {
				return true
			}
		}
		return anyScopeRef(n.Children, ctx)
	case *ast.ForNode:
		return hasScopeRef(n.Source, ctx) || anyScopeRef(n.Children, ctx)
	case *ast.IfNode:
		for _, b := range n.Branches {
			if hasScopeRef(b, ctx) {
				return true
			}
		}
		return false
	case *ast.IfBranchNode:
		return hasScopeRef(n.Condition, ctx) || anyScopeRef(n.Children, ctx)
	case *ast.SimpleExpressionNode:
		return !n.IsStatic && ast.IsSimpleIdentifier(n.Content) && ctx.IsIdentifier(n.Content)
	case *ast.CompoundExpressionNode:
		for _, part := range n.Children {
			if child, ok := part.(ast.Node); ok && hasScopeRef(child, ctx) {
				return true
			}
		}
		return false
	case *ast.InterpolationNode:
		return hasScopeRef(n.Content, ctx)
	case *ast.TextCallNode:
		return hasScopeRef(n.Content, ctx)
	}
	return false
}

func anyScopeRef(nodes []ast.Node, ctx *Context) bool {
	for _, c := range nodes {
		if hasScopeRef(c, ctx) {
			return true
		}
	}
	return false
}

var reservedProps = map[string]bool{
	"": true, "key": true, "ref": true, "ref_for": true, "ref_key": true,
	"onVnodeBeforeMount": true, "onVnodeMounted": true,
	"onVnodeBeforeUpdate": true, "onVnodeUpdated": true,
	"onVnodeBeforeUnmount": true, "onVnodeUnmounted": true,
}

func isReservedProp(name string) bool { return reservedProps[name] }

// isOn matches event handler prop keys: onClick, on-click, onUpdate:value.
func isOn(key string) bool {
	return len(key) > 2 && strings.HasPrefix(key, "on") && !(key[2] >= 'a' && key[2] <= 'z')
}

func isBuiltInDirective(name string) bool {
	switch name {
	case "bind", "cloak", "else-if", "else", "for", "html", "if", "model", "on",
		"once", "pre", "show", "slot", "text", "memo", "is":
		return true
	}
	return false
}

func hasDir(el *ast.ElementNode, name string) bool {
	return ast.FindDir(el, name, true) != nil
}

func indexOf(nodes []ast.Node, n ast.Node) int {
	for i, c := range nodes {
		if c == n {
			return i
		}
	}
	return -1
}
