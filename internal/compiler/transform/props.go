package transform

import (
	"slices"
	"strings"

	"github.com/conduit-lang/stencil/internal/compiler/ast"
	"github.com/conduit-lang/stencil/internal/compiler/errors"
)

// PropsResult is the outcome of BuildProps.
type PropsResult struct {
	// Props is nil, an *ast.ObjectExpression, a mergeProps / toHandlers /
	// normalizeProps call, or a single v-bind object expression.
	Props            ast.Node
	Directives       []*ast.DirectiveNode
	PatchFlag        ast.PatchFlag
	DynamicPropNames []string
	ShouldUseBlock   bool
}

// propsBuilder accumulates the props of one element. Static properties are
// collected until a v-bind / v-on object forces a merge boundary.
type propsBuilder struct {
	ctx         *Context
	node        *ast.ElementNode
	isComponent bool
	isDynamic   bool

	properties []*ast.Property
	mergeArgs  []ast.Node

	hasRef, hasClassBinding, hasStyleBinding bool
	hasHydrationEventBinding, hasVnodeHook   bool
	hasDynamicKeys                           bool
	dynamicPropNames                         []string
}

func buildProps(node *ast.ElementNode, ctx *Context, props []ast.Node, isComponent, isDynamicComponent bool) PropsResult {
	b := &propsBuilder{ctx: ctx, node: node, isComponent: isComponent, isDynamic: isDynamicComponent}
	hasChildren := len(node.Children) > 0
	shouldUseBlock := false
	var runtimeDirectives []*ast.DirectiveNode

	for _, p := range props {
		switch prop := p.(type) {
		case *ast.AttributeNode:
			if prop.Name == "ref" {
				b.hasRef = true
				if ctx.Scopes.VFor > 0 {
					b.properties = append(b.properties, refFor())
				}
			}
			// is on <component>, or is="vue:xxx"
			if prop.Name == "is" && (isComponentTag(node.Tag) || (prop.Value != nil && strings.HasPrefix(prop.Value.Content, "vue:"))) {
				continue
			}
			key := ast.NewSimpleExpression(prop.Name, true, ast.SubLocation(prop.Loc, 0, len(prop.Name)), ast.CanStringify)
			var value *ast.SimpleExpressionNode
			if prop.Value != nil {
				value = ast.NewSimpleExpression(prop.Value.Content, true, prop.Value.Loc, ast.CanStringify)
			} else {
				value = ast.NewSimpleExpression("", true, prop.Loc, ast.CanStringify)
			}
			b.properties = append(b.properties, ast.NewProperty(key, value))

		case *ast.DirectiveNode:
			isVBind := prop.Name == "bind"
			isVOn := prop.Name == "on"

			switch prop.Name {
			case "slot":
				if !isComponent {
					ctx.reportError(errors.XVSlotMisplaced, prop.Loc)
				}
				continue
			case "once", "memo", "is":
				continue
			}
			if isVBind && ast.IsStaticArgOf(prop.Arg, "is") && isComponentTag(node.Tag) {
				continue
			}

			// keyed elements and before-update hooks need their own block
			if (isVBind && ast.IsStaticArgOf(prop.Arg, "key")) ||
				(isVOn && hasChildren && ast.IsStaticArgOf(prop.Arg, "vue:before-update")) {
				shouldUseBlock = true
			}
			if isVBind && ast.IsStaticArgOf(prop.Arg, "ref") && ctx.Scopes.VFor > 0 {
				b.properties = append(b.properties, refFor())
			}

			// v-bind="obj" / v-on="obj"
			if prop.Arg == nil && (isVBind || isVOn) {
				b.hasDynamicKeys = true
				switch {
				case prop.Exp == nil && isVBind:
					ctx.reportError(errors.XVBindNoExpression, prop.Loc)
				case prop.Exp == nil:
					ctx.reportError(errors.XVOnNoExpression, prop.Loc)
				case isVBind:
					b.pushMergeArg(prop.Exp)
				default:
					args := []ast.Node{prop.Exp}
					if !isComponent {
						args = append(args, ast.ConstCode("true"))
					}
					call := ast.NewCall(ctx.Helper(ast.ToHandlers), args...)
					call.Loc = prop.Loc
					b.pushMergeArg(call)
				}
				continue
			}

			if transform, ok := ctx.opts.DirectiveTransforms[prop.Name]; ok {
				res := transform(prop, node, ctx)
				for _, p := range res.Props {
					b.analyzePatchFlag(p)
				}
				if isVOn && prop.Arg != nil && !ast.IsStaticExp(prop.Arg) {
					b.pushMergeArg(ast.NewObject(res.Props, node.Loc))
				} else {
					b.properties = append(b.properties, res.Props...)
				}
				if res.NeedRuntime {
					runtimeDirectives = append(runtimeDirectives, prop)
					if res.Runtime != ast.HelperNone {
						ctx.directiveRuntimes[ctx.ensureID(prop)] = res.Runtime
					}
				}
			} else if !isBuiltInDirective(prop.Name) {
				// user directive
				runtimeDirectives = append(runtimeDirectives, prop)
				if hasChildren {
					shouldUseBlock = true
				}
			}
		}
	}

	var propsExpression ast.Node
	switch {
	case len(b.mergeArgs) > 0:
		b.pushMergeArg(nil)
		if len(b.mergeArgs) > 1 {
			call := ast.NewCall(ctx.Helper(ast.MergeProps), b.mergeArgs...)
			call.Loc = node.Loc
			propsExpression = call
		} else {
			propsExpression = b.mergeArgs[0]
		}
	case len(b.properties) > 0:
		propsExpression = ast.NewObject(dedupeProperties(b.properties), node.Loc)
	}

	var patchFlag ast.PatchFlag
	if b.hasDynamicKeys {
		patchFlag |= ast.PatchFullProps
	} else {
		if b.hasClassBinding && !isComponent {
			patchFlag |= ast.PatchClass
		}
		if b.hasStyleBinding && !isComponent {
			patchFlag |= ast.PatchStyle
		}
		if len(b.dynamicPropNames) > 0 {
			patchFlag |= ast.PatchProps
		}
		if b.hasHydrationEventBinding {
			patchFlag |= ast.PatchNeedHydration
		}
	}
	if !shouldUseBlock && (patchFlag == 0 || patchFlag == ast.PatchNeedHydration) &&
		(b.hasRef || b.hasVnodeHook || len(runtimeDirectives) > 0) {
		patchFlag |= ast.PatchNeedPatch
	}

	if propsExpression != nil {
		propsExpression = b.normalize(propsExpression)
	}

	return PropsResult{
		Props:            propsExpression,
		Directives:       runtimeDirectives,
		PatchFlag:        patchFlag,
		DynamicPropNames: b.dynamicPropNames,
		ShouldUseBlock:   shouldUseBlock,
	}
}

func refFor() *ast.Property {
	return ast.NewStaticProperty("ref_for", ast.Code("true"))
}

// pushMergeArg closes the pending static properties into one object and
// appends arg, when non-nil, as the next mergeProps argument.
func (b *propsBuilder) pushMergeArg(arg ast.Node) {
	if len(b.properties) > 0 {
		b.mergeArgs = append(b.mergeArgs, ast.NewObject(dedupeProperties(b.properties), b.node.Loc))
		b.properties = nil
	}
	if arg != nil {
		b.mergeArgs = append(b.mergeArgs, arg)
	}
}

func (b *propsBuilder) analyzePatchFlag(p *ast.Property) {
	key, ok := p.Key.(*ast.SimpleExpressionNode)
	if !ok || !key.IsStatic {
		b.hasDynamicKeys = true
		return
	}
	name := key.Content
	isEventHandler := isOn(name)
	if isEventHandler && (!b.isComponent || b.isDynamic) &&
		strings.ToLower(name) != "onclick" &&
		name != "onUpdate:modelValue" &&
		!isReservedProp(name) {
		b.hasHydrationEventBinding = true
	}
	if isEventHandler && isReservedProp(name) {
		b.hasVnodeHook = true
	}

	// cached handlers and constant values never change
	switch v := p.Value.(type) {
	case *ast.CacheExpression:
		return
	case *ast.SimpleExpressionNode, *ast.CompoundExpressionNode:
		if GetConstantType(v, b.ctx) > ast.NotConstant {
			return
		}
	}

	switch name {
	case "ref":
		b.hasRef = true
	case "class":
		b.hasClassBinding = true
	case "style":
		b.hasStyleBinding = true
	case "key":
	default:
		if !slices.Contains(b.dynamicPropNames, name) {
			b.dynamicPropNames = append(b.dynamicPropNames, name)
		}
	}

	// class and style of a component are ordinary props to it
	if b.isComponent && (name == "class" || name == "style") && !slices.Contains(b.dynamicPropNames, name) {
		b.dynamicPropNames = append(b.dynamicPropNames, name)
	}
}

// normalize wraps class and style values so the runtime receives them in
// normalized form, or the whole props object when its keys are dynamic.
func (b *propsBuilder) normalize(props ast.Node) ast.Node {
	ctx := b.ctx
	switch p := props.(type) {
	case *ast.ObjectExpression:
		var classProp, styleProp *ast.Property
		hasDynamicKey := false
		for _, prop := range p.Properties {
			key, ok := prop.Key.(*ast.SimpleExpressionNode)
			switch {
			case ok && key.IsStatic:
				switch key.Content {
				case "class":
					classProp = prop
				case "style":
					styleProp = prop
				}
			case !isHandlerKey(prop.Key):
				hasDynamicKey = true
			}
		}
		if hasDynamicKey {
			return ast.NewCall(ctx.Helper(ast.NormalizeProps), p)
		}
		if classProp != nil && !ast.IsStaticExp(classProp.Value) {
			classProp.Value = ast.NewCall(ctx.Helper(ast.NormalizeClass), classProp.Value)
		}
		if styleProp != nil && (b.hasStyleBinding || isArrayLiteral(styleProp.Value)) {
			styleProp.Value = ast.NewCall(ctx.Helper(ast.NormalizeStyle), styleProp.Value)
		}
		return p
	case *ast.CallExpression:
		// mergeProps and toHandlers normalize at runtime
		return p
	default:
		// single v-bind object
		return ast.NewCall(ctx.Helper(ast.NormalizeProps), ast.NewCall(ctx.Helper(ast.GuardReactiveProps), p))
	}
}

func isHandlerKey(n ast.Node) bool {
	switch k := n.(type) {
	case *ast.SimpleExpressionNode:
		return k.IsHandlerKey
	case *ast.CompoundExpressionNode:
		return k.IsHandlerKey
	}
	return false
}

func isArrayLiteral(n ast.Node) bool {
	switch v := n.(type) {
	case *ast.ArrayExpression:
		return true
	case *ast.SimpleExpressionNode:
		return strings.HasPrefix(strings.TrimSpace(v.Content), "[")
	}
	return false
}

// dedupeProperties drops repeated static keys. Repeated class, style and
// event handler values merge into an array instead.
func dedupeProperties(properties []*ast.Property) []*ast.Property {
	known := make(map[string]*ast.Property)
	deduped := make([]*ast.Property, 0, len(properties))
	for _, prop := range properties {
		key, ok := prop.Key.(*ast.SimpleExpressionNode)
		if !ok || !key.IsStatic {
			deduped = append(deduped, prop)
			continue
		}
		name := key.Content
		existing, seen := known[name]
		if !seen {
			known[name] = prop
			deduped = append(deduped, prop)
			continue
		}
		if name == "style" || name == "class" || isOn(name) {
			mergeAsArray(existing, prop)
		}
	}
	return deduped
}

func mergeAsArray(existing, incoming *ast.Property) {
	if arr, ok := existing.Value.(*ast.ArrayExpression); ok {
		arr.Elements = append(arr.Elements, incoming.Value)
		return
	}
	existing.Value = ast.NewArray([]ast.Node{existing.Value, incoming.Value}, existing.Loc)
}
