package transform

import (
	"strconv"
	"strings"

	"github.com/conduit-lang/stencil/internal/compiler/ast"
	"github.com/conduit-lang/stencil/internal/compiler/errors"
)

// TransformElement builds the vnode call of plain elements and components.
// It works on exit, once children and directive expressions are final.
func TransformElement(node ast.Node, ctx *Context) []ExitFn {
	return []ExitFn{func() {
		el, ok := ctx.CurrentNode.(*ast.ElementNode)
		if !ok || (el.TagType != ast.ElementPlain && el.TagType != ast.ElementComponent) {
			return
		}
		postTransformElement(el, ctx)
	}}
}

func postTransformElement(node *ast.ElementNode, ctx *Context) {
	isComponent := node.TagType == ast.ElementComponent

	var tag vnodeTag
	if isComponent {
		tag = resolveComponentType(node, ctx)
	} else {
		tag = vnodeTag{name: ast.Quote(node.Tag)}
	}
	isDynamicComponent := tag.call != nil && tag.call.Callee == ast.ResolveDynamicComponent

	// dynamic components may resolve to plain elements; svg and
	// foreignObject blocks carry the namespace for their updates
	shouldUseBlock := isDynamicComponent ||
		tag.helper == ast.Teleport ||
		tag.helper == ast.Suspense ||
		(!isComponent && (node.Tag == "svg" || node.Tag == "foreignObject"))

	var (
		props        ast.Node
		patchFlag    ast.PatchFlag
		dynamicNames []string
		directives   *ast.ArrayExpression
	)
	if len(node.Props) > 0 {
		res := buildProps(node, ctx, node.Props, isComponent, isDynamicComponent)
		props = res.Props
		patchFlag = res.PatchFlag
		dynamicNames = res.DynamicPropNames
		if len(res.Directives) > 0 {
			elements := make([]ast.Node, len(res.Directives))
			for i, dir := range res.Directives {
				elements[i] = buildDirectiveArgs(dir, ctx)
			}
			directives = ast.NewArray(elements, ast.LocStub)
		}
		if res.ShouldUseBlock {
			shouldUseBlock = true
		}
	}

	var children []ast.Node
	var child ast.Node
	if len(node.Children) > 0 {
		if tag.helper == ast.KeepAlive {
			// KeepAlive takes raw children: it is its own block and always
			// updated
			shouldUseBlock = true
			patchFlag |= ast.PatchDynamicSlots
			if len(node.Children) > 1 {
				first, last := node.Children[0], node.Children[len(node.Children)-1]
				ctx.reportError(errors.XKeepAliveInvalidChildren, ast.SourceLocation{
					Start: first.Location().Start,
					End:   last.Location().End,
				})
			}
		}

		shouldBuildAsSlots := isComponent && tag.helper != ast.Teleport && tag.helper != ast.KeepAlive
		switch {
		case shouldBuildAsSlots:
			slots := BuildSlots(node, ctx, nil)
			child = slots.Slots
			if slots.HasDynamicSlots {
				patchFlag |= ast.PatchDynamicSlots
			}
		case len(node.Children) == 1 && tag.helper != ast.Teleport:
			only := node.Children[0]
			_, isInterpolation := only.(*ast.InterpolationNode)
			_, isCompound := only.(*ast.CompoundExpressionNode)
			_, isText := only.(*ast.TextNode)
			hasDynamicTextChild := isInterpolation || isCompound
			if hasDynamicTextChild && GetConstantType(only, ctx) == ast.NotConstant {
				patchFlag |= ast.PatchText
			}
			// a single text child is passed as is
			if hasDynamicTextChild || isText {
				child = only
			} else {
				children = node.Children
			}
		default:
			children = node.Children
		}
	}

	var dynamicProps ast.Node
	if patchFlag != 0 && len(dynamicNames) > 0 {
		dynamicProps = ast.NewSimpleExpression(stringifyDynamicPropNames(dynamicNames), false, ast.LocStub, ast.CanHoist)
	}

	node.Codegen = ctx.NewVNodeCall(tag, props, children, child, patchFlag, dynamicProps, directives,
		shouldUseBlock, false, isComponent, node.Loc)
}

func isComponentTag(tag string) bool {
	return tag == "component" || tag == "Component"
}

// resolveComponentType picks the vnode type of a component element: a
// dynamic component call, a built-in helper, a self reference or a
// resolveComponent asset.
func resolveComponentType(node *ast.ElementNode, ctx *Context) vnodeTag {
	tag := node.Tag

	isExplicitDynamic := isComponentTag(tag)
	if isProp := ast.FindProp(node, "is", false, false); isProp != nil {
		if isExplicitDynamic {
			var exp ast.Node
			switch p := isProp.(type) {
			case *ast.AttributeNode:
				if p.Value != nil {
					exp = ast.NewSimpleExpression(p.Value.Content, true, p.Value.Loc, ast.CanStringify)
				}
			case *ast.DirectiveNode:
				exp = p.Exp
			}
			if exp != nil {
				return vnodeTag{call: ast.NewCall(ctx.Helper(ast.ResolveDynamicComponent), exp)}
			}
		} else if a, ok := isProp.(*ast.AttributeNode); ok && a.Value != nil && strings.HasPrefix(a.Value.Content, "vue:") {
			// <button is="vue:xxx">
			tag = a.Value.Content[4:]
		}
	}

	if !isExplicitDynamic {
		if isDir := ast.FindDir(node, "is", false); isDir != nil {
			ctx.OnWarn(errors.NewWarning(errors.DeprecationVIs, errors.At(isDir.Loc)))
			return vnodeTag{call: ast.NewCall(ctx.Helper(ast.ResolveDynamicComponent), isDir.Exp)}
		}
	}

	builtIn := ast.CoreComponent(tag)
	if builtIn == ast.HelperNone {
		builtIn = ctx.opts.IsBuiltInComponent(tag)
	}
	if builtIn != ast.HelperNone {
		return helperTag(ctx.Helper(builtIn))
	}

	// self reference, inferred from the file name
	if ctx.SelfName != "" && ast.Capitalize(ast.Camelize(tag)) == ctx.SelfName {
		ctx.Helper(ast.ResolveComponent)
		ctx.AddComponent(tag + "__self")
		return vnodeTag{name: ast.ToValidAssetID(tag, "component")}
	}

	ctx.Helper(ast.ResolveComponent)
	ctx.AddComponent(tag)
	return vnodeTag{name: ast.ToValidAssetID(tag, "component")}
}

// buildDirectiveArgs renders one runtime directive as
// [dir, exp?, arg?, modifiers?], filling skipped slots with void 0.
func buildDirectiveArgs(dir *ast.DirectiveNode, ctx *Context) *ast.ArrayExpression {
	var args []ast.Node
	if runtime, ok := ctx.directiveRuntimes[ctx.ensureID(dir)]; ok {
		args = append(args, ast.Code(ctx.HelperString(runtime)))
	} else {
		ctx.Helper(ast.ResolveDirective)
		ctx.AddDirective(dir.Name)
		args = append(args, ast.Code(ast.ToValidAssetID(dir.Name, "directive")))
	}
	if dir.Exp != nil {
		args = append(args, dir.Exp)
	}
	if dir.Arg != nil {
		if dir.Exp == nil {
			args = append(args, ast.Code("void 0"))
		}
		args = append(args, dir.Arg)
	}
	if len(dir.Modifiers) > 0 {
		if dir.Arg == nil {
			if dir.Exp == nil {
				args = append(args, ast.Code("void 0"))
			}
			args = append(args, ast.Code("void 0"))
		}
		trueExp := ast.NewSimpleExpression("true", false, dir.Loc, ast.CanStringify)
		modifiers := make([]*ast.Property, len(dir.Modifiers))
		for i, m := range dir.Modifiers {
			modifiers[i] = ast.NewStaticProperty(m, trueExp)
		}
		args = append(args, ast.NewObject(modifiers, dir.Loc))
	}
	return ast.NewArray(args, dir.Loc)
}

func stringifyDynamicPropNames(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = strconv.Quote(n)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
