package transform

import (
	"strconv"
	"strings"

	"github.com/conduit-lang/stencil/internal/compiler/ast"
	"github.com/conduit-lang/stencil/internal/compiler/errors"
)

// TrackSlotScopes keeps slot props in scope while a component or template
// with v-slot is traversed, and counts slot nesting. Its exit runs before
// the element transform's exit on the same node, so only nested slots see a
// positive depth while slots are built.
func TrackSlotScopes(node ast.Node, ctx *Context) []ExitFn {
	el, ok := node.(*ast.ElementNode)
	if !ok || (el.TagType != ast.ElementComponent && el.TagType != ast.ElementTemplate) {
		return nil
	}
	vSlot := ast.FindDir(el, "slot", true)
	if vSlot == nil {
		return nil
	}
	if el.TagType == ast.ElementTemplate {
		if parent, ok := ctx.Parent.(*ast.ElementNode); !ok || parent.TagType != ast.ElementComponent {
			ctx.reportError(errors.XVSlotMisplaced, vSlot.Loc)
		}
	}

	slotProps := vSlot.Exp
	if ctx.opts.PrefixIdentifiers && slotProps != nil {
		ctx.AddIdentifiers(slotProps)
	}
	ctx.Scopes.VSlot++
	return []ExitFn{func() {
		if ctx.opts.PrefixIdentifiers && slotProps != nil {
			ctx.RemoveIdentifiers(slotProps)
		}
		ctx.Scopes.VSlot--
	}}
}

// TrackVForSlotScopes keeps the aliases of <template v-slot v-for> in scope.
// The loop itself is compiled into the component's dynamic slots.
func TrackVForSlotScopes(node ast.Node, ctx *Context) []ExitFn {
	el, ok := node.(*ast.ElementNode)
	if !ok || !ast.IsTemplateNode(el) || ast.FindDir(el, "slot", true) == nil {
		return nil
	}
	vFor := ast.FindDir(el, "for", false)
	if vFor == nil {
		return nil
	}
	result := forParseResult(vFor, ctx)
	if result == nil {
		return nil
	}
	aliases := result.Aliases
	for _, a := range aliases {
		if a != nil {
			ctx.AddIdentifiers(a)
		}
	}
	return []ExitFn{func() {
		for _, a := range aliases {
			if a != nil {
				ctx.RemoveIdentifiers(a)
			}
		}
	}}
}

// SlotFnBuilder builds the render function of one slot.
type SlotFnBuilder func(props ast.ExpressionNode, vForExp ast.ExpressionNode, children []ast.Node, loc ast.SourceLocation) *ast.FunctionExpression

func buildClientSlotFn(props ast.ExpressionNode, _ ast.ExpressionNode, children []ast.Node, loc ast.SourceLocation) *ast.FunctionExpression {
	var params []ast.Node
	if props != nil {
		params = []ast.Node{props}
	}
	if len(children) > 0 {
		loc = children[0].Location()
	}
	fn := ast.NewFunction(params, nil, false, true, loc)
	fn.ReturnsChildren = children
	return fn
}

// SlotsResult is the slots argument of a component vnode.
type SlotsResult struct {
	// Slots is an *ast.ObjectExpression, or a createSlots call when some
	// slots are conditional or looped.
	Slots           ast.Node
	HasDynamicSlots bool
}

// BuildSlots collects the slots of a component: a v-slot on the component
// itself, <template v-slot> children, and the implicit default slot.
// Conditional and looped slots are emitted as dynamic slots, resolved at
// runtime through createSlots.
func BuildSlots(node *ast.ElementNode, ctx *Context, build SlotFnBuilder) SlotsResult {
	if build == nil {
		build = buildClientSlotFn
	}
	ctx.Helper(ast.WithCtx)

	children := node.Children
	loc := node.Loc
	var slotsProperties []*ast.Property
	var dynamicSlots []ast.Node

	// inside a v-for or another slot the slot likely uses a scope variable
	hasDynamicSlots := ctx.Scopes.VSlot > 0 || ctx.Scopes.VFor > 0
	if ctx.opts.PrefixIdentifiers {
		hasDynamicSlots = hasScopeRef(node, ctx)
	}

	// <Comp v-slot="{ prop }"/>
	onComponentSlot := ast.FindDir(node, "slot", true)
	if onComponentSlot != nil {
		arg := onComponentSlot.Arg
		if arg != nil && !ast.IsStaticExp(arg) {
			hasDynamicSlots = true
		}
		if arg == nil {
			arg = ast.NewSimpleExpression("default", true, ast.LocStub, ast.CanStringify)
		}
		slotsProperties = append(slotsProperties, ast.NewProperty(arg, build(onComponentSlot.Exp, nil, children, loc)))
	}

	hasTemplateSlots := false
	hasNamedDefaultSlot := false
	var implicitDefaultChildren []ast.Node
	seenSlotNames := make(map[string]bool)
	conditionalBranchIndex := 0

	for i := 0; i < len(children); i++ {
		slotElement, _ := children[i].(*ast.ElementNode)
		var slotDir *ast.DirectiveNode
		if slotElement != nil && ast.IsTemplateNode(slotElement) {
			slotDir = ast.FindDir(slotElement, "slot", true)
		}
		if slotDir == nil {
			if _, isComment := children[i].(*ast.CommentNode); !isComment {
				implicitDefaultChildren = append(implicitDefaultChildren, children[i])
			}
			continue
		}

		if onComponentSlot != nil {
			ctx.reportError(errors.XVSlotMixedSlotUsage, slotDir.Loc)
			break
		}

		hasTemplateSlots = true
		slotName := slotDir.Arg
		if slotName == nil {
			slotName = ast.NewSimpleExpression("default", true, ast.LocStub, ast.CanStringify)
		}
		staticSlotName := ""
		if s, ok := slotName.(*ast.SimpleExpressionNode); ok && s.IsStatic {
			staticSlotName = s.Content
		} else {
			hasDynamicSlots = true
		}

		vFor := ast.FindDir(slotElement, "for", false)
		var vForExp ast.ExpressionNode
		if vFor != nil {
			vForExp = vFor.Exp
		}
		slotFunction := build(slotDir.Exp, vForExp, slotElement.Children, slotElement.Loc)

		if vIf := ast.FindDir(slotElement, "if", false); vIf != nil {
			hasDynamicSlots = true
			dynamicSlots = append(dynamicSlots, ast.NewConditional(vIf.Exp,
				buildDynamicSlot(slotName, slotFunction, conditionalBranchIndex), ast.Code(undefined), true))
			conditionalBranchIndex++
			continue
		}

		if vElse := ast.FindDirFunc(slotElement, matchName("else", "else-if"), true); vElse != nil {
			// find the adjacent v-if
			var prev ast.Node
			for j := i - 1; j >= 0; j-- {
				prev = children[j]
				if _, isComment := prev.(*ast.CommentNode); !isComment {
					break
				}
			}
			prevEl, _ := prev.(*ast.ElementNode)
			if prevEl == nil || !ast.IsTemplateNode(prevEl) || ast.FindDir(prevEl, "if", false) == nil || len(dynamicSlots) == 0 {
				ctx.reportError(errors.XVElseNoAdjacentIf, vElse.Loc)
				continue
			}
			children = append(children[:i:i], children[i+1:]...)
			node.Children = children
			i--

			conditional, ok := dynamicSlots[len(dynamicSlots)-1].(*ast.ConditionalExpression)
			if !ok {
				continue
			}
			for {
				next, ok := conditional.Alternate.(*ast.ConditionalExpression)
				if !ok {
					break
				}
				conditional = next
			}
			if vElse.Exp != nil {
				conditional.Alternate = ast.NewConditional(vElse.Exp,
					buildDynamicSlot(slotName, slotFunction, conditionalBranchIndex), ast.Code(undefined), true)
			} else {
				conditional.Alternate = buildDynamicSlot(slotName, slotFunction, conditionalBranchIndex)
			}
			conditionalBranchIndex++
			continue
		}

		if vFor != nil {
			hasDynamicSlots = true
			result := forParseResult(vFor, ctx)
			if result == nil {
				ctx.reportError(errors.XVForMalformedExpression, vFor.Loc)
				continue
			}
			// looped slots render as an array that createSlots merges in
			dynamicSlots = append(dynamicSlots, ast.NewCall(ctx.Helper(ast.RenderList),
				result.Source,
				ast.NewFunction(forLoopParams(result), buildDynamicSlot(slotName, slotFunction, -1), true, false, ast.LocStub)))
			continue
		}

		if staticSlotName != "" {
			if seenSlotNames[staticSlotName] {
				ctx.reportError(errors.XVSlotDuplicateSlotNames, slotDir.Loc)
				continue
			}
			seenSlotNames[staticSlotName] = true
			if staticSlotName == "default" {
				hasNamedDefaultSlot = true
			}
		}
		slotsProperties = append(slotsProperties, ast.NewProperty(slotName, slotFunction))
	}

	if onComponentSlot == nil {
		switch {
		case !hasTemplateSlots:
			// implicit default slot
			slotsProperties = append(slotsProperties, ast.NewStaticProperty("default", build(nil, nil, children, loc)))
		case len(implicitDefaultChildren) > 0 && anyNonWhitespace(implicitDefaultChildren):
			if hasNamedDefaultSlot {
				ctx.reportError(errors.XVSlotExtraneousDefaultSlotChildren, implicitDefaultChildren[0].Location())
			} else {
				slotsProperties = append(slotsProperties, ast.NewStaticProperty("default", build(nil, nil, implicitDefaultChildren, loc)))
			}
		}
	}

	slotFlag := ast.SlotStable
	switch {
	case hasDynamicSlots:
		slotFlag = ast.SlotDynamic
	case hasForwardedSlots(node.Children):
		slotFlag = ast.SlotForwarded
	}

	flag := ast.NewSimpleExpression(strconv.Itoa(int(slotFlag)), false, ast.LocStub, ast.NotConstant)
	slotsProperties = append(slotsProperties, ast.NewStaticProperty("_", flag))
	var slots ast.Node = ast.NewObject(slotsProperties, loc)
	ctx.ensureID(slots)
	if len(dynamicSlots) > 0 {
		slots = ast.NewCall(ctx.Helper(ast.CreateSlots), slots, ast.NewArray(dynamicSlots, ast.LocStub))
	}
	return SlotsResult{Slots: slots, HasDynamicSlots: hasDynamicSlots}
}

// buildDynamicSlot builds { name, fn, key? }; a negative index omits the key.
func buildDynamicSlot(name ast.ExpressionNode, fn *ast.FunctionExpression, index int) *ast.ObjectExpression {
	props := []*ast.Property{
		ast.NewStaticProperty("name", name),
		ast.NewStaticProperty("fn", fn),
	}
	if index >= 0 {
		props = append(props, ast.NewStaticProperty("key",
			ast.NewSimpleExpression(strconv.Itoa(index), true, ast.LocStub, ast.CanStringify)))
	}
	return ast.NewObject(props, ast.LocStub)
}

func hasForwardedSlots(children []ast.Node) bool {
	for _, child := range children {
		switch c := child.(type) {
		case *ast.ElementNode:
			if c.TagType == ast.ElementSlot || hasForwardedSlots(c.Children) {
				return true
			}
		case *ast.IfNode:
			for _, b := range c.Branches {
				if hasForwardedSlots(b.Children) {
					return true
				}
			}
		case *ast.IfBranchNode:
			if hasForwardedSlots(c.Children) {
				return true
			}
		case *ast.ForNode:
			if hasForwardedSlots(c.Children) {
				return true
			}
		}
	}
	return false
}

func anyNonWhitespace(nodes []ast.Node) bool {
	for _, n := range nodes {
		if isNonWhitespaceContent(n) {
			return true
		}
	}
	return false
}

func isNonWhitespaceContent(n ast.Node) bool {
	switch c := n.(type) {
	case *ast.TextNode:
		return strings.TrimSpace(c.Content) != ""
	case *ast.TextCallNode:
		return isNonWhitespaceContent(c.Content)
	}
	return true
}
