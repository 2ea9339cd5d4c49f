package transform

import (
	"strconv"
	"strings"

	"github.com/conduit-lang/stencil/internal/compiler/ast"
	"github.com/conduit-lang/stencil/internal/compiler/errors"
)

// TransformIf groups v-if / v-else-if / v-else siblings into one IfNode and
// builds its conditional codegen once every branch has been transformed.
var TransformIf = StructuralDirective(matchName("if", "else", "else-if"), transformIf)

func transformIf(node *ast.ElementNode, dir *ast.DirectiveNode, ctx *Context) ExitFn {
	return processIf(node, dir, ctx, func(ifNode *ast.IfNode, branch *ast.IfBranchNode, isRoot bool) ExitFn {
		// chained branches render at the same depth, so keys continue from
		// the branches of preceding v-if groups among the siblings
		siblings := ctx.Parent.ChildNodes()
		key := 0
		for i := indexOf(siblings, ifNode) - 1; i >= 0; i-- {
			if sibling, ok := siblings[i].(*ast.IfNode); ok {
				key += len(sibling.Branches)
			}
		}

		return func() {
			if isRoot {
				ifNode.Codegen = createCodegenNodeForBranch(branch, key, ctx)
				return
			}
			if parent := parentCondition(ifNode.Codegen); parent != nil {
				parent.Alternate = createCodegenNodeForBranch(branch, key+len(ifNode.Branches)-1, ctx)
			}
		}
	})
}

type ifCodegenFn func(ifNode *ast.IfNode, branch *ast.IfBranchNode, isRoot bool) ExitFn

// processIf creates or extends the IfNode for one conditional directive.
func processIf(node *ast.ElementNode, dir *ast.DirectiveNode, ctx *Context, codegen ifCodegenFn) ExitFn {
	if dir.Name != "else" && (dir.Exp == nil || strings.TrimSpace(ast.ExpressionText(dir.Exp)) == "") {
		loc := node.Loc
		if dir.Exp != nil {
			loc = dir.Exp.Location()
		}
		ctx.reportError(errors.XVIfNoExpression, dir.Loc)
		dir.Exp = ast.NewSimpleExpression("true", false, loc, ast.NotConstant)
	}

	if s, ok := dir.Exp.(*ast.SimpleExpressionNode); ok && ctx.opts.PrefixIdentifiers {
		dir.Exp = ProcessExpression(s, ctx, false, false)
	}

	if dir.Name == "if" {
		branch := newIfBranch(node, dir, ctx)
		ifNode := &ast.IfNode{Base: ast.Base{Loc: node.Loc}, Branches: []*ast.IfBranchNode{branch}}
		ctx.ReplaceNode(ifNode)
		if codegen != nil {
			return codegen(ifNode, branch, true)
		}
		return nil
	}

	// locate the adjacent v-if, dropping comments and whitespace in between
	siblings := ctx.Parent.ChildNodes()
	for i := indexOf(siblings, node) - 1; i >= -1; i-- {
		var sibling ast.Node
		if i >= 0 {
			sibling = siblings[i]
		}
		switch s := sibling.(type) {
		case *ast.CommentNode:
			ctx.RemoveNode(s)
			continue
		case *ast.TextNode:
			if strings.TrimSpace(s.Content) == "" {
				ctx.RemoveNode(s)
				continue
			}
		case *ast.IfNode:
			if dir.Name == "else-if" && s.Branches[len(s.Branches)-1].Condition == nil {
				ctx.reportError(errors.XVElseNoAdjacentIf, node.Loc)
			}

			// move the node into the if node's branches
			ctx.RemoveNode(nil)
			branch := newIfBranch(node, dir, ctx)
			if branch.UserKey != nil {
				for _, b := range s.Branches {
					if isSameKey(b.UserKey, branch.UserKey) {
						ctx.reportError(errors.XVIfSameKey, branch.UserKey.Location())
					}
				}
			}
			s.Branches = append(s.Branches, branch)

			var onExit ExitFn
			if codegen != nil {
				onExit = codegen(s, branch, false)
			}
			// the branch left the sibling list, so it is traversed here
			TraverseNode(branch, ctx)
			if onExit != nil {
				onExit()
			}
			ctx.CurrentNode = nil
			return nil
		}
		ctx.reportError(errors.XVElseNoAdjacentIf, node.Loc)
		break
	}
	return nil
}

func newIfBranch(node *ast.ElementNode, dir *ast.DirectiveNode, ctx *Context) *ast.IfBranchNode {
	isTemplateIf := node.TagType == ast.ElementTemplate
	branch := &ast.IfBranchNode{
		Base:         ast.Base{Loc: node.Loc},
		UserKey:      ast.FindProp(node, "key", false, false),
		IsTemplateIf: isTemplateIf,
	}
	if dir.Name != "else" {
		branch.Condition = dir.Exp
	}
	if isTemplateIf && ast.FindDir(node, "for", true) == nil {
		branch.Children = node.Children
	} else {
		branch.Children = []ast.Node{node}
	}
	ctx.ensureID(branch)
	return branch
}

func createCodegenNodeForBranch(branch *ast.IfBranchNode, keyIndex int, ctx *Context) ast.Node {
	if branch.Condition == nil {
		return createChildrenCodegenNode(branch, keyIndex, ctx)
	}
	// the comment call closes the current block
	return ast.NewConditional(
		branch.Condition,
		createChildrenCodegenNode(branch, keyIndex, ctx),
		ast.NewCall(ctx.Helper(ast.CreateComment), ast.ConstCode(`""`), ast.ConstCode("true")),
		true,
	)
}

func createChildrenCodegenNode(branch *ast.IfBranchNode, keyIndex int, ctx *Context) ast.Node {
	keyProperty := ast.NewStaticProperty("key",
		ast.NewSimpleExpression(strconv.Itoa(keyIndex), false, ast.LocStub, ast.CanHoist))

	children := branch.Children
	var first ast.Node
	if len(children) > 0 {
		first = children[0]
	}
	el, isElement := first.(*ast.ElementNode)

	if len(children) != 1 || !isElement {
		if forNode, ok := first.(*ast.ForNode); ok && len(children) == 1 && forNode.Codegen != nil {
			// no nested fragment around a v-for
			injectProp(forNode.Codegen, keyProperty, ctx)
			return forNode.Codegen
		}
		return ctx.NewVNodeCall(helperTag(ctx.Helper(ast.Fragment)), ast.NewObject([]*ast.Property{keyProperty}, ast.LocStub),
			children, nil, ast.PatchStableFragment, nil, nil, true, false, false, branch.Loc)
	}

	ret := el.Codegen
	if ret == nil {
		return nil
	}
	vnode := getMemoedVNodeCall(ret)
	if v, ok := vnode.(*ast.VNodeCall); ok {
		makeBlock(v, ctx)
	}
	injectProp(vnode, keyProperty, ctx)
	return ret
}

func isSameKey(a, b ast.Node) bool {
	if a == nil || b == nil || a.Type() != b.Type() {
		return false
	}
	if aa, ok := a.(*ast.AttributeNode); ok {
		ba := b.(*ast.AttributeNode)
		return aa.Value != nil && ba.Value != nil && aa.Value.Content == ba.Value.Content
	}
	ad, bd := a.(*ast.DirectiveNode), b.(*ast.DirectiveNode)
	ae, ok1 := ad.Exp.(*ast.SimpleExpressionNode)
	be, ok2 := bd.Exp.(*ast.SimpleExpressionNode)
	if !ok1 || !ok2 {
		return false
	}
	return ae.IsStatic == be.IsStatic && ae.Content == be.Content
}

// parentCondition returns the innermost conditional of a v-if chain, the one
// whose alternate the next branch replaces.
func parentCondition(n ast.Node) *ast.ConditionalExpression {
	for {
		switch c := n.(type) {
		case *ast.ConditionalExpression:
			next, ok := c.Alternate.(*ast.ConditionalExpression)
			if !ok {
				return c
			}
			n = next
		case *ast.CacheExpression:
			n = c.Value
		default:
			return nil
		}
	}
}
