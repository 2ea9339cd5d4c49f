package metadata

import (
	"github.com/conduit-lang/stencil/internal/compiler"
	"github.com/conduit-lang/stencil/internal/compiler/ast"
)

// FromRoot builds the handoff view of a root. Codegen and Hoists show what
// a generator emits; AST is the template tree without annotations.
func FromRoot(root *ast.RootNode) *Metadata {
	m := &Metadata{
		Version: Version,
		Summary: Summarize(root),
		Codegen: codeView(root.Codegen),
	}
	for _, h := range root.Hoists {
		m.Hoists = append(m.Hoists, codeView(h))
	}
	m.AST = Tree(root)
	return m
}

// Tree is the template tree of root without codegen annotations. It also
// works on a root that was only parsed.
func Tree(root *ast.RootNode) []*Node {
	return treeList(root.Children)
}

// FromResult is FromRoot plus the compilation's identity and diagnostics.
// A result whose compilation aborted yields only the diagnostics.
func FromResult(res *compiler.Result) *Metadata {
	var m *Metadata
	if res.Root != nil {
		m = FromRoot(res.Root)
	} else {
		m = &Metadata{Version: Version, Summary: Summarize(nil)}
	}
	m.ID = res.ID
	m.Filename = res.Filename
	m.Diagnostics = res.Diagnostics()
	return m
}

// Summarize extracts the root metadata. A nil root gives an empty summary.
func Summarize(root *ast.RootNode) Summary {
	s := Summary{
		Helpers:    []string{},
		Components: []string{},
		Directives: []string{},
	}
	if root == nil {
		return s
	}
	for _, h := range root.Helpers {
		s.Helpers = append(s.Helpers, h.String())
	}
	s.Components = append(s.Components, root.Components...)
	s.Directives = append(s.Directives, root.Directives...)
	for _, imp := range root.Imports {
		s.Imports = append(s.Imports, Import{Exp: ast.ExpressionText(imp.Exp), Path: imp.Path})
	}
	s.Hoists = len(root.Hoists)
	s.Cached = root.Cached
	s.Temps = root.Temps
	s.Transformed = root.Transformed
	return s
}

func location(n ast.Node) *ast.SourceLocation {
	loc := n.Location()
	if loc.IsStub() {
		return nil
	}
	return &loc
}

func treeList(nodes []ast.Node) []*Node {
	var out []*Node
	for _, n := range nodes {
		out = append(out, treeView(n))
	}
	return out
}

// treeView renders the template tree as parsed and restructured.
func treeView(n ast.Node) *Node {
	if n == nil {
		return nil
	}
	v := &Node{Type: n.Type().String(), Loc: location(n)}
	switch t := n.(type) {
	case *ast.ElementNode:
		v.Tag = t.Tag
		v.TagType = t.TagType.String()
		v.Ns = t.Ns.String()
		v.Props = treeList(t.Props)
		v.Children = treeList(t.Children)
	case *ast.TextNode:
		v.Content = t.Content
	case *ast.CommentNode:
		v.Content = t.Content
	case *ast.InterpolationNode:
		v.Exp = exprView(t.Content)
	case *ast.AttributeNode:
		v.Name = t.Name
		if t.Value != nil {
			v.Value = treeView(t.Value)
		}
	case *ast.DirectiveNode:
		v.Name = t.Name
		v.Arg = exprView(t.Arg)
		v.Exp = exprView(t.Exp)
		v.Modifiers = t.Modifiers
	case *ast.TextCallNode:
		v.Children = []*Node{treeView(t.Content)}
	case *ast.IfNode:
		for _, b := range t.Branches {
			v.Branches = append(v.Branches, treeView(b))
		}
	case *ast.IfBranchNode:
		v.Condition = exprView(t.Condition)
		v.Children = treeList(t.Children)
	case *ast.ForNode:
		v.Source = exprView(t.Source)
		v.Aliases = []*Node{exprView(t.ValueAlias), exprView(t.KeyAlias), exprView(t.IndexAlias)}
		v.Children = treeList(t.Children)
	case ast.ExpressionNode:
		return exprView(t)
	default:
		return codeView(n)
	}
	return v
}

func exprView(e ast.ExpressionNode) *Node {
	switch t := e.(type) {
	case nil:
		return nil
	case *ast.SimpleExpressionNode:
		if t == nil {
			return nil
		}
		return &Node{
			Type:      t.Type().String(),
			Loc:       location(t),
			Content:   t.Content,
			Static:    t.IsStatic,
			ConstType: t.ConstType.String(),
			Hoisted:   t.Hoisted != nil,
		}
	case *ast.CompoundExpressionNode:
		if t == nil {
			return nil
		}
		return &Node{Type: t.Type().String(), Loc: location(t), Content: ast.ExpressionText(t)}
	default:
		return nil
	}
}

func codeList(nodes []ast.Node) []*Node {
	var out []*Node
	for _, n := range nodes {
		out = append(out, codeView(n))
	}
	return out
}

// codeView renders what a generator emits for n: structural nodes are
// replaced by their codegen annotation.
func codeView(n ast.Node) *Node {
	if n == nil {
		return nil
	}
	switch t := n.(type) {
	case *ast.ElementNode:
		if t.Codegen != nil {
			return codeView(t.Codegen)
		}
		// templates have no annotation of their own
		return &Node{Type: t.Type().String(), Tag: t.Tag, Children: codeList(t.Children)}
	case *ast.IfNode:
		return codeView(t.Codegen)
	case *ast.ForNode:
		return codeView(t.Codegen)
	case *ast.TextCallNode:
		return codeView(t.Codegen)
	case *ast.TextNode, *ast.CommentNode:
		return treeView(t)
	case *ast.InterpolationNode:
		return &Node{Type: t.Type().String(), Exp: exprView(t.Content)}
	case ast.ExpressionNode:
		return exprView(t)
	}

	v := &Node{Type: n.Type().String()}
	switch t := n.(type) {
	case *ast.VNodeCall:
		switch {
		case t.TagCall != nil:
			v.TagCall = codeView(t.TagCall)
		case t.Tag != "":
			v.VNodeTag = t.Tag
		default:
			v.VNodeTag = t.TagHelper.Alias()
		}
		v.VNodeProps = codeView(t.Props)
		v.Children = codeList(t.Children)
		v.Child = codeView(t.Child)
		v.PatchFlag = int(t.PatchFlag)
		v.PatchFlagNames = t.PatchFlag.String()
		v.DynamicProps = ast.ExpressionText(t.DynamicProps)
		if t.Directives != nil {
			v.Directives = codeList(t.Directives.Elements)
		}
		v.Block = t.IsBlock
		v.DisableTracking = t.DisableTracking
		v.Component = t.IsComponent
	case *ast.CallExpression:
		v.Callee = t.Callee.Alias()
		v.Arguments = codeList(t.Arguments)
	case *ast.ObjectExpression:
		for _, p := range t.Properties {
			v.Properties = append(v.Properties, codeView(p))
		}
	case *ast.Property:
		v.Key = exprView(t.Key)
		v.Value = codeView(t.Value)
	case *ast.ArrayExpression:
		v.Elements = codeList(t.Elements)
	case *ast.FunctionExpression:
		v.Params = codeList(t.Params)
		v.Returns = codeView(t.Returns)
		if t.ReturnsChildren != nil {
			v.Children = codeList(t.ReturnsChildren)
		}
		if t.Body != nil {
			v.Body = codeList(t.Body.Body)
		}
		v.Slot = t.IsSlot
	case *ast.ConditionalExpression:
		v.Test = codeView(t.Test)
		v.Consequent = codeView(t.Consequent)
		v.Alternate = codeView(t.Alternate)
	case *ast.CacheExpression:
		index := t.Index
		v.Index = &index
		v.Value = codeView(t.Value)
		v.IsVNode = t.IsVNode
	case *ast.BlockStatement:
		v.Body = codeList(t.Body)
	}
	return v
}
