// Package metadata is the handoff format between the transform phase and
// code generation: a deterministic JSON view of a transformed template tree
// and the root metadata a generator needs to emit imports and preambles.
package metadata

import (
	"encoding/json"

	"github.com/conduit-lang/stencil/internal/compiler/ast"
	"github.com/conduit-lang/stencil/internal/compiler/errors"
)

// Version is bumped whenever the shape of Metadata changes.
const Version = "1"

// Metadata is the complete handoff for one template.
type Metadata struct {
	Version     string           `json:"version"`
	ID          string           `json:"id,omitempty"`
	Filename    string           `json:"filename,omitempty"`
	SourceHash  string           `json:"source_hash,omitempty"` // set by the cache
	Summary     Summary          `json:"summary"`
	Codegen     *Node            `json:"codegen,omitempty"`
	Hoists      []*Node          `json:"hoists,omitempty"`
	AST         []*Node          `json:"ast,omitempty"`
	Diagnostics errors.ErrorList `json:"diagnostics,omitempty"`
}

// Summary is the root metadata without the trees.
type Summary struct {
	Helpers     []string `json:"helpers"`
	Components  []string `json:"components"`
	Directives  []string `json:"directives"`
	Imports     []Import `json:"imports,omitempty"`
	Hoists      int      `json:"hoists"`
	Cached      int      `json:"cached"`
	Temps       int      `json:"temps"`
	Transformed bool     `json:"transformed"`
}

// Import is a module import requested by a transform.
type Import struct {
	Exp  string `json:"exp"`
	Path string `json:"path"`
}

// Node is the JSON view of any tree or codegen node. Only the fields that
// apply to Type are set.
type Node struct {
	Type string              `json:"type"`
	Loc  *ast.SourceLocation `json:"loc,omitempty"`

	// elements
	Tag     string  `json:"tag,omitempty"`
	TagType string  `json:"tag_type,omitempty"`
	Ns      string  `json:"ns,omitempty"`
	Props   []*Node `json:"props,omitempty"`

	// text, comments and expressions
	Content   string `json:"content,omitempty"`
	Static    bool   `json:"static,omitempty"`
	ConstType string `json:"const_type,omitempty"`
	Hoisted   bool   `json:"hoisted,omitempty"`

	// attributes and directives
	Name      string   `json:"name,omitempty"`
	Arg       *Node    `json:"arg,omitempty"`
	Exp       *Node    `json:"exp,omitempty"`
	Modifiers []string `json:"modifiers,omitempty"`

	// structural nodes
	Branches  []*Node `json:"branches,omitempty"`
	Condition *Node   `json:"condition,omitempty"`
	Source    *Node   `json:"source,omitempty"`
	Aliases   []*Node `json:"aliases,omitempty"`

	// vnode calls
	VNodeTag        string  `json:"vnode_tag,omitempty"`
	TagCall         *Node   `json:"tag_call,omitempty"`
	VNodeProps      *Node   `json:"vnode_props,omitempty"`
	Child           *Node   `json:"child,omitempty"`
	PatchFlag       int     `json:"patch_flag,omitempty"`
	PatchFlagNames  string  `json:"patch_flag_names,omitempty"`
	DynamicProps    string  `json:"dynamic_props,omitempty"`
	Directives      []*Node `json:"directives,omitempty"`
	Block           bool    `json:"block,omitempty"`
	DisableTracking bool    `json:"disable_tracking,omitempty"`
	Component       bool    `json:"component,omitempty"`

	// JS expressions
	Callee     string  `json:"callee,omitempty"`
	Arguments  []*Node `json:"arguments,omitempty"`
	Properties []*Node `json:"properties,omitempty"`
	Key        *Node   `json:"key,omitempty"`
	Value      *Node   `json:"value,omitempty"`
	Elements   []*Node `json:"elements,omitempty"`
	Params     []*Node `json:"params,omitempty"`
	Returns    *Node   `json:"returns,omitempty"`
	Body       []*Node `json:"body,omitempty"`
	Slot       bool    `json:"slot,omitempty"`
	Test       *Node   `json:"test,omitempty"`
	Consequent *Node   `json:"consequent,omitempty"`
	Alternate  *Node   `json:"alternate,omitempty"`
	Index      *int    `json:"index,omitempty"`
	IsVNode    bool    `json:"is_vnode,omitempty"`

	Children []*Node `json:"children,omitempty"`
	Codegen  *Node   `json:"codegen,omitempty"`
}

// ToJSON returns indented JSON.
func (m *Metadata) ToJSON() (string, error) {
	data, err := Serialize(m)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FromJSON decodes metadata produced by Serialize.
func FromJSON(data []byte) (*Metadata, error) {
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// HasErrors reports whether any diagnostic is an error.
func (m *Metadata) HasErrors() bool {
	return m.Diagnostics.HasErrors()
}
