package lsp

import (
	"sort"
	"strings"
	"sync"
	"unicode/utf16"
	"unicode/utf8"

	"go.lsp.dev/protocol"

	"github.com/conduit-lang/stencil/internal/compiler/ast"
	"github.com/conduit-lang/stencil/internal/compiler/errors"
)

// document is an open text document
type document struct {
	uri     protocol.DocumentURI
	version int32
	text    string
	lines   []int // byte offset of each line start
}

func newDocument(u protocol.DocumentURI, version int32, text string) *document {
	d := &document{uri: u, version: version, text: text, lines: []int{0}}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			d.lines = append(d.lines, i+1)
		}
	}
	return d
}

// filename is the path of a file URI, or the URI itself for other schemes
func (d *document) filename() string {
	if strings.HasPrefix(string(d.uri), "file://") {
		return d.uri.Filename()
	}
	return string(d.uri)
}

// position converts a byte offset into a zero-based LSP position. LSP
// characters count UTF-16 code units.
func (d *document) position(offset int) protocol.Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(d.text) {
		offset = len(d.text)
	}
	line := sort.Search(len(d.lines), func(i int) bool { return d.lines[i] > offset }) - 1

	char := 0
	for i := d.lines[line]; i < offset; {
		r, size := utf8.DecodeRuneInString(d.text[i:])
		if n := utf16.RuneLen(r); n > 0 {
			char += n
		} else {
			char++
		}
		i += size
	}
	return protocol.Position{Line: uint32(line), Character: uint32(char)}
}

// offset is the inverse of position
func (d *document) offset(pos protocol.Position) int {
	line := int(pos.Line)
	if line >= len(d.lines) {
		return len(d.text)
	}
	i := d.lines[line]
	for char := 0; char < int(pos.Character) && i < len(d.text) && d.text[i] != '\n'; {
		r, size := utf8.DecodeRuneInString(d.text[i:])
		if n := utf16.RuneLen(r); n > 0 {
			char += n
		} else {
			char++
		}
		i += size
	}
	return i
}

func (d *document) span(loc *ast.SourceLocation) protocol.Range {
	if loc == nil {
		return protocol.Range{}
	}
	return protocol.Range{
		Start: d.position(loc.Start.Offset),
		End:   d.position(loc.End.Offset),
	}
}

// diagnostics converts compiler diagnostics for this document
func (d *document) diagnostics(list errors.ErrorList) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(list))
	for _, e := range list {
		severity := protocol.DiagnosticSeverityError
		if e.Severity == errors.SeverityWarning {
			severity = protocol.DiagnosticSeverityWarning
		}
		msg := e.Message
		if e.AdditionalMessage != "" {
			msg += " " + e.AdditionalMessage
		}
		out = append(out, protocol.Diagnostic{
			Range:    d.span(e.Loc),
			Severity: severity,
			Code:     e.Name,
			Source:   "stencil",
			Message:  msg,
		})
	}
	return out
}

// symbols outlines the element tree
func (d *document) symbols(nodes []ast.Node) []protocol.DocumentSymbol {
	var out []protocol.DocumentSymbol
	for _, n := range nodes {
		el, ok := n.(*ast.ElementNode)
		if !ok {
			continue
		}
		loc := el.Location()
		rng := d.span(&loc)
		// the tag name follows '<'
		nameStart := d.position(loc.Start.Offset + 1)
		nameEnd := d.position(loc.Start.Offset + 1 + len(el.Tag))

		sym := protocol.DocumentSymbol{
			Name:           el.Tag,
			Detail:         directiveSummary(el),
			Kind:           symbolKind(el.TagType),
			Range:          rng,
			SelectionRange: protocol.Range{Start: nameStart, End: nameEnd},
			Children:       d.symbols(el.Children),
		}
		out = append(out, sym)
	}
	return out
}

func symbolKind(t ast.ElementType) protocol.SymbolKind {
	switch t {
	case ast.ElementComponent:
		return protocol.SymbolKindClass
	case ast.ElementSlot:
		return protocol.SymbolKindInterface
	case ast.ElementTemplate:
		return protocol.SymbolKindNamespace
	default:
		return protocol.SymbolKindField
	}
}

// directiveSummary lists the structural directives of el, e.g. "v-if v-for"
func directiveSummary(el *ast.ElementNode) string {
	s := ""
	for _, p := range el.Props {
		dir, ok := p.(*ast.DirectiveNode)
		if !ok {
			continue
		}
		switch dir.Name {
		case "if", "else-if", "else", "for", "slot":
			if s != "" {
				s += " "
			}
			s += "v-" + dir.Name
		}
	}
	return s
}

// documentStore holds the open documents
type documentStore struct {
	mu   sync.RWMutex
	docs map[protocol.DocumentURI]*document
}

func newDocumentStore() *documentStore {
	return &documentStore{docs: make(map[protocol.DocumentURI]*document)}
}

func (s *documentStore) get(u protocol.DocumentURI) (*document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[u]
	return d, ok
}

// set stores d unless a newer version is already open
func (s *documentStore) set(d *document) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.docs[d.uri]; ok && cur.version > d.version {
		return false
	}
	s.docs[d.uri] = d
	return true
}

func (s *documentStore) remove(u protocol.DocumentURI) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, u)
}

func (s *documentStore) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
