package parser

import (
	"strings"

	"github.com/conduit-lang/stencil/internal/compiler/ast"
)

// Cursor tracks offset, line and column over an immutable source string.
// It only moves forward; speculative parses run on a Fork.
type Cursor struct {
	source string
	pos    ast.Position
}

// NewCursor returns a cursor at the start of source.
func NewCursor(source string) *Cursor {
	return &Cursor{
		source: source,
		pos:    ast.Position{Offset: 0, Line: 1, Column: 1},
	}
}

// Pos returns the current position.
func (c *Cursor) Pos() ast.Position { return c.pos }

// Rest returns the unconsumed input.
func (c *Cursor) Rest() string { return c.source[c.pos.Offset:] }

// Done reports whether the input is exhausted.
func (c *Cursor) Done() bool { return c.pos.Offset >= len(c.source) }

// Len returns the number of unconsumed bytes.
func (c *Cursor) Len() int { return len(c.source) - c.pos.Offset }

// Peek returns at most n bytes of the remaining input without consuming them.
func (c *Cursor) Peek(n int) string {
	rest := c.Rest()
	if n > len(rest) {
		n = len(rest)
	}
	return rest[:n]
}

// At returns the byte i positions ahead, or 0 past the end.
func (c *Cursor) At(i int) byte {
	if c.pos.Offset+i < len(c.source) {
		return c.source[c.pos.Offset+i]
	}
	return 0
}

// HasPrefix reports whether the remaining input starts with s.
func (c *Cursor) HasPrefix(s string) bool {
	return strings.HasPrefix(c.Rest(), s)
}

// Advance consumes n bytes.
func (c *Cursor) Advance(n int) {
	ast.AdvancePositionWithMutation(&c.pos, c.Rest(), n)
}

// AdvanceSpaces consumes a run of HTML whitespace.
func (c *Cursor) AdvanceSpaces() {
	n := 0
	rest := c.Rest()
	for n < len(rest) && isWhitespace(rest[n]) {
		n++
	}
	c.Advance(n)
}

// Fork returns an independent cursor at the same position.
func (c *Cursor) Fork() *Cursor {
	f := *c
	return &f
}

// Join moves c to the position of a fork taken from it.
func (c *Cursor) Join(f *Cursor) {
	if f.pos.Offset < c.pos.Offset {
		panic("parser: cursor cannot move backward")
	}
	c.pos = f.pos
}

// SliceFrom returns the original source between two positions.
func (c *Cursor) SliceFrom(start, end ast.Position) string {
	return c.source[start.Offset:end.Offset]
}

// Selection returns the location from start to end, or to the current
// position when end is omitted.
func (c *Cursor) Selection(start ast.Position, end ...ast.Position) ast.SourceLocation {
	e := c.pos
	if len(end) > 0 {
		e = end[0]
	}
	return ast.SourceLocation{Start: start, End: e, Source: c.SliceFrom(start, e)}
}

// Offset returns the position n bytes ahead of the current position without
// consuming anything.
func (c *Cursor) Offset(n int) ast.Position {
	return ast.AdvancePositionWithClone(c.pos, c.Rest(), n)
}
