package ast

// Position is a byte-precise point in the template source.
type Position struct {
	Offset int `json:"offset"` // 0-indexed byte offset
	Line   int `json:"line"`   // 1-indexed
	Column int `json:"column"` // 1-indexed
}

// SourceLocation spans [Start.Offset, End.Offset) of the source. Source is
// always the exact slice of the original input covered by the span.
type SourceLocation struct {
	Start  Position `json:"start"`
	End    Position `json:"end"`
	Source string   `json:"source"`
}

// LocStub is used for nodes synthesized by transforms that have no source span.
var LocStub = SourceLocation{
	Start: Position{Line: 1, Column: 1, Offset: 0},
	End:   Position{Line: 1, Column: 1, Offset: 0},
}

// IsStub reports whether the location was synthesized.
func (l SourceLocation) IsStub() bool {
	return l.Source == "" && l.Start == l.End && l.Start.Offset == 0
}

// AdvancePositionWithMutation moves pos forward over the first n bytes of
// source, counting newlines. It never moves backward.
func AdvancePositionWithMutation(pos *Position, source string, n int) {
	if n <= 0 {
		return
	}
	if n > len(source) {
		n = len(source)
	}
	lines := 0
	lastNewline := -1
	for i := 0; i < n; i++ {
		if source[i] == '\n' {
			lines++
			lastNewline = i
		}
	}
	pos.Offset += n
	pos.Line += lines
	if lastNewline == -1 {
		pos.Column += n
	} else {
		pos.Column = n - lastNewline
	}
}

// AdvancePositionWithClone is AdvancePositionWithMutation on a detached copy.
func AdvancePositionWithClone(pos Position, source string, n int) Position {
	AdvancePositionWithMutation(&pos, source, n)
	return pos
}

// SubLocation returns the location of source[offset:offset+length] relative
// to loc. Used to give directive arguments and modifiers their own spans.
func SubLocation(loc SourceLocation, offset, length int) SourceLocation {
	source := loc.Source[offset : offset+length]
	start := AdvancePositionWithClone(loc.Start, loc.Source, offset)
	end := AdvancePositionWithClone(start, source, length)
	return SourceLocation{Start: start, End: end, Source: source}
}
