package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/stencil/internal/compiler/ast"
	cerrors "github.com/conduit-lang/stencil/internal/compiler/errors"
)

func TestFormatError(t *testing.T) {
	out := FormatError(ErrorOptions{
		Context:      "configuration error",
		Problem:      "bad value",
		Suggestions:  []string{"condense"},
		HelpCommands: []string{"Get help: stencil --help"},
		NoColor:      true,
	})

	assert.Contains(t, out, "❌ CONFIGURATION ERROR")
	assert.Contains(t, out, "   bad value")
	assert.Contains(t, out, "Did you mean: condense?")
	assert.Contains(t, out, "→ Get help: stencil --help")
}

func TestFormatError_Levels(t *testing.T) {
	assert.True(t, strings.HasPrefix(Warning("careful", true), "⚠️ careful"))
	assert.True(t, strings.HasPrefix(Info("note", true), "ℹ️ note"))
	assert.Equal(t, "✓ done", FormatSuccess("done", true))

	var buf bytes.Buffer
	WriteError(&buf, ErrorOptions{Problem: "boom", NoColor: true})
	assert.Equal(t, "❌ boom\n", buf.String())
}

func TestConfigError(t *testing.T) {
	out := ConfigError("cache.backend must be one of memory, redis", []string{"redis"}, true)
	assert.Contains(t, out, "CONFIGURATION ERROR")
	assert.Contains(t, out, "Did you mean: redis?")
	assert.Contains(t, out, "stencil init")
}

func TestFormatDiagnostics(t *testing.T) {
	loc := &ast.SourceLocation{
		Start: ast.Position{Offset: 5, Line: 1, Column: 6},
		End:   ast.Position{Offset: 13, Line: 1, Column: 14},
	}
	list := cerrors.ErrorList{
		cerrors.New(cerrors.XVElseNoAdjacentIf, loc).WithFile("page.html").WithSource("<div><p v-else>x</p></div>"),
		cerrors.NewWarning(cerrors.XMissingEndTag, nil).WithFile("page.html"),
	}

	out := FormatDiagnostics(list, true)
	assert.Contains(t, out, "page.html")
	assert.Contains(t, out, "X_V_ELSE_NO_ADJACENT_IF")
	assert.Contains(t, out, "1 error(s), 1 warning(s)")

	assert.Contains(t, FormatDiagnostics(nil, true), "✓ no problems found")
}

func TestFindSimilar(t *testing.T) {
	assert.Equal(t, []string{"condense"}, FindSimilar("condence", []string{"condense", "preserve"}))
	assert.Equal(t, []string{"redis"}, FindSimilar("Rediss", []string{"memory", "redis", "sqlite"}))
	assert.Empty(t, FindSimilar("postgres", []string{"memory", "redis", "sqlite"}))
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "abc", 3},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"module", "module", 0},
		{"modul", "module", 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevenshteinDistance(tt.a, tt.b), "%s -> %s", tt.a, tt.b)
	}
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, true, "FILE", "STATUS")
	table.AddRow("a.html", "compiled")
	table.AddRow("long-name.html")
	table.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "FILE            STATUS", lines[0])
	assert.Equal(t, "──────────────  ────────", lines[1])
	assert.Equal(t, "a.html          compiled", lines[2])
	assert.Equal(t, "long-name.html", lines[3])
}

func TestKeyValueTable(t *testing.T) {
	var buf bytes.Buffer
	kv := NewKeyValueTable(&buf, true)
	kv.AddRow("Address", "127.0.0.1:7878")
	kv.AddRow("Cache", "memory")
	kv.Render()

	assert.Equal(t, "Address: 127.0.0.1:7878\nCache:   memory\n", buf.String())
}

func TestHeader(t *testing.T) {
	var buf bytes.Buffer
	Header(&buf, "Stencil", true)
	assert.Equal(t, "Stencil\n───────\n", buf.String())
}
