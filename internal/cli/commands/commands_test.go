package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/stencil/internal/cli/config"
	"github.com/conduit-lang/stencil/internal/compiler/metadata"
)

// workspace switches to a temp dir holding the given files
func workspace(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(oldWd) })
	return dir
}

func run(args ...string) (stdout, stderr string, err error) {
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--no-color"))
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "stencil", cmd.Use)
	assert.NotEmpty(t, cmd.Long)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, expected := range []string{"version", "compile", "check", "watch", "serve", "lsp", "init", "completion"} {
		assert.Contains(t, names, expected)
	}
}

func TestVersionCommand(t *testing.T) {
	oldVersion := Version
	Version = "1.2.3-test"
	t.Cleanup(func() { Version = oldVersion })

	out, _, err := run("version")
	require.NoError(t, err)
	assert.Contains(t, out, "Stencil version: 1.2.3-test")
	assert.Contains(t, out, "Go version: ")
}

func TestCompileCommand_WritesHandoffs(t *testing.T) {
	dir := workspace(t, map[string]string{
		"views/page.html":      `<div><p>{{ msg }}</p></div>`,
		"views/list.tpl":       `<ul><li v-for="item in items" :key="item.id">{{ item.name }}</li></ul>`,
		"views/notes.txt":      `not a template`,
		"views/.hidden/x.html": `<p></p>`,
	})

	out, _, err := run("compile", "views")
	require.NoError(t, err)
	assert.Contains(t, out, "views/page.html")
	assert.Contains(t, out, "Compiled 2 template(s)")

	m, err := metadata.ReadFile(filepath.Join(dir, "build/templates/views/page.html.json"))
	require.NoError(t, err)
	assert.Equal(t, "views/page.html", m.Filename)
	assert.Empty(t, m.Diagnostics)
	assert.FileExists(t, filepath.Join(dir, "build/templates/views/list.tpl.json"))
	assert.NoFileExists(t, filepath.Join(dir, "build/templates/views/notes.txt.json"))
	assert.NoDirExists(t, filepath.Join(dir, "build/templates/views/.hidden"))
}

func TestCompileCommand_Compress(t *testing.T) {
	dir := workspace(t, map[string]string{"page.html": `<p>hi</p>`})

	_, _, err := run("compile", "page.html", "--out", "dist", "--compress")
	require.NoError(t, err)

	m, err := metadata.ReadFile(filepath.Join(dir, "dist/page.html.json.gz"))
	require.NoError(t, err)
	assert.Equal(t, "page.html", m.Filename)
}

func TestCompileCommand_JSON(t *testing.T) {
	workspace(t, map[string]string{"page.html": `<p>{{ a }}</p>`})

	out, _, err := run("compile", "page.html", "--json")
	require.NoError(t, err)

	var handoffs []*metadata.Metadata
	require.NoError(t, json.Unmarshal([]byte(out), &handoffs))
	require.Len(t, handoffs, 1)
	assert.Equal(t, "page.html", handoffs[0].Filename)
	assert.NoDirExists(t, "build")
}

func TestCompileCommand_Errors(t *testing.T) {
	dir := workspace(t, map[string]string{
		"bad.html":  "<div>\n  <p v-else>x</p>\n</div>",
		"good.html": `<p>ok</p>`,
	})

	out, stderr, err := run("compile", ".")
	require.ErrorIs(t, err, errReported)
	assert.Contains(t, out, "1 error(s)")
	assert.Contains(t, out, "1 of 2 template(s)")
	assert.Contains(t, stderr, "X_V_ELSE_NO_ADJACENT_IF")
	assert.Contains(t, stderr, "<p v-else>x</p>")

	assert.NoFileExists(t, filepath.Join(dir, "build/templates/bad.html.json"))
	assert.FileExists(t, filepath.Join(dir, "build/templates/good.html.json"))
}

func TestCompileCommand_NoTemplates(t *testing.T) {
	workspace(t, map[string]string{"readme.md": "# hi"})

	_, _, err := run("compile")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no templates found")

	_, _, err = run("compile", "missing.html")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot access missing.html")
}

func TestCheckCommand(t *testing.T) {
	workspace(t, map[string]string{
		"bad.html":  "<div>\n  <p v-else>x</p>\n</div>",
		"good.html": `<p>ok</p>`,
	})

	out, _, err := run("check", "good.html")
	require.NoError(t, err)
	assert.Contains(t, out, "no problems found")

	out, _, err = run("check", ".")
	require.ErrorIs(t, err, errReported)
	assert.Contains(t, out, "bad.html")
	assert.Contains(t, out, "Line 2, Column 3:")
	assert.Contains(t, out, "1 error(s), 0 warning(s)")
}

func TestCheckCommand_JSON(t *testing.T) {
	workspace(t, map[string]string{
		"bad.html":  "<p v-else>x</p>",
		"good.html": `<p>ok</p>`,
	})

	out, _, err := run("check", "bad.html", "good.html", "--json")
	require.ErrorIs(t, err, errReported)

	var reports []struct {
		File        string `json:"file"`
		Diagnostics []struct {
			Name     string `json:"name"`
			Severity string `json:"severity"`
			File     string `json:"file"`
		} `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 2)
	assert.Equal(t, "bad.html", reports[0].File)
	require.Len(t, reports[0].Diagnostics, 1)
	assert.Equal(t, "X_V_ELSE_NO_ADJACENT_IF", reports[0].Diagnostics[0].Name)
	assert.Equal(t, "bad.html", reports[0].Diagnostics[0].File)
	assert.Empty(t, reports[1].Diagnostics)
}

func TestInvalidConfig_SuggestsValues(t *testing.T) {
	workspace(t, map[string]string{
		"stencil.yml": "compiler:\n  whitespace: condence\n",
		"page.html":   `<p></p>`,
	})

	_, stderr, err := run("check", "page.html")
	require.ErrorIs(t, err, errReported)
	assert.Contains(t, stderr, "CONFIGURATION ERROR")
	assert.Contains(t, stderr, "Did you mean: condense?")
}

func TestConfigFlag(t *testing.T) {
	dir := workspace(t, map[string]string{
		"conf/custom.yml": "output:\n  dir: out\n",
		"page.html":       `<p></p>`,
	})

	_, _, err := run("compile", "page.html", "--config", "conf/custom.yml")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "out/page.html.json"))
}

func TestInitCommand(t *testing.T) {
	dir := workspace(t, nil)

	out, _, err := run("init", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Created stencil.yml")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "stencil.yml", filepath.Base(cfg.File))
	assert.Equal(t, config.Default().Compiler.Delimiters, cfg.Compiler.Delimiters)
	assert.Equal(t, config.Default().Output, cfg.Output)
	assert.FileExists(t, filepath.Join(dir, "stencil.yml"))

	_, _, err = run("init", "--yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = run("init", "--yes", "--force")
	assert.NoError(t, err)
}

func TestCompletionCommand(t *testing.T) {
	out, _, err := run("completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "stencil")

	out, _, err = run("completion", "zsh")
	require.NoError(t, err)
	assert.Contains(t, out, "#compdef stencil")

	_, _, err = run("completion", "tcsh")
	assert.Error(t, err)
	_, _, err = run("completion", "powershell")
	assert.Error(t, err)

	cmd := NewCompletionCommand()
	assert.Equal(t, []string{"bash", "fish", "zsh"}, cmd.ValidArgs)
	assert.Contains(t, cmd.Long, "stencil completion zsh")
}

func TestExpandPaths(t *testing.T) {
	workspace(t, map[string]string{
		"a.html":     "",
		"sub/b.html": "",
		"sub/c.tpl":  "",
	})

	paths, err := expandPaths([]string{"a.html", "sub"}, []string{".html"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.html", filepath.Join("sub", "b.html")}, paths)

	paths, err = expandPaths(nil, nil)
	require.NoError(t, err)
	assert.Len(t, paths, 3)
}
