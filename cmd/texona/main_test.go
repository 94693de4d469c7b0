package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/dshills/texona/internal/project"
)

type cliEnv struct {
	t   *testing.T
	dir string
	db  string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	return &cliEnv{t: t, dir: dir, db: filepath.Join(dir, "data", "texona.db")}
}

func (c *cliEnv) run(args ...string) (string, string, error) {
	c.t.Helper()
	var stdout, stderr bytes.Buffer
	args = append([]string{"--db", c.db, "--log-level", "error"}, args...)
	err := execute(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func (c *cliEnv) mustRun(args ...string) string {
	c.t.Helper()
	out, stderr, err := c.run(args...)
	require.NoError(c.t, err, stderr)
	return out
}

func (c *cliEnv) writeScript(name, code string) string {
	c.t.Helper()
	path := filepath.Join(c.dir, name)
	require.NoError(c.t, os.WriteFile(path, []byte(code), 0o644))
	return path
}

func TestNewAndList(t *testing.T) {
	c := newCLIEnv(t)

	id := strings.TrimSpace(c.mustRun("new", "poster", "--width", "300", "--height", "200"))
	require.NotEmpty(t, id)

	out := c.mustRun("list")
	assert.Contains(t, out, id)
	assert.Contains(t, out, "poster")
	assert.Contains(t, out, "300x200")
	assert.Contains(t, out, "yes")
}

func TestListEmpty(t *testing.T) {
	c := newCLIEnv(t)
	assert.Equal(t, "No projects found.\n", c.mustRun("list"))
}

func TestRunScriptPersistsCanvas(t *testing.T) {
	c := newCLIEnv(t)
	id := strings.TrimSpace(c.mustRun("new", "card", "--width", "100", "--height", "100"))

	path := c.writeScript("edit.lua", `
		local id = canvas.add{type = "rect", left = 10, top = 10, width = 20, height = 20, fill = "#ff0000"}
		canvas.set(id, "fill", "#0000ff")
		print(history.index(), history.len())
	`)
	out := c.mustRun("run", id, path)
	assert.Equal(t, "2\t3\n", out)

	doc := c.mustRun("show", id, "--json")
	assert.Equal(t, int64(2), gjson.Get(doc, "objects.#").Int())
	assert.Equal(t, "#0000ff", gjson.Get(doc, `objects.#(type=="rect").fill`).String())
}

func TestRunUndoSavesRestoredState(t *testing.T) {
	c := newCLIEnv(t)
	id := strings.TrimSpace(c.mustRun("new", "card"))

	path := c.writeScript("edit.lua", `
		local id = canvas.add{type = "circle", left = 5, top = 5, radius = 5, fill = "#000000"}
		canvas.set(id, "fill", "#ffffff")
	`)
	c.mustRun("run", id, path, "--undo", "1")

	doc := c.mustRun("show", id, "--json")
	assert.Equal(t, "#000000", gjson.Get(doc, `objects.#(type=="circle").fill`).String())
}

func TestRunScriptError(t *testing.T) {
	c := newCLIEnv(t)
	id := strings.TrimSpace(c.mustRun("new", "card"))

	path := c.writeScript("bad.lua", `canvas.add{`)
	_, _, err := c.run("run", id, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.lua")
}

func TestShowSummary(t *testing.T) {
	c := newCLIEnv(t)
	id := strings.TrimSpace(c.mustRun("new", "flyer", "--width", "640", "--height", "480"))

	out := c.mustRun("show", id)
	assert.Contains(t, out, "Name:       flyer")
	assert.Contains(t, out, "Workspace:  640x480")
	assert.Contains(t, out, "Objects:    1")
}

func TestThumbnailToFile(t *testing.T) {
	c := newCLIEnv(t)
	id := strings.TrimSpace(c.mustRun("new", "card", "--width", "50", "--height", "50"))

	path := filepath.Join(c.dir, "thumb.png")
	c.mustRun("thumbnail", id, "-o", path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")))
}

func TestThumbnailMissing(t *testing.T) {
	c := newCLIEnv(t)
	id := strings.TrimSpace(c.mustRun("new", "card"))

	// Clear the stored thumbnail directly.
	store, err := project.OpenSQLite(c.db)
	require.NoError(t, err)
	empty := ""
	_, err = store.Update(context.Background(), id, project.Update{ThumbnailURL: &empty})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, _, err = c.run("thumbnail", id, "-o", filepath.Join(c.dir, "x.png"))
	assert.ErrorIs(t, err, errNoThumbnail)
}

func TestDelete(t *testing.T) {
	c := newCLIEnv(t)
	id := strings.TrimSpace(c.mustRun("new", "card"))

	out := c.mustRun("delete", id)
	assert.Equal(t, "Removed "+id+"\n", out)

	_, _, err := c.run("show", id)
	assert.ErrorIs(t, err, project.ErrNotFound)

	_, stderr, err := c.run("delete", id)
	require.Error(t, err)
	assert.Contains(t, stderr, id)
}

func TestConfigFileOverridesDefaults(t *testing.T) {
	c := newCLIEnv(t)
	cfgPath := filepath.Join(c.dir, "texona.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
[canvas]
workspaceWidth = 123
workspaceHeight = 45
`), 0o644))

	id := strings.TrimSpace(c.mustRun("--config", cfgPath, "new", "card"))
	out := c.mustRun("show", id)
	assert.Contains(t, out, "Workspace:  123x45")
}

func TestVersion(t *testing.T) {
	c := newCLIEnv(t)
	out := c.mustRun("version")
	assert.True(t, strings.HasPrefix(out, "texona dev"))
}

func TestThumbnailToStdout(t *testing.T) {
	c := newCLIEnv(t)
	id := strings.TrimSpace(c.mustRun("new", "card", "--width", "40", "--height", "40"))

	out := c.mustRun("thumbnail", id)
	assert.True(t, strings.HasPrefix(out, "\x89PNG\r\n\x1a\n"))
}

func TestDuplicate(t *testing.T) {
	c := newCLIEnv(t)
	id := strings.TrimSpace(c.mustRun("new", "poster", "--width", "80", "--height", "60"))

	cp := strings.TrimSpace(c.mustRun("duplicate", id))
	require.NotEqual(t, id, cp)

	out := c.mustRun("show", cp)
	assert.Contains(t, out, "Name:       Copy of poster")
	assert.Contains(t, out, "Workspace:  80x60")
	assert.Equal(t, c.mustRun("show", id, "--json"), c.mustRun("show", cp, "--json"))
}

func TestTemplateLifecycle(t *testing.T) {
	c := newCLIEnv(t)
	id := strings.TrimSpace(c.mustRun("new", "poster", "--width", "80", "--height", "60"))
	path := c.writeScript("edit.lua", `canvas.add{type = "rect", left = 1, top = 1, width = 5, height = 5, fill = "#00ff00"}`)
	c.mustRun("run", id, path)

	tpl := strings.TrimSpace(c.mustRun("template", "save", id, "--name", "base"))
	assert.Contains(t, c.mustRun("template", "list"), "base")
	assert.NotContains(t, c.mustRun("list"), tpl)
	assert.Contains(t, c.mustRun("show", tpl), "Template:   yes")

	fromTpl := strings.TrimSpace(c.mustRun("template", "use", tpl))
	out := c.mustRun("show", fromTpl)
	assert.Contains(t, out, "Name:       base project")
	assert.Contains(t, out, "Objects:    2")
	assert.Contains(t, c.mustRun("list"), fromTpl)

	_, _, err := c.run("template", "delete", id)
	assert.ErrorIs(t, err, project.ErrNotTemplate)

	assert.Equal(t, "Removed template "+tpl+"\n", c.mustRun("template", "delete", tpl))
	assert.Equal(t, "No templates found.\n", c.mustRun("template", "list"))
}
