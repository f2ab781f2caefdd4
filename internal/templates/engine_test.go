package templates

import (
	"bytes"
	"html/template"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubFuncs stands in for the functions the view layer registers.
func stubFuncs() template.FuncMap {
	return template.FuncMap{
		"object_list":   func(any, any) template.HTML { return "<table></table>" },
		"object_detail": func(any, any) template.HTML { return "<dl></dl>" },
		"action_links":  func(any, any) template.HTML { return "" },
	}
}

func TestEngine_ResolveSelectsFirstExisting(t *testing.T) {
	e := New(WithFS(fstest.MapFS{
		"bookmarks/bookmark_list.html": {Data: []byte("custom")},
	}))

	name, err := e.Resolve("bookmarks/bookmark_list.html", "crudview/object_list.html")
	require.NoError(t, err)
	assert.Equal(t, "bookmarks/bookmark_list.html", name)

	name, err = e.Resolve("bookmarks/bookmark_detail.html", "crudview/object_detail.html")
	require.NoError(t, err)
	assert.Equal(t, "crudview/object_detail.html", name)

	_, err = e.Resolve("missing.html")
	assert.ErrorIs(t, err, ErrTemplateDoesNotExist)
}

func TestEngine_DirsShadowDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "crudview"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "crudview", "object_confirm_delete.html"), []byte("gone: {{.object}}"), 0o644))

	e := New(WithDirs(dir), WithFuncs(stubFuncs()))
	require.NoError(t, e.Load())

	var buf bytes.Buffer
	require.NoError(t, e.Render(&buf, "crudview/object_confirm_delete.html", map[string]any{"object": "x"}))
	assert.Equal(t, "gone: x", buf.String())
}

func TestEngine_RenderDefaultPage(t *testing.T) {
	e := New(WithFuncs(stubFuncs()))
	require.NoError(t, e.Load())

	var buf bytes.Buffer
	err := e.Render(&buf, "crudview/object_list.html", map[string]any{
		"object_verbose_name":        "bookmark",
		"object_verbose_name_plural": "bookmarks",
		"create_view_url":            "/bookmark/new/",
		"object_list":                []string{"a"},
	})
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "<title>Bookmarks</title>")
	assert.Contains(t, out, `<a href="/bookmark/new/">Add a new bookmark</a>`)
	assert.Contains(t, out, "<table></table>")
	assert.NotContains(t, out, "There are no bookmarks")
}

func TestEngine_RenderMissingPage(t *testing.T) {
	e := New()
	err := e.Render(&bytes.Buffer{}, "nope.html", nil)
	assert.ErrorIs(t, err, ErrTemplateDoesNotExist)
}

func TestEngine_Partial(t *testing.T) {
	e := New()

	out, err := e.Partial("detail.html", map[string]any{
		"object": []struct{ Label, Value string }{{"title", "<b>Go</b>"}},
	})
	require.NoError(t, err)
	assert.Contains(t, string(out), "<dt>Title</dt>")
	assert.Contains(t, string(out), "<dd>&lt;b&gt;Go&lt;/b&gt;</dd>")

	_, err = e.Partial("missing.html", nil)
	assert.ErrorIs(t, err, ErrTemplateDoesNotExist)
}

func TestBootstrap(t *testing.T) {
	t.Run("writes to the app template dir", func(t *testing.T) {
		app := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(app, "templates"), 0o755))
		e := New()

		path, err := Bootstrap(e, app, "bookmarks", "Bookmark", "_form")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(app, "templates", "bookmarks", "bookmark_form.html"), path)

		want, err := e.Source("crudview/object_form.html")
		require.NoError(t, err)
		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("falls back to the first project dir", func(t *testing.T) {
		project := t.TempDir()
		e := New(WithDirs(project, t.TempDir()))

		path, err := Bootstrap(e, t.TempDir(), "bookmarks", "Bookmark", "_list")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(project, "bookmarks", "bookmark_list.html"), path)

		_, err = Bootstrap(e, "", "bookmarks", "Bookmark", "_list")
		assert.ErrorIs(t, err, ErrTemplateExists)
	})

	t.Run("no template dir", func(t *testing.T) {
		_, err := Bootstrap(New(), t.TempDir(), "bookmarks", "Bookmark", "_detail")
		assert.ErrorIs(t, err, ErrNoTemplateDir)
	})
}
