package styles

import (
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
)

type fakeCompiler struct{ name string }

func (f fakeCompiler) Compile(_ context.Context, _ string) ([]byte, error) {
	return []byte(f.name), nil
}

func write(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestIsPartial(t *testing.T) {
	assert.True(t, IsPartial("source/styles/_vars.scss"))
	assert.False(t, IsPartial("source/styles/style.scss"))
}

func TestESBuildCompilerBundlesImportsAndMinifies(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "base.css", "body {\n  color: #ff0000;\n}\n")
	root := write(t, dir, "style.css", "@import \"./base.css\";\n\n.a {\n  margin: 0px;\n}\n")

	out, err := NewESBuildCompiler().Compile(context.Background(), root)
	require.NoError(t, err)
	css := string(out)
	assert.Contains(t, css, "body{color:")
	assert.Contains(t, css, ".a{margin:")
	assert.NotContains(t, css, "\n  ")
	assert.NotContains(t, css, "@import")
}

func TestESBuildCompilerReportsFile(t *testing.T) {
	dir := t.TempDir()
	root := write(t, dir, "broken.css", "@import \"./missing.css\";\n")

	_, err := NewESBuildCompiler().Compile(context.Background(), root)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryStyle))
	assert.Contains(t, err.Error(), "broken.css")
}

func TestAutoCompilerDispatch(t *testing.T) {
	c := &AutoCompiler{Sass: fakeCompiler{"sass"}, CSS: fakeCompiler{"css"}}

	out, err := c.Compile(context.Background(), "a.scss")
	require.NoError(t, err)
	assert.Equal(t, "sass", string(out))

	out, err = c.Compile(context.Background(), "a.CSS")
	require.NoError(t, err)
	assert.Equal(t, "css", string(out))

	_, err = c.Compile(context.Background(), "a.less")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, ErrUnsupportedSource))
}

func TestSassCompilerMissingBinary(t *testing.T) {
	_, err := NewSassCompiler("assetbuilder-no-such-sass").Compile(context.Background(), "style.scss")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, ErrSassNotFound))
}

func TestSassCompilerCompressed(t *testing.T) {
	c := NewSassCompiler("")
	if _, err := exec.LookPath(c.Binary); err != nil {
		t.Skip("sass not installed")
	}
	dir := t.TempDir()
	write(t, dir, "_vars.scss", "$c: #00f;\n")
	root := write(t, dir, "style.scss", "@use \"vars\";\n.a { color: vars.$c; }\n")

	out, err := c.Compile(context.Background(), root)
	require.NoError(t, err)
	assert.Contains(t, string(out), ".a{color:")
}

func TestNewCompilerKinds(t *testing.T) {
	for _, kind := range []string{"", "auto", "sass", "esbuild"} {
		_, err := New(kind, "")
		require.NoError(t, err, kind)
	}
	_, err := New("less", "")
	require.Error(t, err)
}
