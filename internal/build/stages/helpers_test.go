package stages

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/assetbuilder/internal/build/models"
	"git.home.luguber.info/inful/assetbuilder/internal/bundler"
	"git.home.luguber.info/inful/assetbuilder/internal/config"
	"git.home.luguber.info/inful/assetbuilder/internal/lint"
	"git.home.luguber.info/inful/assetbuilder/internal/styles"
)

type project struct {
	t   *testing.T
	dir string
	cfg *config.Config
}

func newProject(t *testing.T, body string) *project {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.Parse([]byte(body), dir)
	require.NoError(t, err)
	return &project{t: t, dir: dir, cfg: cfg}
}

func (p *project) write(rel, content string) string {
	p.t.Helper()
	path := filepath.Join(p.dir, filepath.FromSlash(rel))
	require.NoError(p.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(p.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (p *project) read(rel string) string {
	p.t.Helper()
	data, err := os.ReadFile(filepath.Join(p.cfg.Paths.Output, filepath.FromSlash(rel)))
	require.NoError(p.t, err)
	return string(data)
}

func (p *project) state() *models.RunState {
	tools := models.Collaborators{
		Linter:  lint.NewBuiltinLinter(),
		Bundler: bundler.New(),
		Styles:  styles.NewESBuildCompiler(),
	}
	return models.NewRunState(p.cfg, tools, models.NewRunReport("test-run", "compile"))
}
