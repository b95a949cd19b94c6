package models

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/assetbuilder/internal/config"
)

func testConfig(t *testing.T, body string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.Parse([]byte(body), dir)
	require.NoError(t, err)
	return cfg
}

func TestResolveIsMemoizedPerRun(t *testing.T) {
	cfg := testConfig(t, "sources:\n  modular:\n    entries: [a.js, a.js]\n")
	root := cfg.Sources.Modular.Root
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.js"), []byte("1"), 0o644))

	rs := NewRunState(cfg, Collaborators{}, NewRunReport("id", "compile"))
	first, err := rs.Resolve(context.Background(), config.ManifestModular)
	require.NoError(t, err)
	require.Len(t, first.Files, 1)
	assert.Equal(t, []string{"a.js"}, first.Duplicates)

	require.NoError(t, os.WriteFile(filepath.Join(root, "b.js"), []byte("2"), 0o644))
	second, err := rs.Resolve(context.Background(), config.ManifestModular)
	require.NoError(t, err)
	assert.Same(t, first, second)

	require.Len(t, rs.Report.Issues, 1)
	assert.Equal(t, IssueDuplicateEntry, rs.Report.Issues[0].Code)
	assert.Len(t, rs.Report.Warnings, 1)
}

func TestResolveUnknownManifest(t *testing.T) {
	cfg := testConfig(t, "")
	rs := NewRunState(cfg, Collaborators{}, NewRunReport("id", "compile"))
	_, err := rs.Resolve(context.Background(), "vendor")
	require.Error(t, err)
}
