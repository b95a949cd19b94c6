package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
)

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, n := range names {
		p := filepath.Join(root, filepath.FromSlash(n))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("// "+n+"\n"), 0o644))
	}
}

func relPaths(files []SourceFile) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.RelPath)
	}
	return out
}

func TestResolveOrderedKeepsDeclarationOrder(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "b.js", "a.js", "c.js")

	res, err := Resolve(Manifest{Name: "ordered", Root: root, Ordered: true, Entries: []string{"c.js", "./a.js", "b.js"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"c.js", "a.js", "b.js"}, relPaths(res.Files))
	assert.Empty(t, res.Duplicates)
	assert.Empty(t, res.Empty)
	assert.Equal(t, filepath.Join(root, "c.js"), res.Paths()[0])
}

func TestResolveOrderedKeepsDuplicates(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.js", "b.js")

	res, err := Resolve(Manifest{Name: "ordered", Root: root, Ordered: true, Entries: []string{"a.js", "b.js", "a.js"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.js", "b.js", "a.js"}, relPaths(res.Files))
	assert.Equal(t, []string{"a.js"}, res.Duplicates)
}

func TestResolveOrderedMissingFileRecordedAsEmpty(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.js")

	res, err := Resolve(Manifest{Name: "ordered", Root: root, Ordered: true, Entries: []string{"a.js", "missing.js"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.js"}, relPaths(res.Files))
	assert.Equal(t, []string{"missing.js"}, res.Empty)
}

func TestResolveOrderedRejectsPatterns(t *testing.T) {
	err := Validate(Manifest{Name: "ordered", Root: "src", Ordered: true, Entries: []string{"*.js"}})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestResolveGlobDeduplicatesAndSorts(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "z.js", "test/caret.js", "test/focus.js", "db.js")

	res, err := Resolve(Manifest{
		Name:    "modular",
		Root:    root,
		Entries: []string{"db.js", "test/**/*.js", "db.js", "*.js"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"db.js", "test/caret.js", "test/focus.js", "z.js"}, relPaths(res.Files))
	assert.Equal(t, []string{"db.js"}, res.Duplicates)
}

func TestResolveGlobZeroMatchesIsNotAnError(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.js")

	res, err := Resolve(Manifest{Name: "modular", Root: root, Entries: []string{"nothing/**/*.js", "a.js"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.js"}, relPaths(res.Files))
	assert.Equal(t, []string{"nothing/**/*.js"}, res.Empty)
}

func TestResolveGlobMissingRoot(t *testing.T) {
	res, err := Resolve(Manifest{Name: "static", Root: filepath.Join(t.TempDir(), "absent"), Entries: []string{"**/*"}})
	require.NoError(t, err)
	assert.Empty(t, res.Files)
	assert.Equal(t, []string{"**/*"}, res.Empty)
}

func TestValidateMalformedPattern(t *testing.T) {
	err := Validate(Manifest{Name: "styles", Root: "source/styles", Entries: []string{"[*.scss"}})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
	assert.Contains(t, err.Error(), "[*.scss")
}

func TestValidateRejectsEscapingAndAbsoluteEntries(t *testing.T) {
	for _, entry := range []string{"../outside.js", "/etc/passwd", "", "a/../../b.js"} {
		t.Run(fmt.Sprintf("%q", entry), func(t *testing.T) {
			err := Validate(Manifest{Name: "m", Root: "src", Entries: []string{entry}})
			require.Error(t, err)
		})
	}
}

func TestValidateRequiresRoot(t *testing.T) {
	require.Error(t, Validate(Manifest{Name: "m", Entries: []string{"a.js"}}))
}

func TestUnionKeepsFirstOccurrence(t *testing.T) {
	a := &Resolution{Files: []SourceFile{{Path: "src/a.js", RelPath: "a.js"}, {Path: "src/b.js", RelPath: "b.js"}}}
	b := &Resolution{Files: []SourceFile{{Path: "src/b.js", RelPath: "b.js"}, {Path: "mod/c.js", RelPath: "c.js"}}}

	got := Union(a, nil, b)
	assert.Equal(t, []string{"a.js", "b.js", "c.js"}, relPaths(got))
}

func TestResolveOrderedProperty(t *testing.T) {
	root := t.TempDir()
	names := make([]string, 6)
	for i := range names {
		names[i] = fmt.Sprintf("f%d.js", i)
	}
	writeFiles(t, root, names...)

	rapid.Check(t, func(rt *rapid.T) {
		entries := rapid.SliceOfN(rapid.SampledFrom(names), 1, 20).Draw(rt, "entries")

		res, err := Resolve(Manifest{Name: "ordered", Root: root, Ordered: true, Entries: entries})
		if err != nil {
			rt.Fatalf("resolve: %v", err)
		}
		got := relPaths(res.Files)
		if len(got) != len(entries) {
			rt.Fatalf("expected %d files, got %d", len(entries), len(got))
		}
		for i := range entries {
			if got[i] != entries[i] {
				rt.Fatalf("position %d: expected %s, got %s", i, entries[i], got[i])
			}
		}
	})
}
