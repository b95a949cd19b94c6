package stages

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/assetbuilder/internal/build/models"
	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
)

const orderedBA = "sources:\n  ordered:\n    entries: [b.js, a.js, b.js]\n"

func TestConcatKeepsDeclaredOrderAndDuplicates(t *testing.T) {
	p := newProject(t, orderedBA)
	p.write("source/scripts/ordered/a.js", "A;")
	p.write("source/scripts/ordered/b.js", "B;")

	rs := p.state()
	require.NoError(t, StageConcat(context.Background(), rs))

	assert.Equal(t, "B;A;B;", p.read("generated/index.js"))
	entries := rs.Report.ArtifactsOf(models.ArtifactEntry)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(6), entries[0].Size)
}

func TestConcatReorderChangesOutput(t *testing.T) {
	p := newProject(t, "sources:\n  ordered:\n    entries: [a.js, b.js]\n")
	p.write("source/scripts/ordered/a.js", "A;")
	p.write("source/scripts/ordered/b.js", "B;")
	require.NoError(t, StageConcat(context.Background(), p.state()))
	first := p.read("generated/index.js")

	p.cfg.Sources.Ordered.Entries = []string{"b.js", "a.js"}
	require.NoError(t, StageConcat(context.Background(), p.state()))
	assert.NotEqual(t, first, p.read("generated/index.js"))
}

func TestConcatMissingFileIsConfigError(t *testing.T) {
	p := newProject(t, "sources:\n  ordered:\n    entries: [a.js, gone.js]\n")
	p.write("source/scripts/ordered/a.js", "A;")

	err := StageConcat(context.Background(), p.state())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
	assert.Contains(t, err.Error(), "gone.js")
	assert.NoFileExists(t, filepath.Join(p.cfg.Paths.Output, "generated", "index.js"))
}

func TestConcatEmptyManifestFails(t *testing.T) {
	p := newProject(t, "")
	err := StageConcat(context.Background(), p.state())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestConcatStartsFromEmptyStaging(t *testing.T) {
	p := newProject(t, "sources:\n  ordered:\n    entries: [a.js]\n")
	p.write("source/scripts/ordered/a.js", "A;")
	rs := p.state()
	stale := filepath.Join(rs.Layout.StagingRoot(), "lib", "old.js")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	require.NoError(t, StageConcat(context.Background(), rs))
	assert.NoFileExists(t, stale)
	assert.Equal(t, "A;", p.read("generated/index.js"))
}

func TestStageModulesCopiesUnderLogicalPath(t *testing.T) {
	p := newProject(t, "")
	p.write("source/scripts/modular/a.js", "export const a = 1;")
	p.write("source/scripts/modular/test/caret.js", "export const c = 2;")

	rs := p.state()
	require.NoError(t, StageStageModules(context.Background(), rs))
	assert.Equal(t, "export const a = 1;", p.read("generated/a.js"))
	assert.Equal(t, "export const c = 2;", p.read("generated/test/caret.js"))
	assert.Len(t, rs.Report.ArtifactsOf(models.ArtifactStagedModule), 2)

	// Restaging is idempotent.
	require.NoError(t, StageStageModules(context.Background(), p.state()))
	assert.Equal(t, "export const a = 1;", p.read("generated/a.js"))
}

func TestStageModulesDuplicateEntryIsWarning(t *testing.T) {
	p := newProject(t, "sources:\n  modular:\n    entries: [commandline.js, commandline.js]\n")
	p.write("source/scripts/modular/commandline.js", "1")

	rs := p.state()
	require.NoError(t, StageStageModules(context.Background(), rs))
	require.Len(t, rs.Report.Issues, 1)
	assert.Equal(t, models.IssueDuplicateEntry, rs.Report.Issues[0].Code)
	assert.Equal(t, models.SeverityWarning, rs.Report.Issues[0].Severity)
}

func TestStageModulesMissingEntry(t *testing.T) {
	body := "sources:\n  modular:\n    entries: [a.js, missing.js]\n"
	p := newProject(t, body)
	p.write("source/scripts/modular/a.js", "1")
	err := StageStageModules(context.Background(), p.state())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))

	p = newProject(t, body+"    allow_empty: true\n")
	p.write("source/scripts/modular/a.js", "1")
	rs := p.state()
	require.NoError(t, StageStageModules(context.Background(), rs))
	require.Len(t, rs.Report.Issues, 1)
	assert.Equal(t, models.IssueEmptyEntry, rs.Report.Issues[0].Code)
}

func TestStageModulesRefusesToOverwriteEntry(t *testing.T) {
	p := newProject(t, "")
	p.write("source/scripts/modular/index.js", "1")
	err := StageStageModules(context.Background(), p.state())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overwrite the generated entry")
}

func TestLintWarningsOnlySucceeds(t *testing.T) {
	p := newProject(t, "lint:\n  rules:\n    no-dupe-keys: warn\n")
	p.write("source/scripts/modular/a.js", "var o = {a: 1, a: 2};\n")

	rs := p.state()
	var out bytes.Buffer
	rs.LintOutput = &out
	require.NoError(t, StageLint(context.Background(), rs))
	require.NotNil(t, rs.Report.Lint)
	assert.Equal(t, 1, rs.Report.Lint.Warnings)
	assert.Contains(t, out.String(), "no-dupe-keys")
}

func TestLintErrorFailsAndStillReports(t *testing.T) {
	p := newProject(t, "sources:\n  ordered:\n    entries: [legacy.js]\n")
	p.write("source/scripts/ordered/legacy.js", "var ok = 1;\n")
	bad := p.write("source/scripts/modular/bad.js", "function (\n")

	rs := p.state()
	var out bytes.Buffer
	rs.LintOutput = &out
	err := StageLint(context.Background(), rs)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryLint))
	assert.Contains(t, err.Error(), "syntax")
	assert.Contains(t, out.String(), filepath.Base(bad))
	assert.Equal(t, 2, rs.Report.Lint.Files)
	assert.Equal(t, 1, rs.Report.Lint.Errors)
}

func TestBundleWithoutEntryIsConfigError(t *testing.T) {
	p := newProject(t, "")
	err := StageBundle(context.Background(), p.state())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
	assert.NoFileExists(t, p.cfg.Layout().BundleFile())
}

func TestBundleResolvesStagedModules(t *testing.T) {
	p := newProject(t, "sources:\n  ordered:\n    entries: [main.js]\nbundle:\n  banner: true\n")
	p.write("source/scripts/ordered/main.js", "const a = require('./a.js');\nconsole.log(a.value);\n")
	p.write("source/scripts/modular/a.js", "module.exports = { value: 42 };\n")

	rs := p.state()
	rs.Revision = "abc1234"
	ctx := context.Background()
	require.NoError(t, StageConcat(ctx, rs))
	require.NoError(t, StageStageModules(ctx, rs))
	require.NoError(t, StageBundle(ctx, rs))

	out := p.read("scripts/bundle.js")
	assert.True(t, strings.HasPrefix(out, "/* assetbuilder "))
	assert.Contains(t, out, "abc1234")
	assert.Contains(t, out, "42")
	assert.ElementsMatch(t, []string{"a.js", "index.js"}, rs.Report.BundleInputs)
}

func TestStaticCopiesTree(t *testing.T) {
	p := newProject(t, "")
	p.write("static/index.html", "<html></html>")
	p.write("static/images/logo.svg", "<svg/>")

	rs := p.state()
	require.NoError(t, StageStatic(context.Background(), rs))
	assert.Equal(t, "<html></html>", p.read("index.html"))
	assert.Equal(t, "<svg/>", p.read("images/logo.svg"))
	assert.Len(t, rs.Report.ArtifactsOf(models.ArtifactStatic), 2)
}

func TestStylesFailureDoesNotStopOtherRoots(t *testing.T) {
	p := newProject(t, "")
	p.write("source/styles/good.css", "body { color: red; }\n")
	p.write("source/styles/bad.css", "@import \"missing.css\";\n")
	p.write("source/styles/_partial.css", ".p { margin: 0; }\n")

	rs := p.state()
	err := StageStyles(context.Background(), rs)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryStyle))

	assert.Contains(t, p.read("styles/good.css"), "body{color:")
	assert.NoFileExists(t, filepath.Join(p.cfg.Paths.Output, "styles", "bad.css"))
	assert.NoFileExists(t, filepath.Join(p.cfg.Paths.Output, "styles", "_partial.css"))
	assert.Len(t, rs.Report.ArtifactsOf(models.ArtifactStylesheet), 1)
}

func TestCleanTwiceIsIdempotent(t *testing.T) {
	p := newProject(t, "")
	p.write("output/old.js", "stale")

	require.NoError(t, StageClean(context.Background(), p.state()))
	require.NoError(t, StageClean(context.Background(), p.state()))
	_, err := os.Stat(p.cfg.Paths.Output)
	assert.True(t, os.IsNotExist(err))
}

func TestParseStageName(t *testing.T) {
	name, err := ParseStageName("stage-modules")
	require.NoError(t, err)
	assert.Equal(t, models.StageStageModules, name)

	_, err = ParseStageName("deploy")
	require.Error(t, err)

	def, ok := Definition(models.StageBundle)
	require.True(t, ok)
	assert.Equal(t, []models.StageName{models.StageConcat, models.StageStageModules}, def.DependsOn)
}
