package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/lint"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, DefaultFile)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadAppliesDefaults(t *testing.T) {
	p := writeConfig(t, "sources:\n  ordered:\n    entries: [a.js, b.js]\n")
	base := filepath.Dir(p)

	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, CurrentVersion, cfg.Version)
	assert.Equal(t, filepath.Join(base, "output"), cfg.Paths.Output)
	assert.Equal(t, filepath.Join(base, "source/scripts/ordered"), cfg.Sources.Ordered.Root)
	assert.True(t, cfg.Sources.Ordered.Ordered)
	assert.Equal(t, ManifestModular, cfg.Sources.Modular.Name)
	assert.Equal(t, []string{"**/*.js"}, cfg.Sources.Modular.Entries)
	assert.Equal(t, "builtin", cfg.Lint.Engine)
	assert.Equal(t, []string{ManifestOrdered, ManifestModular}, cfg.Lint.Sources)
	assert.Equal(t, "es2015", cfg.Bundle.Target)
	assert.Equal(t, "compile", cfg.Watch.Task)
	assert.Equal(t, 300*time.Millisecond, cfg.Watch.DebounceDuration())
	assert.Equal(t, time.Duration(0), cfg.Watch.RebuildInterval())
	assert.Equal(t, filepath.Join(base, "output", "scripts", "bundle.js"), cfg.Layout().BundleFile())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestLoadMalformedGlobFailsEarly(t *testing.T) {
	p := writeConfig(t, "sources:\n  modular:\n    entries: [\"[bad\"]\n")
	_, err := Load(p)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
	assert.Contains(t, err.Error(), "[bad")
}

func TestLoadRejectsUnsafeOutput(t *testing.T) {
	p := writeConfig(t, "paths:\n  output: .\n")
	_, err := Load(p)
	require.Error(t, err)

	p = writeConfig(t, "paths:\n  output: source\n")
	_, err = Load(p)
	require.Error(t, err)
}

func TestLoadExpandsEnvironmentAndDotEnv(t *testing.T) {
	p := writeConfig(t, "paths:\n  output: ${ASSETBUILDER_TEST_OUT}\n")
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(p), ".env"), []byte("ASSETBUILDER_TEST_OUT=dist\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("ASSETBUILDER_TEST_OUT") })

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(p), "dist"), cfg.Paths.Output)
}

func TestLoadLintRuleTable(t *testing.T) {
	p := writeConfig(t, `
lint:
  engine: eslint
  globals: [jQuery]
  rules:
    no-undef: error
    no-empty: [warn, {allowEmptyCatch: true}]
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "eslint", cfg.Lint.Engine)
	assert.Equal(t, []string{"jQuery"}, cfg.Lint.Globals)
	assert.Equal(t, lint.LevelError, cfg.Lint.Level("no-undef"))
	assert.Equal(t, lint.LevelWarn, cfg.Lint.Level("no-empty"))
}

func TestValidationErrors(t *testing.T) {
	cases := map[string]string{
		"version":        "version: \"9\"\n",
		"lint engine":    "lint:\n  engine: jshint\n",
		"lint format":    "lint:\n  format: xml\n",
		"lint source":    "lint:\n  sources: [vendor]\n",
		"bundle target":  "bundle:\n  target: es3\n",
		"compiler":       "styles:\n  compiler: less\n",
		"watch task":     "watch:\n  task: deploy\n",
		"debounce":       "watch:\n  debounce: soon\n",
		"entry name":     "paths:\n  entry_name: gen/index.js\n",
		"sample rate":    "tracing:\n  sample_rate: 2\n",
		"ordered glob":   "sources:\n  ordered:\n    entries: [\"*.js\"]\n",
		"escaping entry": "sources:\n  static:\n    entries: [\"../secrets\"]\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, errors.CategoryConfig), err.Error())
		})
	}
}

func TestInitWritesLoadableExample(t *testing.T) {
	p := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, Init(p, false))

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"global-dependencies.js", "simple-popups.js", "settings.js", "account.js", "script.js", "exports.js"}, cfg.Sources.Ordered.Entries)
	assert.True(t, cfg.Sources.Modular.AllowEmpty)
	assert.Contains(t, cfg.Sources.Modular.Entries, "test/caret.js")
	assert.Equal(t, lint.LevelError, cfg.Lint.Level("no-undef"))
	assert.Equal(t, []any{map[string]any{"argsIgnorePattern": "e|event"}}, cfg.Lint.Rules["no-unused-vars"].Options)
	assert.True(t, cfg.Bundle.Banner)

	err = Init(p, false)
	require.Error(t, err)
	require.NoError(t, Init(p, true))
}

func TestParseLogSettings(t *testing.T) {
	assert.Equal(t, LogFormatJSON, NormalizeLogFormat(" JSON "))
	assert.Equal(t, LogFormatText, NormalizeLogFormat("yaml"))

	_, ok := ParseLogLevel("verbose")
	assert.False(t, ok)
	lvl, ok := ParseLogLevel("WARN")
	assert.True(t, ok)
	assert.Equal(t, "WARN", lvl.String())
}

func TestHistoryPathResolution(t *testing.T) {
	p := writeConfig(t, "sources:\n  ordered:\n    entries: [a.js]\nhistory:\n  enabled: true\n  path: \":memory:\"\n")
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, HistoryInMemory, cfg.History.Path)

	p = writeConfig(t, "sources:\n  ordered:\n    entries: [a.js]\nhistory:\n  path: state/runs.db\n")
	cfg, err = Load(p)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(p), "state", "runs.db"), cfg.History.Path)
}
