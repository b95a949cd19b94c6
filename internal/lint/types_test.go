package lint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRuleConfigYAML(t *testing.T) {
	doc := `
globals: [jQuery, $]
envs: [es6, browser]
rules:
  no-dupe-keys: error
  no-empty: [warn, {allowEmptyCatch: true}]
  no-debugger: 0
`
	var cfg RuleConfig
	require.NoError(t, yaml.Unmarshal([]byte(doc), &cfg))

	assert.Equal(t, []string{"jQuery", "$"}, cfg.Globals)
	assert.Equal(t, LevelError, cfg.Level("no-dupe-keys"))
	assert.Equal(t, LevelWarn, cfg.Level("no-empty"))
	assert.Equal(t, []any{map[string]any{"allowEmptyCatch": true}}, cfg.Rules["no-empty"].Options)
	assert.Equal(t, LevelOff, cfg.Level("no-debugger"))
	assert.Equal(t, LevelOff, cfg.Level("not-configured"))
	assert.True(t, cfg.HasEnv("ES6"))
}

func TestRuleSettingRejectsUnknownLevel(t *testing.T) {
	var cfg RuleConfig
	err := yaml.Unmarshal([]byte("rules:\n  no-undef: fatal\n"), &cfg)
	require.Error(t, err)
}

func TestRuleSettingRoundTripsShape(t *testing.T) {
	out, err := yaml.Marshal(map[string]RuleSetting{
		"a": {Level: LevelError},
		"b": {Level: LevelWarn, Options: []any{map[string]any{"argsIgnorePattern": "e|event"}}},
	})
	require.NoError(t, err)
	assert.Contains(t, string(out), "a: error")
	assert.Contains(t, string(out), "- warn")
}

func TestCloneIsIndependent(t *testing.T) {
	cfg := RuleConfig{Globals: []string{"$"}, Rules: map[string]RuleSetting{"x": {Level: LevelError}}}
	c := cfg.Clone()
	c.Globals[0] = "changed"
	c.Rules["x"] = RuleSetting{Level: LevelOff}

	assert.Equal(t, "$", cfg.Globals[0])
	assert.Equal(t, LevelError, cfg.Level("x"))
}

func TestResultCounts(t *testing.T) {
	r := &Result{Findings: []Finding{
		{FilePath: "b.js", Severity: SeverityWarning, Line: 3},
		{FilePath: "a.js", Severity: SeverityError, Line: 9},
		{FilePath: "b.js", Severity: SeverityError, Line: 1},
	}}
	assert.True(t, r.HasErrors())
	assert.Equal(t, 2, r.ErrorCount())
	assert.Equal(t, 1, r.WarningCount())
	assert.Len(t, r.Errors(1), 1)

	r.Sort()
	assert.Equal(t, "b.js", r.Findings[0].FilePath)
	assert.Equal(t, 1, r.Findings[0].Line)
	assert.Equal(t, "a.js", r.Findings[2].FilePath)
}

func TestWarningsOnlyIsNotFailing(t *testing.T) {
	r := &Result{Findings: []Finding{{Severity: SeverityWarning}, {Severity: SeverityWarning}}}
	assert.False(t, r.HasErrors())
}
