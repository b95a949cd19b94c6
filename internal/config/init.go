package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/lint"
	"git.home.luguber.info/inful/assetbuilder/internal/manifest"
	"git.home.luguber.info/inful/assetbuilder/internal/observability"
)

var exampleErrorRules = []string{
	"constructor-super", "for-direction", "getter-return", "no-async-promise-executor",
	"no-case-declarations", "no-class-assign", "no-compare-neg-zero", "no-cond-assign",
	"no-const-assign", "no-constant-condition", "no-control-regex", "no-debugger", "no-delete-var",
	"no-dupe-args", "no-dupe-class-members", "no-dupe-keys", "no-duplicate-case",
	"no-empty-character-class", "no-empty-pattern", "no-ex-assign", "no-extra-boolean-cast",
	"no-extra-semi", "no-fallthrough", "no-func-assign", "no-global-assign", "no-import-assign",
	"no-inner-declarations", "no-invalid-regexp", "no-irregular-whitespace",
	"no-misleading-character-class", "no-mixed-spaces-and-tabs", "no-new-symbol", "no-obj-calls",
	"no-octal", "no-prototype-builtins", "no-redeclare", "no-regex-spaces", "no-self-assign",
	"no-setter-return", "no-shadow-restricted-names", "no-sparse-arrays", "no-this-before-super",
	"no-undef", "no-unreachable", "no-unsafe-finally", "no-unsafe-negation", "no-unused-labels",
	"no-useless-catch", "no-useless-escape", "no-with", "require-yield", "use-isnan", "valid-typeof",
}

var exampleWarnRules = []string{
	"no-dupe-else-if", "no-unexpected-multiline", "no-use-before-define",
}

// ExampleRuleConfig returns the rule table written by Init.
func ExampleRuleConfig() lint.RuleConfig {
	rules := make(map[string]lint.RuleSetting, len(exampleErrorRules)+len(exampleWarnRules)+2)
	for _, name := range exampleErrorRules {
		rules[name] = lint.RuleSetting{Level: lint.LevelError}
	}
	for _, name := range exampleWarnRules {
		rules[name] = lint.RuleSetting{Level: lint.LevelWarn}
	}
	rules["no-empty"] = lint.RuleSetting{Level: lint.LevelWarn, Options: []any{map[string]any{"allowEmptyCatch": true}}}
	rules["no-unused-vars"] = lint.RuleSetting{Level: lint.LevelWarn, Options: []any{map[string]any{"argsIgnorePattern": "e|event"}}}
	return lint.RuleConfig{
		Globals: []string{"jQuery", "$", "firebase", "moment", "html2canvas", "ClipboardItem"},
		Envs:    []string{"es6", "browser", "node"},
		Rules:   rules,
	}
}

// Example returns the configuration document written by Init.
func Example() *Config {
	return &Config{
		Version: CurrentVersion,
		Paths: PathsConfig{
			Output:     "output",
			StagingDir: "generated",
			EntryName:  "index.js",
			BundlePath: "scripts/bundle.js",
			StylesDir:  "styles",
		},
		Sources: SourcesConfig{
			Ordered: manifest.Manifest{
				Root: "source/scripts/ordered",
				Entries: []string{
					"global-dependencies.js",
					"simple-popups.js",
					"settings.js",
					"account.js",
					"script.js",
					"exports.js",
				},
			},
			Modular: manifest.Manifest{
				Root:       "source/scripts/modular",
				AllowEmpty: true,
				Entries: []string{
					"db.js",
					"cloud-functions.js",
					"misc.js",
					"layouts.js",
					"monkey.js",
					"result-filters.js",
					"notification-center.js",
					"leaderboards.js",
					"sound.js",
					"custom-text.js",
					"shift-tracker.js",
					"test/test-stats.js",
					"theme-colors.js",
					"test/out-of-focus.js",
					"chart-controller.js",
					"theme-controller.js",
					"test/caret.js",
					"custom-text-popup.js",
					"manual-restart-tracker.js",
					"config.js",
					"config-set.js",
					"test/focus.js",
					"account-icon.js",
					"test/practise-missed.js",
					"test/test-ui.js",
					"test/keymap.js",
					"test/live-wpm.js",
					"test/caps-warning.js",
					"test/live-acc.js",
					"test/test-leaderboards.js",
					"test/timer-progress.js",
					"test/test-logic.js",
					"test/funbox.js",
					"test/pace-caret.js",
					"quote-search-popup.js",
					"tag-controller.js",
					"ui.js",
					"test/pb-crown.js",
					"test/test-timer.js",
					"settings/language-picker.js",
					"commandline.js",
					"commandline-lists.js",
					"commandline.js",
					"challenge-controller.js",
					"custom-word-amount-popup.js",
					"custom-test-duration-popup.js",
					"test/test-config.js",
					"loader.js",
					"mini-result-chart.js",
				},
			},
			Styles: manifest.Manifest{Root: "source/styles", Entries: []string{"*.scss"}},
			Static: manifest.Manifest{Root: "static", Entries: []string{"**/*"}},
		},
		Lint: LintConfig{
			Engine:     "builtin",
			Sources:    []string{ManifestOrdered, ManifestModular},
			Format:     "text",
			RuleConfig: ExampleRuleConfig(),
		},
		Bundle: BundleConfig{Target: "es2015", Banner: true},
		Styles: StylesConfig{Compiler: "auto", SassBinary: "sass"},
		Watch: WatchConfig{
			Task:     "compile",
			Paths:    []string{"source", "static"},
			Debounce: "300ms",
			MaxDelay: "5s",
		},
		Metrics: MetricsConfig{Namespace: "assetbuilder", Listen: ":9464"},
		Tracing: observability.TracingConfig{Exporter: "none", SampleRate: 1, ServiceName: "assetbuilder"},
		History: HistoryConfig{Enabled: true, Path: ".assetbuilder/history.db"},
		Notify:  NotifyConfig{URL: "${NATS_URL}", Subject: "assetbuilder.runs"},
	}
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).Build()
	}

	data, err := yaml.Marshal(Example())
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "encode example configuration").Build()
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write configuration").WithFile(configPath).Build()
	}
	return nil
}
