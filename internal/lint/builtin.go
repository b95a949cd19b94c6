package lint

import (
	"context"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
)

// RuleSyntax is reported for sources that fail to parse. It is always an error.
const RuleSyntax = "syntax"

// diagnosticRules maps esbuild diagnostic ids onto the rule names used in
// the rule table, so a configured level applies to them.
var diagnosticRules = map[string]string{
	"duplicate-object-key":   "no-dupe-keys",
	"duplicate-case":         "no-duplicate-case",
	"equals-nan":             "use-isnan",
	"equals-negative-zero":   "no-compare-neg-zero",
	"assign-to-constant":     "no-const-assign",
	"assign-to-import":       "no-import-assign",
	"impossible-typeof":      "valid-typeof",
	"duplicate-class-member": "no-dupe-class-members",
	"direct-eval":            "no-eval",
	"suspicious-boolean-not": "no-unsafe-negation",
	"unsupported-regexp":     "no-invalid-regexp",
}

// envTargets selects the parse target from the enabled environments; the
// highest listed language level wins.
var envTargets = []struct {
	env    string
	target api.Target
}{
	{"es2022", api.ES2022},
	{"es2021", api.ES2021},
	{"es2020", api.ES2020},
	{"es2019", api.ES2019},
	{"es2018", api.ES2018},
	{"es2017", api.ES2017},
	{"es2016", api.ES2016},
	{"es2015", api.ES2015},
	{"es6", api.ES2015},
	{"es5", api.ES5},
}

// BuiltinLinter checks sources with the esbuild parser in process.
type BuiltinLinter struct{}

// NewBuiltinLinter creates the in-process engine.
func NewBuiltinLinter() *BuiltinLinter {
	return &BuiltinLinter{}
}

// Lint parses each file and converts parser diagnostics into findings.
func (l *BuiltinLinter) Lint(ctx context.Context, files []string, cfg RuleConfig) (*Result, error) {
	if rules := UnenforcedRules(cfg); len(rules) > 0 {
		slog.Warn("Builtin lint engine cannot enforce configured error rules; set lint.engine: eslint to apply them",
			slog.String("rules", strings.Join(rules, ",")), logfields.Count(len(rules)))
	}
	if len(cfg.Globals) > 0 {
		slog.Debug("Builtin lint engine ignores configured globals", logfields.Count(len(cfg.Globals)))
	}
	result := &Result{}
	target := parseTarget(cfg)
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// #nosec G304 -- files come from resolved manifests
		src, err := os.ReadFile(file)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryFileSystem, "read lint input").WithFile(file).Build()
		}
		result.FilesTotal++

		tr := api.Transform(string(src), api.TransformOptions{
			Loader:     api.LoaderJS,
			Target:     target,
			Sourcefile: file,
			LogLevel:   api.LogLevelSilent,
		})
		for _, msg := range tr.Errors {
			result.Findings = append(result.Findings, toFinding(file, msg, SeverityError, true))
		}
		for _, msg := range tr.Warnings {
			if f, ok := warningFinding(file, msg, cfg); ok {
				result.Findings = append(result.Findings, f)
			}
		}
	}
	result.Sort()
	return result, nil
}

// UnenforcedRules lists, sorted, the error-level rules in cfg that have no
// esbuild diagnostic behind them and so are never reported by BuiltinLinter.
func UnenforcedRules(cfg RuleConfig) []string {
	enforced := make(map[string]bool, len(diagnosticRules)+1)
	enforced[RuleSyntax] = true
	for _, rule := range diagnosticRules {
		enforced[rule] = true
	}
	var out []string
	for name := range cfg.Rules {
		if enforced[name] || cfg.Level(name) != LevelError {
			continue
		}
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

func parseTarget(cfg RuleConfig) api.Target {
	for _, et := range envTargets {
		if cfg.HasEnv(et.env) {
			return et.target
		}
	}
	return api.ESNext
}

func warningFinding(file string, msg api.Message, cfg RuleConfig) (Finding, bool) {
	rule, mapped := diagnosticRules[msg.ID]
	if !mapped {
		return toFinding(file, msg, SeverityWarning, false), true
	}
	sev, enabled := cfg.Level(rule).Severity()
	if !enabled {
		return Finding{}, false
	}
	f := toFinding(file, msg, sev, false)
	f.Rule = rule
	return f, true
}

func toFinding(file string, msg api.Message, sev Severity, parseError bool) Finding {
	f := Finding{
		FilePath: file,
		Severity: sev,
		Rule:     msg.ID,
		Message:  strings.TrimSpace(msg.Text),
	}
	if parseError {
		f.Rule = RuleSyntax
		if rule, ok := diagnosticRules[msg.ID]; ok {
			f.Rule = rule
		}
	}
	if f.Rule == "" {
		f.Rule = "esbuild"
	}
	if msg.Location != nil {
		f.Line = msg.Location.Line
		f.Column = msg.Location.Column + 1
	}
	return f
}
