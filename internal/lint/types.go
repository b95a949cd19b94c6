package lint

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Severity indicates the importance level of a finding.
type Severity int

const (
	// SeverityWarning findings are reported but never fail a run.
	SeverityWarning Severity = iota + 1
	// SeverityError findings fail the lint stage.
	SeverityError
)

// String returns the human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Finding is a single diagnostic reported for a source file.
type Finding struct {
	FilePath string
	Severity Severity
	Rule     string
	Message  string
	Line     int
	Column   int
}

// Location renders file:line:column, omitting unknown positions.
func (f Finding) Location() string {
	switch {
	case f.Line > 0 && f.Column > 0:
		return fmt.Sprintf("%s:%d:%d", f.FilePath, f.Line, f.Column)
	case f.Line > 0:
		return fmt.Sprintf("%s:%d", f.FilePath, f.Line)
	default:
		return f.FilePath
	}
}

// Result contains all findings for one lint invocation.
type Result struct {
	Findings   []Finding
	FilesTotal int
}

// HasErrors reports whether the result is failing.
func (r *Result) HasErrors() bool {
	return r.ErrorCount() > 0
}

// ErrorCount returns the number of error-severity findings.
func (r *Result) ErrorCount() int {
	return r.count(SeverityError)
}

// WarningCount returns the number of warning-severity findings.
func (r *Result) WarningCount() int {
	return r.count(SeverityWarning)
}

func (r *Result) count(s Severity) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == s {
			n++
		}
	}
	return n
}

// Errors returns up to limit error findings in report order. A limit <= 0 returns all.
func (r *Result) Errors(limit int) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity != SeverityError {
			continue
		}
		out = append(out, f)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Sort orders findings by file, then position. Files keep their first-seen order.
func (r *Result) Sort() {
	order := make(map[string]int)
	for _, f := range r.Findings {
		if _, ok := order[f.FilePath]; !ok {
			order[f.FilePath] = len(order)
		}
	}
	sort.SliceStable(r.Findings, func(i, j int) bool {
		a, b := r.Findings[i], r.Findings[j]
		if a.FilePath != b.FilePath {
			return order[a.FilePath] < order[b.FilePath]
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
}

// Linter is the static-analysis collaborator used by the lint stage.
type Linter interface {
	Lint(ctx context.Context, files []string, cfg RuleConfig) (*Result, error)
}

// Level is the configured state of a rule.
type Level string

const (
	LevelOff   Level = "off"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// ParseLevel accepts the names and the numeric forms 0, 1 and 2.
func ParseLevel(raw string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "off", "0":
		return LevelOff, nil
	case "warn", "warning", "1":
		return LevelWarn, nil
	case "error", "2":
		return LevelError, nil
	default:
		return "", fmt.Errorf("invalid rule level %q (expected off, warn or error)", raw)
	}
}

// Severity maps an enabled level to a finding severity.
func (l Level) Severity() (Severity, bool) {
	switch l {
	case LevelWarn:
		return SeverityWarning, true
	case LevelError:
		return SeverityError, true
	default:
		return 0, false
	}
}

// RuleSetting is a rule level with optional rule options. In YAML it is
// either a bare level ("error") or a sequence ([warn, {allowEmptyCatch: true}]).
type RuleSetting struct {
	Level   Level
	Options []any
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *RuleSetting) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		lvl, err := ParseLevel(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*s = RuleSetting{Level: lvl}
		return nil
	case yaml.SequenceNode:
		if len(node.Content) == 0 {
			return fmt.Errorf("line %d: empty rule setting", node.Line)
		}
		lvl, err := ParseLevel(node.Content[0].Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		out := RuleSetting{Level: lvl}
		for _, opt := range node.Content[1:] {
			var v any
			if err := opt.Decode(&v); err != nil {
				return err
			}
			out.Options = append(out.Options, v)
		}
		*s = out
		return nil
	default:
		return fmt.Errorf("line %d: rule setting must be a level or a list", node.Line)
	}
}

// MarshalYAML implements yaml.Marshaler.
func (s RuleSetting) MarshalYAML() (any, error) {
	if len(s.Options) == 0 {
		return string(s.Level), nil
	}
	return append([]any{string(s.Level)}, s.Options...), nil
}

// RuleConfig is the immutable rule table handed to a Linter for one invocation.
type RuleConfig struct {
	// Globals are identifiers the sources may reference without declaring.
	Globals []string `yaml:"globals"`
	// Envs enables environments and language feature sets (browser, node, es6, ...).
	Envs  []string               `yaml:"envs"`
	Rules map[string]RuleSetting `yaml:"rules"`
}

// Clone returns a deep copy so engines can never mutate shared configuration.
func (c RuleConfig) Clone() RuleConfig {
	out := RuleConfig{
		Globals: append([]string(nil), c.Globals...),
		Envs:    append([]string(nil), c.Envs...),
		Rules:   make(map[string]RuleSetting, len(c.Rules)),
	}
	for name, s := range c.Rules {
		out.Rules[name] = RuleSetting{Level: s.Level, Options: append([]any(nil), s.Options...)}
	}
	return out
}

// Level returns the configured level of rule, or LevelOff when unset.
func (c RuleConfig) Level(rule string) Level {
	if s, ok := c.Rules[rule]; ok {
		return s.Level
	}
	return LevelOff
}

// HasEnv reports whether env is enabled.
func (c RuleConfig) HasEnv(env string) bool {
	for _, e := range c.Envs {
		if strings.EqualFold(e, env) {
			return true
		}
	}
	return false
}
