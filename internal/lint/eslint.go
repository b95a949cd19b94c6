package lint

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
)

var (
	// ErrESLintNotFound indicates the eslint executable was not detected.
	ErrESLintNotFound = stderrors.New("eslint binary not found")
	// ErrESLintFailed indicates eslint crashed or rejected its configuration.
	ErrESLintFailed = stderrors.New("eslint execution failed")
)

// ESLintLinter runs the external eslint binary with a generated configuration.
type ESLintLinter struct {
	// Binary is the executable name or path; defaults to "eslint".
	Binary string
	// Dir is the working directory for the process.
	Dir string
}

// NewESLintLinter creates an engine that shells out to eslint.
func NewESLintLinter(binary, dir string) *ESLintLinter {
	if binary == "" {
		binary = "eslint"
	}
	return &ESLintLinter{Binary: binary, Dir: dir}
}

// eslintConfig is the legacy (eslintrc) configuration document.
type eslintConfig struct {
	Root          bool              `json:"root"`
	ParserOptions map[string]any    `json:"parserOptions"`
	Env           map[string]bool   `json:"env,omitempty"`
	Globals       map[string]string `json:"globals,omitempty"`
	Rules         map[string]any    `json:"rules,omitempty"`
}

type eslintFileResult struct {
	FilePath string          `json:"filePath"`
	Messages []eslintMessage `json:"messages"`
}

type eslintMessage struct {
	RuleID   *string `json:"ruleId"`
	Severity int     `json:"severity"`
	Message  string  `json:"message"`
	Line     int     `json:"line"`
	Column   int     `json:"column"`
	Fatal    bool    `json:"fatal"`
}

// Lint runs eslint over files.
func (l *ESLintLinter) Lint(ctx context.Context, files []string, cfg RuleConfig) (*Result, error) {
	if len(files) == 0 {
		return &Result{}, nil
	}
	bin, err := exec.LookPath(l.Binary)
	if err != nil {
		return nil, errors.WrapError(fmt.Errorf("%w: %w", ErrESLintNotFound, err), errors.CategoryFileSystem, "locate eslint").
			UserAction().
			Build()
	}

	cfgFile, err := writeESLintConfig(cfg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.Remove(cfgFile) }()

	args := append([]string{"--no-eslintrc", "--config", cfgFile, "--format", "json"}, files...)
	// #nosec G204 -- binary is operator configuration, files come from manifests
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = l.Dir
	cmd.Env = append(os.Environ(), "ESLINT_USE_FLAT_CONFIG=false")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	slog.Debug("Invoking eslint", slog.String("binary", bin), slog.Int("files", len(files)))

	runErr := cmd.Run()
	if errStr := strings.TrimSpace(stderr.String()); errStr != "" {
		slog.Debug("eslint stderr", slog.String("output", errStr))
	}
	var exitErr *exec.ExitError
	if runErr != nil && (!stderrors.As(runErr, &exitErr) || exitErr.ExitCode() >= 2) {
		return nil, errors.WrapError(fmt.Errorf("%w: %w: %s", ErrESLintFailed, runErr, strings.TrimSpace(stderr.String())),
			errors.CategoryFileSystem, "run eslint").
			Build()
	}

	return parseESLintOutput(stdout.Bytes(), len(files))
}

func parseESLintOutput(data []byte, filesTotal int) (*Result, error) {
	var raw []eslintFileResult
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.WrapError(fmt.Errorf("%w: %w", ErrESLintFailed, err), errors.CategoryFileSystem, "parse eslint output").Build()
	}
	result := &Result{FilesTotal: filesTotal}
	for _, file := range raw {
		for _, m := range file.Messages {
			f := Finding{
				FilePath: file.FilePath,
				Severity: SeverityWarning,
				Message:  m.Message,
				Line:     m.Line,
				Column:   m.Column,
			}
			if m.Severity >= 2 || m.Fatal {
				f.Severity = SeverityError
			}
			switch {
			case m.RuleID != nil:
				f.Rule = *m.RuleID
			case m.Fatal:
				f.Rule = RuleSyntax
			default:
				f.Rule = "eslint"
			}
			result.Findings = append(result.Findings, f)
		}
	}
	result.Sort()
	return result, nil
}

func buildESLintConfig(cfg RuleConfig) eslintConfig {
	out := eslintConfig{
		Root:          true,
		ParserOptions: map[string]any{"ecmaVersion": "latest", "sourceType": "module"},
		Env:           make(map[string]bool, len(cfg.Envs)),
		Globals:       make(map[string]string, len(cfg.Globals)),
		Rules:         make(map[string]any, len(cfg.Rules)),
	}
	for _, env := range cfg.Envs {
		out.Env[env] = true
	}
	for _, g := range cfg.Globals {
		out.Globals[g] = "readonly"
	}
	for name, s := range cfg.Rules {
		if len(s.Options) == 0 {
			out.Rules[name] = string(s.Level)
			continue
		}
		out.Rules[name] = append([]any{string(s.Level)}, s.Options...)
	}
	return out
}

func writeESLintConfig(cfg RuleConfig) (string, error) {
	data, err := json.MarshalIndent(buildESLintConfig(cfg), "", "  ")
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryInternal, "encode eslint config").Build()
	}
	f, err := os.CreateTemp("", "assetbuilder-eslint-*.json")
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "create eslint config").Build()
	}
	name := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return "", errors.WrapError(err, errors.CategoryFileSystem, "write eslint config").WithFile(name).Build()
	}
	if err := f.Close(); err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "close eslint config").WithFile(name).Build()
	}
	return filepath.Clean(name), nil
}

// New returns the engine registered under name.
func New(engine, eslintBinary, dir string) (Linter, error) {
	switch strings.ToLower(engine) {
	case "", "builtin":
		return NewBuiltinLinter(), nil
	case "eslint":
		return NewESLintLinter(eslintBinary, dir), nil
	default:
		return nil, errors.ConfigError(fmt.Sprintf("unknown lint engine %q", engine)).Build()
	}
}
