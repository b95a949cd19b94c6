package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCodeFor(t *testing.T) {
	a := NewCLIErrorAdapter(false, nil)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"validation", ValidationError("unknown flag").Build(), ExitUsage},
		{"lint", LintError("1 lint error(s)").Build(), ExitLint},
		{"config", ConfigError("malformed glob").Build(), ExitConfig},
		{"network", NetworkError("connect").Build(), ExitNetwork},
		{"bundle", BundleError("unresolved import").Build(), ExitBuild},
		{"wrapped style", fmt.Errorf("fatal stage styles: %w", StyleError("undefined variable").Build()), ExitBuild},
		{"history", NewError(CategoryHistory, "insert run").Build(), ExitRuntime},
		{"watch", WatchError("no watchable paths").Build(), ExitRuntime},
		{"internal", InternalError("boom").Build(), ExitInternal},
		{"unclassified", stderrors.New("boom"), ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.ExitCodeFor(tt.err))
		})
	}
}

func TestFormatError(t *testing.T) {
	err := fmt.Errorf("fatal stage bundle: %w",
		BundleError(`could not resolve "./a.js"`).WithFile("output/generated/index.js").WithContext("errors", 2).Build())

	out := NewCLIErrorAdapter(false, nil).FormatError(err)
	assert.Equal(t, `Error: fatal stage bundle: bundle[esbuild]: could not resolve "./a.js" (file output/generated/index.js)`, out)

	out = NewCLIErrorAdapter(true, nil).FormatError(err)
	assert.Contains(t, out, "\n  errors: 2\n  file: output/generated/index.js\n  tool: esbuild")

	assert.Empty(t, NewCLIErrorAdapter(true, nil).FormatError(nil))
}

func TestHandleError(t *testing.T) {
	var logs, stderr bytes.Buffer
	a := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	a.stderr = &stderr
	code := -1
	a.exit = func(c int) { code = c }

	a.HandleError(ConfigError("ordered manifest is empty").WithFile("source/scripts/ordered/manifest").Build())

	assert.Equal(t, ExitConfig, code)
	assert.Contains(t, stderr.String(), "Error: config: ordered manifest is empty")
	assert.Contains(t, logs.String(), "category=config")
	assert.Contains(t, logs.String(), "file=source/scripts/ordered/manifest")

	logs.Reset()
	stderr.Reset()
	a.HandleError(LintError("1 lint error(s)").WithRule("syntax").Build())
	assert.Equal(t, ExitLint, code)
	assert.Empty(t, logs.String(), "non-fatal errors are not logged without verbose")

	code = -1
	a.HandleError(nil)
	assert.Equal(t, -1, code)
}
