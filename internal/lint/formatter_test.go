package lint

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *Result {
	return &Result{
		FilesTotal: 2,
		Findings: []Finding{
			{FilePath: "src/a.js", Severity: SeverityError, Rule: "no-undef", Message: "'x' is not defined", Line: 3, Column: 1},
			{FilePath: "src/a.js", Severity: SeverityWarning, Rule: "no-empty", Message: "Empty block", Line: 7, Column: 5},
		},
	}
}

func TestTextFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter("text").Format(&buf, sampleResult()))
	out := buf.String()
	assert.Contains(t, out, "src/a.js\n")
	assert.Contains(t, out, "no-undef")
	assert.Contains(t, out, "2 problems (1 error, 1 warning) in 2 files")
}

func TestTextFormatterClean(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTextFormatter().Format(&buf, &Result{FilesTotal: 1}))
	assert.Equal(t, "1 file linted, no problems\n", buf.String())
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter("JSON").Format(&buf, sampleResult()))

	var out JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, 1, out.ErrorCount)
	assert.Equal(t, 1, out.WarningCount)
	require.Len(t, out.Findings, 2)
	assert.Equal(t, "error", out.Findings[0].Severity)
}
