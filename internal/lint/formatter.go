package lint

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Formatter renders a lint result.
type Formatter interface {
	Format(w io.Writer, result *Result) error
}

// TextFormatter renders findings grouped by file.
type TextFormatter struct{}

// NewTextFormatter creates a text formatter.
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{}
}

// Format outputs results in human-readable text format.
func (f *TextFormatter) Format(w io.Writer, result *Result) error {
	current := ""
	for _, finding := range result.Findings {
		if finding.FilePath != current {
			if current != "" {
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			current = finding.FilePath
			if _, err := fmt.Fprintln(w, current); err != nil {
				return err
			}
		}
		pos := fmt.Sprintf("%d:%d", finding.Line, finding.Column)
		if _, err := fmt.Fprintf(w, "  %-8s %-7s  %s  %s\n", pos, finding.Severity, finding.Message, finding.Rule); err != nil {
			return err
		}
	}
	if len(result.Findings) > 0 {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	errs, warns := result.ErrorCount(), result.WarningCount()
	if errs+warns == 0 {
		_, err := fmt.Fprintf(w, "%d file%s linted, no problems\n", result.FilesTotal, pluralize(result.FilesTotal))
		return err
	}
	mark := "⚠"
	if errs > 0 {
		mark = "✗"
	}
	_, err := fmt.Fprintf(w, "%s %d problem%s (%d error%s, %d warning%s) in %d file%s\n",
		mark, errs+warns, pluralize(errs+warns), errs, pluralize(errs), warns, pluralize(warns),
		result.FilesTotal, pluralize(result.FilesTotal))
	return err
}

// JSONFormatter formats results as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// JSONOutput represents the JSON output structure.
type JSONOutput struct {
	FilesTotal   int           `json:"files_total"`
	ErrorCount   int           `json:"error_count"`
	WarningCount int           `json:"warning_count"`
	Findings     []JSONFinding `json:"findings"`
}

// JSONFinding represents a single finding in JSON format.
type JSONFinding struct {
	FilePath string `json:"file_path"`
	Severity string `json:"severity"`
	Rule     string `json:"rule"`
	Message  string `json:"message"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
}

// Format outputs results in JSON format.
func (f *JSONFormatter) Format(w io.Writer, result *Result) error {
	output := JSONOutput{
		FilesTotal:   result.FilesTotal,
		ErrorCount:   result.ErrorCount(),
		WarningCount: result.WarningCount(),
		Findings:     []JSONFinding{},
	}
	for _, finding := range result.Findings {
		output.Findings = append(output.Findings, JSONFinding{
			FilePath: finding.FilePath,
			Severity: finding.Severity.String(),
			Rule:     finding.Rule,
			Message:  finding.Message,
			Line:     finding.Line,
			Column:   finding.Column,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// NewFormatter creates the appropriate formatter based on format string.
func NewFormatter(format string) Formatter {
	switch strings.ToLower(format) {
	case "json":
		return NewJSONFormatter()
	default:
		return NewTextFormatter()
	}
}

// pluralize returns "s" if count != 1, otherwise empty string.
func pluralize(count int) string {
	if count == 1 {
		return ""
	}
	return "s"
}
