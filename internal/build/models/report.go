package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/assetbuilder/internal/metrics"
	"git.home.luguber.info/inful/assetbuilder/internal/version"
)

// NewRunReport constructs a new RunReport.
func NewRunReport(runID, operation string) *RunReport {
	return &RunReport{
		SchemaVersion:   1,
		RunID:           runID,
		Operation:       operation,
		Start:           time.Now(),
		StageDurations:  make(map[string]time.Duration),
		StageResults:    make(map[StageName]StageResult),
		StageErrorKinds: make(map[StageName]StageErrorKind),
		Version:         version.Version,
	}
}

// RunOutcome is the typed enumeration of final run result states.
type RunOutcome string

const (
	OutcomeSuccess  RunOutcome = "success"
	OutcomeWarning  RunOutcome = "warning"
	OutcomeFailed   RunOutcome = "failed"
	OutcomeCanceled RunOutcome = "canceled"
)

// ArtifactKind names the role of a file written by a run.
type ArtifactKind string

const (
	ArtifactEntry        ArtifactKind = "entry"
	ArtifactStagedModule ArtifactKind = "staged_module"
	ArtifactBundle       ArtifactKind = "bundle"
	ArtifactStylesheet   ArtifactKind = "stylesheet"
	ArtifactStatic       ArtifactKind = "static"
)

// Artifact is a file produced by a stage.
type Artifact struct {
	Path string       `json:"path"`
	Kind ArtifactKind `json:"kind"`
	Size int64        `json:"size"`
}

// LintSummary holds the counts of the last lint stage.
type LintSummary struct {
	Files    int `json:"files"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
}

// RunReport captures the outcome of one pipeline run.
type RunReport struct {
	SchemaVersion   int
	RunID           string
	Operation       string
	Start           time.Time
	End             time.Time
	Errors          []error // fatal errors causing the run to abort (at most one)
	Warnings        []error // non-fatal issues such as duplicate manifest entries
	StageDurations  map[string]time.Duration
	StageResults    map[StageName]StageResult
	StageErrorKinds map[StageName]StageErrorKind
	Artifacts       []Artifact
	Lint            *LintSummary
	// BundleInputs is the reference closure the bundler resolved from the entry.
	BundleInputs []string
	Issues       []ReportIssue
	Outcome      RunOutcome
	// Revision is the source tree commit, empty outside a git work tree.
	Revision string
	Version  string
}

// AddIssue appends a structured issue and mirrors severity into Errors/Warnings slices.
func (r *RunReport) AddIssue(code ReportIssueCode, stage StageName, severity IssueSeverity, msg string, transient bool, err error) {
	issue := ReportIssue{Code: code, Stage: stage, Severity: severity, Message: msg, Transient: transient}
	r.Issues = append(r.Issues, issue)
	if err != nil {
		switch severity {
		case SeverityError:
			r.Errors = append(r.Errors, err)
		case SeverityWarning:
			r.Warnings = append(r.Warnings, err)
		}
	}
}

// AddArtifact records a produced file.
func (r *RunReport) AddArtifact(kind ArtifactKind, path string, size int64) {
	r.Artifacts = append(r.Artifacts, Artifact{Path: path, Kind: kind, Size: size})
}

// ArtifactsOf returns the artifacts of one kind in production order.
func (r *RunReport) ArtifactsOf(kind ArtifactKind) []Artifact {
	var out []Artifact
	for _, a := range r.Artifacts {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

// ReportIssueCode enumerates machine-parseable issue identifiers.
// These codes are a stable contract and should only be appended.
type ReportIssueCode string

const (
	IssueConfig            ReportIssueCode = "CONFIG_ERROR"
	IssueLintFailure       ReportIssueCode = "LINT_FAILURE"
	IssueLintEngine        ReportIssueCode = "LINT_ENGINE"
	IssueBundleFailure     ReportIssueCode = "BUNDLE_FAILURE"
	IssueStyleFailure      ReportIssueCode = "STYLE_FAILURE"
	IssueFileSystem        ReportIssueCode = "FILESYSTEM_ERROR"
	IssueDuplicateEntry    ReportIssueCode = "DUPLICATE_ENTRY"
	IssueEmptyEntry        ReportIssueCode = "EMPTY_ENTRY"
	IssueCanceled          ReportIssueCode = "RUN_CANCELED"
	IssueGenericStageError ReportIssueCode = "GENERIC_STAGE_ERROR"
)

// IssueSeverity represents normalized severity levels.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// ReportIssue is a structured taxonomy entry describing a discrete problem encountered.
type ReportIssue struct {
	Code      ReportIssueCode `json:"code"`
	Stage     StageName       `json:"stage"`
	Severity  IssueSeverity   `json:"severity"`
	Message   string          `json:"message"`
	Transient bool            `json:"transient"`
}

// Finish sets the end time of the report.
func (r *RunReport) Finish() { r.End = time.Now() }

// Duration returns the wall time of the run.
func (r *RunReport) Duration() time.Duration {
	if r.End.IsZero() {
		return time.Since(r.Start)
	}
	return r.End.Sub(r.Start)
}

// RecordStageResult stores the stage result and emits metrics (if recorder non-nil).
func (r *RunReport) RecordStageResult(stage StageName, res StageResult, recorder metrics.Recorder) {
	if r.StageResults == nil {
		r.StageResults = make(map[StageName]StageResult)
	}
	r.StageResults[stage] = res
	if recorder == nil {
		return
	}
	switch res {
	case StageResultSuccess:
		recorder.IncStageResult(string(stage), metrics.ResultSuccess)
	case StageResultWarning:
		recorder.IncStageResult(string(stage), metrics.ResultWarning)
	case StageResultFatal:
		recorder.IncStageResult(string(stage), metrics.ResultFatal)
	case StageResultCanceled:
		recorder.IncStageResult(string(stage), metrics.ResultCanceled)
	case StageResultSkipped:
	}
}

// Summary returns a human-readable single-line summary.
func (r *RunReport) Summary() string {
	s := fmt.Sprintf("run=%s op=%s duration=%s stages=%d artifacts=%d errors=%d warnings=%d outcome=%s",
		r.RunID, r.Operation, r.Duration().Truncate(time.Millisecond), len(r.StageDurations), len(r.Artifacts),
		len(r.Errors), len(r.Warnings), string(r.Outcome))
	if r.Lint != nil {
		s += fmt.Sprintf(" lint_errors=%d lint_warnings=%d", r.Lint.Errors, r.Lint.Warnings)
	}
	return s
}

// DeriveOutcome sets the Outcome field based on recorded errors/warnings.
func (r *RunReport) DeriveOutcome() {
	if len(r.Errors) > 0 {
		for _, e := range r.Errors {
			var se *StageError
			if errors.As(e, &se) && se.Kind == StageErrorCanceled {
				r.Outcome = OutcomeCanceled
				return
			}
		}
		r.Outcome = OutcomeFailed
		return
	}
	if len(r.Warnings) > 0 {
		r.Outcome = OutcomeWarning
		return
	}
	r.Outcome = OutcomeSuccess
}

// Persist writes the report as JSON to path atomically.
func (r *RunReport) Persist(path string) error {
	if r.End.IsZero() {
		r.Finish()
		r.DeriveOutcome()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("ensure directory for report: %w", err)
	}
	jb, err := json.MarshalIndent(r.SanitizedCopy(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, jb, 0o600); err != nil {
		return fmt.Errorf("write temp report json: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("atomic rename json: %w", err)
	}
	return nil
}

// SanitizedCopy returns a copy with error fields converted to strings for JSON friendliness.
func (r *RunReport) SanitizedCopy() *RunReportSerializable {
	results := make(map[string]string, len(r.StageResults))
	for k, v := range r.StageResults {
		results[string(k)] = string(v)
	}
	sek := make(map[string]string, len(r.StageErrorKinds))
	for k, v := range r.StageErrorKinds {
		sek[string(k)] = string(v)
	}
	durations := make(map[string]int64, len(r.StageDurations))
	for k, v := range r.StageDurations {
		durations[k] = v.Milliseconds()
	}
	issues := r.Issues
	if issues == nil {
		issues = []ReportIssue{}
	}
	artifacts := r.Artifacts
	if artifacts == nil {
		artifacts = []Artifact{}
	}

	s := &RunReportSerializable{
		SchemaVersion:   r.SchemaVersion,
		RunID:           r.RunID,
		Operation:       r.Operation,
		Start:           r.Start,
		End:             r.End,
		DurationMS:      r.Duration().Milliseconds(),
		Errors:          make([]string, len(r.Errors)),
		Warnings:        make([]string, len(r.Warnings)),
		StageDurations:  durations,
		StageResults:    results,
		StageErrorKinds: sek,
		Artifacts:       artifacts,
		Lint:            r.Lint,
		BundleInputs:    r.BundleInputs,
		Issues:          issues,
		Outcome:         string(r.Outcome),
		Revision:        r.Revision,
		Version:         r.Version,
	}
	for i, e := range r.Errors {
		s.Errors[i] = e.Error()
	}
	for i, w := range r.Warnings {
		s.Warnings[i] = w.Error()
	}
	return s
}

// RunReportSerializable mirrors RunReport but with string errors for JSON output.
type RunReportSerializable struct {
	SchemaVersion   int               `json:"schema_version"`
	RunID           string            `json:"run_id"`
	Operation       string            `json:"operation"`
	Start           time.Time         `json:"start"`
	End             time.Time         `json:"end"`
	DurationMS      int64             `json:"duration_ms"`
	Errors          []string          `json:"errors"`
	Warnings        []string          `json:"warnings"`
	StageDurations  map[string]int64  `json:"stage_durations_ms"`
	StageResults    map[string]string `json:"stage_results"`
	StageErrorKinds map[string]string `json:"stage_error_kinds"`
	Artifacts       []Artifact        `json:"artifacts"`
	Lint            *LintSummary      `json:"lint,omitempty"`
	BundleInputs    []string          `json:"bundle_inputs,omitempty"`
	Issues          []ReportIssue     `json:"issues"`
	Outcome         string            `json:"outcome"`
	Revision        string            `json:"revision,omitempty"`
	Version         string            `json:"version,omitempty"`
}
