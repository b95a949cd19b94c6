package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// RunOutcomeLabel is the final outcome of a pipeline run (success|warning|failed|canceled).
type RunOutcomeLabel string

// Recorder defines observability hooks for run and stage metrics.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	ObserveRunDuration(operation string, d time.Duration)
	IncRunOutcome(operation string, outcome RunOutcomeLabel)
	AddLintFindings(severity string, n int)
	ObserveBundleSize(bytes int)
	IncWatchEvents(n int)
	IncWatchRuns(trigger string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) ObserveRunDuration(string, time.Duration)   {}
func (NoopRecorder) IncRunOutcome(string, RunOutcomeLabel)      {}
func (NoopRecorder) AddLintFindings(string, int)                {}
func (NoopRecorder) ObserveBundleSize(int)                      {}
func (NoopRecorder) IncWatchEvents(int)                         {}
func (NoopRecorder) IncWatchRuns(string)                        {}
