package models

import (
	"time"

	"git.home.luguber.info/inful/assetbuilder/internal/metrics"
)

// RunObserver receives callbacks around stage execution and the run lifecycle.
type RunObserver interface {
	OnStageStart(stage StageName)
	OnStageComplete(stage StageName, duration time.Duration, result StageResult)
	OnRunComplete(report *RunReport)
}

// NoopObserver is a no-op implementation.
type NoopObserver struct{}

func (NoopObserver) OnStageStart(_ StageName)                                    {}
func (NoopObserver) OnStageComplete(_ StageName, _ time.Duration, _ StageResult) {}
func (NoopObserver) OnRunComplete(_ *RunReport)                                  {}

// RecorderObserver adapts metrics.Recorder into a RunObserver.
type RecorderObserver struct{ Recorder metrics.Recorder }

func (r RecorderObserver) OnStageStart(_ StageName) {}
func (r RecorderObserver) OnStageComplete(stage StageName, d time.Duration, _ StageResult) {
	if r.Recorder != nil {
		r.Recorder.ObserveStageDuration(string(stage), d)
	}
}

func (r RecorderObserver) OnRunComplete(report *RunReport) {
	if r.Recorder == nil {
		return
	}
	r.Recorder.ObserveRunDuration(report.Operation, report.Duration())
	r.Recorder.IncRunOutcome(report.Operation, metrics.RunOutcomeLabel(report.Outcome))
	if report.Lint != nil {
		r.Recorder.AddLintFindings("error", report.Lint.Errors)
		r.Recorder.AddLintFindings("warning", report.Lint.Warnings)
	}
	for _, a := range report.ArtifactsOf(ArtifactBundle) {
		r.Recorder.ObserveBundleSize(int(a.Size))
	}
}

// MultiObserver fans callbacks out to several observers in order.
type MultiObserver []RunObserver

func (m MultiObserver) OnStageStart(stage StageName) {
	for _, o := range m {
		o.OnStageStart(stage)
	}
}

func (m MultiObserver) OnStageComplete(stage StageName, d time.Duration, result StageResult) {
	for _, o := range m {
		o.OnStageComplete(stage, d, result)
	}
}

func (m MultiObserver) OnRunComplete(report *RunReport) {
	for _, o := range m {
		o.OnRunComplete(report)
	}
}
