package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "assetbuilder"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration *prom.HistogramVec
	stageResults  *prom.CounterVec
	runDuration   *prom.HistogramVec
	runOutcomes   *prom.CounterVec
	lintFindings  *prom.CounterVec
	bundleSize    prom.Gauge
	lastSuccess   prom.Gauge
	watchEvents   prom.Counter
	watchRuns     *prom.CounterVec
}

// NewPrometheusRecorder constructs the metrics and registers them with reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry, namespace string) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		runDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Total pipeline run duration",
			Buckets:   prom.DefBuckets,
		}, []string{"operation"}),
		runOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Pipeline runs by operation and final status",
		}, []string{"operation", "outcome"}),
		lintFindings: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "lint_findings_total",
			Help:      "Lint findings by severity",
		}, []string{"severity"}),
		bundleSize: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "bundle_size_bytes",
			Help:      "Size of the most recent script bundle",
		}),
		lastSuccess: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run",
		}),
		watchEvents: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "watch_events_total",
			Help:      "Filesystem change events accepted by the watch controller",
		}),
		watchRuns: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "watch_runs_total",
			Help:      "Runs started by the watch controller by trigger",
		}, []string{"trigger"}),
	}
	reg.MustRegister(pr.stageDuration, pr.stageResults, pr.runDuration, pr.runOutcomes,
		pr.lintFindings, pr.bundleSize, pr.lastSuccess, pr.watchEvents, pr.watchRuns)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveRunDuration(operation string, d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(operation string, outcome RunOutcomeLabel) {
	if p == nil {
		return
	}
	p.runOutcomes.WithLabelValues(operation, string(outcome)).Inc()
	if outcome == "success" || outcome == "warning" {
		p.lastSuccess.SetToCurrentTime()
	}
}

func (p *PrometheusRecorder) AddLintFindings(severity string, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.lintFindings.WithLabelValues(severity).Add(float64(n))
}

func (p *PrometheusRecorder) ObserveBundleSize(bytes int) {
	if p == nil {
		return
	}
	p.bundleSize.Set(float64(bytes))
}

func (p *PrometheusRecorder) IncWatchEvents(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.watchEvents.Add(float64(n))
}

func (p *PrometheusRecorder) IncWatchRuns(trigger string) {
	if p == nil {
		return
	}
	p.watchRuns.WithLabelValues(trigger).Inc()
}
