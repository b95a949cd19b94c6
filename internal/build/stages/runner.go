package stages

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"git.home.luguber.info/inful/assetbuilder/internal/build/models"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
	"git.home.luguber.info/inful/assetbuilder/internal/observability"
)

// RunStages executes stages in order, recording timing and stopping on first fatal error.
// Cancellation is only observed between stages.
func RunStages(ctx context.Context, rs *models.RunState, stages []models.StageDef) error {
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			out := ClassifyStageResult(st.Name, models.NewCanceledStageError(st.Name, err))
			recordOutcome(rs, out, 0)
			return out.Error
		}

		stageCtx := observability.WithStage(ctx, string(st.Name))
		stageCtx, span := observability.StartSpan(stageCtx, "stage "+string(st.Name))
		rs.Observer.OnStageStart(st.Name)
		observability.DebugContext(stageCtx, "Stage started")

		t0 := time.Now()
		err := st.Fn(stageCtx, rs)
		dur := time.Since(t0)

		rs.Report.StageDurations[string(st.Name)] = dur

		out := ClassifyStageResult(st.Name, err)
		recordOutcome(rs, out, dur)

		span.SetAttributes(attribute.String("stage.result", string(out.Result)))
		if out.Error != nil {
			observability.EndSpan(span, out.Error)
		} else {
			observability.EndSpan(span, nil)
		}
		observability.InfoContext(stageCtx, "Stage finished",
			logfields.DurationMS(float64(dur.Microseconds())/1000),
			logfields.Outcome(string(out.Result)))

		if out.Abort {
			return out.Error
		}
	}
	return nil
}

func recordOutcome(rs *models.RunState, out StageOutcome, dur time.Duration) {
	if se := out.Error; se != nil {
		rs.Report.StageErrorKinds[out.Stage] = se.Kind
		rs.Report.AddIssue(out.IssueCode, out.Stage, out.Severity, se.Error(), out.Transient, se)
	}
	rs.Report.RecordStageResult(out.Stage, out.Result, rs.Recorder)
	rs.Observer.OnStageComplete(out.Stage, dur, out.Result)
}
