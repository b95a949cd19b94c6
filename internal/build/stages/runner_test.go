package stages

import (
	"context"
	stdErrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/assetbuilder/internal/build/models"
	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
)

type recordingObserver struct {
	models.NoopObserver
	started   []models.StageName
	completed map[models.StageName]models.StageResult
}

func (o *recordingObserver) OnStageStart(s models.StageName) { o.started = append(o.started, s) }
func (o *recordingObserver) OnStageComplete(s models.StageName, _ time.Duration, r models.StageResult) {
	if o.completed == nil {
		o.completed = map[models.StageName]models.StageResult{}
	}
	o.completed[s] = r
}

func TestRunStagesStopsAtFirstFatal(t *testing.T) {
	rs := newProject(t, "").state()
	obs := &recordingObserver{}
	rs.Observer = obs

	var ran []models.StageName
	step := func(name models.StageName, err error) models.StageDef {
		return models.StageDef{Name: name, Fn: func(context.Context, *models.RunState) error {
			ran = append(ran, name)
			return err
		}}
	}
	defs := []models.StageDef{
		step(models.StageLint, nil),
		step(models.StageConcat, errors.ConfigError("ordered source not found: x.js").Build()),
		step(models.StageBundle, nil),
	}

	err := RunStages(context.Background(), rs, defs)
	require.Error(t, err)
	var se *models.StageError
	require.True(t, stdErrors.As(err, &se))
	assert.Equal(t, models.StageConcat, se.Stage)

	assert.Equal(t, []models.StageName{models.StageLint, models.StageConcat}, ran)
	assert.Equal(t, models.StageResultSuccess, rs.Report.StageResults[models.StageLint])
	assert.Equal(t, models.StageResultFatal, rs.Report.StageResults[models.StageConcat])
	assert.NotContains(t, rs.Report.StageResults, models.StageBundle)
	require.Len(t, rs.Report.Issues, 1)
	assert.Equal(t, models.IssueConfig, rs.Report.Issues[0].Code)
	assert.Equal(t, models.StageResultFatal, obs.completed[models.StageConcat])
}

func TestRunStagesCanceledBetweenStages(t *testing.T) {
	rs := newProject(t, "").state()
	ctx, cancel := context.WithCancel(context.Background())

	defs := []models.StageDef{
		{Name: models.StageLint, Fn: func(context.Context, *models.RunState) error {
			cancel()
			return nil
		}},
		{Name: models.StageConcat, Fn: func(context.Context, *models.RunState) error {
			t.Fatal("stage after cancellation must not run")
			return nil
		}},
	}
	err := RunStages(ctx, rs, defs)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, models.StageResultSuccess, rs.Report.StageResults[models.StageLint])
	assert.Equal(t, models.StageResultCanceled, rs.Report.StageResults[models.StageConcat])

	rs.Report.DeriveOutcome()
	assert.Equal(t, models.OutcomeCanceled, rs.Report.Outcome)
}

func TestRunStagesWarningContinues(t *testing.T) {
	rs := newProject(t, "").state()
	defs := []models.StageDef{
		{Name: models.StageStatic, Fn: func(context.Context, *models.RunState) error {
			return models.NewWarnStageError(models.StageStatic, stdErrors.New("slow disk"))
		}},
		{Name: models.StageStyles, Fn: func(context.Context, *models.RunState) error { return nil }},
	}
	require.NoError(t, RunStages(context.Background(), rs, defs))
	assert.Equal(t, models.StageResultWarning, rs.Report.StageResults[models.StageStatic])
	assert.Equal(t, models.StageResultSuccess, rs.Report.StageResults[models.StageStyles])
}

func TestClassifyStageResult(t *testing.T) {
	cases := []struct {
		name  string
		stage models.StageName
		err   error
		code  models.ReportIssueCode
	}{
		{"lint findings", models.StageLint, errors.LintError("2 lint error(s)").Build(), models.IssueLintFailure},
		{"lint engine io", models.StageLint, errors.FileSystemError("eslint crashed").Build(), models.IssueLintEngine},
		{"bundle", models.StageBundle, errors.BundleError("Could not resolve").Build(), models.IssueBundleFailure},
		{"styles joined", models.StageStyles, stdErrors.Join(errors.StyleError("bad").Build()), models.IssueStyleFailure},
		{"static io", models.StageStatic, errors.FileSystemError("copy").Build(), models.IssueFileSystem},
		{"unclassified", models.StageConcat, stdErrors.New("boom"), models.IssueGenericStageError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := ClassifyStageResult(tc.stage, tc.err)
			assert.Equal(t, tc.code, out.IssueCode)
			assert.Equal(t, models.StageResultFatal, out.Result)
			assert.True(t, out.Abort)
		})
	}

	ok := ClassifyStageResult(models.StageLint, nil)
	assert.Equal(t, models.StageResultSuccess, ok.Result)
	assert.Nil(t, ok.Error)
}
