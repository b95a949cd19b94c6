package stages

import (
	"errors"

	"git.home.luguber.info/inful/assetbuilder/internal/build/models"
	ferrors "git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
)

// StageOutcome is what the runner records for one finished stage.
type StageOutcome struct {
	Stage     models.StageName
	Error     *models.StageError
	Result    models.StageResult
	IssueCode models.ReportIssueCode
	Severity  models.IssueSeverity
	Transient bool
	Abort     bool
}

var categoryIssues = map[ferrors.ErrorCategory]models.ReportIssueCode{
	ferrors.CategoryConfig:     models.IssueConfig,
	ferrors.CategoryValidation: models.IssueConfig,
	ferrors.CategoryLint:       models.IssueLintFailure,
	ferrors.CategoryBundle:     models.IssueBundleFailure,
	ferrors.CategoryStyle:      models.IssueStyleFailure,
	ferrors.CategoryFileSystem: models.IssueFileSystem,
}

// Used when the error carries no category with its own issue code.
var stageIssues = map[models.StageName]models.ReportIssueCode{
	models.StageLint:   models.IssueLintEngine,
	models.StageBundle: models.IssueBundleFailure,
	models.StageStyles: models.IssueStyleFailure,
}

// ClassifyStageResult turns the error returned by a stage into its outcome.
// Errors that are not StageErrors count as fatal.
func ClassifyStageResult(stage models.StageName, err error) StageOutcome {
	out := StageOutcome{Stage: stage, Result: models.StageResultSuccess}
	if err == nil {
		return out
	}

	var se *models.StageError
	if !errors.As(err, &se) {
		se = models.NewFatalStageError(stage, err)
	}
	out.Error = se
	out.Severity = models.SeverityError

	switch se.Kind {
	case models.StageErrorCanceled:
		out.Result = models.StageResultCanceled
		out.IssueCode = models.IssueCanceled
		out.Abort = true
		return out
	case models.StageErrorWarning:
		out.Result = models.StageResultWarning
		out.Severity = models.SeverityWarning
	default:
		out.Result = models.StageResultFatal
		out.Abort = true
	}
	out.IssueCode = issueCode(se)
	out.Transient = se.Transient()
	return out
}

func issueCode(se *models.StageError) models.ReportIssueCode {
	if ce, ok := ferrors.AsClassified(se.Err); ok {
		// I/O failures inside the linter are engine problems, not findings.
		if ce.Category() == ferrors.CategoryFileSystem && se.Stage == models.StageLint {
			return models.IssueLintEngine
		}
		if code, ok := categoryIssues[ce.Category()]; ok {
			return code
		}
	}
	if code, ok := stageIssues[se.Stage]; ok {
		return code
	}
	return models.IssueGenericStageError
}
