package stages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/assetbuilder/internal/build/models"
	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/lint"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
	"git.home.luguber.info/inful/assetbuilder/internal/manifest"
	"git.home.luguber.info/inful/assetbuilder/internal/observability"
)

// maxReportedLintErrors bounds the findings quoted in the stage error.
const maxReportedLintErrors = 10

// StageLint analyzes the configured script sources. The formatted report is
// always written; the stage fails when any finding has error severity.
func StageLint(ctx context.Context, rs *models.RunState) error {
	cfg := rs.Config.Lint
	resolutions := make([]*manifest.Resolution, 0, len(cfg.Sources))
	for _, name := range cfg.Sources {
		res, err := rs.Resolve(ctx, name)
		if err != nil {
			return models.NewFatalStageError(models.StageLint, err)
		}
		resolutions = append(resolutions, res)
	}
	files := manifest.Union(resolutions...)
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}

	result, err := rs.Tools.Linter.Lint(ctx, paths, cfg.RuleConfig.Clone())
	if err != nil {
		if ctx.Err() != nil {
			return models.NewCanceledStageError(models.StageLint, ctx.Err())
		}
		return models.NewFatalStageError(models.StageLint, err)
	}
	result.Sort()

	if err := lint.NewFormatter(cfg.Format).Format(rs.LintOutput, result); err != nil {
		return models.NewFatalStageError(models.StageLint,
			errors.WrapError(err, errors.CategoryFileSystem, "write lint report").Build())
	}
	rs.Report.Lint = &models.LintSummary{
		Files:    result.FilesTotal,
		Errors:   result.ErrorCount(),
		Warnings: result.WarningCount(),
	}
	observability.InfoContext(ctx, "Lint complete",
		logfields.Count(result.FilesTotal),
		slog.Int("errors", result.ErrorCount()),
		slog.Int("warnings", result.WarningCount()))

	if !result.HasErrors() {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d lint error(s)", result.ErrorCount())
	for _, f := range result.Errors(maxReportedLintErrors) {
		fmt.Fprintf(&b, "\n  %s %s %s", f.Location(), f.Rule, f.Message)
	}
	if n := result.ErrorCount() - maxReportedLintErrors; n > 0 {
		fmt.Fprintf(&b, "\n  (and %d more)", n)
	}
	first := result.Errors(1)[0]
	return models.NewFatalStageError(models.StageLint,
		errors.LintError(b.String()).WithLocation(first.FilePath, first.Line, first.Column).WithRule(first.Rule).Build())
}
