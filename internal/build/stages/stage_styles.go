package stages

import (
	"context"
	stdErrors "errors"

	"git.home.luguber.info/inful/assetbuilder/internal/build/models"
	"git.home.luguber.info/inful/assetbuilder/internal/config"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
	"git.home.luguber.info/inful/assetbuilder/internal/observability"
	"git.home.luguber.info/inful/assetbuilder/internal/styles"
	"git.home.luguber.info/inful/assetbuilder/internal/workspace"
)

// StageStyles compiles every style root into its own stylesheet. Roots are
// independent: one failure is reported without stopping the others.
func StageStyles(ctx context.Context, rs *models.RunState) error {
	res, err := rs.Resolve(ctx, config.ManifestStyles)
	if err != nil {
		return models.NewFatalStageError(models.StageStyles, err)
	}

	var failures []error
	compiled := 0
	for _, f := range res.Files {
		if styles.IsPartial(f.Path) {
			continue
		}
		css, err := rs.Tools.Styles.Compile(ctx, f.Path)
		if err != nil {
			observability.ErrorContext(ctx, "Stylesheet failed", logfields.File(f.Path), logfields.Error(err))
			failures = append(failures, err)
			continue
		}
		out, err := rs.Layout.StylesheetPath(f.RelPath)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		if err := workspace.WriteFile(out, css); err != nil {
			failures = append(failures, err)
			continue
		}
		rs.Report.AddArtifact(models.ArtifactStylesheet, out, int64(len(css)))
		compiled++
	}
	observability.InfoContext(ctx, "Styles compiled", logfields.Count(compiled))

	if len(failures) > 0 {
		return models.NewFatalStageError(models.StageStyles, stdErrors.Join(failures...))
	}
	return nil
}
