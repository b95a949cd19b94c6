package stages

import (
	"context"

	"git.home.luguber.info/inful/assetbuilder/internal/build/models"
	"git.home.luguber.info/inful/assetbuilder/internal/config"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
	"git.home.luguber.info/inful/assetbuilder/internal/observability"
	"git.home.luguber.info/inful/assetbuilder/internal/workspace"
)

// StageStatic copies the static tree into the output root verbatim.
func StageStatic(ctx context.Context, rs *models.RunState) error {
	res, err := rs.Resolve(ctx, config.ManifestStatic)
	if err != nil {
		return models.NewFatalStageError(models.StageStatic, err)
	}
	for _, f := range res.Files {
		dst, err := rs.Layout.OutputPath(f.RelPath)
		if err != nil {
			return models.NewFatalStageError(models.StageStatic, err)
		}
		n, err := workspace.CopyFile(f.Path, dst)
		if err != nil {
			return models.NewFatalStageError(models.StageStatic, err)
		}
		rs.Report.AddArtifact(models.ArtifactStatic, dst, n)
	}
	observability.InfoContext(ctx, "Static assets copied", logfields.Count(len(res.Files)))
	return nil
}
