package stages

import (
	"context"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/assetbuilder/internal/build/models"
	"git.home.luguber.info/inful/assetbuilder/internal/config"
	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
	"git.home.luguber.info/inful/assetbuilder/internal/observability"
	"git.home.luguber.info/inful/assetbuilder/internal/workspace"
)

// StageStageModules copies the modular sources into the staging directory
// under their logical paths so the entry can resolve them.
func StageStageModules(ctx context.Context, rs *models.RunState) error {
	m := rs.Config.Sources.Modular
	res, err := rs.Resolve(ctx, config.ManifestModular)
	if err != nil {
		return models.NewFatalStageError(models.StageStageModules, err)
	}
	if len(res.Empty) > 0 {
		msg := fmt.Sprintf("modular entries matched no files: %s", strings.Join(res.Empty, ", "))
		if !m.AllowEmpty {
			return models.NewFatalStageError(models.StageStageModules,
				errors.ConfigError(msg).WithContext("root", m.Root).Build())
		}
		observability.WarnContext(ctx, "Modular entries matched no files",
			logfields.Manifest(config.ManifestModular), logfields.Count(len(res.Empty)))
		rs.Report.AddIssue(models.IssueEmptyEntry, models.StageStageModules, models.SeverityWarning, msg, false,
			errors.ConfigError(msg).Warning().Build())
	}

	if err := rs.Layout.EnsureStaging(); err != nil {
		return models.NewFatalStageError(models.StageStageModules, err)
	}
	entry := rs.Layout.EntryPath()
	keep := map[string]bool{entry: true}
	for _, f := range res.Files {
		dst, err := rs.Layout.StagedPath(f.RelPath)
		if err != nil {
			return models.NewFatalStageError(models.StageStageModules, err)
		}
		if dst == entry {
			return models.NewFatalStageError(models.StageStageModules,
				errors.ConfigError(fmt.Sprintf("modular source %s would overwrite the generated entry", f.RelPath)).
					WithFile(f.Path).Build())
		}
		n, err := workspace.CopyFile(f.Path, dst)
		if err != nil {
			return models.NewFatalStageError(models.StageStageModules, err)
		}
		rs.Report.AddArtifact(models.ArtifactStagedModule, dst, n)
		keep[dst] = true
	}
	if _, err := rs.Layout.PruneStaging(keep); err != nil {
		return models.NewFatalStageError(models.StageStageModules, err)
	}
	observability.InfoContext(ctx, "Modules staged",
		logfields.Path(rs.Layout.StagingRoot()), logfields.Count(len(res.Files)))
	return nil
}
