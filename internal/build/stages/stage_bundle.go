package stages

import (
	"context"
	"fmt"
	"os"

	"git.home.luguber.info/inful/assetbuilder/internal/build/models"
	"git.home.luguber.info/inful/assetbuilder/internal/bundler"
	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
	"git.home.luguber.info/inful/assetbuilder/internal/observability"
	"git.home.luguber.info/inful/assetbuilder/internal/version"
	"git.home.luguber.info/inful/assetbuilder/internal/workspace"
)

// StageBundle bundles the reference closure of the generated entry into one script.
func StageBundle(ctx context.Context, rs *models.RunState) error {
	entry := rs.Layout.EntryPath()
	if _, err := os.Stat(entry); err != nil {
		if os.IsNotExist(err) {
			return models.NewFatalStageError(models.StageBundle,
				errors.ConfigError("generated entry not found; run concat before bundle").WithFile(entry).Build())
		}
		return models.NewFatalStageError(models.StageBundle,
			errors.WrapError(err, errors.CategoryFileSystem, "stat generated entry").WithFile(entry).Build())
	}

	res, err := rs.Tools.Bundler.Bundle(ctx, entry, BundleOptions(rs))
	if err != nil {
		return models.NewFatalStageError(models.StageBundle, err)
	}

	out := rs.Layout.BundleFile()
	if err := workspace.WriteFile(out, res.Contents); err != nil {
		return models.NewFatalStageError(models.StageBundle, err)
	}
	rs.Report.AddArtifact(models.ArtifactBundle, out, int64(len(res.Contents)))
	rs.Report.BundleInputs = res.Inputs
	observability.InfoContext(ctx, "Bundle written",
		logfields.File(out), logfields.Count(len(res.Inputs)))
	return nil
}

// BundleOptions derives the transform options of a run from its configuration.
func BundleOptions(rs *models.RunState) bundler.Options {
	cfg := rs.Config.Bundle
	opts := bundler.Options{
		Target: cfg.Target,
		Minify: cfg.Minify,
		Define: cfg.Define,
	}
	if cfg.Banner {
		rev := rs.Revision
		if rev == "" {
			rev = "unversioned"
		}
		opts.Banner = fmt.Sprintf("/* assetbuilder %s | %s | run %s */", version.Version, rev, rs.RunID)
	}
	return opts
}
