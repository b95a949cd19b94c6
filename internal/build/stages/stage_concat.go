package stages

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/assetbuilder/internal/build/models"
	"git.home.luguber.info/inful/assetbuilder/internal/config"
	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
	"git.home.luguber.info/inful/assetbuilder/internal/observability"
	"git.home.luguber.info/inful/assetbuilder/internal/workspace"
)

// StageConcat writes the ordered sources, byte for byte and in declared
// order, into the generated entry artifact.
func StageConcat(ctx context.Context, rs *models.RunState) error {
	res, err := rs.Resolve(ctx, config.ManifestOrdered)
	if err != nil {
		return models.NewFatalStageError(models.StageConcat, err)
	}
	if len(res.Empty) > 0 {
		missing := make([]string, 0, len(res.Empty))
		for _, rel := range res.Empty {
			missing = append(missing, filepath.Join(rs.Config.Sources.Ordered.Root, filepath.FromSlash(rel)))
		}
		return models.NewFatalStageError(models.StageConcat,
			errors.ConfigError(fmt.Sprintf("ordered source not found: %s", strings.Join(missing, ", "))).
				WithFile(missing[0]).Build())
	}
	if len(res.Files) == 0 {
		return models.NewFatalStageError(models.StageConcat,
			errors.ConfigError("ordered manifest is empty: the bundle needs an entry").Build())
	}

	var buf bytes.Buffer
	for _, f := range res.Files {
		// #nosec G304 -- paths come from the validated manifest
		data, err := os.ReadFile(f.Path)
		if err != nil {
			return models.NewFatalStageError(models.StageConcat,
				errors.WrapError(err, errors.CategoryFileSystem, "read ordered source").WithFile(f.Path).Build())
		}
		buf.Write(data)
	}

	// The staging directory starts empty so modules staged by earlier runs
	// cannot satisfy imports the current manifests no longer declare.
	if err := rs.Layout.ResetStaging(); err != nil {
		return models.NewFatalStageError(models.StageConcat, err)
	}
	entry := rs.Layout.EntryPath()
	if err := workspace.WriteFile(entry, buf.Bytes()); err != nil {
		return models.NewFatalStageError(models.StageConcat, err)
	}
	rs.Report.AddArtifact(models.ArtifactEntry, entry, int64(buf.Len()))
	observability.InfoContext(ctx, "Generated entry written",
		logfields.File(entry), logfields.Count(len(res.Files)))
	return nil
}
