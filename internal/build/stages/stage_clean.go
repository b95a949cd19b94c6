package stages

import (
	"context"

	"git.home.luguber.info/inful/assetbuilder/internal/build/models"
)

// StageClean removes the output tree. A missing tree is not an error.
func StageClean(_ context.Context, rs *models.RunState) error {
	if err := rs.Layout.Clean(); err != nil {
		return models.NewFatalStageError(models.StageClean, err)
	}
	return nil
}
