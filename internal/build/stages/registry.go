package stages

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/assetbuilder/internal/build/models"
	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
)

var definitions = map[models.StageName]models.StageDef{
	models.StageClean:        {Name: models.StageClean, Fn: StageClean},
	models.StageLint:         {Name: models.StageLint, Fn: StageLint},
	models.StageConcat:       {Name: models.StageConcat, Fn: StageConcat},
	models.StageStageModules: {Name: models.StageStageModules, Fn: StageStageModules},
	models.StageBundle: {
		Name:      models.StageBundle,
		DependsOn: []models.StageName{models.StageConcat, models.StageStageModules},
		Fn:        StageBundle,
	},
	models.StageStatic: {Name: models.StageStatic, Fn: StageStatic},
	models.StageStyles: {Name: models.StageStyles, Fn: StageStyles},
}

// Definition returns the definition of a canonical stage.
func Definition(name models.StageName) (models.StageDef, bool) {
	def, ok := definitions[name]
	return def, ok
}

// ParseStageName accepts a stage name in either snake or kebab case.
func ParseStageName(raw string) (models.StageName, error) {
	name := models.StageName(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_"))
	if _, ok := definitions[name]; !ok {
		return "", errors.ValidationError(fmt.Sprintf("unknown stage %q", raw)).
			WithContext("valid", models.AllStages).Build()
	}
	return name, nil
}
