package build

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/assetbuilder/internal/build/models"
	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
)

// Operation names an executable unit: a single stage or an aggregate sequence.
type Operation string

const (
	OpLint         Operation = "lint"
	OpClean        Operation = "clean"
	OpConcat       Operation = "concat"
	OpStageModules Operation = "stage-modules"
	OpBundle       Operation = "bundle"
	OpStatic       Operation = "static"
	OpStyles       Operation = "styles"
	OpCompile      Operation = "compile"
	OpBuild        Operation = "build"
)

// compileSequence is lint, concatenate, stage modules, bundle, static, styles.
var compileSequence = []models.StageName{
	models.StageLint,
	models.StageConcat,
	models.StageStageModules,
	models.StageBundle,
	models.StageStatic,
	models.StageStyles,
}

var operationStages = map[Operation][]models.StageName{
	OpLint:         {models.StageLint},
	OpClean:        {models.StageClean},
	OpConcat:       {models.StageConcat},
	OpStageModules: {models.StageStageModules},
	OpBundle:       {models.StageBundle},
	OpStatic:       {models.StageStatic},
	OpStyles:       {models.StageStyles},
	OpCompile:      compileSequence,
	OpBuild:        append([]models.StageName{models.StageClean}, compileSequence...),
}

// Operations lists every operation in a stable order.
func Operations() []Operation {
	return []Operation{OpLint, OpClean, OpConcat, OpStageModules, OpBundle, OpStatic, OpStyles, OpCompile, OpBuild}
}

// ParseOperation validates an operation name.
func ParseOperation(raw string) (Operation, error) {
	op := Operation(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := operationStages[op]; !ok {
		return "", errors.ValidationError(fmt.Sprintf("unknown operation %q", raw)).Build()
	}
	return op, nil
}

// Stages returns the stage sequence of op.
func (op Operation) Stages() []models.StageName {
	out := make([]models.StageName, len(operationStages[op]))
	copy(out, operationStages[op])
	return out
}

// Aggregate reports whether op runs more than one stage.
func (op Operation) Aggregate() bool { return len(operationStages[op]) > 1 }

// OperationForStage maps a single stage onto its operation.
func OperationForStage(stage models.StageName) Operation {
	if stage == models.StageStageModules {
		return OpStageModules
	}
	return Operation(stage)
}
