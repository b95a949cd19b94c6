package models

import (
	"context"
	stdErrors "errors"
	"fmt"

	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
)

// Stage is a discrete unit of work in a pipeline run.
type Stage func(ctx context.Context, rs *RunState) error

// StageName is a strongly-typed identifier for a pipeline stage.
type StageName string

// Canonical stage names.
const (
	StageLint         StageName = "lint"
	StageClean        StageName = "clean"
	StageConcat       StageName = "concat"
	StageStageModules StageName = "stage_modules"
	StageBundle       StageName = "bundle"
	StageStatic       StageName = "static"
	StageStyles       StageName = "styles"
)

// AllStages lists every stage in compile order, clean first.
var AllStages = []StageName{StageClean, StageLint, StageConcat, StageStageModules, StageBundle, StageStatic, StageStyles}

// StageErrorKind classifies the outcome of a stage.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Run must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying the stage and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// Transient reports whether rerunning the stage unchanged could succeed.
func (e *StageError) Transient() bool {
	if e == nil || e.Kind == StageErrorCanceled {
		return false
	}
	ce, ok := errors.AsClassified(e.Err)
	if !ok {
		return false
	}
	return ce.Category() == errors.CategoryFileSystem && ce.CanRetry()
}

// StageResult captures the high-level outcome of a stage.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultWarning  StageResult = "warning"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
	StageResultSkipped  StageResult = "skipped"
)

// NewFatalStageError creates a new fatal stage error.
func NewFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func NewWarnStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}

func NewCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// StageDef pairs a stage name with its executing function and prerequisites.
type StageDef struct {
	Name StageName
	// DependsOn names stages whose artifacts this stage consumes.
	DependsOn []StageName
	Fn        Stage
}

// Pipeline is a fluent builder for ordered stage definitions.
type Pipeline struct{ Defs []StageDef }

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline { return &Pipeline{Defs: make([]StageDef, 0, 8)} }

// Add appends a stage definition unconditionally.
func (p *Pipeline) Add(def StageDef) *Pipeline {
	p.Defs = append(p.Defs, def)
	return p
}

// AddIf appends a stage definition only if cond is true.
func (p *Pipeline) AddIf(cond bool, def StageDef) *Pipeline {
	if cond {
		p.Add(def)
	}
	return p
}

// Build returns a copy of the stage definitions slice.
func (p *Pipeline) Build() []StageDef {
	out := make([]StageDef, len(p.Defs))
	copy(out, p.Defs)
	return out
}

// ErrStageOrder is returned when a sequence runs a stage before one it depends on.
var ErrStageOrder = stdErrors.New("invalid stage order")

// ValidateOrder checks that every dependency of every stage appears earlier in defs.
func ValidateOrder(defs []StageDef) error {
	seen := make(map[StageName]bool, len(defs))
	for _, d := range defs {
		if seen[d.Name] {
			return fmt.Errorf("%w: stage %s listed twice", ErrStageOrder, d.Name)
		}
		for _, dep := range d.DependsOn {
			if !seen[dep] {
				return fmt.Errorf("%w: %s requires %s to run first", ErrStageOrder, d.Name, dep)
			}
		}
		seen[d.Name] = true
	}
	return nil
}
