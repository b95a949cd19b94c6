package models

import (
	"context"
	"fmt"
	"io"
	"strings"

	"git.home.luguber.info/inful/assetbuilder/internal/bundler"
	"git.home.luguber.info/inful/assetbuilder/internal/config"
	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/lint"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
	"git.home.luguber.info/inful/assetbuilder/internal/manifest"
	"git.home.luguber.info/inful/assetbuilder/internal/metrics"
	"git.home.luguber.info/inful/assetbuilder/internal/observability"
	"git.home.luguber.info/inful/assetbuilder/internal/styles"
	"git.home.luguber.info/inful/assetbuilder/internal/workspace"
)

// Collaborators are the external tools stages delegate to.
type Collaborators struct {
	Linter  lint.Linter
	Bundler bundler.Bundler
	Styles  styles.Compiler
}

// RunState carries the per-run snapshot and mutable results across stages.
type RunState struct {
	RunID     string
	Operation string
	Config    *config.Config
	Layout    workspace.Layout
	Tools     Collaborators
	Report    *RunReport
	Recorder  metrics.Recorder
	Observer  RunObserver
	// LintOutput receives the formatted lint report.
	LintOutput io.Writer
	// Revision is the source commit, if known.
	Revision string

	resolutions map[string]*manifest.Resolution
}

// NewRunState constructs a RunState for one run of cfg.
func NewRunState(cfg *config.Config, tools Collaborators, report *RunReport) *RunState {
	return &RunState{
		RunID:       report.RunID,
		Operation:   report.Operation,
		Config:      cfg,
		Layout:      cfg.Layout(),
		Tools:       tools,
		Report:      report,
		Recorder:    metrics.NoopRecorder{},
		Observer:    NoopObserver{},
		LintOutput:  io.Discard,
		resolutions: make(map[string]*manifest.Resolution),
	}
}

// Resolve returns the resolution of the named manifest. Each manifest is read
// from disk at most once per run; later calls see the same snapshot.
func (rs *RunState) Resolve(ctx context.Context, name string) (*manifest.Resolution, error) {
	if res, ok := rs.resolutions[name]; ok {
		return res, nil
	}
	m, ok := rs.Config.Sources.Manifest(name)
	if !ok {
		return nil, errors.ConfigError(fmt.Sprintf("unknown manifest %q", name)).Build()
	}
	res, err := manifest.Resolve(m)
	if err != nil {
		return nil, err
	}
	if len(res.Duplicates) > 0 {
		msg := fmt.Sprintf("manifest %s declares entries more than once: %s", name, strings.Join(res.Duplicates, ", "))
		observability.WarnContext(ctx, "Duplicate manifest entries",
			logfields.Manifest(name), logfields.Count(len(res.Duplicates)))
		rs.Report.AddIssue(IssueDuplicateEntry, StageName(observability.GetContext(ctx).Stage), SeverityWarning, msg, false,
			errors.ConfigError(msg).Warning().Build())
	}
	rs.resolutions[name] = res
	return res, nil
}
