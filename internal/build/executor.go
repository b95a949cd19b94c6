package build

import (
	"context"
	stdErrors "errors"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"git.home.luguber.info/inful/assetbuilder/internal/build/models"
	"git.home.luguber.info/inful/assetbuilder/internal/build/stages"
	"git.home.luguber.info/inful/assetbuilder/internal/bundler"
	"git.home.luguber.info/inful/assetbuilder/internal/config"
	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/git"
	"git.home.luguber.info/inful/assetbuilder/internal/lint"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
	"git.home.luguber.info/inful/assetbuilder/internal/metrics"
	"git.home.luguber.info/inful/assetbuilder/internal/observability"
	"git.home.luguber.info/inful/assetbuilder/internal/styles"
)

// RunSink receives every finished run report (history store, notifier).
type RunSink interface {
	RunCompleted(ctx context.Context, report *models.RunReport) error
}

// SinkFunc adapts a function to RunSink.
type SinkFunc func(ctx context.Context, report *models.RunReport) error

// RunCompleted calls f.
func (f SinkFunc) RunCompleted(ctx context.Context, report *models.RunReport) error {
	return f(ctx, report)
}

// RevisionFunc resolves the source revision of a directory.
type RevisionFunc func(dir string) (string, error)

// Executor runs pipeline operations against one configuration.
type Executor struct {
	mu sync.Mutex

	cfg        *config.Config
	tools      models.Collaborators
	recorder   metrics.Recorder
	observer   models.RunObserver
	lintOutput io.Writer
	sinks      []RunSink
	revision   RevisionFunc
}

// NewExecutor creates an Executor with collaborators selected by cfg.
func NewExecutor(cfg *config.Config) (*Executor, error) {
	if cfg == nil {
		return nil, errors.ConfigError("config required").Build()
	}
	linter, err := lint.New(cfg.Lint.Engine, cfg.Lint.ESLintBinary, cfg.BaseDir)
	if err != nil {
		return nil, err
	}
	compiler, err := styles.New(cfg.Styles.Compiler, cfg.Styles.SassBinary, cfg.Styles.LoadPaths...)
	if err != nil {
		return nil, err
	}
	return &Executor{
		cfg: cfg,
		tools: models.Collaborators{
			Linter:  linter,
			Bundler: bundler.New(),
			Styles:  compiler,
		},
		recorder:   metrics.NoopRecorder{},
		lintOutput: io.Discard,
		revision:   git.Revision,
	}, nil
}

// WithLinter replaces the lint engine (for testing).
func (e *Executor) WithLinter(l lint.Linter) *Executor {
	e.tools.Linter = l
	return e
}

// WithBundler replaces the bundler (for testing).
func (e *Executor) WithBundler(b bundler.Bundler) *Executor {
	e.tools.Bundler = b
	return e
}

// WithStyleCompiler replaces the style compiler.
func (e *Executor) WithStyleCompiler(c styles.Compiler) *Executor {
	e.tools.Styles = c
	return e
}

// WithRecorder sets the metrics recorder.
func (e *Executor) WithRecorder(r metrics.Recorder) *Executor {
	if r != nil {
		e.recorder = r
	}
	return e
}

// WithObserver adds an observer in front of the metrics observer.
func (e *Executor) WithObserver(o models.RunObserver) *Executor {
	e.observer = o
	return e
}

// WithLintOutput sets where lint reports are written.
func (e *Executor) WithLintOutput(w io.Writer) *Executor {
	if w != nil {
		e.lintOutput = w
	}
	return e
}

// WithSink registers a consumer of finished run reports.
func (e *Executor) WithSink(s RunSink) *Executor {
	e.sinks = append(e.sinks, s)
	return e
}

// WithRevisionFunc overrides source revision lookup.
func (e *Executor) WithRevisionFunc(fn RevisionFunc) *Executor {
	e.revision = fn
	return e
}

// Config returns the configuration the executor runs against.
func (e *Executor) Config() *config.Config { return e.cfg }

// Pipeline returns the stage definitions of op. Aggregate sequences are
// checked so every stage runs after the stages it depends on.
func (e *Executor) Pipeline(op Operation) ([]models.StageDef, error) {
	if _, ok := operationStages[op]; !ok {
		return nil, errors.ValidationError("unknown operation " + string(op)).Build()
	}
	p := models.NewPipeline()
	for _, name := range op.Stages() {
		def, ok := stages.Definition(name)
		if !ok {
			return nil, errors.InternalError("no definition for stage " + string(name)).Build()
		}
		p.Add(def)
	}
	defs := p.Build()
	if op.Aggregate() {
		if err := models.ValidateOrder(defs); err != nil {
			return nil, errors.WrapError(err, errors.CategoryInternal, "invalid pipeline for "+string(op)).Build()
		}
	}
	return defs, nil
}

// Run executes op. Runs are serialized; a call blocks while another run is in
// progress. The report is returned even when the run fails.
func (e *Executor) Run(ctx context.Context, op Operation) (*models.RunReport, error) {
	defs, err := e.Pipeline(op)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	runID := uuid.NewString()
	ctx = observability.WithRunID(ctx, runID)
	ctx = observability.WithOperation(ctx, string(op))
	ctx, span := observability.StartSpan(ctx, "run "+string(op))

	report := models.NewRunReport(runID, string(op))
	rs := models.NewRunState(e.cfg, e.tools, report)
	rs.Recorder = e.recorder
	rs.Observer = e.runObserver()
	rs.LintOutput = e.lintOutput
	rs.Revision = e.lookupRevision(ctx)
	report.Revision = rs.Revision

	observability.InfoContext(ctx, "Run started", logfields.Count(len(defs)))
	runErr := stages.RunStages(ctx, rs, defs)

	report.Finish()
	report.DeriveOutcome()
	rs.Observer.OnRunComplete(report)
	e.persist(ctx, report)
	e.notify(ctx, report)

	span.SetAttributes(attribute.String("run.outcome", string(report.Outcome)))
	observability.EndSpan(span, runErr)

	attrs := []slog.Attr{
		logfields.Outcome(string(report.Outcome)),
		logfields.DurationMS(float64(report.Duration().Microseconds()) / 1000),
	}
	if runErr != nil {
		observability.ErrorContext(ctx, "Run failed", append(attrs, logfields.Error(runErr))...)
	} else {
		observability.InfoContext(ctx, "Run finished", attrs...)
	}
	return report, runErr
}

func (e *Executor) runObserver() models.RunObserver {
	rec := models.RecorderObserver{Recorder: e.recorder}
	if e.observer == nil {
		return rec
	}
	return models.MultiObserver{e.observer, rec}
}

func (e *Executor) lookupRevision(ctx context.Context) string {
	if e.revision == nil {
		return ""
	}
	rev, err := e.revision(e.cfg.BaseDir)
	if err != nil {
		if !stdErrors.Is(err, git.ErrNotRepository) {
			observability.DebugContext(ctx, "Source revision unavailable", logfields.Error(err))
		}
		return ""
	}
	return rev
}

func (e *Executor) persist(ctx context.Context, report *models.RunReport) {
	if e.cfg.Paths.Report == "" {
		return
	}
	if err := report.Persist(e.cfg.Paths.Report); err != nil {
		observability.WarnContext(ctx, "Failed to persist run report",
			logfields.Path(e.cfg.Paths.Report), logfields.Error(err))
	}
}

func (e *Executor) notify(ctx context.Context, report *models.RunReport) {
	for _, s := range e.sinks {
		if err := s.RunCompleted(ctx, report); err != nil {
			observability.WarnContext(ctx, "Run sink failed", logfields.Error(err))
		}
	}
}
