package watch

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/assetbuilder/internal/build"
	"git.home.luguber.info/inful/assetbuilder/internal/build/models"
	"git.home.luguber.info/inful/assetbuilder/internal/config"
	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
	"git.home.luguber.info/inful/assetbuilder/internal/metrics"
)

// Run triggers.
const (
	TriggerInitial = "initial"
	TriggerChange  = "change"
	TriggerPending = "pending"
)

// Runner executes one pipeline operation. *build.Executor satisfies it.
type Runner interface {
	Run(ctx context.Context, op build.Operation) (*models.RunReport, error)
}

// Options configures a Controller.
type Options struct {
	Operation build.Operation
	// Paths are the directory trees watched recursively.
	Paths    []string
	Filter   Filter
	Debounce time.Duration
	MaxDelay time.Duration
	// RebuildEvery schedules periodic runs; zero disables.
	RebuildEvery time.Duration
	Recorder     metrics.Recorder
}

// OptionsFromConfig derives controller options from cfg. An empty op uses
// the configured watch task.
func OptionsFromConfig(cfg *config.Config, op build.Operation) (Options, error) {
	if op == "" {
		parsed, err := build.ParseOperation(cfg.Watch.Task)
		if err != nil {
			return Options{}, err
		}
		op = parsed
	}
	return Options{
		Operation:    op,
		Paths:        cfg.Watch.Paths,
		Filter:       Filter{Excluded: []string{cfg.Paths.Output}},
		Debounce:     cfg.Watch.DebounceDuration(),
		MaxDelay:     cfg.Watch.MaxDelayDuration(),
		RebuildEvery: cfg.Watch.RebuildInterval(),
	}, nil
}

// Controller re-runs an operation whenever watched sources change.
//
// Runs never overlap. Requests arriving while a run is in progress set a
// single pending flag, so any number of them yields exactly one follow-up run.
type Controller struct {
	runner Runner
	opts   Options

	mu      sync.Mutex
	running bool
	pending bool
	wg      sync.WaitGroup
}

// New creates a Controller for runner.
func New(runner Runner, opts Options) (*Controller, error) {
	if runner == nil {
		return nil, errors.ValidationError("runner is required").Build()
	}
	if opts.Operation == "" {
		return nil, errors.ValidationError("operation is required").Build()
	}
	if len(opts.Paths) == 0 {
		return nil, errors.ValidationError("at least one watch path is required").Build()
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	return &Controller{runner: runner, opts: opts}, nil
}

// Run performs the initial run, then watches until ctx is done. On return the
// in-flight run, if any, has finished.
func (c *Controller) Run(ctx context.Context) error {
	debouncer, err := NewDebouncer(c.opts.Debounce, c.opts.MaxDelay)
	if err != nil {
		return err
	}

	watcher, err := c.setupWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	c.Request(ctx, TriggerInitial)

	if c.opts.RebuildEvery > 0 {
		scheduler, err := NewScheduler()
		if err != nil {
			return errors.WrapError(err, errors.CategoryWatch, "create rebuild scheduler").Build()
		}
		if _, err := scheduler.SchedulePeriodicRebuild(c.opts.RebuildEvery, func(trigger string) {
			c.Request(ctx, trigger)
		}); err != nil {
			return errors.WrapError(err, errors.CategoryWatch, "schedule periodic rebuild").Build()
		}
		scheduler.Start()
		defer func() {
			if err := scheduler.Stop(); err != nil {
				slog.Warn("Scheduler shutdown error", logfields.Error(err))
			}
		}()
	}

	go debouncer.Run(ctx, func(cause string) {
		slog.Debug("Change burst settled", slog.String("cause", cause))
		c.Request(ctx, TriggerChange)
	})

	slog.Info("Watching for changes",
		logfields.Operation(string(c.opts.Operation)),
		logfields.Count(len(c.opts.Paths)))

	err = c.loop(ctx, watcher, debouncer)
	slog.Info("Stopping watch; waiting for in-flight run")
	c.Wait()
	return err
}

func (c *Controller) setupWatcher() (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryWatch, "create filesystem watcher").Build()
	}
	watched := 0
	for _, root := range c.opts.Paths {
		st, statErr := os.Stat(root)
		if statErr != nil || !st.IsDir() {
			slog.Warn("Watch path is not a directory; skipping", logfields.Path(root))
			continue
		}
		if err := addDirsRecursive(watcher, root, c.opts.Filter); err != nil {
			_ = watcher.Close()
			return nil, errors.WrapError(err, errors.CategoryWatch, "watch "+root).WithFile(root).Build()
		}
		watched++
	}
	if watched == 0 {
		_ = watcher.Close()
		return nil, errors.WatchError("none of the watch paths exist").
			WithContext("paths", c.opts.Paths).
			Build()
	}
	return watcher, nil
}

func (c *Controller) loop(ctx context.Context, watcher *fsnotify.Watcher, debouncer *Debouncer) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			c.handleEvent(watcher, ev, debouncer)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (c *Controller) handleEvent(watcher *fsnotify.Watcher, ev fsnotify.Event, debouncer *Debouncer) {
	if c.opts.Filter.Ignore(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(watcher, ev.Name, c.opts.Filter)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), logfields.Event(ev.Op.String()))
	c.opts.Recorder.IncWatchEvents(1)
	debouncer.Trigger()
}

// Request asks for a run. If one is in progress the request is folded into
// the single pending follow-up. It never blocks.
func (c *Controller) Request(ctx context.Context, trigger string) {
	if ctx.Err() != nil {
		return
	}
	c.mu.Lock()
	if c.running {
		c.pending = true
		c.mu.Unlock()
		return
	}
	c.running = true
	c.wg.Add(1)
	c.mu.Unlock()

	go c.runLoop(ctx, trigger)
}

// Wait blocks until no run is in progress.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) runLoop(ctx context.Context, trigger string) {
	defer c.wg.Done()
	for {
		c.execute(ctx, trigger)

		c.mu.Lock()
		if !c.pending || ctx.Err() != nil {
			c.running = false
			c.pending = false
			c.mu.Unlock()
			return
		}
		c.pending = false
		c.mu.Unlock()
		trigger = TriggerPending
	}
}

// execute runs the operation to completion; shutdown does not interrupt it.
func (c *Controller) execute(ctx context.Context, trigger string) {
	c.opts.Recorder.IncWatchRuns(trigger)
	slog.Info("Starting run", logfields.Operation(string(c.opts.Operation)), slog.String("trigger", trigger))

	report, err := c.runner.Run(context.WithoutCancel(ctx), c.opts.Operation)
	if err == nil {
		if report != nil {
			slog.Info("Run complete", logfields.RunID(report.RunID), logfields.Outcome(string(report.Outcome)))
		}
		return
	}

	attrs := []any{logfields.Error(err)}
	if report != nil {
		attrs = append(attrs, logfields.RunID(report.RunID))
	}
	var se *models.StageError
	if stdErrors.As(err, &se) {
		attrs = append(attrs, logfields.Stage(string(se.Stage)))
	}
	attrs = append(attrs, slog.String("category", string(errors.CategoryOf(err))))
	if ce, ok := errors.AsClassified(err); ok && ce.Location() != "" {
		attrs = append(attrs, logfields.File(ce.Location()))
	}
	slog.Error("Run failed; still watching", attrs...)
}
