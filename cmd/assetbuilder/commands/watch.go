package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/assetbuilder/internal/build"
	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/metrics"
	"git.home.luguber.info/inful/assetbuilder/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Task string `help:"Operation re-run on change: compile or build (default from watch.task)" placeholder:"compile|build"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	op, err := watchOperation(w.Task)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s, err := openSession(ctx, root.Config, g.stdout())
	if err != nil {
		return err
	}
	defer s.Close()

	opts, err := watch.OptionsFromConfig(s.cfg, op)
	if err != nil {
		return err
	}
	opts.Recorder = s.recorder

	controller, err := watch.New(s.executor, opts)
	if err != nil {
		return err
	}

	if s.registry != nil && s.cfg.Metrics.Listen != "" {
		srv := metrics.NewServer(s.cfg.Metrics.Listen, s.registry)
		if err := srv.Start(); err != nil {
			return errors.WrapError(err, errors.CategoryNetwork, "start metrics server").
				WithContext("listen", s.cfg.Metrics.Listen).
				Build()
		}
		defer srv.Shutdown()
	}

	return controller.Run(ctx)
}

func watchOperation(task string) (build.Operation, error) {
	if task == "" {
		return "", nil
	}
	op, err := build.ParseOperation(task)
	if err != nil {
		return "", err
	}
	if op != build.OpCompile && op != build.OpBuild {
		return "", errors.ValidationError("--task must be compile or build").WithContext("task", task).Build()
	}
	return op, nil
}
