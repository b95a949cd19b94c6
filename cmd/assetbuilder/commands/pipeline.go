package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/assetbuilder/internal/build"
	"git.home.luguber.info/inful/assetbuilder/internal/build/stages"
)

// LintCmd implements the 'lint' command.
type LintCmd struct{}

func (c *LintCmd) Run(g *Global, root *CLI) error { return RunOperation(g, root, build.OpLint) }

// CleanCmd implements the 'clean' command.
type CleanCmd struct{}

func (c *CleanCmd) Run(g *Global, root *CLI) error { return RunOperation(g, root, build.OpClean) }

// CompileCmd implements the 'compile' command.
type CompileCmd struct{}

func (c *CompileCmd) Run(g *Global, root *CLI) error { return RunOperation(g, root, build.OpCompile) }

// BuildCmd implements the 'build' command.
type BuildCmd struct{}

func (c *BuildCmd) Run(g *Global, root *CLI) error { return RunOperation(g, root, build.OpBuild) }

// StageCmd implements the 'stage' command.
type StageCmd struct {
	Name string `arg:"" help:"Stage to run: lint, clean, concat, stage-modules, bundle, static or styles"`
}

func (c *StageCmd) Run(g *Global, root *CLI) error {
	stage, err := stages.ParseStageName(c.Name)
	if err != nil {
		return err
	}
	return RunOperation(g, root, build.OperationForStage(stage))
}

// RunOperation executes op once and prints the run summary.
func RunOperation(g *Global, root *CLI, op build.Operation) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s, err := openSession(ctx, root.Config, g.stdout())
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := s.executor.Run(ctx, op)
	if report != nil {
		_, _ = fmt.Fprintln(g.stdout(), report.Summary())
	}
	return err
}
