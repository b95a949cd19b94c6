package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/assetbuilder/internal/config"
)

// Global carries state shared by every subcommand.
type Global struct {
	Logger *slog.Logger
	// Stdout receives reports and listings; nil means os.Stdout.
	Stdout io.Writer
	// Stderr receives log output; nil means os.Stderr.
	Stderr io.Writer
}

func (g *Global) stdout() io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

func (g *Global) stderr() io.Writer {
	if g == nil || g.Stderr == nil {
		return os.Stderr
	}
	return g.Stderr
}

// CLI definition & global flags.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path" default:"assetbuilder.yaml"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log output format (text or json)" enum:"text,json" default:"text"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Lint    LintCmd    `cmd:"" help:"Lint script sources; fails on error findings"`
	Clean   CleanCmd   `cmd:"" help:"Remove the output tree"`
	Compile CompileCmd `cmd:"" help:"Lint, concatenate, stage modules, bundle, copy static assets and compile styles"`
	Build   BuildCmd   `cmd:"" help:"Clean, then compile"`
	Watch   WatchCmd   `cmd:"" help:"Run once, then re-run on every source change"`
	Stage   StageCmd   `cmd:"" help:"Run a single stage by name"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
	History HistoryCmd `cmd:"" help:"List recorded runs"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply(g *Global) error {
	logger := NewLogger(g.stderr(), config.NormalizeLogFormat(c.LogFormat), c.Verbose)
	slog.SetDefault(logger)
	g.Logger = logger
	return nil
}

// NewLogger builds the process logger. ASSETBUILDER_LOG_LEVEL, when set to a
// known level, takes precedence over the verbose flag.
func NewLogger(w io.Writer, format config.LogFormat, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	if lvl, ok := config.ParseLogLevel(os.Getenv(config.EnvLogLevel)); ok {
		level = lvl
	}
	opts := &slog.HandlerOptions{Level: level}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
