package main

import (
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/assetbuilder/cmd/assetbuilder/commands"
	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/version"
)

func main() {
	global := &commands.Global{}
	cli, err := run(os.Args[1:], global)
	if err != nil {
		errors.NewCLIErrorAdapter(cli.Verbose, global.Logger).HandleError(err)
	}
}

// run parses args and executes the selected command.
func run(args []string, global *commands.Global) (*commands.CLI, error) {
	cli := &commands.CLI{}
	parser, err := kong.New(cli,
		kong.Name("assetbuilder"),
		kong.Description("Front-end build orchestrator: lint, concatenate, bundle, compile styles and watch."),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)
	if err != nil {
		return cli, errors.WrapError(err, errors.CategoryInternal, "build command line parser").Build()
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		return cli, errors.WrapError(err, errors.CategoryValidation, "invalid arguments").
			WithContext("hint", "run 'assetbuilder --help' for usage").
			Build()
	}
	return cli, kctx.Run(cli)
}
