package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/handbook/cmd/handbook/commands"
	herrors "git.home.luguber.info/inful/handbook/internal/errors"
	"git.home.luguber.info/inful/handbook/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run parses args, executes the selected command and returns the exit
// status.
func run(args []string) int {
	var cli commands.CLI
	global := &commands.Global{Logger: slog.Default()}

	parser, err := kong.New(&cli,
		kong.Name("handbook"),
		kong.Description("Build, check and preview a documentation handbook."),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
		kong.UsageOnError(),
	)
	if err != nil {
		slog.Error("CLI setup failed", "error", err)
		return 1
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		parser.Errorf("%s", err)
		return 1
	}

	err = ctx.Run(global, &cli)
	var exit *commands.ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	return herrors.NewCLIErrorAdapter(cli.Verbose, global.Logger).Handle(err)
}
