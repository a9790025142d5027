package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"stacker/internal/cli"
)

func main() {
	completion().Complete(path.Base(os.Args[0]))

	app := &cli.App{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
	flag.StringVar(&app.ConfigDir, "config", ".", "directory holding config.yaml")
	flag.BoolVar(&app.Plain, "plain", false, "print raw markdown")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	cli.Register(commander, app)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}

// completion describes the command line for shell completion (COMP_LINE).
func completion() *complete.Command {
	return &complete.Command{
		Flags: map[string]complete.Predictor{
			"config": predict.Dirs("*"),
			"plain":  predict.Nothing,
		},
		Sub: map[string]*complete.Command{
			"stack":   {Args: predict.Nothing},
			"delete":  {Args: predict.Nothing},
			"history": {},
			"totals":  {},
			"watch":   {},
			"add": {
				Flags: map[string]complete.Predictor{
					"fiat":  predict.Nothing,
					"asset": predict.Nothing,
					"at":    predict.Nothing,
				},
			},
			"help":     {},
			"flags":    {},
			"commands": {},
		},
	}
}
