package cli

import (
	"context"
	"flag"

	"github.com/google/subcommands"
)

type totalsCmd struct {
	app *App
}

func (*totalsCmd) Name() string     { return "totals" }
func (*totalsCmd) Synopsis() string { return "show the ledger valued at the current price" }
func (*totalsCmd) Usage() string {
	return `stacker totals

  Fetches the current price once and prints the history with running totals.
  A failed fetch is reported in place of the price; totals stay available.
`
}

func (c *totalsCmd) SetFlags(f *flag.FlagSet) {}

func (c *totalsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.app.withEnv(ctx, func(env *Env) subcommands.ExitStatus {
		// the error is part of the price state rendered below
		_, _ = env.Syncer.Refresh(ctx)

		snap, err := env.Tracker.Current(ctx)
		if err != nil {
			c.app.errorf("Error: %v\n", err)
			return subcommands.ExitFailure
		}
		c.app.printMarkdown(reportMarkdown(snap, env.Config.Quote.Fiat, env.Config.Quote.Unit))
		return subcommands.ExitSuccess
	})
}
