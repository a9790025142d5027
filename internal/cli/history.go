package cli

import (
	"context"
	"flag"

	"github.com/google/subcommands"
)

type historyCmd struct {
	app *App
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "list recorded purchases" }
func (*historyCmd) Usage() string {
	return `stacker history

  Lists every purchase in the order it was recorded.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {}

func (c *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.app.withEnv(ctx, func(env *Env) subcommands.ExitStatus {
		records, err := env.Store.ListAll(ctx)
		if err != nil {
			c.app.errorf("Error: %v\n", err)
			return subcommands.ExitFailure
		}
		c.app.printMarkdown(historyMarkdown(records, env.Config.Quote.Fiat, env.Config.Quote.Unit))
		return subcommands.ExitSuccess
	})
}
