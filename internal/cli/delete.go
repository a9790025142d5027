package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"

	"github.com/google/subcommands"

	"stacker/internal/ledger"
)

type deleteCmd struct {
	app *App
}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "remove a purchase from the ledger" }
func (*deleteCmd) Usage() string {
	return `stacker delete <id>

  Removes the purchase with the given id (see 'stacker history').
`
}

func (c *deleteCmd) SetFlags(f *flag.FlagSet) {}

func (c *deleteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		c.app.errorf("Error: expected exactly one purchase id\n")
		return subcommands.ExitUsageError
	}
	id, err := strconv.ParseInt(f.Arg(0), 10, 64)
	if err != nil {
		c.app.errorf("Error: invalid purchase id %q\n", f.Arg(0))
		return subcommands.ExitUsageError
	}

	return c.app.withEnv(ctx, func(env *Env) subcommands.ExitStatus {
		err := env.Store.Delete(ctx, id)
		switch {
		case errors.Is(err, ledger.ErrNotFound):
			c.app.errorf("Error: no purchase with id %d\n", id)
			return subcommands.ExitFailure
		case err != nil:
			c.app.errorf("Error: could not delete purchase: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Fprintf(c.app.Out, "Deleted #%d\n", id)
		return subcommands.ExitSuccess
	})
}
