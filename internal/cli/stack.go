package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"stacker/internal/ledger"
)

// stackCmd buys at the current price.
type stackCmd struct {
	app *App
}

func (*stackCmd) Name() string     { return "stack" }
func (*stackCmd) Synopsis() string { return "record a purchase at the current price" }
func (*stackCmd) Usage() string {
	return `stacker stack <fiat amount>

  Fetches the current price, converts the fiat amount into the asset at that
  price and records the purchase. The converted amount never changes afterwards.

Usage Examples:
$ stacker stack 100
`
}

func (c *stackCmd) SetFlags(f *flag.FlagSet) {}

func (c *stackCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		c.app.errorf("Error: expected exactly one fiat amount\n")
		return subcommands.ExitUsageError
	}
	fiat, err := ledger.ParseAmount("fiat amount", f.Arg(0))
	if err != nil {
		c.app.errorf("Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	return c.app.withEnv(ctx, func(env *Env) subcommands.ExitStatus {
		q, err := env.Syncer.Refresh(ctx)
		if err != nil {
			c.app.errorf("Error: %v: %v\n", ledger.ErrPriceUnavailable, err)
			return subcommands.ExitFailure
		}

		p, err := env.Store.Purchase(ctx, fiat, q.Price)
		if err != nil {
			c.app.errorf("Error: could not record purchase: %v\n", err)
			return subcommands.ExitFailure
		}

		qc := env.Config.Quote
		fmt.Fprintf(c.app.Out, "Recorded #%d: %s -> %s at %s\n",
			p.ID, formatFiat(p.FiatAmount, qc.Fiat), formatAsset(p.AssetAmount, qc.Unit), formatFiat(q.Price, qc.Fiat))
		return subcommands.ExitSuccess
	})
}
