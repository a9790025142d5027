package cli

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"

	"stacker/internal/ledger"
)

// addCmd imports a purchase made elsewhere, with amounts known up front.
type addCmd struct {
	app   *App
	fiat  string
	asset string
	at    string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "record a purchase with explicit amounts" }
func (*addCmd) Usage() string {
	return `stacker add -fiat <amount> -asset <amount> [-at <RFC3339 time>]

  Records a purchase without fetching a price, e.g. to import past purchases.

Usage Examples:
$ stacker add -fiat 100 -asset 0.002 -at 2024-03-01T10:00:00Z
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.fiat, "fiat", "", "fiat amount spent")
	f.StringVar(&c.asset, "asset", "", "asset amount received")
	f.StringVar(&c.at, "at", "", "purchase time (RFC3339), defaults to now")
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fiat, err := ledger.ParseAmount("fiat amount", c.fiat)
	if err != nil {
		c.app.errorf("Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	asset, err := ledger.ParseAmount("asset amount", c.asset)
	if err != nil {
		c.app.errorf("Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	var ts time.Time
	if c.at != "" {
		if ts, err = time.Parse(time.RFC3339, c.at); err != nil {
			c.app.errorf("Error: invalid time %q: %v\n", c.at, err)
			return subcommands.ExitUsageError
		}
	}

	return c.app.withEnv(ctx, func(env *Env) subcommands.ExitStatus {
		p, err := env.Store.Insert(ctx, fiat, asset, ts)
		if err != nil {
			c.app.errorf("Error: could not record purchase: %v\n", err)
			return subcommands.ExitFailure
		}
		qc := env.Config.Quote
		fmt.Fprintf(c.app.Out, "Recorded #%d: %s -> %s\n", p.ID, formatFiat(p.FiatAmount, qc.Fiat), formatAsset(p.AssetAmount, qc.Unit))
		return subcommands.ExitSuccess
	})
}
