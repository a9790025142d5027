package cli

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"strings"
	"sync"

	"github.com/google/subcommands"
)

type watchCmd struct {
	app *App
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "keep the price in sync and show live totals" }
func (*watchCmd) Usage() string {
	return `stacker watch

  Fetches the price at startup and then on the configured interval, and
  prints the report every time the price or the ledger changes.
  Type 'r' and Enter to retry the price now, 'q' and Enter (or Ctrl-C) to quit.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {}

func (c *watchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.app.withEnv(ctx, func(env *Env) subcommands.ExitStatus {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		snaps, cancelSnaps := env.Tracker.Subscribe(1)
		defer cancelSnaps()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			env.Syncer.Run(ctx)
		}()
		go func() {
			defer wg.Done()
			env.Tracker.Run(ctx)
		}()

		if c.app.In != nil {
			// not joined: a blocked read on stdin cannot be interrupted
			go c.readCommands(ctx, cancel, env)
		}

		qc := env.Config.Quote
		for {
			select {
			case <-ctx.Done():
				wg.Wait()
				return subcommands.ExitSuccess
			case snap, ok := <-snaps:
				if !ok {
					snaps = nil
					continue
				}
				c.app.printMarkdown(reportMarkdown(snap, qc.Fiat, qc.Unit))
				fmt.Fprintln(c.app.Out, "\n(r) retry price  (q) quit")
			}
		}
	})
}

func (c *watchCmd) readCommands(ctx context.Context, cancel context.CancelFunc, env *Env) {
	scanner := bufio.NewScanner(c.app.In)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "r":
			env.Logger.Info("Manual price retry requested")
			env.Syncer.Trigger()
		case "q":
			cancel()
			return
		}
	}
}
