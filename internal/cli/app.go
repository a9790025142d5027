// Package cli implements the stacker command line: recording purchases,
// browsing the ledger and watching live totals.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"stacker/internal/config"
	"stacker/internal/database"
	"stacker/internal/ledger"
	"stacker/internal/logging"
	"stacker/internal/portfolio"
	"stacker/internal/pricesync"
	"stacker/internal/quote"
)

// App carries what every command needs. Commands open their own Env.
type App struct {
	ConfigDir string
	Plain     bool // print raw markdown instead of styled output
	In        io.Reader
	Out       io.Writer
	Err       io.Writer
}

// Env is the wired application for one command run.
type Env struct {
	Config  config.Config
	Logger  *slog.Logger
	Repo    database.Repository
	Store   *ledger.Store
	Syncer  *pricesync.Syncer
	Tracker *portfolio.Tracker
}

// Open loads the configuration and wires storage, quote source, syncer and tracker.
func (a *App) Open(ctx context.Context) (*Env, error) {
	cfg, err := config.LoadConfig(a.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("cannot load config: %w", err)
	}
	logger, err := logging.New(cfg.Log, a.Err)
	if err != nil {
		return nil, err
	}
	repo, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("cannot open ledger: %w", err)
	}
	fetcher, err := quote.NewFetcher(logger, cfg.Quote)
	if err != nil {
		repo.Close()
		return nil, err
	}

	store := ledger.NewStore(logger, repo)
	syncer := pricesync.NewSyncer(logger, fetcher, cfg.Quote.Interval)
	return &Env{
		Config:  cfg,
		Logger:  logger,
		Repo:    repo,
		Store:   store,
		Syncer:  syncer,
		Tracker: portfolio.NewTracker(logger, store, syncer),
	}, nil
}

// Close releases the storage.
func (e *Env) Close() error {
	return e.Repo.Close()
}

// Register the subcommands.
func Register(c *subcommands.Commander, app *App) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")

	c.Register(&stackCmd{app: app}, "ledger")
	c.Register(&addCmd{app: app}, "ledger")
	c.Register(&deleteCmd{app: app}, "ledger")
	c.Register(&historyCmd{app: app}, "ledger")

	c.Register(&totalsCmd{app: app}, "price")
	c.Register(&watchCmd{app: app}, "price")
}

// withEnv opens an Env, runs fn and closes the Env.
func (a *App) withEnv(ctx context.Context, fn func(env *Env) subcommands.ExitStatus) subcommands.ExitStatus {
	env, err := a.Open(ctx)
	if err != nil {
		a.errorf("Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer env.Close()
	return fn(env)
}

func (a *App) errorf(format string, args ...any) {
	fmt.Fprintf(a.Err, format, args...)
}

// printMarkdown renders md to the terminal, or writes it as is in plain mode.
func (a *App) printMarkdown(md string) {
	if a.Plain {
		fmt.Fprint(a.Out, md)
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		fmt.Fprint(a.Out, md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Fprint(a.Out, md)
		return
	}
	fmt.Fprint(a.Out, out)
}
