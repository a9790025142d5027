package cli

import (
	"bytes"
	"context"
	"flag"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEnv points the app at a temp SQLite file and a fake quote service.
type testEnv struct {
	app    *App
	out    *bytes.Buffer
	errOut *bytes.Buffer
	status atomic.Int32
	price  atomic.Value
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	te := &testEnv{out: &bytes.Buffer{}, errOut: &bytes.Buffer{}}
	te.status.Store(http.StatusOK)
	te.price.Store("50000")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if code := int(te.status.Load()); code != http.StatusOK {
			http.Error(w, "unavailable", code)
			return
		}
		_, _ = io.WriteString(w, `{"bitcoin":{"usd":`+te.price.Load().(string)+`}}`)
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	t.Setenv("STACKER_QUOTE_URL", srv.URL)
	t.Setenv("STACKER_DATABASE_PATH", filepath.Join(dir, "stacker.db"))
	t.Setenv("STACKER_LOG_LEVEL", "error")

	te.app = &App{ConfigDir: dir, Plain: true, Out: te.out, Err: te.errOut}
	return te
}

func (te *testEnv) run(ctx context.Context, args ...string) subcommands.ExitStatus {
	te.out.Reset()
	te.errOut.Reset()
	fs := flag.NewFlagSet("stacker", flag.ContinueOnError)
	commander := subcommands.NewCommander(fs, "stacker")
	Register(commander, te.app)
	if err := fs.Parse(args); err != nil {
		return subcommands.ExitUsageError
	}
	return commander.Execute(ctx)
}

func TestCommands_StackHistoryTotals(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()

	require.Equal(t, subcommands.ExitSuccess, te.run(ctx, "stack", "100"), te.errOut.String())
	assert.Contains(t, te.out.String(), "Recorded #1: $100.00 -> 0.00200000 BTC at $50,000.00")

	te.price.Store("25000")
	require.Equal(t, subcommands.ExitSuccess, te.run(ctx, "stack", "50"), te.errOut.String())
	assert.Contains(t, te.out.String(), "0.00200000 BTC")

	require.Equal(t, subcommands.ExitSuccess, te.run(ctx, "history"))
	assert.Contains(t, te.out.String(), "| 1 | $100.00 | 0.00200000 BTC |")
	assert.Contains(t, te.out.String(), "| 2 | $50.00 | 0.00200000 BTC |")

	te.price.Store("60000")
	require.Equal(t, subcommands.ExitSuccess, te.run(ctx, "totals"))
	assert.Contains(t, te.out.String(), "Current price: **$60,000.00**")
	assert.Contains(t, te.out.String(), "Total value: **$240.00**")
	assert.Contains(t, te.out.String(), "Total BTC: **0.00400000 BTC**")
}

func TestCommands_StackWithoutPrice(t *testing.T) {
	te := newTestEnv(t)
	te.status.Store(http.StatusInternalServerError)

	assert.Equal(t, subcommands.ExitFailure, te.run(context.Background(), "stack", "100"))
	assert.Contains(t, te.errOut.String(), "price unavailable")

	require.Equal(t, subcommands.ExitSuccess, te.run(context.Background(), "history"))
	assert.Contains(t, te.out.String(), "No purchases yet.")
}

func TestCommands_TotalsShowsFetchError(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()
	require.Equal(t, subcommands.ExitSuccess, te.run(ctx, "add", "-fiat", "100", "-asset", "0.002"))

	te.status.Store(http.StatusInternalServerError)
	require.Equal(t, subcommands.ExitSuccess, te.run(ctx, "totals"))
	out := te.out.String()
	assert.Contains(t, out, "Price unavailable")
	assert.Contains(t, out, "status 500")
	assert.Contains(t, out, "unknown until a price is available")
}

func TestCommands_ValidationAndDelete(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()

	assert.Equal(t, subcommands.ExitUsageError, te.run(ctx, "stack", "0"))
	assert.Contains(t, te.errOut.String(), "must be positive")

	assert.Equal(t, subcommands.ExitUsageError, te.run(ctx, "stack", "abc"))
	assert.Equal(t, subcommands.ExitUsageError, te.run(ctx, "add", "-fiat", "10"))
	assert.Equal(t, subcommands.ExitUsageError, te.run(ctx, "add", "-fiat", "10", "-asset", "1", "-at", "yesterday"))

	require.Equal(t, subcommands.ExitSuccess, te.run(ctx, "add", "-fiat", "10", "-asset", "0.5", "-at", "2024-03-01T10:00:00Z"))
	require.Equal(t, subcommands.ExitSuccess, te.run(ctx, "add", "-fiat", "20", "-asset", "0.25"))

	assert.Equal(t, subcommands.ExitFailure, te.run(ctx, "delete", "42"))
	assert.Contains(t, te.errOut.String(), "no purchase with id 42")
	assert.Equal(t, subcommands.ExitUsageError, te.run(ctx, "delete", "one"))

	require.Equal(t, subcommands.ExitSuccess, te.run(ctx, "delete", "1"))
	assert.Contains(t, te.out.String(), "Deleted #1")

	require.Equal(t, subcommands.ExitSuccess, te.run(ctx, "history"))
	assert.NotContains(t, te.out.String(), "| 1 |")
	assert.Contains(t, te.out.String(), "| 2 | $20.00 | 0.25000000 BTC |")
}

func TestCommands_Watch(t *testing.T) {
	te := newTestEnv(t)
	te.status.Store(http.StatusInternalServerError)

	// r retries the price, q quits
	in, w := io.Pipe()
	te.app.In = in
	out := &syncBuffer{}
	te.app.Out = out

	done := make(chan subcommands.ExitStatus, 1)
	go func() { done <- te.run(context.Background(), "watch") }()

	require.Eventually(t, func() bool { return strings.Contains(out.String(), "Price unavailable") },
		2*time.Second, 10*time.Millisecond)

	te.status.Store(http.StatusOK)
	te.price.Store("70000")
	_, err := io.WriteString(w, "r\n")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return strings.Contains(out.String(), "Current price: **$70,000.00**") },
		2*time.Second, 10*time.Millisecond)

	_, err = io.WriteString(w, "q\n")
	require.NoError(t, err)

	select {
	case status := <-done:
		assert.Equal(t, subcommands.ExitSuccess, status)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
	_ = w.Close()
}
