package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/etnz/tradesim"
	"github.com/etnz/tradesim/renderer"
	"github.com/google/subcommands"
)

type historyCmd struct {
	ticker string
	seed   uint64
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "display a synthetic price history" }
func (*historyCmd) Usage() string {
	return `history -t <ticker> [-seed <n>]

  Displays a synthetic daily price history of a stock, ending today at its
  opening price.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ticker, "t", "", "stock ticker")
	f.Uint64Var(&c.seed, "seed", 0, "random seed, 0 for a different history each time")
}

func (c *historyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.ticker == "" {
		fmt.Fprintln(os.Stderr, "-t must be provided")
		return subcommands.ExitUsageError
	}
	m, err := tradesim.NewMarket(tradesim.Catalog())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating the market: %v\n", err)
		return subcommands.ExitFailure
	}
	in, ok := m.Get(c.ticker)
	if !ok {
		fmt.Fprintf(os.Stderr, "%q is not traded in the sandbox market\n", c.ticker)
		return subcommands.ExitFailure
	}

	r := tradesim.GlobalRand
	if c.seed != 0 {
		r = tradesim.NewRand(c.seed)
	}
	history := tradesim.SyntheticHistory(in.Price, time.Now(), r)
	printMarkdown(renderer.RenderQuote(in, history, nil))
	return subcommands.ExitSuccess
}
