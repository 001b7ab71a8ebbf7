package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/tradesim"
	"github.com/etnz/tradesim/renderer"
	"github.com/google/subcommands"
)

type marketCmd struct {
	query string
}

func (*marketCmd) Name() string     { return "market" }
func (*marketCmd) Synopsis() string { return "list the stocks of the sandbox market" }
func (*marketCmd) Usage() string {
	return `market [-q <text>]

  Lists the catalog of the sandbox market at its opening prices.
`
}

func (c *marketCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.query, "q", "", "only stocks whose ticker or name contains this text")
}

func (c *marketCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	m, err := tradesim.NewMarket(tradesim.Catalog())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating the market: %v\n", err)
		return subcommands.ExitFailure
	}
	instruments := m.Instruments()
	if c.query != "" {
		instruments = m.Search(c.query, m.Len())
	}
	printMarkdown(renderer.RenderMarket(instruments))
	return subcommands.ExitSuccess
}
