package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/tradesim"
	"github.com/etnz/tradesim/cmd"
	"github.com/etnz/tradesim/docs"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

func main() {
	completion().Complete("tradesim")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// completion describes the command line for shell completion. Install it
// with COMP_INSTALL=1 tradesim.
func completion() *complete.Command {
	var tickers predict.Set
	for _, in := range tradesim.Catalog() {
		tickers = append(tickers, in.Ticker)
	}
	topics, _ := docs.GetAllTopics()

	return &complete.Command{
		Flags: map[string]complete.Predictor{
			"config":    predict.Dirs("*"),
			"log-level": predict.Set{"debug", "info", "warn", "error"},
		},
		Sub: map[string]*complete.Command{
			"serve":   {Flags: map[string]complete.Predictor{"addr": predict.Nothing}},
			"market":  {Flags: map[string]complete.Predictor{"q": predict.Nothing}},
			"history": {Flags: map[string]complete.Predictor{"t": tickers, "seed": predict.Nothing}},
			"play":    {Flags: map[string]complete.Predictor{"name": predict.Nothing, "live": predict.Nothing}},
			"topic":   {Flags: map[string]complete.Predictor{"l": predict.Nothing}, Args: predict.Set(topics)},
		},
	}
}
